package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Supported storage drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Supported LLM providers
const (
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"
)

type Config struct {
	Port        string
	Environment string
	CORSOrigins string
	TablePrefix string
	// Storage
	DatabaseDriver string
	DatabaseURL    string
	SQLitePath     string
	// Sessions
	JWTSecret    string
	SessionTTL   time.Duration
	CookieSecure bool
	// LLM Configuration
	LLMProvider   string
	GroqAPIKey    string
	GroqModel     string
	GroqBaseURL   string
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
	// Chat history
	HistoryOrder string // "asc" or "desc"
	HistoryLimit int    // 0 disables the cap
	// Observability
	MetricsEnabled bool
	LogDir         string
	LogMaxFiles    int
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix: getTablePrefix(env),
		// Storage
		DatabaseDriver: strings.ToLower(getEnv("DATABASE_DRIVER", DriverPostgres)),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		SQLitePath:     getEnv("SQLITE_PATH", "voicechat.db"),
		// Sessions
		JWTSecret:    getEnv("JWT_SECRET", ""),
		SessionTTL:   getDuration("SESSION_TTL", 7*24*time.Hour),
		CookieSecure: getBool("COOKIE_SECURE", env == "prod"),
		// LLM Configuration
		LLMProvider:   strings.ToLower(getEnv("LLM_PROVIDER", ProviderGroq)),
		GroqAPIKey:    getEnv("GROQ_API_KEY", ""),
		GroqModel:     getEnv("GROQ_MODEL", ""),
		GroqBaseURL:   getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", ""),
		GeminiBaseURL: getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		// Chat history
		HistoryOrder: strings.ToLower(getEnv("HISTORY_ORDER", "desc")),
		HistoryLimit: getInt("HISTORY_LIMIT", 50),
		// Observability
		MetricsEnabled: getBool("METRICS_ENABLED", true),
		LogDir:         getEnv("LOG_DIR", ""),
		LogMaxFiles:    getInt("LOG_MAX_FILES", 10),
	}
}

// Validate reports configuration that prevents the server from starting.
// A missing provider API key is not fatal: it is reported per request.
func (c *Config) Validate() error {
	var errs []error

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}

	switch c.DatabaseDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver))
	}

	switch c.LLMProvider {
	case ProviderGroq, ProviderGemini:
	default:
		errs = append(errs, fmt.Errorf("unsupported LLM_PROVIDER %q", c.LLMProvider))
	}

	if c.HistoryOrder != "asc" && c.HistoryOrder != "desc" {
		errs = append(errs, fmt.Errorf("HISTORY_ORDER must be asc or desc, got %q", c.HistoryOrder))
	}
	if c.HistoryLimit < 0 {
		errs = append(errs, errors.New("HISTORY_LIMIT cannot be negative"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}

	return errors.Join(errs...)
}

// ProviderAPIKey returns the API key of the active LLM provider.
func (c *Config) ProviderAPIKey() string {
	if c.LLMProvider == ProviderGemini {
		return c.GeminiAPIKey
	}
	return c.GroqAPIKey
}

// ProviderModel returns the configured model of the active LLM provider.
// Empty means the provider's catalog default.
func (c *Config) ProviderModel() string {
	if c.LLMProvider == ProviderGemini {
		return c.GeminiModel
	}
	return c.GroqModel
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
