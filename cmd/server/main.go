package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"voicechat/internal/auth"
	"voicechat/internal/capabilities"
	"voicechat/internal/config"
	"voicechat/internal/domain/repositories"
	"voicechat/internal/handler"
	"voicechat/internal/middleware"
	"voicechat/internal/repository"
	authService "voicechat/internal/service/auth"
	serviceLLM "voicechat/internal/service/llm"
	"voicechat/internal/service/llm/chat"
	"voicechat/internal/telemetry/metrics"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Setup structured logging
	logger, logCloser, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to setup logging: %v", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger) // Set as default logger

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
		"database_driver", cfg.DatabaseDriver,
		"llm_provider", cfg.LLMProvider,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open storage and apply migrations
	store, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}
	version, _ := store.SchemaVersion(ctx)
	logger.Info("database ready", "driver", store.Driver(), "schema_version", version)

	// Sessions
	tokenManager, err := auth.NewHMACTokenManager(cfg.JWTSecret, cfg.SessionTTL)
	if err != nil {
		log.Fatalf("Failed to create token manager: %v", err)
	}
	authSvc := authService.NewService(store.Users, tokenManager, auth.NewBcryptHasher(auth.DefaultBcryptCost), logger)

	// Initialize capability registry
	capabilityRegistry, err := capabilities.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to initialize capability registry: %v", err)
	}
	logger.Info("capability registry initialized", "providers", capabilityRegistry.GetAllProviders())

	// Setup LLM provider. A missing key is reported per request, not at startup.
	provider, err := serviceLLM.NewProviderFactory(cfg).Active()
	if err != nil {
		if !errors.Is(err, serviceLLM.ErrAPIKeyMissing) {
			log.Fatalf("Failed to setup LLM provider: %v", err)
		}
		logger.Warn("LLM provider API key not configured, chat requests will fail", "provider", cfg.LLMProvider, "error", err)
		provider = nil
	}

	collector := metrics.NewCollector(nil)

	chatSvc, err := chat.NewService(provider, capabilityRegistry, store.Chats, chat.Config{
		Provider: cfg.LLMProvider,
		Model:    cfg.ProviderModel(),
		History: repositories.HistoryQuery{
			Ascending: cfg.HistoryOrder == "asc",
			Limit:     cfg.HistoryLimit,
		},
	}, collector, logger)
	if err != nil {
		log.Fatalf("Failed to setup chat service: %v", err)
	}

	// Create handlers
	authHandler := handler.NewAuthHandler(authSvc, handler.CookieConfig{
		Secure: cfg.CookieSecure,
		TTL:    cfg.SessionTTL,
	}, logger)
	chatHandler := handler.NewChatHandler(chatSvc, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()
	protected := middleware.Auth(authSvc, logger)

	// Health check
	mux.HandleFunc("GET /health", handler.HealthCheck)
	if cfg.MetricsEnabled {
		mux.Handle("GET /metrics", collector.Handler())
	}

	// Auth routes
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.Handle("GET /api/auth/me", protected(http.HandlerFunc(authHandler.Me)))

	// Chat routes
	mux.Handle("POST /api/chat", protected(http.HandlerFunc(chatHandler.SendMessage)))
	mux.Handle("GET /api/chat/history", protected(http.HandlerFunc(chatHandler.GetHistory)))
	mux.Handle("GET /api/chat/models", protected(http.HandlerFunc(chatHandler.ListModels)))

	// Build middleware chain
	var handler http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Metrics → Routes
	handler = middleware.Metrics(collector)(handler)
	handler = middleware.Recovery(logger)(handler)

	// CORS - Must be outermost to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	handler = corsHandler.Handler(handler)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // Covers the provider call
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("server failed", "error", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}
