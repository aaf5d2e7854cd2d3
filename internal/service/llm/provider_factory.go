package llm

import (
	"errors"
	"fmt"

	"voicechat/internal/config"
	domainllm "voicechat/internal/domain/services/llm"
	"voicechat/internal/service/llm/providers/gemini"
	"voicechat/internal/service/llm/providers/groq"
)

// ErrAPIKeyMissing is returned when the requested provider has no API key configured.
var ErrAPIKeyMissing = errors.New("provider API key not configured")

// ProviderFactory creates LLM provider instances from configuration
type ProviderFactory struct {
	config *config.Config
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(cfg *config.Config) *ProviderFactory {
	return &ProviderFactory{
		config: cfg,
	}
}

// GetProvider returns a provider instance for the given provider name
//
// Supported providers:
//   - "groq" - Llama/Mixtral/Gemma models via Groq's OpenAI-compatible API
//   - "gemini" - Google Gemini models via the Generative Language API
func (f *ProviderFactory) GetProvider(providerName string) (domainllm.Provider, error) {
	switch providerName {
	case config.ProviderGroq:
		return f.createGroqProvider()

	case config.ProviderGemini:
		return f.createGeminiProvider()

	default:
		return nil, fmt.Errorf("unsupported provider: %s", providerName)
	}
}

// Active returns the provider selected by LLM_PROVIDER.
func (f *ProviderFactory) Active() (domainllm.Provider, error) {
	return f.GetProvider(f.config.LLMProvider)
}

func (f *ProviderFactory) createGroqProvider() (domainllm.Provider, error) {
	if f.config.GroqAPIKey == "" {
		return nil, fmt.Errorf("GROQ_API_KEY: %w", ErrAPIKeyMissing)
	}

	provider, err := groq.NewProvider(f.config.GroqAPIKey, groq.WithBaseURL(f.config.GroqBaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create Groq provider: %w", err)
	}

	return provider, nil
}

func (f *ProviderFactory) createGeminiProvider() (domainllm.Provider, error) {
	if f.config.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY: %w", ErrAPIKeyMissing)
	}

	provider, err := gemini.NewProvider(f.config.GeminiAPIKey, gemini.WithBaseURL(f.config.GeminiBaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini provider: %w", err)
	}

	return provider, nil
}
