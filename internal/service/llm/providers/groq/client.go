package groq

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	domainllm "voicechat/internal/domain/services/llm"
)

// DefaultBaseURL is Groq's OpenAI-compatible endpoint.
const DefaultBaseURL = "https://api.groq.com/openai/v1"

const providerName = "groq"

// Provider implements the llm.Provider interface for Groq-hosted models.
type Provider struct {
	client *openai.Client
}

// Option configures the provider.
type Option func(*openai.ClientConfig)

// WithBaseURL points the client at a different OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(c *openai.ClientConfig) {
		if url != "" {
			c.BaseURL = url
		}
	}
}

// WithHTTPClient replaces the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *openai.ClientConfig) { c.HTTPClient = hc }
}

// NewProvider creates a new Groq provider with the given API key.
func NewProvider(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("groq API key is required")
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = DefaultBaseURL
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Provider{client: openai.NewClientWithConfig(cfg)}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return providerName
}

// Complete sends a system + user turn to the chat completions endpoint.
func (p *Provider) Complete(ctx context.Context, req *domainllm.CompletionRequest) (*domainllm.Completion, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.UserMessage},
		},
		MaxTokens:   req.Options.MaxTokens,
		Temperature: float32(req.Options.Temperature),
		TopP:        float32(req.Options.TopP),
	})
	if err != nil {
		return nil, classifyError(err)
	}

	completion := &domainllm.Completion{
		Model:        resp.Model,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}
	if completion.Model == "" {
		completion.Model = req.Model
	}
	if len(resp.Choices) > 0 {
		completion.Text = resp.Choices[0].Message.Content
	}

	return completion, nil
}

// classifyError turns go-openai errors into *llm.ProviderError.
func classifyError(err error) *domainllm.ProviderError {
	pe := &domainllm.ProviderError{
		Kind:     domainllm.FailureUnknown,
		Provider: providerName,
		Message:  err.Error(),
		Err:      err,
	}

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		pe.StatusCode = apiErr.HTTPStatusCode
		pe.Code = errorCode(apiErr.Code)
		if apiErr.Message != "" {
			pe.Message = apiErr.Message
		}
	case errors.As(err, &reqErr):
		pe.StatusCode = reqErr.HTTPStatusCode
		if reqErr.Err != nil {
			pe.Message = reqErr.Err.Error()
		}
	default:
		// network failure or context cancellation
		return pe
	}

	pe.Kind = kindFor(pe.StatusCode, pe.Code)
	return pe
}

func kindFor(status int, code string) domainllm.FailureKind {
	switch status {
	case http.StatusBadRequest:
		if code == "model_decommissioned" {
			return domainllm.FailureModelDecommissioned
		}
		return domainllm.FailureBadRequest
	case http.StatusUnauthorized:
		return domainllm.FailureAuth
	case http.StatusNotFound:
		return domainllm.FailureNotFound
	case http.StatusTooManyRequests:
		if code == "insufficient_quota" {
			return domainllm.FailureQuotaExceeded
		}
		return domainllm.FailureRateLimited
	}
	if code == "model_not_found" {
		return domainllm.FailureNotFound
	}
	return domainllm.FailureUnknown
}

// errorCode normalizes APIError.Code, which may be a string or a number.
func errorCode(code any) string {
	switch c := code.(type) {
	case nil:
		return ""
	case string:
		return c
	default:
		return fmt.Sprint(c)
	}
}
