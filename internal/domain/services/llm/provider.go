package llm

import (
	"context"
	"fmt"
)

// Provider is a single-turn completion backend (Groq, Gemini, ...).
// Implementations are interchangeable behind this interface; every failure
// they report is a *ProviderError.
type Provider interface {
	// Complete sends one system instruction and one user turn and returns
	// the first completion. It blocks until the provider answers or fails.
	Complete(ctx context.Context, req *CompletionRequest) (*Completion, error)

	// Name returns the provider name (e.g., "groq", "gemini")
	Name() string
}

// CompletionRequest contains the parameters for a single-turn completion.
type CompletionRequest struct {
	SystemPrompt string
	UserMessage  string

	// Model is the provider-specific model identifier (e.g., "llama-3.1-8b-instant")
	Model string

	Options CompletionOptions
}

// CompletionOptions are the generation parameters sent with every request.
type CompletionOptions struct {
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// DefaultCompletionOptions keeps replies short enough for voice playback.
func DefaultCompletionOptions() CompletionOptions {
	return CompletionOptions{
		MaxTokens:   150,
		Temperature: 0.7,
		TopP:        0.8,
	}
}

// Completion is the provider's answer.
type Completion struct {
	// Text is the first candidate's text, untrimmed
	Text string

	// Model is the model that was used (may differ from request if aliased)
	Model string

	InputTokens  int
	OutputTokens int
}

// FailureKind classifies provider failures independent of the provider's
// own error format.
type FailureKind string

const (
	FailureBadRequest          FailureKind = "bad_request"
	FailureModelDecommissioned FailureKind = "model_decommissioned"
	FailureAuth                FailureKind = "auth"
	FailureQuotaExceeded       FailureKind = "quota_exceeded"
	FailureRateLimited         FailureKind = "rate_limited"
	FailureNotFound            FailureKind = "not_found"
	FailureUnknown             FailureKind = "unknown"
)

// ProviderError is returned by every Provider implementation on failure.
type ProviderError struct {
	Kind     FailureKind
	Provider string

	// StatusCode is the HTTP status code (0 for network failures)
	StatusCode int

	// Code is the provider's machine-readable error code, if any
	Code string

	// Message is the provider's human-readable error message
	Message string

	Err error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %q error (status %d, %s): %s", e.Provider, e.StatusCode, e.Kind, e.Message)
	}
	return fmt.Sprintf("provider %q error (%s): %s", e.Provider, e.Kind, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }
