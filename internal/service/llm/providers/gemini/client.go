package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainllm "voicechat/internal/domain/services/llm"
)

// DefaultBaseURL is the public Generative Language API endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

const providerName = "gemini"

// Provider implements the llm.Provider interface for Google Gemini models.
type Provider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option configures the provider.
type Option func(*Provider)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option {
	return func(p *Provider) {
		if u != "" {
			p.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient replaces the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(p *Provider) { p.httpClient = hc }
}

// NewProvider creates a new Gemini provider with the given API key.
func NewProvider(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	p := &Provider{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return providerName
}

// Complete calls models/{model}:generateContent with a system instruction and one user turn.
func (p *Provider) Complete(ctx context.Context, req *domainllm.CompletionRequest) (*domainllm.Completion, error) {
	payload := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: req.UserMessage}}}},
		GenerationConfig: generationConfig{
			Temperature:     req.Options.Temperature,
			MaxOutputTokens: req.Options.MaxTokens,
			TopP:            req.Options.TopP,
		},
	}
	if req.SystemPrompt != "" {
		payload.SystemInstruction = &content{Parts: []part{{Text: req.SystemPrompt}}}
	}

	body, err := p.doRequest(ctx, req.Model, &payload)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var resp generateResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, &domainllm.ProviderError{
			Kind:     domainllm.FailureUnknown,
			Provider: providerName,
			Message:  fmt.Sprintf("decode response: %v", err),
			Err:      err,
		}
	}

	completion := &domainllm.Completion{Model: req.Model}
	if resp.ModelVersion != "" {
		completion.Model = resp.ModelVersion
	}
	if resp.UsageMetadata != nil {
		completion.InputTokens = resp.UsageMetadata.PromptTokenCount
		completion.OutputTokens = resp.UsageMetadata.CandidatesTokenCount
	}
	// A blocked prompt has no candidates; the caller substitutes a fallback.
	if len(resp.Candidates) > 0 {
		var sb strings.Builder
		for _, pt := range resp.Candidates[0].Content.Parts {
			sb.WriteString(pt.Text)
		}
		completion.Text = sb.String()
	}

	return completion, nil
}

func (p *Provider) doRequest(ctx context.Context, model string, payload *generateRequest) (io.ReadCloser, error) {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	fullURL := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		p.baseURL, url.PathEscape(model), url.QueryEscape(p.apiKey))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, buf)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, &domainllm.ProviderError{
			Kind:     domainllm.FailureUnknown,
			Provider: providerName,
			Message:  redactKey(err.Error(), p.apiKey),
			Err:      err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, classifyError(resp.StatusCode, data)
	}

	return resp.Body, nil
}

// classifyError maps a non-2xx response to *llm.ProviderError.
func classifyError(status int, body []byte) *domainllm.ProviderError {
	pe := &domainllm.ProviderError{
		Kind:       domainllm.FailureUnknown,
		Provider:   providerName,
		StatusCode: status,
		Message:    strings.TrimSpace(string(body)),
	}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error.Message != "" {
		pe.Message = env.Error.Message
		pe.Code = env.Error.Status
		for _, d := range env.Error.Details {
			if d.Reason != "" {
				pe.Code = d.Reason
				break
			}
		}
	}
	if pe.Message == "" {
		pe.Message = http.StatusText(status)
	}
	pe.Err = fmt.Errorf("gemini: status %d: %s", status, pe.Message)

	switch status {
	case http.StatusBadRequest:
		if pe.Code == "API_KEY_INVALID" || strings.Contains(pe.Message, "API key not valid") {
			pe.Kind = domainllm.FailureAuth
		} else {
			pe.Kind = domainllm.FailureBadRequest
		}
	case http.StatusUnauthorized, http.StatusForbidden:
		pe.Kind = domainllm.FailureAuth
	case http.StatusNotFound:
		pe.Kind = domainllm.FailureNotFound
	case http.StatusTooManyRequests:
		if strings.Contains(strings.ToLower(pe.Message), "quota") {
			pe.Kind = domainllm.FailureQuotaExceeded
		} else {
			pe.Kind = domainllm.FailureRateLimited
		}
	}

	return pe
}

// redactKey keeps the API key (sent as a query parameter) out of error text.
func redactKey(s, key string) string {
	if key == "" {
		return s
	}
	s = strings.ReplaceAll(s, url.QueryEscape(key), "REDACTED")
	return strings.ReplaceAll(s, key, "REDACTED")
}
