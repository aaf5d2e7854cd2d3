package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	domainllm "voicechat/internal/domain/services/llm"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewProvider("secret-key", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewProvider error: %v", err)
	}
	return p
}

func testRequest() *domainllm.CompletionRequest {
	return &domainllm.CompletionRequest{
		SystemPrompt: "be brief",
		UserMessage:  "Hello",
		Model:        "gemini-1.5-flash",
		Options:      domainllm.DefaultCompletionOptions(),
	}
}

func TestComplete_Success(t *testing.T) {
	var got generateRequest
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/gemini-1.5-flash:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if key := r.URL.Query().Get("key"); key != "secret-key" {
			t.Errorf("unexpected key %q", key)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "Hi there! "}, {"text": "How can I help?"}]}, "finishReason": "STOP"}],
			"usageMetadata": {"promptTokenCount": 9, "candidatesTokenCount": 7},
			"modelVersion": "gemini-1.5-flash-002"
		}`))
	})

	res, err := p.Complete(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if res.Text != "Hi there! How can I help?" {
		t.Errorf("Text = %q", res.Text)
	}
	if res.Model != "gemini-1.5-flash-002" || res.InputTokens != 9 || res.OutputTokens != 7 {
		t.Errorf("unexpected completion %+v", res)
	}

	if got.SystemInstruction == nil || got.SystemInstruction.Parts[0].Text != "be brief" {
		t.Errorf("system instruction not sent: %+v", got.SystemInstruction)
	}
	if len(got.Contents) != 1 || got.Contents[0].Role != "user" || got.Contents[0].Parts[0].Text != "Hello" {
		t.Errorf("unexpected contents %+v", got.Contents)
	}
	if got.GenerationConfig.MaxOutputTokens != 150 || got.GenerationConfig.TopP != 0.8 {
		t.Errorf("unexpected generation config %+v", got.GenerationConfig)
	}
}

func TestComplete_NoCandidates(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"promptFeedback": {"blockReason": "SAFETY"}}`))
	})

	res, err := p.Complete(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if res.Text != "" {
		t.Errorf("Text = %q, want empty", res.Text)
	}
}

func TestComplete_ClassifiesErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind domainllm.FailureKind
		wantCode string
	}{
		{
			name:     "invalid key",
			status:   http.StatusBadRequest,
			body:     `{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT","details":[{"@type":"type.googleapis.com/google.rpc.ErrorInfo","reason":"API_KEY_INVALID"}]}}`,
			wantKind: domainllm.FailureAuth,
			wantCode: "API_KEY_INVALID",
		},
		{
			name:     "bad request",
			status:   http.StatusBadRequest,
			body:     `{"error":{"code":400,"message":"Invalid value at 'generation_config.top_p'","status":"INVALID_ARGUMENT"}}`,
			wantKind: domainllm.FailureBadRequest,
			wantCode: "INVALID_ARGUMENT",
		},
		{
			name:     "permission denied",
			status:   http.StatusForbidden,
			body:     `{"error":{"code":403,"message":"Method doesn't allow unregistered callers","status":"PERMISSION_DENIED"}}`,
			wantKind: domainllm.FailureAuth,
			wantCode: "PERMISSION_DENIED",
		},
		{
			name:     "model not found",
			status:   http.StatusNotFound,
			body:     `{"error":{"code":404,"message":"models/gemini-9 is not found","status":"NOT_FOUND"}}`,
			wantKind: domainllm.FailureNotFound,
			wantCode: "NOT_FOUND",
		},
		{
			name:     "quota",
			status:   http.StatusTooManyRequests,
			body:     `{"error":{"code":429,"message":"You exceeded your current quota, please check your plan and billing details.","status":"RESOURCE_EXHAUSTED"}}`,
			wantKind: domainllm.FailureQuotaExceeded,
			wantCode: "RESOURCE_EXHAUSTED",
		},
		{
			name:     "rate limited",
			status:   http.StatusTooManyRequests,
			body:     `{"error":{"code":429,"message":"Resource has been exhausted (e.g. check rate limits).","status":"RESOURCE_EXHAUSTED"}}`,
			wantKind: domainllm.FailureRateLimited,
			wantCode: "RESOURCE_EXHAUSTED",
		},
		{
			name:     "non-json server error",
			status:   http.StatusServiceUnavailable,
			body:     `upstream unavailable`,
			wantKind: domainllm.FailureUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := p.Complete(context.Background(), testRequest())
			var pe *domainllm.ProviderError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ProviderError, got %T: %v", err, err)
			}
			if pe.Kind != tt.wantKind {
				t.Errorf("Kind = %s, want %s", pe.Kind, tt.wantKind)
			}
			if pe.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", pe.Code, tt.wantCode)
			}
			if pe.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", pe.StatusCode, tt.status)
			}
			if pe.Message == "" {
				t.Error("Message is empty")
			}
		})
	}
}

func TestComplete_NetworkErrorRedactsKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	p, err := NewProvider("secret-key", WithBaseURL(base))
	if err != nil {
		t.Fatalf("NewProvider error: %v", err)
	}

	_, err = p.Complete(context.Background(), testRequest())
	var pe *domainllm.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ProviderError, got %v", err)
	}
	if pe.Kind != domainllm.FailureUnknown {
		t.Errorf("Kind = %s, want %s", pe.Kind, domainllm.FailureUnknown)
	}
	if strings.Contains(pe.Message, "secret-key") {
		t.Errorf("API key leaked into message: %q", pe.Message)
	}
}
