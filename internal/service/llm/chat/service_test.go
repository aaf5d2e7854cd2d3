package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicechat/internal/capabilities"
	"voicechat/internal/config"
	"voicechat/internal/domain"
	"voicechat/internal/domain/models"
	"voicechat/internal/domain/repositories"
	llmSvc "voicechat/internal/domain/services/llm"
)

// fakeProvider returns a canned completion or error and records calls
type fakeProvider struct {
	name  string
	text  string
	err   error
	calls []*llmSvc.CompletionRequest
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Complete(_ context.Context, req *llmSvc.CompletionRequest) (*llmSvc.Completion, error) {
	p.calls = append(p.calls, req)
	if p.err != nil {
		return nil, p.err
	}
	return &llmSvc.Completion{Text: p.text, Model: req.Model, InputTokens: 10, OutputTokens: 5}, nil
}

// memChatRepo is an in-memory ChatRepository
type memChatRepo struct {
	mu        sync.Mutex
	records   []models.ChatRecord
	createErr error
	listErr   error
	lastQuery repositories.HistoryQuery
}

func (r *memChatRepo) Create(_ context.Context, c *models.ChatRecord) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	r.records = append(r.records, *c)
	return nil
}

func (r *memChatRepo) ListByUser(_ context.Context, userID uuid.UUID, q repositories.HistoryQuery) ([]models.ChatRecord, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastQuery = q
	var out []models.ChatRecord
	for _, c := range r.records {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

type recordedCompletion struct {
	provider, model, outcome string
}

type fakeRecorder struct {
	calls []recordedCompletion
}

func (f *fakeRecorder) RecordCompletion(provider, model, outcome string, _ time.Duration, _, _ int) {
	f.calls = append(f.calls, recordedCompletion{provider, model, outcome})
}

type fixture struct {
	svc      *Service
	provider *fakeProvider
	repo     *memChatRepo
	metrics  *fakeRecorder
	user     *models.User
}

func newFixture(t *testing.T, providerName, model string, provider *fakeProvider) *fixture {
	t.Helper()
	registry, err := capabilities.NewRegistry()
	require.NoError(t, err)

	f := &fixture{
		provider: provider,
		repo:     &memChatRepo{},
		metrics:  &fakeRecorder{},
		user:     &models.User{ID: uuid.New(), Name: "Ada", Email: "ada@example.com"},
	}

	var p llmSvc.Provider
	if provider != nil {
		p = provider
	}
	f.svc, err = NewService(p, registry, f.repo, Config{
		Provider: providerName,
		Model:    model,
		History:  repositories.HistoryQuery{Limit: 50},
	}, f.metrics, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return f
}

func requireKind(t *testing.T, err error, kind domain.ErrorKind, status int) *domain.Error {
	t.Helper()
	de, ok := domain.AsError(err)
	require.True(t, ok, "expected *domain.Error, got %T: %v", err, err)
	assert.Equal(t, kind, de.Kind)
	assert.Equal(t, status, de.StatusCode())
	return de
}

func TestSendMessage_Success(t *testing.T) {
	f := newFixture(t, config.ProviderGroq, "", &fakeProvider{name: "groq", text: "  Hi there! How can I help?\n"})
	ctx := context.Background()

	resp, err := f.svc.SendMessage(ctx, f.user, &llmSvc.SendMessageRequest{Message: "Hello"})
	require.NoError(t, err)

	assert.Equal(t, "Hi there! How can I help?", resp.Response)
	assert.Equal(t, "llama-3.1-8b-instant", resp.ModelUsed)
	assert.NotEqual(t, uuid.Nil, resp.ChatID)

	require.Len(t, f.provider.calls, 1)
	call := f.provider.calls[0]
	assert.Equal(t, SystemPrompt, call.SystemPrompt)
	assert.Equal(t, "Hello", call.UserMessage)
	assert.Equal(t, llmSvc.DefaultCompletionOptions(), call.Options)

	// Round trip: exactly one new record matching the exchange
	history, err := f.svc.GetHistory(ctx, f.user)
	require.NoError(t, err)
	require.Equal(t, 1, history.Total)
	assert.Equal(t, resp.ChatID, history.Chats[0].ID)
	assert.Equal(t, "Hello", history.Chats[0].Query)
	assert.Equal(t, resp.Response, history.Chats[0].Response)
	assert.Equal(t, f.user.ID, history.Chats[0].UserID)

	assert.Equal(t, []recordedCompletion{{"groq", "llama-3.1-8b-instant", "success"}}, f.metrics.calls)
}

func TestSendMessage_RejectsEmptyMessage(t *testing.T) {
	for _, msg := range []string{"", "   ", "\n\t"} {
		f := newFixture(t, config.ProviderGroq, "", &fakeProvider{name: "groq", text: "never"})

		_, err := f.svc.SendMessage(context.Background(), f.user, &llmSvc.SendMessageRequest{Message: msg})
		de := requireKind(t, err, domain.KindInvalidRequest, http.StatusBadRequest)
		assert.Equal(t, "No message provided", de.Message)
		assert.Empty(t, f.provider.calls, "provider must not be called")
		assert.Empty(t, f.repo.records, "nothing may be persisted")
	}

	f := newFixture(t, config.ProviderGroq, "", &fakeProvider{name: "groq"})
	_, err := f.svc.SendMessage(context.Background(), f.user, nil)
	requireKind(t, err, domain.KindInvalidRequest, http.StatusBadRequest)
}

func TestSendMessage_RejectsOversizedMessage(t *testing.T) {
	f := newFixture(t, config.ProviderGroq, "", &fakeProvider{name: "groq", text: "never"})

	msg := strings.Repeat("a", config.MaxMessageLength+1)
	_, err := f.svc.SendMessage(context.Background(), f.user, &llmSvc.SendMessageRequest{Message: msg})
	requireKind(t, err, domain.KindInvalidRequest, http.StatusBadRequest)
	assert.Empty(t, f.provider.calls)
}

func TestSendMessage_MissingAPIKey(t *testing.T) {
	tests := []struct {
		provider string
		want     string
	}{
		{config.ProviderGroq, "Groq API key not configured. Please add GROQ_API_KEY to your .env file"},
		{config.ProviderGemini, "Gemini API key not configured. Please add GEMINI_API_KEY to your .env file"},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			f := newFixture(t, tt.provider, "", nil)

			_, err := f.svc.SendMessage(context.Background(), f.user, &llmSvc.SendMessageRequest{Message: "Hello"})
			de := requireKind(t, err, domain.KindMisconfigured, http.StatusInternalServerError)
			assert.Equal(t, tt.want, de.Message)
			assert.Empty(t, f.repo.records)
		})
	}
}

func TestSendMessage_ModelAllowList(t *testing.T) {
	f := newFixture(t, config.ProviderGroq, "gpt-4o", &fakeProvider{name: "groq", text: "never"})

	_, err := f.svc.SendMessage(context.Background(), f.user, &llmSvc.SendMessageRequest{Message: "Hello"})
	de := requireKind(t, err, domain.KindInvalidRequest, http.StatusBadRequest)
	assert.Equal(t, "Invalid model specified. Available models: llama-3.1-8b-instant, llama-3.1-70b-versatile, mixtral-8x7b-32768, gemma2-9b-it", de.Message)
	assert.Empty(t, f.provider.calls)

	// Gemini's catalog is not strict; the provider decides
	g := newFixture(t, config.ProviderGemini, "gemini-exp-1206", &fakeProvider{name: "gemini", text: "Sure thing, happy to help."})
	resp, err := g.svc.SendMessage(context.Background(), g.user, &llmSvc.SendMessageRequest{Message: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, "gemini-exp-1206", resp.ModelUsed)
}

func TestSendMessage_DegenerateOutput(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"empty", "", FallbackResponse},
		{"whitespace", "   \n ", FallbackResponse},
		{"four chars", "Hmm.", FallbackResponse},
		{"short after trim", "  ok!  ", FallbackResponse},
		{"four runes multibyte", "héé!", FallbackResponse},
		{"exactly five", "Sure!", "Sure!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, config.ProviderGroq, "", &fakeProvider{name: "groq", text: tt.text})

			resp, err := f.svc.SendMessage(context.Background(), f.user, &llmSvc.SendMessageRequest{Message: "Hello"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.Response)
			require.Len(t, f.repo.records, 1)
			assert.Equal(t, tt.want, f.repo.records[0].Response, "persisted text must match returned text")
		})
	}
}

func TestSendMessage_ProviderFailures(t *testing.T) {
	providerErr := func(kind llmSvc.FailureKind, status int, msg string) error {
		return &llmSvc.ProviderError{Kind: kind, Provider: "groq", StatusCode: status, Message: msg}
	}

	tests := []struct {
		name        string
		provider    string
		err         error
		wantKind    domain.ErrorKind
		wantStatus  int
		wantMessage string
		wantDetails string
	}{
		{
			name:        "decommissioned model",
			provider:    config.ProviderGroq,
			err:         providerErr(llmSvc.FailureModelDecommissioned, 400, "model decommissioned"),
			wantKind:    domain.KindProviderBadRequest,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "The selected model is no longer available. Please update GROQ_MODEL in your .env file to one of: llama-3.1-8b-instant, llama-3.1-70b-versatile, mixtral-8x7b-32768, gemma2-9b-it",
			wantDetails: "model decommissioned",
		},
		{
			name:        "bad request",
			provider:    config.ProviderGroq,
			err:         providerErr(llmSvc.FailureBadRequest, 400, "max_tokens too large"),
			wantKind:    domain.KindProviderBadRequest,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid request to Groq API",
			wantDetails: "max_tokens too large",
		},
		{
			name:        "bad request without detail",
			provider:    config.ProviderGroq,
			err:         providerErr(llmSvc.FailureBadRequest, 400, ""),
			wantKind:    domain.KindProviderBadRequest,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid request to Groq API",
			wantDetails: "Please check your request parameters",
		},
		{
			name:        "auth failure",
			provider:    config.ProviderGroq,
			err:         providerErr(llmSvc.FailureAuth, 401, "Invalid API Key"),
			wantKind:    domain.KindProviderAuthFailure,
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Invalid Groq API key. Please check your GROQ_API_KEY in the .env file and ensure it's correct.",
			wantDetails: "You can get a free API key from https://console.groq.com",
		},
		{
			name:        "groq quota",
			provider:    config.ProviderGroq,
			err:         providerErr(llmSvc.FailureQuotaExceeded, 429, "quota"),
			wantKind:    domain.KindProviderQuotaExceeded,
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Groq API quota exceeded. Please check your plan and billing details.",
			wantDetails: "quota",
		},
		{
			name:        "gemini quota",
			provider:    config.ProviderGemini,
			err:         providerErr(llmSvc.FailureQuotaExceeded, 429, "You exceeded your current quota"),
			wantKind:    domain.KindProviderQuotaExceeded,
			wantStatus:  http.StatusForbidden,
			wantMessage: "Gemini API quota exceeded. Please check your plan and billing details.",
			wantDetails: "You exceeded your current quota",
		},
		{
			name:        "rate limited",
			provider:    config.ProviderGroq,
			err:         providerErr(llmSvc.FailureRateLimited, 429, "slow down"),
			wantKind:    domain.KindProviderRateLimited,
			wantStatus:  http.StatusTooManyRequests,
			wantMessage: "Rate limit exceeded. Groq has usage limits. Please try again in a few moments.",
			wantDetails: "Free tier has rate limits. Consider upgrading if you need higher limits.",
		},
		{
			name:        "not found",
			provider:    config.ProviderGroq,
			err:         providerErr(llmSvc.FailureNotFound, 404, ""),
			wantKind:    domain.KindProviderNotFound,
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Model not found. The specified Groq model is not available.",
			wantDetails: "Please check the model name in your .env file",
		},
		{
			name:        "unknown provider failure",
			provider:    config.ProviderGroq,
			err:         providerErr(llmSvc.FailureUnknown, 502, "bad gateway"),
			wantKind:    domain.KindProviderError,
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Server error while processing your request",
			wantDetails: "bad gateway",
		},
		{
			name:        "unclassified error",
			provider:    config.ProviderGroq,
			err:         errors.New("dial tcp: connection refused"),
			wantKind:    domain.KindProviderError,
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Server error while processing your request",
			wantDetails: "dial tcp: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.provider, "", &fakeProvider{name: tt.provider, err: tt.err})

			_, err := f.svc.SendMessage(context.Background(), f.user, &llmSvc.SendMessageRequest{Message: "Hello"})
			de := requireKind(t, err, tt.wantKind, tt.wantStatus)
			assert.Equal(t, tt.wantMessage, de.Message)
			assert.Equal(t, tt.wantDetails, de.Details)
			assert.ErrorIs(t, err, tt.err, "cause must stay reachable for logging")
			assert.Empty(t, f.repo.records, "failed exchanges are not persisted")
			require.Len(t, f.metrics.calls, 1)
			assert.NotEqual(t, "success", f.metrics.calls[0].outcome)
		})
	}
}

func TestSendMessage_StorageFailure(t *testing.T) {
	f := newFixture(t, config.ProviderGroq, "", &fakeProvider{name: "groq", text: "Hello there friend"})
	f.repo.createErr = errors.New("disk full")

	_, err := f.svc.SendMessage(context.Background(), f.user, &llmSvc.SendMessageRequest{Message: "Hello"})
	requireKind(t, err, domain.KindStorageError, http.StatusInternalServerError)
}

func TestSendMessage_RequiresUser(t *testing.T) {
	f := newFixture(t, config.ProviderGroq, "", &fakeProvider{name: "groq", text: "never"})

	_, err := f.svc.SendMessage(context.Background(), nil, &llmSvc.SendMessageRequest{Message: "Hello"})
	requireKind(t, err, domain.KindUnauthenticated, http.StatusUnauthorized)
	assert.Empty(t, f.provider.calls)
}

func TestGetHistory(t *testing.T) {
	f := newFixture(t, config.ProviderGroq, "", &fakeProvider{name: "groq", text: "A reply long enough"})
	ctx := context.Background()

	empty, err := f.svc.GetHistory(ctx, f.user)
	require.NoError(t, err)
	assert.NotNil(t, empty.Chats)
	assert.Equal(t, 0, empty.Total)

	other := &models.User{ID: uuid.New()}
	for _, u := range []*models.User{f.user, f.user, other} {
		_, err := f.svc.SendMessage(ctx, u, &llmSvc.SendMessageRequest{Message: "Hi"})
		require.NoError(t, err)
	}

	history, err := f.svc.GetHistory(ctx, f.user)
	require.NoError(t, err)
	assert.Equal(t, 2, history.Total)
	assert.Len(t, history.Chats, 2)
	assert.Equal(t, repositories.HistoryQuery{Limit: 50}, f.repo.lastQuery)

	f.repo.listErr = errors.New("timeout")
	_, err = f.svc.GetHistory(ctx, f.user)
	requireKind(t, err, domain.KindStorageError, http.StatusInternalServerError)
}

func TestListModels_Idempotent(t *testing.T) {
	f := newFixture(t, config.ProviderGroq, "", nil)

	first := f.svc.ListModels()
	require.Len(t, first, 4)
	first[0].ID = "mutated"

	second := f.svc.ListModels()
	assert.Equal(t, "llama-3.1-8b-instant", second[0].ID)
	assert.Equal(t, second, f.svc.ListModels())
}

func TestNewService_UnknownProvider(t *testing.T) {
	registry, err := capabilities.NewRegistry()
	require.NoError(t, err)

	_, err = NewService(nil, registry, &memChatRepo{}, Config{Provider: "openai"}, nil, slog.Default())
	assert.Error(t, err)
}
