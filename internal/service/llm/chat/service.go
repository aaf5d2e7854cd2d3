package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"voicechat/internal/capabilities"
	"voicechat/internal/config"
	"voicechat/internal/domain"
	"voicechat/internal/domain/models"
	"voicechat/internal/domain/repositories"
	llmSvc "voicechat/internal/domain/services/llm"
)

// SystemPrompt keeps replies short enough to be spoken aloud.
const SystemPrompt = "You are a helpful AI assistant for a voice chatbot. Keep responses short, engaging, and conversational (under 100 words). Respond in a friendly tone suitable for voice interaction."

// FallbackResponse replaces degenerate provider output.
const FallbackResponse = "That's an interesting question! Could you tell me more about what you're looking for?"

// minResponseLength is the shortest provider reply (in characters, after trimming) passed through.
const minResponseLength = 5

// MetricsRecorder receives one observation per provider call.
type MetricsRecorder interface {
	RecordCompletion(provider, model, outcome string, duration time.Duration, inputTokens, outputTokens int)
}

type nopRecorder struct{}

func (nopRecorder) RecordCompletion(string, string, string, time.Duration, int, int) {}

// Config selects the provider catalog, model and history policy.
type Config struct {
	// Provider is the catalog name of the active provider ("groq", "gemini")
	Provider string

	// Model is the configured model; empty selects the catalog default
	Model string

	History repositories.HistoryQuery
}

var _ llmSvc.ChatService = (*Service)(nil)

// Service implements the ChatService interface
type Service struct {
	provider llmSvc.Provider // nil when no API key is configured
	registry *capabilities.Registry
	catalog  *capabilities.ProviderCapabilities
	chatRepo repositories.ChatRepository
	cfg      Config
	metrics  MetricsRecorder
	logger   *slog.Logger
}

// NewService creates the chat proxy. provider may be nil, in which case every
// send reports the missing API key. metrics may be nil.
func NewService(
	provider llmSvc.Provider,
	registry *capabilities.Registry,
	chatRepo repositories.ChatRepository,
	cfg Config,
	metrics MetricsRecorder,
	logger *slog.Logger,
) (*Service, error) {
	catalog, err := registry.GetProvider(cfg.Provider)
	if err != nil {
		return nil, err
	}
	if metrics == nil {
		metrics = nopRecorder{}
	}

	return &Service{
		provider: provider,
		registry: registry,
		catalog:  catalog,
		chatRepo: chatRepo,
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger,
	}, nil
}

// SendMessage forwards one message to the provider and stores the exchange
func (s *Service) SendMessage(ctx context.Context, user *models.User, req *llmSvc.SendMessageRequest) (*llmSvc.SendMessageResponse, error) {
	if user == nil {
		return nil, domain.Unauthenticated("Please login properly")
	}

	// 1. Validate input before anything else touches the provider or the store
	if err := s.validateSendMessageRequest(req); err != nil {
		return nil, err
	}

	// 2. Provider key
	if s.provider == nil {
		return nil, domain.Misconfigured(fmt.Sprintf(
			"%s API key not configured. Please add %s to your .env file",
			s.catalog.DisplayName, s.catalog.APIKeyEnv,
		))
	}

	// 3. Model selection
	model, err := s.registry.ResolveModel(s.cfg.Provider, s.cfg.Model)
	if err != nil {
		return nil, domain.NewError(domain.KindInternal, "Server error while processing your request").Wrap(err)
	}
	if err := s.registry.ValidateModel(s.cfg.Provider, model); err != nil {
		return nil, err
	}

	// 4-5. Single-turn completion, blocking until the provider answers
	start := time.Now()
	completion, err := s.provider.Complete(ctx, &llmSvc.CompletionRequest{
		SystemPrompt: SystemPrompt,
		UserMessage:  req.Message,
		Model:        model,
		Options:      llmSvc.DefaultCompletionOptions(),
	})
	elapsed := time.Since(start)

	if err != nil {
		s.metrics.RecordCompletion(s.provider.Name(), model, outcomeFor(err), elapsed, 0, 0)
		s.logger.Error("provider completion failed",
			"provider", s.provider.Name(),
			"model", model,
			"user_id", user.ID,
			"duration", elapsed,
			"error", err,
		)
		return nil, translateProviderError(s.catalog, err)
	}
	s.metrics.RecordCompletion(s.provider.Name(), model, "success", elapsed, completion.InputTokens, completion.OutputTokens)

	// 6. Normalize
	text := strings.TrimSpace(completion.Text)
	if utf8.RuneCountInString(text) < minResponseLength {
		s.logger.Warn("degenerate provider response replaced",
			"provider", s.provider.Name(),
			"model", model,
			"length", utf8.RuneCountInString(text),
		)
		text = FallbackResponse
	}

	// 7. Persist; identity always from the auth gate
	record := &models.ChatRecord{
		UserID:   user.ID,
		Query:    req.Message,
		Response: text,
	}
	if err := s.chatRepo.Create(ctx, record); err != nil {
		s.logger.Error("failed to save chat", "user_id", user.ID, "error", err)
		return nil, domain.StorageError("Failed to save chat", err)
	}

	s.logger.Info("chat message answered",
		"chat_id", record.ID,
		"user_id", user.ID,
		"provider", s.provider.Name(),
		"model", model,
		"duration", elapsed,
	)

	// 8. Respond
	return &llmSvc.SendMessageResponse{
		Response:  text,
		ChatID:    record.ID,
		ModelUsed: model,
	}, nil
}

// GetHistory returns the user's chat records in the configured order
func (s *Service) GetHistory(ctx context.Context, user *models.User) (*llmSvc.HistoryResponse, error) {
	if user == nil {
		return nil, domain.Unauthenticated("Please login properly")
	}

	chats, err := s.chatRepo.ListByUser(ctx, user.ID, s.cfg.History)
	if err != nil {
		s.logger.Error("failed to fetch chat history", "user_id", user.ID, "error", err)
		return nil, domain.StorageError("Failed to fetch chat history", err)
	}
	if chats == nil {
		chats = []models.ChatRecord{}
	}

	return &llmSvc.HistoryResponse{
		Chats: chats,
		Total: len(chats),
	}, nil
}

// ListModels returns a copy of the active provider's static catalog
func (s *Service) ListModels() []capabilities.ModelCapabilities {
	out := make([]capabilities.ModelCapabilities, len(s.catalog.Models))
	copy(out, s.catalog.Models)
	return out
}

func (s *Service) validateSendMessageRequest(req *llmSvc.SendMessageRequest) error {
	if req == nil || strings.TrimSpace(req.Message) == "" {
		return domain.InvalidRequest("No message provided")
	}

	err := validation.ValidateStruct(req,
		validation.Field(&req.Message,
			validation.RuneLength(1, config.MaxMessageLength),
		),
	)
	if err != nil {
		return domain.InvalidRequest(fmt.Sprintf("Message must be at most %d characters", config.MaxMessageLength)).
			WithDetails(err.Error()).
			Wrap(err)
	}
	return nil
}

func outcomeFor(err error) string {
	var pe *llmSvc.ProviderError
	if errors.As(err, &pe) {
		return string(pe.Kind)
	}
	return string(llmSvc.FailureUnknown)
}
