package handler

import (
	"log/slog"
	"net/http"

	"voicechat/internal/capabilities"
	"voicechat/internal/domain"
	llmSvc "voicechat/internal/domain/services/llm"
	"voicechat/internal/httputil"
)

// ChatHandler handles chat HTTP requests
// Handlers only communicate with services, never repositories
type ChatHandler struct {
	chatService llmSvc.ChatService
	logger      *slog.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService llmSvc.ChatService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// SendMessage forwards a message to the provider and stores the exchange
// POST /api/chat
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	user := httputil.GetUser(r)

	var req llmSvc.SendMessageRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, domain.InvalidRequest("Invalid request body").Wrap(err))
		return
	}

	resp, err := h.chatService.SendMessage(r.Context(), user, &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}

// GetHistory lists the caller's chat records
// GET /api/chat/history
func (h *ChatHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.chatService.GetHistory(r.Context(), httputil.GetUser(r))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, history)
}

// ListModels returns the active provider's model catalog
// GET /api/chat/models
func (h *ChatHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string][]capabilities.ModelCapabilities{
		"models": h.chatService.ListModels(),
	})
}
