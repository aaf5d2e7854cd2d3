package llm

import (
	"context"

	"github.com/google/uuid"
	"voicechat/internal/capabilities"
	"voicechat/internal/domain/models"
)

// ChatService proxies user messages to the configured provider and keeps
// the per-user history of exchanges.
type ChatService interface {
	// SendMessage forwards the message to the provider and persists the exchange.
	// The user always comes from the auth gate, never from the request body.
	SendMessage(ctx context.Context, user *models.User, req *SendMessageRequest) (*SendMessageResponse, error)

	// GetHistory returns the user's chat records in the configured order.
	GetHistory(ctx context.Context, user *models.User) (*HistoryResponse, error)

	// ListModels returns the static model catalog of the active provider.
	ListModels() []capabilities.ModelCapabilities
}

// SendMessageRequest is the DTO for sending a chat message
type SendMessageRequest struct {
	Message string `json:"message"`
}

// SendMessageResponse is returned after a successful exchange
type SendMessageResponse struct {
	Response  string    `json:"response"`
	ChatID    uuid.UUID `json:"chatId"`
	ModelUsed string    `json:"modelUsed,omitempty"`
}

// HistoryResponse lists a user's chat records
type HistoryResponse struct {
	Chats []models.ChatRecord `json:"chats"`
	Total int                 `json:"total"`
}
