package repositories

import (
	"context"

	"github.com/google/uuid"
	"voicechat/internal/domain/models"
)

// HistoryQuery controls how a user's chat history is read.
type HistoryQuery struct {
	Ascending bool // oldest first when true
	Limit     int  // 0 means no limit
}

// ChatRepository is the append-only chat history store.
type ChatRepository interface {
	// Create persists a new chat record and fills in generated fields.
	Create(ctx context.Context, chat *models.ChatRecord) error

	// ListByUser returns the user's records ordered by creation time.
	ListByUser(ctx context.Context, userID uuid.UUID, q HistoryQuery) ([]models.ChatRecord, error)
}
