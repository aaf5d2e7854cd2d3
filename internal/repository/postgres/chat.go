package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"voicechat/internal/domain/models"
	"voicechat/internal/domain/repositories"
)

// PostgresChatRepository implements the ChatRepository interface
type PostgresChatRepository struct {
	db     repositories.DBTX
	tables *TableNames
	logger *slog.Logger
}

// NewChatRepository creates a new PostgresChatRepository
func NewChatRepository(config *RepositoryConfig) repositories.ChatRepository {
	return &PostgresChatRepository{
		db:     config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create appends a chat record
func (r *PostgresChatRepository) Create(ctx context.Context, chat *models.ChatRecord) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, query, response)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, r.tables.Chats)

	err := r.db.QueryRow(ctx, query,
		chat.UserID,
		chat.Query,
		chat.Response,
	).Scan(&chat.ID, &chat.CreatedAt)

	if err != nil {
		return fmt.Errorf("create chat: %w", err)
	}

	return nil
}

// ListByUser returns a user's chat records ordered by creation time
func (r *PostgresChatRepository) ListByUser(ctx context.Context, userID uuid.UUID, q repositories.HistoryQuery) ([]models.ChatRecord, error) {
	direction := "DESC"
	if q.Ascending {
		direction = "ASC"
	}

	// id breaks ties between records created in the same microsecond
	query := fmt.Sprintf(`
		SELECT id, user_id, query, response, created_at
		FROM %s
		WHERE user_id = $1
		ORDER BY created_at %s, id %s
	`, r.tables.Chats, direction, direction)

	args := []any{userID}
	if q.Limit > 0 {
		query += " LIMIT $2"
		args = append(args, q.Limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	chats := []models.ChatRecord{}
	for rows.Next() {
		var c models.ChatRecord
		if err := rows.Scan(&c.ID, &c.UserID, &c.Query, &c.Response, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		chats = append(chats, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chats: %w", err)
	}

	return chats, nil
}
