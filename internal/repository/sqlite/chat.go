package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"voicechat/internal/domain/models"
	"voicechat/internal/domain/repositories"
)

// SQLiteChatRepository implements the ChatRepository interface
type SQLiteChatRepository struct {
	db     *sql.DB
	tables *TableNames
	logger *slog.Logger
}

// NewChatRepository creates a new SQLiteChatRepository
func NewChatRepository(config *RepositoryConfig) repositories.ChatRepository {
	return &SQLiteChatRepository{
		db:     config.DB,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create appends a chat record
func (r *SQLiteChatRepository) Create(ctx context.Context, chat *models.ChatRecord) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, query, response, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, r.tables.Chats)

	id := uuid.New()
	createdAt := time.Now().UTC()

	if _, err := r.db.ExecContext(ctx, query,
		id.String(),
		chat.UserID.String(),
		chat.Query,
		chat.Response,
		createdAt.UnixNano(),
	); err != nil {
		return fmt.Errorf("create chat: %w", err)
	}

	chat.ID = id
	chat.CreatedAt = createdAt
	return nil
}

// ListByUser returns a user's chat records ordered by creation time
func (r *SQLiteChatRepository) ListByUser(ctx context.Context, userID uuid.UUID, q repositories.HistoryQuery) ([]models.ChatRecord, error) {
	direction := "DESC"
	if q.Ascending {
		direction = "ASC"
	}

	// rowid preserves insertion order for identical timestamps
	query := fmt.Sprintf(`
		SELECT id, user_id, query, response, created_at
		FROM %s
		WHERE user_id = ?
		ORDER BY created_at %s, rowid %s
	`, r.tables.Chats, direction, direction)

	args := []any{userID.String()}
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	chats := []models.ChatRecord{}
	for rows.Next() {
		var (
			c              models.ChatRecord
			id, uid        string
			createdAtNanos int64
		)
		if err := rows.Scan(&id, &uid, &c.Query, &c.Response, &createdAtNanos); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		if c.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse chat id: %w", err)
		}
		if c.UserID, err = uuid.Parse(uid); err != nil {
			return nil, fmt.Errorf("parse chat user id: %w", err)
		}
		c.CreatedAt = time.Unix(0, createdAtNanos).UTC()
		chats = append(chats, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chats: %w", err)
	}

	return chats, nil
}
