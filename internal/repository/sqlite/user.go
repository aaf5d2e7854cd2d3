package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"voicechat/internal/domain"
	"voicechat/internal/domain/models"
	"voicechat/internal/domain/repositories"
)

// SQLiteUserRepository implements the UserRepository interface
type SQLiteUserRepository struct {
	db     *sql.DB
	tables *TableNames
	logger *slog.Logger
}

// NewUserRepository creates a new SQLiteUserRepository
func NewUserRepository(config *RepositoryConfig) repositories.UserRepository {
	return &SQLiteUserRepository{
		db:     config.DB,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a new user; the ID and creation time are generated here
func (r *SQLiteUserRepository) Create(ctx context.Context, user *models.User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, email, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, r.tables.Users)

	id := uuid.New()
	createdAt := time.Now().UTC()

	_, err := r.db.ExecContext(ctx, query,
		id.String(),
		user.Name,
		user.Email,
		user.PasswordHash,
		createdAt.UnixNano(),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("email %s: %w", user.Email, domain.ErrConflict)
		}
		return fmt.Errorf("create user: %w", err)
	}

	user.ID = id
	user.CreatedAt = createdAt
	r.logger.Debug("user created", "user_id", user.ID)
	return nil
}

// GetByEmail retrieves a user by normalized email
func (r *SQLiteUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(`
		SELECT id, name, email, password_hash, created_at
		FROM %s
		WHERE email = ?
	`, r.tables.Users)

	return r.getOne(ctx, query, email)
}

// GetByID retrieves a user by ID
func (r *SQLiteUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := fmt.Sprintf(`
		SELECT id, name, email, password_hash, created_at
		FROM %s
		WHERE id = ?
	`, r.tables.Users)

	return r.getOne(ctx, query, id.String())
}

func (r *SQLiteUserRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var (
		user      models.User
		id        string
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&id,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if user.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	user.CreatedAt = time.Unix(0, createdAt).UTC()

	return &user, nil
}
