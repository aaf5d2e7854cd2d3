package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"voicechat/internal/domain"
	"voicechat/internal/domain/models"
	"voicechat/internal/domain/repositories"
)

// PostgresUserRepository implements the UserRepository interface
type PostgresUserRepository struct {
	db     repositories.DBTX
	tables *TableNames
	logger *slog.Logger
}

// NewUserRepository creates a new PostgresUserRepository
func NewUserRepository(config *RepositoryConfig) repositories.UserRepository {
	return &PostgresUserRepository{
		db:     config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create inserts a new user
func (r *PostgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, r.tables.Users)

	err := r.db.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if IsPgDuplicateError(err) {
			return fmt.Errorf("email %s: %w", user.Email, domain.ErrConflict)
		}
		return fmt.Errorf("create user: %w", err)
	}

	r.logger.Debug("user created", "user_id", user.ID)
	return nil
}

// GetByEmail retrieves a user by normalized email
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(`
		SELECT id, name, email, password_hash, created_at
		FROM %s
		WHERE email = $1
	`, r.tables.Users)

	return r.getOne(ctx, query, email)
}

// GetByID retrieves a user by ID
func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := fmt.Sprintf(`
		SELECT id, name, email, password_hash, created_at
		FROM %s
		WHERE id = $1
	`, r.tables.Users)

	return r.getOne(ctx, query, id)
}

func (r *PostgresUserRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}
