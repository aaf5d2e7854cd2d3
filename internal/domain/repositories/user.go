package repositories

import (
	"context"

	"github.com/google/uuid"
	"voicechat/internal/domain/models"
)

// UserRepository is the credential store.
type UserRepository interface {
	// Create inserts a new user and fills in generated fields.
	// Returns domain.ErrConflict if the email is already registered.
	Create(ctx context.Context, user *models.User) error

	// GetByEmail looks a user up by normalized email.
	// Returns domain.ErrNotFound if no user matches.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByID looks a user up by identifier.
	// Returns domain.ErrNotFound if no user matches.
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}
