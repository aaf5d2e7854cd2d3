package services

import (
	"context"
	"time"

	"voicechat/internal/domain/models"
)

// AuthService handles registration, login, and session resolution.
type AuthService interface {
	// Register creates a new user and issues a session for it.
	// Duplicate emails fail with an InvalidRequest error.
	Register(ctx context.Context, req *RegisterRequest) (*Session, error)

	// Login verifies credentials and issues a session.
	// Unknown emails and wrong passwords fail identically.
	Login(ctx context.Context, req *LoginRequest) (*Session, error)

	// Authenticate verifies a session token and resolves its user.
	// Returns an Unauthenticated error for bad tokens or unknown users.
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// RegisterRequest is the DTO for creating a user
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the DTO for logging in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is an authenticated user together with its signed token.
type Session struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}
