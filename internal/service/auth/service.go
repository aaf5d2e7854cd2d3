package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"

	"voicechat/internal/auth"
	"voicechat/internal/config"
	"voicechat/internal/domain"
	"voicechat/internal/domain/models"
	"voicechat/internal/domain/repositories"
	"voicechat/internal/domain/services"
)

// TokenManager issues and verifies session tokens.
type TokenManager interface {
	auth.TokenIssuer
	auth.TokenVerifier
}

var _ services.AuthService = (*Service)(nil)

// Service implements the AuthService interface
type Service struct {
	userRepo repositories.UserRepository
	tokens   TokenManager
	hasher   auth.PasswordHasher
	logger   *slog.Logger
}

// NewService creates a new auth service
func NewService(
	userRepo repositories.UserRepository,
	tokens TokenManager,
	hasher auth.PasswordHasher,
	logger *slog.Logger,
) *Service {
	return &Service{
		userRepo: userRepo,
		tokens:   tokens,
		hasher:   hasher,
		logger:   logger,
	}
}

// Register creates a user and signs a session for it
func (s *Service) Register(ctx context.Context, req *services.RegisterRequest) (*services.Session, error) {
	if req == nil {
		return nil, domain.InvalidRequest("Invalid registration details")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)

	if err := s.validateRegisterRequest(req); err != nil {
		return nil, domain.InvalidRequest("Invalid registration details").WithDetails(err.Error()).Wrap(err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, domain.NewError(domain.KindInternal, "Server error").Wrap(err)
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
	}

	// Uniqueness is enforced by the store's unique index
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.InvalidRequest("Email already used").Wrap(err)
		}
		return nil, domain.StorageError("Failed to create user", err)
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return s.issueSession(user)
}

// Login verifies credentials and signs a session
func (s *Service) Login(ctx context.Context, req *services.LoginRequest) (*services.Session, error) {
	if req == nil {
		return nil, domain.InvalidRequest("Email and password are required")
	}
	req.Email = normalizeEmail(req.Email)

	err := validation.ValidateStruct(req,
		validation.Field(&req.Email, validation.Required),
		validation.Field(&req.Password, validation.Required),
	)
	if err != nil {
		return nil, domain.InvalidRequest("Email and password are required").WithDetails(err.Error()).Wrap(err)
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.InvalidRequest("Invalid credentials")
		}
		return nil, domain.StorageError("Failed to look up user", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, domain.InvalidRequest("Invalid credentials")
		}
		return nil, domain.NewError(domain.KindInternal, "Server error").Wrap(err)
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return s.issueSession(user)
}

// Authenticate verifies a session token and loads its user
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.VerifyToken(token)
	if err != nil {
		return nil, domain.Unauthenticated("Authentication failed").
			WithDetails(strings.TrimPrefix(err.Error(), domain.ErrUnauthorized.Error()+": ")).
			Wrap(err)
	}

	userID, err := uuid.Parse(claims.GetUserID())
	if err != nil {
		return nil, domain.Unauthenticated("Authentication failed").
			WithDetails("invalid user id in token").
			Wrap(err)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Unauthenticated("User not found").Wrap(err)
		}
		return nil, domain.StorageError("Failed to resolve user", err)
	}

	return user, nil
}

func (s *Service) issueSession(user *models.User) (*services.Session, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID.String())
	if err != nil {
		return nil, domain.NewError(domain.KindInternal, "Server error").Wrap(fmt.Errorf("issue token: %w", err))
	}

	return &services.Session{
		User:      user,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *Service) validateRegisterRequest(req *services.RegisterRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Name,
			validation.Required,
			validation.RuneLength(1, config.MaxUserNameLength),
		),
		validation.Field(&req.Email,
			validation.Required,
			validation.Length(3, config.MaxEmailLength),
			is.EmailFormat,
		),
		validation.Field(&req.Password,
			validation.Required,
			validation.Length(config.MinPasswordLength, config.MaxPasswordLength),
		),
	)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
