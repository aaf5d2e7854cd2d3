package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"voicechat/internal/domain"
	"voicechat/internal/domain/models"
)

// HMACTokenManager issues and verifies HS256 session tokens with a shared secret.
// Tokens are stateless: validity depends only on signature and expiry.
type HMACTokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewHMACTokenManager creates a token manager. The secret must not be empty.
func NewHMACTokenManager(secret string, ttl time.Duration) (*HMACTokenManager, error) {
	if secret == "" {
		return nil, errors.New("token secret cannot be empty")
	}
	if ttl <= 0 {
		return nil, errors.New("token lifetime must be positive")
	}
	return &HMACTokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue signs a token carrying the user ID, valid for the configured lifetime.
func (m *HMACTokenManager) Issue(userID string) (string, time.Time, error) {
	issuedAt := m.now()
	expiresAt := issuedAt.Add(m.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, models.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID: userID,
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// VerifyToken validates signature, algorithm and expiry. The returned error
// wraps domain.ErrUnauthorized and keeps the jwt reason in its message.
func (m *HMACTokenManager) VerifyToken(tokenString string) (*models.SessionClaims, error) {
	claims := &models.SessionClaims{}

	// Only HS256 is accepted, which rules out algorithm confusion ("none", RS256 with the secret as key)
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return m.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("%w: token is invalid", domain.ErrUnauthorized)
	}

	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: token has no user id", domain.ErrUnauthorized)
	}

	return claims, nil
}
