package auth

import (
	"time"

	"voicechat/internal/domain/models"
)

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	// Issue signs a token for the given user ID and returns it with its expiry.
	Issue(userID string) (string, time.Time, error)
}

// TokenVerifier validates session tokens.
type TokenVerifier interface {
	// VerifyToken validates a token string and returns the parsed claims.
	// Returns an error wrapping domain.ErrUnauthorized if the token is invalid,
	// expired, or has an invalid signature.
	VerifyToken(tokenString string) (*models.SessionClaims, error)
}

// PasswordHasher hashes and checks user passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}
