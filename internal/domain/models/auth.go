package models

import "github.com/golang-jwt/jwt/v5"

// SessionClaims is the payload of a session token.
type SessionClaims struct {
	jwt.RegisteredClaims        // exp, iat
	UserID               string `json:"id"`
}

// GetUserID returns the identity the token was issued for.
func (c *SessionClaims) GetUserID() string {
	return c.UserID
}
