package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"voicechat/internal/domain"
	"voicechat/internal/domain/models"
	"voicechat/internal/httputil"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "token"

// Authenticator resolves a session token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// Auth rejects requests without a valid session and attaches the resolved
// user to the request context. The cookie takes precedence over the
// Authorization header.
func Auth(authenticator Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				httputil.RespondAppError(w, domain.Unauthenticated("Please login properly"))
				return
			}

			user, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				de, ok := domain.AsError(err)
				if !ok {
					de = domain.Unauthenticated("Authentication failed").WithDetails(err.Error()).Wrap(err)
				}
				if de.StatusCode() >= http.StatusInternalServerError {
					logger.Error("authentication error", "path", r.URL.Path, "error", err)
				} else {
					logger.Debug("authentication rejected", "path", r.URL.Path, "reason", err)
				}
				httputil.RespondAppError(w, de)
				return
			}

			next.ServeHTTP(w, httputil.WithUser(r, user))
		})
	}
}

// extractToken reads the session cookie, then "Authorization: Bearer <token>".
func extractToken(r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
