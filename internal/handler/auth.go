package handler

import (
	"log/slog"
	"net/http"
	"time"

	"voicechat/internal/domain"
	"voicechat/internal/domain/models"
	"voicechat/internal/domain/services"
	"voicechat/internal/httputil"
	"voicechat/internal/middleware"
)

// CookieConfig controls the session cookie written on register and login.
type CookieConfig struct {
	Secure bool
	TTL    time.Duration
}

// AuthHandler handles registration, login and session endpoints
type AuthHandler struct {
	authService services.AuthService
	cookie      CookieConfig
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService services.AuthService, cookie CookieConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookie:      cookie,
		logger:      logger,
	}
}

// SessionResponse is returned by register and login
type SessionResponse struct {
	User  models.PublicUser `json:"user"`
	Token string            `json:"token"`
}

// Register creates a user and starts a session
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, domain.InvalidRequest("Invalid request body").Wrap(err))
		return
	}

	session, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	h.setSessionCookie(w, session)
	httputil.RespondJSON(w, http.StatusCreated, SessionResponse{
		User:  session.User.Public(),
		Token: session.Token,
	})
}

// Login verifies credentials and starts a session
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleError(w, h.logger, domain.InvalidRequest("Invalid request body").Wrap(err))
		return
	}

	session, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	h.setSessionCookie(w, session)
	httputil.RespondJSON(w, http.StatusOK, SessionResponse{
		User:  session.User.Public(),
		Token: session.Token,
	})
}

// Logout clears the session cookie. Tokens are stateless, so a copied
// bearer token stays valid until it expires.
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	httputil.RespondJSON(w, http.StatusOK, map[string]string{
		"message": "Logged out successfully",
	})
}

// Me returns the identity resolved by the auth gate
// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := httputil.GetUser(r)
	if user == nil {
		handleError(w, h.logger, domain.Unauthenticated("Please login properly"))
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]models.PublicUser{
		"user": user.Public(),
	})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, session *services.Session) {
	maxAge := int(h.cookie.TTL.Seconds())
	if !session.ExpiresAt.IsZero() {
		maxAge = int(time.Until(session.ExpiresAt).Seconds())
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
