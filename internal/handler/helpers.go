package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"voicechat/internal/domain"
	"voicechat/internal/httputil"
)

// handleError converts service errors to HTTP responses.
// Server-side failures are logged with their cause before the sanitized
// body is written.
func handleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	de, ok := domain.AsError(err)
	if !ok {
		switch {
		case errors.Is(err, domain.ErrValidation):
			de = domain.InvalidRequest(err.Error())
		case errors.Is(err, domain.ErrUnauthorized):
			de = domain.Unauthenticated("Authentication failed")
		case errors.Is(err, domain.ErrNotFound):
			de = domain.NewError(domain.KindInvalidRequest, "not found").WithStatus(http.StatusNotFound)
		default:
			de = domain.NewError(domain.KindInternal, "internal server error")
		}
		de.Wrap(err)
	}

	if de.StatusCode() >= http.StatusInternalServerError {
		logger.Error("request failed", "kind", de.Kind, "message", de.Message, "error", err)
	} else {
		logger.Debug("request rejected", "kind", de.Kind, "message", de.Message)
	}

	httputil.RespondAppError(w, de)
}
