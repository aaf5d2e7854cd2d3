package httputil

import (
	"net/http"

	"voicechat/internal/domain"
)

// RespondAppError writes a classified error as problem+json with the
// client-facing message, its kind and optional details. The cause is never sent.
func RespondAppError(w http.ResponseWriter, err *domain.Error) {
	extras := map[string]interface{}{
		"kind": string(err.Kind),
	}
	if err.Details != "" {
		extras["details"] = err.Details
	}
	RespondErrorWithExtras(w, err.StatusCode(), err.Message, extras)
}
