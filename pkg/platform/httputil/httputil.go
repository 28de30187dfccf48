// Package httputil centralizes JSON encoding and domain error translation
// for the HTTP layer, so every handler returns the same envelope shapes.
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "modelguard/pkg/domain-errors"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the JSON error envelope.
// Internal failure detail never leaks to the client.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := map[string]string{"error": string(code)}
	if code != dErrors.CodeInternal && code != dErrors.CodeInvariantViolation {
		body["error_description"] = err.Error()
	}
	WriteJSON(w, statusOf(code), body)
}

// Decode reads a JSON request body into T, replying 400 itself on a
// malformed body.
func Decode[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (T, bool) {
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		if logger != nil {
			logger.WarnContext(r.Context(), "request body decode failed", "error", err)
		}
		WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "invalid request body"))
		return v, false
	}
	return v, true
}

func statusOf(code dErrors.Code) int {
	switch code {
	case dErrors.CodeValidation:
		return http.StatusBadRequest
	case dErrors.CodeInsufficientData:
		return http.StatusUnprocessableEntity
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
