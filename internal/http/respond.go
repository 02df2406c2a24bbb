package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"kharcha/internal/core"
)

// envelope is the uniform response shape: every reply carries a status,
// a human-readable message and an optional data payload.
type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func respondJSON(w http.ResponseWriter, statusCode int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	status := "success"
	if statusCode >= 400 {
		status = "error"
	}

	if err := json.NewEncoder(w).Encode(envelope{
		Status:  status,
		Message: message,
		Data:    data,
	}); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// respondError maps domain errors onto HTTP statuses. Validation failures
// return every violated field; anything unrecognized becomes a 500 with a
// generic message so internals never leak to clients.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusUnprocessableEntity, "Validation failed", map[string]any{
			"errors": verr.Fields,
		})
	case errors.Is(err, core.ErrNotFound):
		respondJSON(w, http.StatusNotFound, "Expense not found", nil)
	case errors.Is(err, core.ErrUnauthorized):
		respondJSON(w, http.StatusUnauthorized, "Authentication required", nil)
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		respondJSON(w, http.StatusInternalServerError, "Internal server error", nil)
	}
}
