package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKey string

// ownerContextKey holds the resolved owner id for the current request.
const ownerContextKey contextKey = "owner_id"

// OwnerFromContext returns the owner id resolved by the middleware,
// or "" when the request was not authenticated.
func OwnerFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ownerContextKey).(string); ok {
		return id
	}
	return ""
}

// WithOwner returns a context carrying the given owner id. Exposed for tests
// that exercise handlers without the middleware.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerContextKey, ownerID)
}

// Middleware validates the Authorization bearer token and injects the owner
// id into the request context. Requests without a resolvable identity are
// rejected with 401 before reaching any handler.
func (m *Manager) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSONError(w, http.StatusUnauthorized, "Authorization header is required")
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				writeJSONError(w, http.StatusUnauthorized, "Invalid token format")
				return
			}

			ownerID, err := m.Verify(tokenString)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), ownerID)))
		})
	}
}

func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "error",
		"message": message,
	})
}
