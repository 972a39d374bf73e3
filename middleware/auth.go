// Package middleware holds the bearer-token gate that fronts every
// task route.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"taskman/token"
)

// ctxKey is a private type so context values cannot collide with other
// packages.
type ctxKey string

const userIDKey ctxKey = "userId"

// WithUserID returns a context carrying the authenticated caller's id.
func WithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserID extracts the authenticated caller's id set by RequireAuth.
func UserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok
}

// RequireAuth verifies the Authorization header and passes the resolved
// user id to the next handler via the request context. It never
// retries: recovering from an expired access token is the client's job
// through the refresh endpoint.
func RequireAuth(tokens *token.Service, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			unauthorized(w, "No token provided")
			return
		}

		// Expected format is "Bearer <token>".
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			unauthorized(w, "Invalid or expired token")
			return
		}

		userID, err := tokens.VerifyAccess(parts[1])
		if err != nil {
			unauthorized(w, "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"message": msg})
}
