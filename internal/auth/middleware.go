package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

// PlayerIDKey is the context key holding the authenticated player id.
const PlayerIDKey contextKey = "player_id"

// Middleware validates the Authorization header and injects the
// authenticated player id into the request context.
func Middleware(jwtService *JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				sendError(w, http.StatusUnauthorized, "authorization required")
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				sendError(w, http.StatusUnauthorized, "authorization header must be a bearer token")
				return
			}

			claims, err := jwtService.ValidateToken(token)
			if err != nil {
				sendError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), PlayerIDKey, claims.PlayerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PlayerID extracts the authenticated player id from a request context.
func PlayerID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(PlayerIDKey).(string)
	return id, ok && id != ""
}
