package api

import (
	"net/http"
	"time"

	"github.com/zonewarden/server/internal/auth"
)

// SetupAuthRoutes registers registration and login routes. Auth
// endpoints carry a tight per-IP rate limit against credential
// stuffing.
func SetupAuthRoutes(mux *http.ServeMux, handlers *auth.Handlers) {
	authRateLimit := RateLimitMiddleware(5, 1*time.Minute)

	mux.Handle("/api/auth/register", authRateLimit(methodHandler(http.MethodPost, handlers.Register)))
	mux.Handle("/api/auth/login", authRateLimit(methodHandler(http.MethodPost, handlers.Login)))
}

func methodHandler(method string, fn http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			sendError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		fn(w, r)
	})
}
