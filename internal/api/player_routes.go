package api

import (
	"net/http"
	"time"

	"github.com/zonewarden/server/internal/auth"
)

// SetupPlayerRoutes registers player profile, position, and balance
// routes.
func SetupPlayerRoutes(mux *http.ServeMux, handlers *PlayerHandlers, jwtService *auth.JWTService) {
	authMiddleware := auth.Middleware(jwtService)
	userRateLimit := UserRateLimitMiddleware(200, 1*time.Minute)

	playerHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/players/me":
			handlers.GetMe(w, r)
		case r.Method == http.MethodPut && r.URL.Path == "/api/players/me/position":
			handlers.ReportPosition(w, r)
		case r.Method == http.MethodGet && r.URL.Path == "/api/players/me/balance":
			handlers.GetBalance(w, r)
		case r.Method == http.MethodPost && r.URL.Path == "/api/players/deposit":
			handlers.Deposit(w, r)
		default:
			http.NotFound(w, r)
		}
	})

	rateLimited := userRateLimit(authMiddleware(playerHandler))
	mux.Handle("/api/players/", rateLimited)
}
