package api

import (
	"net/http"
	"time"

	"github.com/zonewarden/server/internal/auth"
)

// Dependencies bundles the handler sets the router mounts.
type Dependencies struct {
	Zones   *ZoneHandlers
	Teams   *TeamHandlers
	Players *PlayerHandlers
	Auth    *auth.Handlers
	JWT     *auth.JWTService
}

// NewRouter assembles the full API surface: domain routes, health
// check, and the global middleware chain.
func NewRouter(d Dependencies) http.Handler {
	mux := http.NewServeMux()

	SetupAuthRoutes(mux, d.Auth)
	SetupZoneRoutes(mux, d.Zones, d.JWT)
	SetupTeamRoutes(mux, d.Teams, d.JWT)
	SetupPlayerRoutes(mux, d.Players, d.JWT)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	globalRateLimit := RateLimitMiddleware(1000, 1*time.Minute)
	return SecurityHeadersMiddleware(CORSMiddleware(globalRateLimit(mux)))
}
