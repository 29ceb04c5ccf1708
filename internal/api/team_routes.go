package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/zonewarden/server/internal/auth"
)

// SetupTeamRoutes registers team management routes.
func SetupTeamRoutes(mux *http.ServeMux, handlers *TeamHandlers, jwtService *auth.JWTService) {
	authMiddleware := auth.Middleware(jwtService)
	userRateLimit := UserRateLimitMiddleware(200, 1*time.Minute)

	teamHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api/teams")
		path = strings.Trim(path, "/")
		parts := strings.Split(path, "/")

		switch {
		case r.Method == http.MethodPost && path == "":
			handlers.CreateTeam(w, r)
		case r.Method == http.MethodGet && len(parts) == 1 && parts[0] != "":
			handlers.GetTeam(w, r, parts[0])
		case r.Method == http.MethodPost && len(parts) == 2 && parts[1] == "members":
			handlers.AddMember(w, r, parts[0])
		case r.Method == http.MethodDelete && len(parts) == 3 && parts[1] == "members":
			handlers.RemoveMember(w, r, parts[0], parts[2])
		default:
			http.NotFound(w, r)
		}
	})

	authenticated := authMiddleware(teamHandler)
	rateLimited := userRateLimit(authenticated)

	mux.Handle("/api/teams/", rateLimited)
	mux.Handle("/api/teams", rateLimited)
}
