package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/zonewarden/server/internal/auth"
)

// SetupZoneRoutes registers zone lifecycle routes.
func SetupZoneRoutes(mux *http.ServeMux, handlers *ZoneHandlers, jwtService *auth.JWTService) {
	authMiddleware := auth.Middleware(jwtService)
	userRateLimit := UserRateLimitMiddleware(200, 1*time.Minute)

	zoneHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api/zones")
		path = strings.Trim(path, "/")

		switch {
		case r.Method == http.MethodPost && path == "":
			handlers.CreateZone(w, r)
		case r.Method == http.MethodGet && path == "":
			handlers.ListZones(w, r)
		case r.Method == http.MethodGet && path == "locate":
			handlers.LocateZone(w, r)
		case r.Method == http.MethodGet && strings.HasPrefix(path, "owner/"):
			handlers.ListZonesByOwner(w, r, strings.TrimPrefix(path, "owner/"))
		case r.Method == http.MethodPost && strings.HasSuffix(path, "/delete"):
			handlers.RequestDeletion(w, r, strings.TrimSuffix(path, "/delete"))
		case r.Method == http.MethodPost && strings.HasSuffix(path, "/confirm"):
			handlers.ConfirmDeletion(w, r, strings.TrimSuffix(path, "/confirm"))
		case r.Method == http.MethodGet && path != "":
			handlers.GetZone(w, r, path)
		case r.Method == http.MethodPut && path != "":
			handlers.UpdateZone(w, r, path)
		default:
			http.NotFound(w, r)
		}
	})

	authenticated := authMiddleware(zoneHandler)
	rateLimited := userRateLimit(authenticated)

	mux.Handle("/api/zones/", rateLimited)
	mux.Handle("/api/zones", rateLimited)
}
