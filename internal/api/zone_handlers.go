package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/zonewarden/server/internal/auth"
	"github.com/zonewarden/server/internal/deletion"
	"github.com/zonewarden/server/internal/geometry"
	"github.com/zonewarden/server/internal/zone"
)

// Protector applies protection primitives for a new zone. Implemented
// by the protection reconciler.
type Protector interface {
	Apply(ctx context.Context, zoneID, ownerTeamID string, center geometry.Position) error
}

// MapPublisher mirrors zone creation onto the external map. Deletion
// markers are handled by the deletion workflow's notifier instead.
type MapPublisher interface {
	ZoneCreated(ctx context.Context, z zone.Zone)
}

// ZoneHandlers provides HTTP handlers for zone lifecycle.
type ZoneHandlers struct {
	registry  *zone.Registry
	protector Protector
	publisher MapPublisher
	deletions *deletion.Workflow
	players   *auth.PlayerStore
	validator *validator.Validate
}

// NewZoneHandlers creates zone handlers. publisher may be nil when map
// sync is disabled.
func NewZoneHandlers(registry *zone.Registry, protector Protector, publisher MapPublisher, deletions *deletion.Workflow, players *auth.PlayerStore) *ZoneHandlers {
	return &ZoneHandlers{
		registry:  registry,
		protector: protector,
		publisher: publisher,
		deletions: deletions,
		players:   players,
		validator: validator.New(),
	}
}

// CreateZone handles zone creation
// POST /api/zones
//
// The ledger commit is the point of no return: once it succeeds the
// zone exists even if protection application fails afterwards, and the
// failure is reported so an operator can re-run the sequence.
func (h *ZoneHandlers) CreateZone(w http.ResponseWriter, r *http.Request) {
	playerID, ok := auth.PlayerID(r.Context())
	if !ok {
		sendError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req CreateZoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		sendError(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	z, err := h.registry.Create(r.Context(), zone.CreateInput{
		Name:        req.Name,
		Description: req.Description,
		Center:      req.Center,
		OwnerTeamID: req.TeamID,
		PayerID:     playerID,
	})
	if err != nil {
		sendDomainError(w, err)
		return
	}

	if err := h.protector.Apply(r.Context(), z.ID, z.OwnerTeamID, z.Center); err != nil {
		log.Printf("Protection apply failed for zone %s: %v", z.ID, err)
		sendDomainError(w, err)
		return
	}

	if h.publisher != nil {
		h.publisher.ZoneCreated(r.Context(), z)
	}

	sendJSON(w, http.StatusCreated, z)
}

// GetZone handles zone retrieval by id
// GET /api/zones/{id}
func (h *ZoneHandlers) GetZone(w http.ResponseWriter, r *http.Request, id string) {
	z, err := h.registry.Get(r.Context(), id)
	if err != nil {
		sendDomainError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, z)
}

// ListZones handles listing all zones
// GET /api/zones
func (h *ZoneHandlers) ListZones(w http.ResponseWriter, r *http.Request) {
	zones, err := h.registry.ListAll(r.Context())
	if err != nil {
		sendDomainError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, zones)
}

// ListZonesByOwner handles listing a team's zones
// GET /api/zones/owner/{teamID}
func (h *ZoneHandlers) ListZonesByOwner(w http.ResponseWriter, r *http.Request, teamID string) {
	zones, err := h.registry.ListByOwner(r.Context(), teamID)
	if err != nil {
		sendDomainError(w, err)
		return
	}
	if zones == nil {
		zones = []zone.Zone{}
	}
	sendJSON(w, http.StatusOK, zones)
}

// LocateZone finds the zone containing a position
// GET /api/zones/locate?x=&y=&z=
//
// Without coordinates the caller's last reported position is used.
func (h *ZoneHandlers) LocateZone(w http.ResponseWriter, r *http.Request) {
	var pos geometry.Position
	q := r.URL.Query()

	if q.Get("x") != "" || q.Get("z") != "" {
		var err error
		pos, err = parsePosition(q.Get("x"), q.Get("y"), q.Get("z"))
		if err != nil {
			sendError(w, http.StatusBadRequest, "coordinates must be numbers")
			return
		}
	} else {
		playerID, ok := auth.PlayerID(r.Context())
		if !ok {
			sendError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		reported, known, err := h.players.Position(r.Context(), playerID)
		if err != nil {
			sendDomainError(w, err)
			return
		}
		if !known {
			sendError(w, http.StatusBadRequest, "no position on record; pass x and z")
			return
		}
		pos = reported
	}

	z, err := h.registry.FindContaining(r.Context(), pos)
	if err != nil {
		sendDomainError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, z)
}

// UpdateZone handles zone settings updates
// PUT /api/zones/{id}
func (h *ZoneHandlers) UpdateZone(w http.ResponseWriter, r *http.Request, id string) {
	playerID, ok := auth.PlayerID(r.Context())
	if !ok {
		sendError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req UpdateZoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		sendError(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	z, err := h.registry.UpdateSettings(r.Context(), id, req.Field, req.Value, playerID)
	if err != nil {
		sendDomainError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, z)
}

// RequestDeletion opens the confirmation window for a zone deletion
// POST /api/zones/{id}/delete
func (h *ZoneHandlers) RequestDeletion(w http.ResponseWriter, r *http.Request, id string) {
	playerID, ok := auth.PlayerID(r.Context())
	if !ok {
		sendError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.deletions.Request(r.Context(), id, playerID); err != nil {
		sendDomainError(w, err)
		return
	}
	sendJSON(w, http.StatusAccepted, DeletionStatusResponse{ZoneID: id, Pending: true})
}

// ConfirmDeletion executes a pending zone deletion
// POST /api/zones/{id}/confirm
func (h *ZoneHandlers) ConfirmDeletion(w http.ResponseWriter, r *http.Request, id string) {
	playerID, ok := auth.PlayerID(r.Context())
	if !ok {
		sendError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.deletions.Confirm(r.Context(), id, playerID); err != nil {
		sendDomainError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, DeletionStatusResponse{ZoneID: id, Pending: false})
}

func parsePosition(xs, ys, zs string) (geometry.Position, error) {
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return geometry.Position{}, err
	}
	z, err := strconv.ParseFloat(strings.TrimSpace(zs), 64)
	if err != nil {
		return geometry.Position{}, err
	}
	var y float64
	if ys != "" {
		y, err = strconv.ParseFloat(strings.TrimSpace(ys), 64)
		if err != nil {
			return geometry.Position{}, err
		}
	}
	return geometry.Position{X: x, Y: y, Z: z}, nil
}
