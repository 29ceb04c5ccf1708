package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/zonewarden/server/internal/auth"
	"github.com/zonewarden/server/internal/team"
)

// CreateTeamRequest is the request body for team creation. The
// authenticated player becomes the leader.
type CreateTeamRequest struct {
	ID   string `json:"id" validate:"required,min=2,max=32,lowercase"`
	Name string `json:"name" validate:"required,min=1,max=64"`
}

// MemberRequest names a player for roster changes.
type MemberRequest struct {
	PlayerID string `json:"player_id" validate:"required"`
}

// TeamHandlers provides HTTP handlers for team management.
type TeamHandlers struct {
	teams     *team.Service
	validator *validator.Validate
}

// NewTeamHandlers creates team handlers.
func NewTeamHandlers(teams *team.Service) *TeamHandlers {
	return &TeamHandlers{teams: teams, validator: validator.New()}
}

// CreateTeam handles team creation
// POST /api/teams
func (h *TeamHandlers) CreateTeam(w http.ResponseWriter, r *http.Request) {
	playerID, ok := auth.PlayerID(r.Context())
	if !ok {
		sendError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req CreateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		sendError(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	tm, err := h.teams.Create(r.Context(), req.ID, req.Name, playerID)
	if err != nil {
		sendDomainError(w, err)
		return
	}
	sendJSON(w, http.StatusCreated, tm)
}

// GetTeam handles team retrieval
// GET /api/teams/{id}
func (h *TeamHandlers) GetTeam(w http.ResponseWriter, r *http.Request, id string) {
	tm, err := h.teams.Get(r.Context(), id)
	if err != nil {
		sendDomainError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, tm)
}

// AddMember adds a player to the roster
// POST /api/teams/{id}/members
func (h *TeamHandlers) AddMember(w http.ResponseWriter, r *http.Request, id string) {
	playerID, ok := auth.PlayerID(r.Context())
	if !ok {
		sendError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req MemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		sendError(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	if err := h.teams.AddMember(r.Context(), id, playerID, req.PlayerID); err != nil {
		sendDomainError(w, err)
		return
	}
	tm, err := h.teams.Get(r.Context(), id)
	if err != nil {
		sendDomainError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, tm)
}

// RemoveMember removes a player from the roster
// DELETE /api/teams/{id}/members/{playerID}
func (h *TeamHandlers) RemoveMember(w http.ResponseWriter, r *http.Request, id, memberID string) {
	playerID, ok := auth.PlayerID(r.Context())
	if !ok {
		sendError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.teams.RemoveMember(r.Context(), id, playerID, memberID); err != nil {
		sendDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
