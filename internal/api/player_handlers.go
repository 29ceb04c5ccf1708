package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/zonewarden/server/internal/auth"
	"github.com/zonewarden/server/internal/geometry"
	"github.com/zonewarden/server/internal/ledger"
)

// PositionReport is a player position update from the game side.
type PositionReport struct {
	Position geometry.Position `json:"position"`
}

// DepositRequest credits a player's balance.
type DepositRequest struct {
	PlayerID string `json:"player_id" validate:"required"`
	Amount   int64  `json:"amount" validate:"required,gt=0"`
}

// BalanceResponse reports a player's ledger balance.
type BalanceResponse struct {
	PlayerID string `json:"player_id"`
	Balance  int64  `json:"balance"`
}

// PlayerHandlers provides HTTP handlers for player profile, position,
// and balance.
type PlayerHandlers struct {
	players   *auth.PlayerStore
	ledger    *ledger.Ledger
	validator *validator.Validate
}

// NewPlayerHandlers creates player handlers.
func NewPlayerHandlers(players *auth.PlayerStore, led *ledger.Ledger) *PlayerHandlers {
	return &PlayerHandlers{players: players, ledger: led, validator: validator.New()}
}

// GetMe returns the authenticated player's profile
// GET /api/players/me
func (h *PlayerHandlers) GetMe(w http.ResponseWriter, r *http.Request) {
	playerID, ok := auth.PlayerID(r.Context())
	if !ok {
		sendError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	player, err := h.players.Get(r.Context(), playerID)
	if err != nil {
		sendDomainError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, player)
}

// ReportPosition stores the caller's current world position
// PUT /api/players/me/position
func (h *PlayerHandlers) ReportPosition(w http.ResponseWriter, r *http.Request) {
	playerID, ok := auth.PlayerID(r.Context())
	if !ok {
		sendError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req PositionReport
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.players.UpdatePosition(r.Context(), playerID, req.Position); err != nil {
		sendDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetBalance returns the caller's ledger balance
// GET /api/players/me/balance
func (h *PlayerHandlers) GetBalance(w http.ResponseWriter, r *http.Request) {
	playerID, ok := auth.PlayerID(r.Context())
	if !ok {
		sendError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	balance, _, err := h.ledger.Balance(r.Context(), playerID)
	if err != nil {
		sendDomainError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, BalanceResponse{PlayerID: playerID, Balance: balance})
}

// Deposit credits a player's balance. This is the game side's hook for
// paying out currency; it is not exposed to regular players in routing.
// POST /api/players/deposit
func (h *PlayerHandlers) Deposit(w http.ResponseWriter, r *http.Request) {
	var req DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		sendError(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	if err := h.ledger.Deposit(r.Context(), req.PlayerID, req.Amount); err != nil {
		sendDomainError(w, err)
		return
	}
	balance, _, err := h.ledger.Balance(r.Context(), req.PlayerID)
	if err != nil {
		sendDomainError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, BalanceResponse{PlayerID: req.PlayerID, Balance: balance})
}
