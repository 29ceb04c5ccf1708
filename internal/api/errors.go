package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/zonewarden/server/internal/auth"
	"github.com/zonewarden/server/internal/deletion"
	"github.com/zonewarden/server/internal/ledger"
	"github.com/zonewarden/server/internal/protection"
	"github.com/zonewarden/server/internal/team"
	"github.com/zonewarden/server/internal/zone"
)

// errorResponse is the uniform error body for all API endpoints.
type errorResponse struct {
	Error string `json:"error"`
}

func sendJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}

func sendError(w http.ResponseWriter, status int, message string) {
	sendJSON(w, status, errorResponse{Error: message})
}

// sendDomainError maps domain sentinel errors onto HTTP statuses.
func sendDomainError(w http.ResponseWriter, err error) {
	var recErr *protection.ReconciliationError

	switch {
	case errors.Is(err, zone.ErrValidation):
		sendError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, zone.ErrNotFound), errors.Is(err, team.ErrNotFound), errors.Is(err, auth.ErrPlayerNotFound):
		sendError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, zone.ErrNotLeader), errors.Is(err, team.ErrNotLeader):
		sendError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, zone.ErrOverlap):
		sendError(w, http.StatusConflict, err.Error())
	case errors.Is(err, zone.ErrConflict), errors.Is(err, ledger.ErrConflict), errors.Is(err, team.ErrExists):
		sendError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrInsufficientFunds):
		sendError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, deletion.ErrNoPendingRequest):
		sendError(w, http.StatusConflict, err.Error())
	case errors.As(err, &recErr):
		// The command channel failed mid-sequence. The world is in a
		// partial state the caller should know about.
		sendError(w, http.StatusBadGateway, err.Error())
	default:
		log.Printf("Internal error: %v", err)
		sendError(w, http.StatusInternalServerError, "internal server error")
	}
}
