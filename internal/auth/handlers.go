package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Handlers provides HTTP handlers for registration and login
type Handlers struct {
	players   *PlayerStore
	jwt       *JWTService
	passwords *PasswordService
	validator *validator.Validate
}

// NewHandlers creates authentication handlers
func NewHandlers(players *PlayerStore, jwtService *JWTService, passwordService *PasswordService) *Handlers {
	return &Handlers{
		players:   players,
		jwt:       jwtService,
		passwords: passwordService,
		validator: validator.New(),
	}
}

// Register handles player registration
// POST /api/auth/register
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		sendError(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}
	if err := ValidatePasswordStrength(req.Password); err != nil {
		sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := h.passwords.HashPassword(req.Password)
	if err != nil {
		log.Printf("Failed to hash password: %v", err)
		sendError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	player, err := h.players.Create(r.Context(), req.Username, hash)
	if err != nil {
		if errors.Is(err, ErrPlayerExists) {
			sendError(w, http.StatusConflict, "username already taken")
			return
		}
		log.Printf("Failed to create player: %v", err)
		sendError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(player)
}

// Login handles player login
// POST /api/auth/login
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		sendError(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	player, err := h.players.Get(r.Context(), req.Username)
	if err != nil {
		// Same response as a bad password so usernames cannot be probed.
		sendError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := h.passwords.VerifyPassword(req.Password, player.PasswordHash); err != nil {
		sendError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, expiresAt, err := h.jwt.GenerateToken(player.Username)
	if err != nil {
		log.Printf("Failed to generate token: %v", err)
		sendError(w, http.StatusInternalServerError, "login failed")
		return
	}

	if err := h.players.RecordLogin(r.Context(), player.Username); err != nil {
		log.Printf("Failed to record login for %s: %v", player.Username, err)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(TokenResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		Username:    player.Username,
	})
}

func sendError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
