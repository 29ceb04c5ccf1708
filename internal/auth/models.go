package auth

import (
	"time"

	"github.com/zonewarden/server/internal/geometry"
)

// Player represents a registered player account. The username doubles
// as the player id everywhere else in the system (team rosters, zone
// provenance, balances).
type Player struct {
	Username     string             `json:"username"`
	PasswordHash string             `json:"-"`
	CreatedAt    time.Time          `json:"created_at"`
	LastLogin    *time.Time         `json:"last_login,omitempty"`
	Position     *geometry.Position `json:"position,omitempty"`
}

// playerRecord is the stored shape of a Player. PasswordHash is
// excluded from Player's JSON so it never leaks through an API
// response, but it does have to be persisted.
type playerRecord struct {
	Username     string             `json:"username"`
	PasswordHash string             `json:"password_hash"`
	CreatedAt    time.Time          `json:"created_at"`
	LastLogin    *time.Time         `json:"last_login,omitempty"`
	Position     *geometry.Position `json:"position,omitempty"`
}

// RegisterRequest represents a player registration request
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32,alphanum"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest represents a player login request
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse carries an issued access token
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Username    string    `json:"username"`
}
