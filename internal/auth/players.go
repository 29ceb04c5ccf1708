package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/zonewarden/server/internal/clock"
	"github.com/zonewarden/server/internal/geometry"
	"github.com/zonewarden/server/internal/store"
)

// KeyPrefix namespaces player records in the store.
const KeyPrefix = "player/"

var (
	// ErrPlayerExists is returned when registering a username that is taken.
	ErrPlayerExists = errors.New("player already exists")
	// ErrPlayerNotFound is returned when a player record does not exist.
	ErrPlayerNotFound = errors.New("player not found")
)

// Key returns the store key for a player.
func Key(username string) string {
	return KeyPrefix + username
}

// PlayerStore persists player accounts in the transactional store.
type PlayerStore struct {
	store store.Store
	clock clock.Clock
}

// NewPlayerStore creates a player store.
func NewPlayerStore(st store.Store, clk clock.Clock) *PlayerStore {
	return &PlayerStore{store: st, clock: clk}
}

// Create registers a new player. The username is normalized to lower
// case so lookups are case-insensitive.
func (p *PlayerStore) Create(ctx context.Context, username, passwordHash string) (Player, error) {
	username = strings.ToLower(username)
	rec := playerRecord{
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    p.clock.Now(),
	}
	value, err := json.Marshal(rec)
	if err != nil {
		return Player{}, fmt.Errorf("failed to encode player: %w", err)
	}

	err = p.store.AtomicCommit(ctx,
		[]store.Check{{Key: Key(username), Version: store.VersionAbsent}},
		[]store.Write{{Key: Key(username), Value: value}},
	)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return Player{}, ErrPlayerExists
		}
		return Player{}, fmt.Errorf("failed to store player: %w", err)
	}
	return playerFromRecord(rec), nil
}

// Get fetches a player by username.
func (p *PlayerStore) Get(ctx context.Context, username string) (Player, error) {
	rec, _, err := p.getRecord(ctx, username)
	if err != nil {
		return Player{}, err
	}
	return playerFromRecord(rec), nil
}

// RecordLogin stamps the player's last login time.
func (p *PlayerStore) RecordLogin(ctx context.Context, username string) error {
	return p.update(ctx, username, func(rec *playerRecord) {
		now := p.clock.Now()
		rec.LastLogin = &now
	})
}

// UpdatePosition stores the player's last reported world position.
func (p *PlayerStore) UpdatePosition(ctx context.Context, username string, pos geometry.Position) error {
	return p.update(ctx, username, func(rec *playerRecord) {
		rec.Position = &pos
	})
}

// Position returns the player's last reported position, or false when
// the player has never reported one.
func (p *PlayerStore) Position(ctx context.Context, username string) (geometry.Position, bool, error) {
	rec, _, err := p.getRecord(ctx, username)
	if err != nil {
		return geometry.Position{}, false, err
	}
	if rec.Position == nil {
		return geometry.Position{}, false, nil
	}
	return *rec.Position, true, nil
}

func (p *PlayerStore) getRecord(ctx context.Context, username string) (playerRecord, int64, error) {
	username = strings.ToLower(username)
	entry, err := p.store.Get(ctx, Key(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return playerRecord{}, 0, ErrPlayerNotFound
		}
		return playerRecord{}, 0, fmt.Errorf("failed to load player: %w", err)
	}
	var rec playerRecord
	if err := json.Unmarshal(entry.Value, &rec); err != nil {
		return playerRecord{}, 0, fmt.Errorf("failed to decode player %s: %w", username, err)
	}
	return rec, entry.Version, nil
}

// update applies mutate under a compare-and-commit, retrying on
// concurrent writers.
func (p *PlayerStore) update(ctx context.Context, username string, mutate func(*playerRecord)) error {
	username = strings.ToLower(username)
	for {
		rec, version, err := p.getRecord(ctx, username)
		if err != nil {
			return err
		}
		mutate(&rec)
		value, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode player: %w", err)
		}
		err = p.store.AtomicCommit(ctx,
			[]store.Check{{Key: Key(username), Version: version}},
			[]store.Write{{Key: Key(username), Value: value}},
		)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("failed to store player: %w", err)
		}
	}
}

func playerFromRecord(rec playerRecord) Player {
	return Player{
		Username:     rec.Username,
		PasswordHash: rec.PasswordHash,
		CreatedAt:    rec.CreatedAt,
		LastLogin:    rec.LastLogin,
		Position:     rec.Position,
	}
}
