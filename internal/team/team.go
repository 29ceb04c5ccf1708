// Package team manages the owning collectives behind zones. Teams are
// simple keyed records; the only authorization the core cares about is
// leader versus member.
package team

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zonewarden/server/internal/clock"
	"github.com/zonewarden/server/internal/store"
)

// Team is the owning collective for zones.
type Team struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	LeaderID  string    `json:"leader_id"`
	Members   []string  `json:"members"`
	CreatedAt time.Time `json:"created_at"`
}

// KeyPrefix is the store prefix under which team records live.
const KeyPrefix = "team/"

// Key returns the store key for a team id.
func Key(id string) string {
	return KeyPrefix + id
}

var (
	// ErrNotFound is returned when no team exists for the id.
	ErrNotFound = errors.New("team: not found")

	// ErrExists is returned when creating a team whose id is taken.
	ErrExists = errors.New("team: already exists")

	// ErrNotLeader is returned when a leader-only action is attempted
	// by a non-leader.
	ErrNotLeader = errors.New("team: requester is not the leader")
)

// Service provides team CRUD and membership checks over the store.
type Service struct {
	store store.Store
	clock clock.Clock
}

// NewService creates a team Service.
func NewService(st store.Store, clk clock.Clock) *Service {
	return &Service{store: st, clock: clk}
}

// Create registers a new team with the given leader, who is also its
// first member.
func (s *Service) Create(ctx context.Context, id, name, leaderID string) (Team, error) {
	tm := Team{
		ID:        id,
		Name:      name,
		LeaderID:  leaderID,
		Members:   []string{leaderID},
		CreatedAt: s.clock.Now(),
	}
	record, err := json.Marshal(tm)
	if err != nil {
		return Team{}, fmt.Errorf("failed to encode team %s: %w", id, err)
	}
	err = s.store.AtomicCommit(ctx,
		[]store.Check{{Key: Key(id), Version: store.VersionAbsent}},
		[]store.Write{{Key: Key(id), Value: record}})
	if err == store.ErrConflict {
		return Team{}, ErrExists
	}
	if err != nil {
		return Team{}, fmt.Errorf("failed to create team %s: %w", id, err)
	}
	return tm, nil
}

// Get returns the team with the given id.
func (s *Service) Get(ctx context.Context, id string) (Team, error) {
	tm, _, err := s.getWithVersion(ctx, id)
	return tm, err
}

func (s *Service) getWithVersion(ctx context.Context, id string) (Team, int64, error) {
	e, err := s.store.Get(ctx, Key(id))
	if err == store.ErrNotFound {
		return Team{}, 0, ErrNotFound
	}
	if err != nil {
		return Team{}, 0, fmt.Errorf("failed to read team %s: %w", id, err)
	}
	var tm Team
	if err := json.Unmarshal(e.Value, &tm); err != nil {
		return Team{}, 0, fmt.Errorf("corrupt team record %s: %w", id, err)
	}
	return tm, e.Version, nil
}

// IsLeader reports whether playerID leads the team.
func (s *Service) IsLeader(ctx context.Context, teamID, playerID string) (bool, error) {
	tm, err := s.Get(ctx, teamID)
	if err != nil {
		return false, err
	}
	return tm.LeaderID == playerID, nil
}

// IsMember reports whether playerID belongs to the team.
func (s *Service) IsMember(ctx context.Context, teamID, playerID string) (bool, error) {
	tm, err := s.Get(ctx, teamID)
	if err != nil {
		return false, err
	}
	for _, m := range tm.Members {
		if m == playerID {
			return true, nil
		}
	}
	return false, nil
}

// Members returns the team's member ids.
func (s *Service) Members(ctx context.Context, teamID string) ([]string, error) {
	tm, err := s.Get(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return tm.Members, nil
}

// AddMember adds a player to the roster. Leader only. Adding an
// existing member is a no-op.
func (s *Service) AddMember(ctx context.Context, teamID, requesterID, playerID string) error {
	return s.updateRoster(ctx, teamID, requesterID, func(tm *Team) {
		for _, m := range tm.Members {
			if m == playerID {
				return
			}
		}
		tm.Members = append(tm.Members, playerID)
	})
}

// RemoveMember removes a player from the roster. Leader only. The
// leader cannot be removed.
func (s *Service) RemoveMember(ctx context.Context, teamID, requesterID, playerID string) error {
	if playerID == requesterID {
		return fmt.Errorf("team: leader cannot leave their own team")
	}
	return s.updateRoster(ctx, teamID, requesterID, func(tm *Team) {
		for i, m := range tm.Members {
			if m == playerID {
				tm.Members = append(tm.Members[:i], tm.Members[i+1:]...)
				return
			}
		}
	})
}

// updateRoster applies mutate under a leader check with optimistic
// concurrency, retrying on version races since roster edits commute.
func (s *Service) updateRoster(ctx context.Context, teamID, requesterID string, mutate func(*Team)) error {
	for {
		tm, version, err := s.getWithVersion(ctx, teamID)
		if err != nil {
			return err
		}
		if tm.LeaderID != requesterID {
			return ErrNotLeader
		}
		mutate(&tm)
		record, err := json.Marshal(tm)
		if err != nil {
			return fmt.Errorf("failed to encode team %s: %w", teamID, err)
		}
		err = s.store.AtomicCommit(ctx,
			[]store.Check{{Key: Key(teamID), Version: version}},
			[]store.Write{{Key: Key(teamID), Value: record}})
		if err == store.ErrConflict {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to update team %s: %w", teamID, err)
		}
		return nil
	}
}
