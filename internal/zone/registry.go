package zone

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/zonewarden/server/internal/clock"
	"github.com/zonewarden/server/internal/geometry"
	"github.com/zonewarden/server/internal/ledger"
	"github.com/zonewarden/server/internal/store"
)

// LeaderChecker answers whether a player leads a team. Implemented by
// the team package; declared here so the registry stays mockable.
type LeaderChecker interface {
	IsLeader(ctx context.Context, teamID, playerID string) (bool, error)
}

// Settings holds the geometry and economy tuning the registry enforces.
type Settings struct {
	// HalfExtent is the distance from a zone's center to each edge.
	HalfExtent float64
	// Buffer is the minimum enforced gap between zone boundaries.
	Buffer float64
	// CreationCost is charged to the payer on create.
	CreationCost int64
}

// Registry owns the canonical id -> zone mapping and enforces the
// non-overlap invariant. All zone mutations flow through it.
type Registry struct {
	store    store.Store
	ledger   *ledger.Ledger
	leaders  LeaderChecker
	clock    clock.Clock
	settings Settings
}

// NewRegistry creates a Registry with explicit dependencies. There is
// no package-level state; everything shared lives in the store.
func NewRegistry(st store.Store, led *ledger.Ledger, leaders LeaderChecker, clk clock.Clock, settings Settings) *Registry {
	return &Registry{
		store:    st,
		ledger:   led,
		leaders:  leaders,
		clock:    clk,
		settings: settings,
	}
}

// CreateInput carries a zone creation request.
type CreateInput struct {
	Name        string
	Description string
	Center      geometry.Position
	OwnerTeamID string
	PayerID     string
}

// Create validates, charges, and records a new zone. The overlap scan
// runs against the zone list as read here; it is not re-checked inside
// the atomic commit, so two concurrent creates with different ids can
// in principle both pass a stale scan. The commit does serialize
// duplicate ids and double-spends.
func (r *Registry) Create(ctx context.Context, in CreateInput) (Zone, error) {
	if in.Name == "" || in.OwnerTeamID == "" || in.PayerID == "" {
		return Zone{}, ErrValidation
	}
	id := DeriveID(in.Name)
	if id == "" {
		return Zone{}, fmt.Errorf("%w: name %q derives an empty id", ErrValidation, in.Name)
	}

	corners := geometry.SquareCorners(in.Center, r.settings.HalfExtent)

	existing, err := r.ListAll(ctx)
	if err != nil {
		return Zone{}, err
	}
	for _, other := range existing {
		if geometry.Overlaps(corners, other.Corners, r.settings.Buffer) {
			return Zone{}, fmt.Errorf("%w: %s", ErrOverlap, other.ID)
		}
	}

	// Cheap early rejection. The atomic commit below is what actually
	// prevents a double-spend; the balance can still change in between.
	balance, _, err := r.ledger.Balance(ctx, in.PayerID)
	if err != nil {
		return Zone{}, err
	}
	if balance < r.settings.CreationCost {
		return Zone{}, ledger.ErrInsufficientFunds
	}

	z := Zone{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		OwnerTeamID: in.OwnerTeamID,
		Center:      in.Center,
		Corners:     corners,
		CreatedAt:   r.clock.Now(),
		CreatedBy:   in.PayerID,
	}
	record, err := json.Marshal(z)
	if err != nil {
		return Zone{}, fmt.Errorf("failed to encode zone %s: %w", id, err)
	}

	if err := r.ledger.CommitCreate(ctx, Key(id), record, in.PayerID, r.settings.CreationCost); err != nil {
		return Zone{}, err
	}
	return z, nil
}

// Get returns the zone with the given id.
func (r *Registry) Get(ctx context.Context, id string) (Zone, error) {
	z, _, err := r.GetWithVersion(ctx, id)
	return z, err
}

// GetWithVersion returns the zone and the version token of its record,
// for callers that will follow up with a version-checked delete.
func (r *Registry) GetWithVersion(ctx context.Context, id string) (Zone, int64, error) {
	e, err := r.store.Get(ctx, Key(id))
	if err == store.ErrNotFound {
		return Zone{}, 0, ErrNotFound
	}
	if err != nil {
		return Zone{}, 0, fmt.Errorf("failed to read zone %s: %w", id, err)
	}
	var z Zone
	if err := json.Unmarshal(e.Value, &z); err != nil {
		return Zone{}, 0, fmt.Errorf("corrupt zone record %s: %w", id, err)
	}
	return z, e.Version, nil
}

// ListAll returns every active zone in store iteration order.
func (r *Registry) ListAll(ctx context.Context) ([]Zone, error) {
	entries, err := r.store.List(ctx, KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list zones: %w", err)
	}
	zones := make([]Zone, 0, len(entries))
	for _, e := range entries {
		var z Zone
		if err := json.Unmarshal(e.Value, &z); err != nil {
			return nil, fmt.Errorf("corrupt zone record %s: %w", e.Key, err)
		}
		zones = append(zones, z)
	}
	return zones, nil
}

// ListByOwner returns the zones owned by a team, in store iteration
// order. No sorting is guaranteed.
func (r *Registry) ListByOwner(ctx context.Context, teamID string) ([]Zone, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	var owned []Zone
	for _, z := range all {
		if z.OwnerTeamID == teamID {
			owned = append(owned, z)
		}
	}
	return owned, nil
}

// FindContaining returns the first zone containing the point, in store
// iteration order. With the non-overlap invariant holding at most one
// zone can match; if out-of-band data ever violates it, first match
// wins rather than failing.
func (r *Registry) FindContaining(ctx context.Context, p geometry.Position) (Zone, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return Zone{}, err
	}
	for _, z := range all {
		if geometry.Contains(p, z.Corners) {
			return z, nil
		}
	}
	return Zone{}, ErrNotFound
}

// Mutable settings fields accepted by UpdateSettings.
const (
	FieldDescription = "description"
	FieldPrice       = "price"
)

// UpdateSettings changes a zone's description or price. Only the
// owning team's leader may do this. Setting a positive price marks the
// zone for sale; setting it to zero delists it. Corners and center are
// never touched here, so the non-overlap invariant cannot be broken by
// this path.
func (r *Registry) UpdateSettings(ctx context.Context, id, field, value, requesterID string) (Zone, error) {
	e, err := r.store.Get(ctx, Key(id))
	if err == store.ErrNotFound {
		return Zone{}, ErrNotFound
	}
	if err != nil {
		return Zone{}, fmt.Errorf("failed to read zone %s: %w", id, err)
	}
	var z Zone
	if err := json.Unmarshal(e.Value, &z); err != nil {
		return Zone{}, fmt.Errorf("corrupt zone record %s: %w", id, err)
	}

	isLeader, err := r.leaders.IsLeader(ctx, z.OwnerTeamID, requesterID)
	if err != nil {
		return Zone{}, err
	}
	if !isLeader {
		return Zone{}, ErrNotLeader
	}

	switch field {
	case FieldDescription:
		z.Description = value
	case FieldPrice:
		price, err := strconv.ParseInt(value, 10, 64)
		if err != nil || price < 0 {
			return Zone{}, fmt.Errorf("%w: price must be a non-negative integer", ErrValidation)
		}
		z.Price = price
		z.ForSale = price > 0
	default:
		return Zone{}, fmt.Errorf("%w: field %q is not mutable", ErrValidation, field)
	}

	record, err := json.Marshal(z)
	if err != nil {
		return Zone{}, fmt.Errorf("failed to encode zone %s: %w", id, err)
	}
	err = r.store.AtomicCommit(ctx,
		[]store.Check{{Key: Key(id), Version: e.Version}},
		[]store.Write{{Key: Key(id), Value: record}})
	if err == store.ErrConflict {
		return Zone{}, ErrConflict
	}
	if err != nil {
		return Zone{}, fmt.Errorf("failed to update zone %s: %w", id, err)
	}
	return z, nil
}
