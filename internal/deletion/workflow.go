// Package deletion gates destructive zone removal behind an explicit
// confirmation window. Deleting a zone destroys an economic asset and
// a physical structure irreversibly; the two-phase request/confirm
// flow prevents a single mistyped command from discarding either.
package deletion

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/zonewarden/server/internal/clock"
	"github.com/zonewarden/server/internal/geometry"
	"github.com/zonewarden/server/internal/ledger"
	"github.com/zonewarden/server/internal/zone"
)

// ErrNoPendingRequest is returned when confirm arrives without a live
// pending request: none was made, it expired, or it was already
// consumed.
var ErrNoPendingRequest = errors.New("deletion: no pending request")

// Teardowner removes a zone's protection primitives.
type Teardowner interface {
	Teardown(ctx context.Context, zoneID string, center geometry.Position) error
}

// Notifier is told after a zone is fully removed. Implementations
// handle map marker cleanup and owner notification; failures there are
// best-effort and must not fail the deletion.
type Notifier interface {
	ZoneDeleted(ctx context.Context, z zone.Zone)
}

// tokenKey identifies a pending deletion per requester and zone, so
// two requesters cannot collide on one token.
type tokenKey struct {
	Requester string
	ZoneID    string
}

// pendingToken is the ephemeral workflow record. Not part of the
// durable domain model.
type pendingToken struct {
	RequestedAt time.Time
}

// Workflow runs the request -> confirm-or-expire state machine.
type Workflow struct {
	registry   *zone.Registry
	ledger     *ledger.Ledger
	teardowner Teardowner
	leaders    zone.LeaderChecker
	notifier   Notifier
	clock      clock.Clock
	window     time.Duration

	mu      sync.Mutex
	pending map[tokenKey]pendingToken
	timers  map[tokenKey]*time.Timer
}

// NewWorkflow creates a deletion workflow with the given confirmation
// window.
func NewWorkflow(reg *zone.Registry, led *ledger.Ledger, td Teardowner, leaders zone.LeaderChecker, notifier Notifier, clk clock.Clock, window time.Duration) *Workflow {
	return &Workflow{
		registry:   reg,
		ledger:     led,
		teardowner: td,
		leaders:    leaders,
		notifier:   notifier,
		clock:      clk,
		window:     window,
		pending:    make(map[tokenKey]pendingToken),
		timers:     make(map[tokenKey]*time.Timer),
	}
}

// Request registers a pending deletion for (requester, zone) and arms
// its expiry. Only the owning team's leader may request. Repeating a
// request refreshes the window.
func (w *Workflow) Request(ctx context.Context, zoneID, requesterID string) error {
	z, err := w.registry.Get(ctx, zoneID)
	if err != nil {
		return err
	}
	isLeader, err := w.leaders.IsLeader(ctx, z.OwnerTeamID, requesterID)
	if err != nil {
		return err
	}
	if !isLeader {
		return zone.ErrNotLeader
	}

	key := tokenKey{Requester: requesterID, ZoneID: zoneID}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[key] = pendingToken{RequestedAt: w.clock.Now()}
	if t, ok := w.timers[key]; ok {
		t.Stop()
	}
	// The timer only garbage-collects the token; Confirm checks the
	// injected clock, so expiry is exact even under a fake clock.
	w.timers[key] = time.AfterFunc(w.window, func() {
		w.expire(key)
	})
	return nil
}

// Confirm executes a pending deletion: re-validate the zone, tear down
// its protection, remove the ledger entry, notify. Confirm after the
// window, or without a prior request, fails with ErrNoPendingRequest
// and mutates nothing.
func (w *Workflow) Confirm(ctx context.Context, zoneID, requesterID string) error {
	key := tokenKey{Requester: requesterID, ZoneID: zoneID}

	w.mu.Lock()
	tok, ok := w.pending[key]
	if ok && w.clock.Now().Sub(tok.RequestedAt) > w.window {
		w.dropLocked(key)
		ok = false
	}
	w.mu.Unlock()
	if !ok {
		return ErrNoPendingRequest
	}

	// The zone may have been deleted or modified since the request.
	z, version, err := w.registry.GetWithVersion(ctx, zoneID)
	if err != nil {
		if errors.Is(err, zone.ErrNotFound) {
			w.drop(key)
		}
		return err
	}

	// Teardown before the ledger delete. A failure here aborts the
	// deletion with the ledger entry intact and the token still
	// pending, so the requester can retry within the window.
	if err := w.teardowner.Teardown(ctx, zoneID, z.Center); err != nil {
		return err
	}

	if err := w.ledger.CommitDelete(ctx, zone.Key(zoneID), version); err != nil {
		return err
	}

	w.drop(key)
	if w.notifier != nil {
		w.notifier.ZoneDeleted(ctx, z)
	}
	return nil
}

// HasPending reports whether a live pending request exists for the
// pair. Expired tokens count as absent.
func (w *Workflow) HasPending(zoneID, requesterID string) bool {
	key := tokenKey{Requester: requesterID, ZoneID: zoneID}
	w.mu.Lock()
	defer w.mu.Unlock()
	tok, ok := w.pending[key]
	if !ok {
		return false
	}
	return w.clock.Now().Sub(tok.RequestedAt) <= w.window
}

// Shutdown cancels all armed expiry timers. Pending tokens are
// in-memory only and die with the process anyway.
func (w *Workflow) Shutdown() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for key, t := range w.timers {
		t.Stop()
		delete(w.timers, key)
	}
}

func (w *Workflow) expire(key tokenKey) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.pending[key]; ok {
		log.Printf("Deletion request for zone %s by %s expired unconfirmed", key.ZoneID, key.Requester)
	}
	w.dropLocked(key)
}

func (w *Workflow) drop(key tokenKey) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dropLocked(key)
}

// dropLocked removes the token and cancels its timer. Caller holds mu.
func (w *Workflow) dropLocked(key tokenKey) {
	delete(w.pending, key)
	if t, ok := w.timers[key]; ok {
		t.Stop()
		delete(w.timers, key)
	}
}
