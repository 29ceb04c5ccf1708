package protection

import (
	"context"
	"fmt"
	"time"

	"github.com/zonewarden/server/internal/geometry"
)

// Channel is the external command executor: ordered from this caller's
// point of view, at-least-once, no batching. Execute returns once the
// command is acknowledged.
type Channel interface {
	Execute(ctx context.Context, command string) error
}

// Pacer spaces out consecutive primitive issues. The external channel
// is rate limited and drops or reorders commands under load, so every
// primitive after the first waits one pace first.
type Pacer interface {
	Pause(ctx context.Context) error
}

// FixedPacer pauses a fixed delay between primitives.
type FixedPacer struct {
	Delay time.Duration
}

func (p FixedPacer) Pause(ctx context.Context) error {
	timer := time.NewTimer(p.Delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NopPacer skips pacing. Used by tests.
type NopPacer struct{}

func (NopPacer) Pause(context.Context) error { return nil }

// ReconciliationError reports a primitive sequence that failed part
// way through. Everything before Index was issued; everything after
// was not. The zone's ledger state is not rolled back here; repair is
// a manual re-apply or delete.
type ReconciliationError struct {
	Phase string // "apply" or "teardown"
	Step  string
	Index int
	Total int
	Err   error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("protection %s failed at step %s (%d/%d): %v",
		e.Phase, e.Step, e.Index+1, e.Total, e.Err)
}

func (e *ReconciliationError) Unwrap() error {
	return e.Err
}

// Reconciler applies and tears down a zone's protection primitives
// through the command channel. It is stateless: both directions are
// pure functions of (zone id, center) plus the fixed layout.
type Reconciler struct {
	channel Channel
	pacer   Pacer
	layout  Layout
}

// NewReconciler creates a Reconciler.
func NewReconciler(ch Channel, pacer Pacer, layout Layout) *Reconciler {
	return &Reconciler{channel: ch, pacer: pacer, layout: layout}
}

// Apply issues the full create-side primitive sequence for a zone.
// Strictly sequential; a failure aborts the remaining steps.
func (r *Reconciler) Apply(ctx context.Context, zoneID, ownerTeamID string, center geometry.Position) error {
	prims := BuildApply(zoneID, ownerTeamID, center, r.layout)
	return r.run(ctx, "apply", prims)
}

// Teardown issues the full delete-side primitive sequence for a zone,
// recomputing positions from the stored center.
func (r *Reconciler) Teardown(ctx context.Context, zoneID string, center geometry.Position) error {
	prims := BuildTeardown(zoneID, center, r.layout)
	return r.run(ctx, "teardown", prims)
}

func (r *Reconciler) run(ctx context.Context, phase string, prims []Primitive) error {
	for i, p := range prims {
		if i > 0 {
			if err := r.pacer.Pause(ctx); err != nil {
				return &ReconciliationError{Phase: phase, Step: p.Step, Index: i, Total: len(prims), Err: err}
			}
		}
		if err := r.channel.Execute(ctx, p.Command); err != nil {
			return &ReconciliationError{Phase: phase, Step: p.Step, Index: i, Total: len(prims), Err: err}
		}
	}
	return nil
}
