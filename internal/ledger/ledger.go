// Package ledger wraps the transactional store with the two atomic
// operations zone lifecycle depends on: charge-and-insert on create,
// version-checked removal on delete. It never retries on its own;
// a conflict means the caller must re-read the world and re-validate
// before trying again.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/zonewarden/server/internal/store"
)

var (
	// ErrConflict is returned when an optimistic commit loses a race
	// on the zone key or the payer's balance version.
	ErrConflict = errors.New("ledger: commit conflict")

	// ErrInsufficientFunds is returned when the payer cannot cover the
	// cost at commit time.
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")
)

// BalanceKey returns the store key holding a player's currency balance.
func BalanceKey(playerID string) string {
	return "balance/" + playerID
}

// Ledger performs atomic currency and zone-record commits.
type Ledger struct {
	store store.Store
}

// New creates a Ledger over the given store.
func New(st store.Store) *Ledger {
	return &Ledger{store: st}
}

// Balance returns the player's current balance and the version token
// of the balance entry. A player with no entry has balance 0 and
// version store.VersionAbsent.
func (l *Ledger) Balance(ctx context.Context, playerID string) (int64, int64, error) {
	e, err := l.store.Get(ctx, BalanceKey(playerID))
	if err == store.ErrNotFound {
		return 0, store.VersionAbsent, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read balance for %s: %w", playerID, err)
	}
	balance, err := strconv.ParseInt(string(e.Value), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("corrupt balance entry for %s: %w", playerID, err)
	}
	return balance, e.Version, nil
}

// Deposit adds amount to the player's balance. Used for seeding and
// admin grants; it is a blind read-modify-write retried on conflict
// because deposits never need to observe a consistent world.
func (l *Ledger) Deposit(ctx context.Context, playerID string, amount int64) error {
	for {
		balance, version, err := l.Balance(ctx, playerID)
		if err != nil {
			return err
		}
		next := []byte(strconv.FormatInt(balance+amount, 10))
		err = l.store.AtomicCommit(ctx,
			[]store.Check{{Key: BalanceKey(playerID), Version: version}},
			[]store.Write{{Key: BalanceKey(playerID), Value: next}})
		if err == store.ErrConflict {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to deposit for %s: %w", playerID, err)
		}
		return nil
	}
}

// CommitCreate inserts the zone record and deducts cost from the payer
// in one atomic step. It succeeds only if no record exists at zoneKey
// and the payer's balance has not changed since it was read here.
// On any conflict, nothing is applied and ErrConflict is returned;
// no currency is spent and no zone exists.
func (l *Ledger) CommitCreate(ctx context.Context, zoneKey string, record []byte, payerID string, cost int64) error {
	balance, version, err := l.Balance(ctx, payerID)
	if err != nil {
		return err
	}
	if balance < cost {
		return ErrInsufficientFunds
	}

	remaining := []byte(strconv.FormatInt(balance-cost, 10))
	err = l.store.AtomicCommit(ctx,
		[]store.Check{
			{Key: zoneKey, Version: store.VersionAbsent},
			{Key: BalanceKey(payerID), Version: version},
		},
		[]store.Write{
			{Key: zoneKey, Value: record},
			{Key: BalanceKey(payerID), Value: remaining},
		})
	if err == store.ErrConflict {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to commit zone create: %w", err)
	}
	return nil
}

// CommitDelete removes the zone record if its version token still
// matches. Deletion is free; currency is not touched.
func (l *Ledger) CommitDelete(ctx context.Context, zoneKey string, expectedVersion int64) error {
	err := l.store.AtomicCommit(ctx,
		[]store.Check{{Key: zoneKey, Version: expectedVersion}},
		[]store.Write{{Key: zoneKey, Delete: true}})
	if err == store.ErrConflict {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to commit zone delete: %w", err)
	}
	return nil
}
