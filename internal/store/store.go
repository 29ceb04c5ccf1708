package store

import (
	"context"
	"errors"
)

// Store is the transactional key-value store the core mutates through.
// Every entry carries a version token that increments on each write;
// AtomicCommit is the only multi-key primitive and the single
// serialization point for racing mutations.
type Store interface {
	// Get returns the entry at key, or ErrNotFound.
	Get(ctx context.Context, key string) (Entry, error)

	// Set writes value at key unconditionally, bumping its version.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key returns ErrNotFound.
	Delete(ctx context.Context, key string) error

	// List returns all entries whose key starts with prefix, in the
	// store's insertion order. No sorting is guaranteed beyond that.
	List(ctx context.Context, prefix string) ([]Entry, error)

	// AtomicCommit verifies every check against current versions and,
	// only if all pass, applies every write durably in one step.
	// Any failed check aborts the whole commit with ErrConflict and
	// leaves the store untouched.
	AtomicCommit(ctx context.Context, checks []Check, writes []Write) error
}

// Entry is a stored value with its version token.
type Entry struct {
	Key     string
	Value   []byte
	Version int64
}

// VersionAbsent is the expected version for a check that requires the
// key to not exist. Stored versions are always positive, and a version
// is never reused for a key across delete and re-create.
const VersionAbsent int64 = 0

// Check compares an expected version token against the stored one.
type Check struct {
	Key     string
	Version int64
}

// Write is one mutation inside an atomic commit.
type Write struct {
	Key    string
	Value  []byte
	Delete bool
}

var (
	// ErrNotFound is returned when a key has no entry.
	ErrNotFound = errors.New("store: key not found")

	// ErrConflict is returned when an atomic commit loses a version
	// race. The caller must re-read and re-derive before retrying.
	ErrConflict = errors.New("store: version conflict")
)
