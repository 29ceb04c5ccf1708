package zone

import "errors"

var (
	// ErrValidation is returned for malformed input (empty name, a name
	// that derives an empty id, an unknown settings field).
	ErrValidation = errors.New("zone: invalid input")

	// ErrNotFound is returned when no zone exists for the id.
	ErrNotFound = errors.New("zone: not found")

	// ErrOverlap is returned when a candidate zone would intersect an
	// existing zone's buffered footprint.
	ErrOverlap = errors.New("zone: overlaps an existing zone")

	// ErrNotLeader is returned when a leader-only action is attempted
	// by someone who does not lead the owning team.
	ErrNotLeader = errors.New("zone: requester is not the team leader")

	// ErrConflict is returned when a settings update loses a version
	// race; the caller should re-read and retry.
	ErrConflict = errors.New("zone: concurrent modification")
)
