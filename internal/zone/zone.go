// Package zone holds the canonical zone record and the registry that
// owns all zone mutations. A zone is a fixed-size axis-aligned square
// claim on the shared world, owned by a team, paid for in currency,
// and physically enforced by protection primitives managed elsewhere.
package zone

import (
	"strings"
	"time"

	"github.com/zonewarden/server/internal/geometry"
)

// Zone is the canonical zone record as stored in the ledger.
type Zone struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	OwnerTeamID string               `json:"owner_team_id"`
	Center      geometry.Position    `json:"center"`
	Corners     [4]geometry.Position `json:"corners"`
	ForSale     bool                 `json:"for_sale"`
	Price       int64                `json:"price"`
	CreatedAt   time.Time            `json:"created_at"`
	CreatedBy   string               `json:"created_by"`
}

// KeyPrefix is the store prefix under which zone records live.
const KeyPrefix = "zone/"

// Key returns the store key for a zone id.
func Key(id string) string {
	return KeyPrefix + id
}

// DeriveID derives the stable zone identifier from a human-supplied
// name: lower-cased, runs of non-alphanumeric characters collapsed to
// a single underscore, leading and trailing underscores stripped.
// The result is deterministic; an empty result means the name cannot
// identify a zone.
func DeriveID(name string) string {
	var b strings.Builder
	lastSep := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSep = false
		default:
			if !lastSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			lastSep = true
		}
	}
	return strings.TrimRight(b.String(), "_")
}
