// Package mapsync pushes zone markers to the external map
// visualization. Everything here is best-effort: failures are logged
// and swallowed, never propagated into zone lifecycle.
package mapsync

import (
	"context"
	"log"

	"github.com/zonewarden/server/internal/zone"
)

// MarkerClient is the external map-visualization collaborator.
type MarkerClient interface {
	AddMarker(ctx context.Context, set, id, kind string, payload map[string]interface{}) error
	RemoveMarker(ctx context.Context, set, id string) error
}

// MarkerSet is the marker set all zone markers live in.
const MarkerSet = "zones"

// Publisher mirrors zone lifecycle onto map markers: an area marker
// for the boundary and a POI marker at the center.
type Publisher struct {
	client MarkerClient
}

// NewPublisher creates a Publisher.
func NewPublisher(client MarkerClient) *Publisher {
	return &Publisher{client: client}
}

// ZoneCreated adds the boundary and POI markers for a new zone.
func (p *Publisher) ZoneCreated(ctx context.Context, z zone.Zone) {
	corners := make([]map[string]float64, 0, len(z.Corners))
	for _, c := range z.Corners {
		corners = append(corners, map[string]float64{"x": c.X, "z": c.Z})
	}

	if err := p.client.AddMarker(ctx, MarkerSet, z.ID+"_border", "area", map[string]interface{}{
		"label":   z.Name,
		"corners": corners,
	}); err != nil {
		log.Printf("Warning: failed to add border marker for zone %s: %v", z.ID, err)
	}

	if err := p.client.AddMarker(ctx, MarkerSet, z.ID+"_poi", "poi", map[string]interface{}{
		"label": z.Name,
		"x":     z.Center.X,
		"y":     z.Center.Y,
		"z":     z.Center.Z,
	}); err != nil {
		log.Printf("Warning: failed to add POI marker for zone %s: %v", z.ID, err)
	}
}

// ZoneDeleted removes both markers for a zone.
func (p *Publisher) ZoneDeleted(ctx context.Context, z zone.Zone) {
	if err := p.client.RemoveMarker(ctx, MarkerSet, z.ID+"_border"); err != nil {
		log.Printf("Warning: failed to remove border marker for zone %s: %v", z.ID, err)
	}
	if err := p.client.RemoveMarker(ctx, MarkerSet, z.ID+"_poi"); err != nil {
		log.Printf("Warning: failed to remove POI marker for zone %s: %v", z.ID, err)
	}
}
