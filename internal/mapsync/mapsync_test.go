package mapsync

import (
	"context"
	"errors"
	"testing"

	"github.com/zonewarden/server/internal/geometry"
	"github.com/zonewarden/server/internal/zone"
)

type recordedMarker struct {
	set, id, kind string
}

type fakeMarkerClient struct {
	added   []recordedMarker
	removed []recordedMarker
	err     error
}

func (f *fakeMarkerClient) AddMarker(_ context.Context, set, id, kind string, _ map[string]interface{}) error {
	f.added = append(f.added, recordedMarker{set: set, id: id, kind: kind})
	return f.err
}

func (f *fakeMarkerClient) RemoveMarker(_ context.Context, set, id string) error {
	f.removed = append(f.removed, recordedMarker{set: set, id: id})
	return f.err
}

func testZone() zone.Zone {
	center := geometry.Position{X: 100, Y: 64, Z: 100}
	return zone.Zone{
		ID:      "north_base",
		Name:    "North Base",
		Center:  center,
		Corners: geometry.SquareCorners(center, 128),
	}
}

func TestPublisher_ZoneCreated(t *testing.T) {
	client := &fakeMarkerClient{}
	p := NewPublisher(client)

	p.ZoneCreated(context.Background(), testZone())

	if len(client.added) != 2 {
		t.Fatalf("added %d markers, want 2", len(client.added))
	}
	if client.added[0].id != "north_base_border" || client.added[0].kind != "area" {
		t.Errorf("border marker = %+v", client.added[0])
	}
	if client.added[1].id != "north_base_poi" || client.added[1].kind != "poi" {
		t.Errorf("poi marker = %+v", client.added[1])
	}
	for _, m := range client.added {
		if m.set != MarkerSet {
			t.Errorf("marker set = %s, want %s", m.set, MarkerSet)
		}
	}
}

func TestPublisher_ZoneDeleted(t *testing.T) {
	client := &fakeMarkerClient{}
	p := NewPublisher(client)

	p.ZoneDeleted(context.Background(), testZone())

	if len(client.removed) != 2 {
		t.Fatalf("removed %d markers, want 2", len(client.removed))
	}
}

func TestPublisher_FailuresAreSwallowed(t *testing.T) {
	client := &fakeMarkerClient{err: errors.New("map service down")}
	p := NewPublisher(client)

	// Neither call may panic or propagate the error.
	p.ZoneCreated(context.Background(), testZone())
	p.ZoneDeleted(context.Background(), testZone())
}
