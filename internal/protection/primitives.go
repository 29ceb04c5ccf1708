// Package protection translates a zone's declarative definition into
// the physical access-control representation enforced by the external
// world, and tears it down again. The primitive set is a pure function
// of the zone id and center, so a restarted process can always
// recompute the exact same commands for retry or repair without any
// cached state.
package protection

import (
	"fmt"
	"math"

	"github.com/zonewarden/server/internal/geometry"
)

// Primitive is one atomic external side effect: a single place or
// remove command issued through the command channel. Step names the
// primitive for error reporting; Command is the opaque payload whose
// grammar the external executor owns.
type Primitive struct {
	Step    string
	Command string
}

// Frame is the integer local coordinate frame all primitives are
// positioned in. Derived purely from rounding the zone center, so no
// external reads are needed and frame computation cannot race.
type Frame struct {
	X, Y, Z int
}

// FrameFor rounds a zone center to the integer frame origin.
func FrameFor(center geometry.Position) Frame {
	return Frame{
		X: int(math.Round(center.X)),
		Y: int(math.Round(center.Y)),
		Z: int(math.Round(center.Z)),
	}
}

// Layout fixes where primitives sit relative to the frame origin.
type Layout struct {
	// HalfExtent matches the zone geometry; gates sit on the borders
	// and markers on the corners.
	HalfExtent int
	// WorldBottom and WorldTop bound the vertical band the gate rules
	// span. Zones protect the full height band.
	WorldBottom int
	WorldTop    int
	// SweepRadius is the teardown cleanup radius around the center.
	SweepRadius int
}

// gateSpec is one conditional access rule placement.
type gateSpec struct {
	step string
	dx   int
	dz   int
	face string
}

// gates lists the six gate placements in their fixed order: the four
// cardinal borders, then the two center rules. Order is part of the
// contract; teardown walks the same list.
func (l Layout) gates() []gateSpec {
	h := l.HalfExtent
	return []gateSpec{
		{step: "gate_north", dx: 0, dz: h, face: "north"},
		{step: "gate_east", dx: h, dz: 0, face: "east"},
		{step: "gate_south", dx: 0, dz: -h, face: "south"},
		{step: "gate_west", dx: -h, dz: 0, face: "west"},
		{step: "gate_center_in", dx: 0, dz: 0, face: "center"},
		{step: "gate_center_out", dx: 1, dz: 0, face: "center"},
	}
}

// corners lists the four corner offsets in SW, SE, NE, NW order to
// match the zone corner winding.
func (l Layout) corners() [4][2]int {
	h := l.HalfExtent
	return [4][2]int{{-h, -h}, {h, -h}, {h, h}, {-h, h}}
}

var cornerNames = [4]string{"sw", "se", "ne", "nw"}

// BuildApply computes the full ordered primitive list that brings the
// external world in line with a zone: six gates, the trigger keeping
// the gate rules continuously re-evaluated, the corner markers with
// their posts and caps, and the two teleport waypoints.
func BuildApply(zoneID, ownerTeamID string, center geometry.Position, layout Layout) []Primitive {
	f := FrameFor(center)
	var prims []Primitive

	for _, g := range layout.gates() {
		prims = append(prims, Primitive{
			Step: g.step,
			Command: fmt.Sprintf(
				"place gate %d %d %d zone=%s team=%s face=%s band=%d:%d inside=survival outside=adventure",
				f.X+g.dx, f.Y, f.Z+g.dz, zoneID, ownerTeamID, g.face,
				layout.WorldBottom, layout.WorldTop),
		})
	}

	prims = append(prims, Primitive{
		Step: "trigger",
		Command: fmt.Sprintf("place trigger %d %d %d zone=%s mode=repeat",
			f.X, f.Y+1, f.Z, zoneID),
	})

	for i, c := range layout.corners() {
		name := cornerNames[i]
		x, z := f.X+c[0], f.Z+c[1]
		prims = append(prims,
			Primitive{
				Step:    "marker_" + name,
				Command: fmt.Sprintf("place marker %d %d %d zone=%s", x, f.Y, z, zoneID),
			},
			Primitive{
				Step:    "post_" + name,
				Command: fmt.Sprintf("place post %d %d %d zone=%s", x, f.Y+1, z, zoneID),
			},
			Primitive{
				Step:    "cap_" + name,
				Command: fmt.Sprintf("place cap %d %d %d zone=%s", x, f.Y+2, z, zoneID),
			},
		)
	}

	prims = append(prims,
		Primitive{
			Step: "waypoint_base",
			Command: fmt.Sprintf("place waypoint %d %d %d zone=%s slot=base",
				f.X, f.Y+2, f.Z, zoneID),
		},
		Primitive{
			Step: "waypoint_beacon",
			Command: fmt.Sprintf("place waypoint %d %d %d zone=%s slot=beacon",
				f.X, f.Y+3, f.Z, zoneID),
		},
	)

	return prims
}

// BuildTeardown computes the ordered removal list for a zone: gates
// and trigger first, then corner structures, then waypoints, then a
// broad-radius sweep for transient decorative entities. Positions are
// recomputed from the stored center, never from whoever is deleting.
// Removing an already-absent primitive is a no-op for the executor;
// no absence checks are made here.
func BuildTeardown(zoneID string, center geometry.Position, layout Layout) []Primitive {
	f := FrameFor(center)
	var prims []Primitive

	for _, g := range layout.gates() {
		prims = append(prims, Primitive{
			Step:    "remove_" + g.step,
			Command: fmt.Sprintf("remove %d %d %d zone=%s", f.X+g.dx, f.Y, f.Z+g.dz, zoneID),
		})
	}
	prims = append(prims, Primitive{
		Step:    "remove_trigger",
		Command: fmt.Sprintf("remove %d %d %d zone=%s", f.X, f.Y+1, f.Z, zoneID),
	})

	for i, c := range layout.corners() {
		name := cornerNames[i]
		x, z := f.X+c[0], f.Z+c[1]
		prims = append(prims,
			Primitive{
				Step:    "remove_marker_" + name,
				Command: fmt.Sprintf("remove %d %d %d zone=%s", x, f.Y, z, zoneID),
			},
			Primitive{
				Step:    "remove_post_" + name,
				Command: fmt.Sprintf("remove %d %d %d zone=%s", x, f.Y+1, z, zoneID),
			},
			Primitive{
				Step:    "remove_cap_" + name,
				Command: fmt.Sprintf("remove %d %d %d zone=%s", x, f.Y+2, z, zoneID),
			},
		)
	}

	prims = append(prims,
		Primitive{
			Step:    "remove_waypoint_base",
			Command: fmt.Sprintf("remove %d %d %d zone=%s", f.X, f.Y+2, f.Z, zoneID),
		},
		Primitive{
			Step:    "remove_waypoint_beacon",
			Command: fmt.Sprintf("remove %d %d %d zone=%s", f.X, f.Y+3, f.Z, zoneID),
		},
		Primitive{
			Step: "sweep",
			Command: fmt.Sprintf("sweep %d %d %d radius=%d zone=%s",
				f.X, f.Y, f.Z, layout.SweepRadius, zoneID),
		},
	)

	return prims
}
