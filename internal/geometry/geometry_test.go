package geometry

import (
	"testing"
)

func TestSquareCorners_Winding(t *testing.T) {
	center := Position{X: 100, Y: 64, Z: 100}
	corners := SquareCorners(center, 128)

	tests := []struct {
		name string
		idx  int
		x, z float64
	}{
		{"SW is min X min Z", SW, -28, -28},
		{"SE is max X min Z", SE, 228, -28},
		{"NE is max X max Z", NE, 228, 228},
		{"NW is min X max Z", NW, -28, 228},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := corners[tt.idx]
			if c.X != tt.x || c.Z != tt.z {
				t.Errorf("corner[%d] = (%f, %f), want (%f, %f)", tt.idx, c.X, c.Z, tt.x, tt.z)
			}
			if c.Y != center.Y {
				t.Errorf("corner[%d].Y = %f, want %f", tt.idx, c.Y, center.Y)
			}
		})
	}
}

func TestContains(t *testing.T) {
	center := Position{X: 0, Y: 64, Z: 0}
	corners := SquareCorners(center, 10)

	tests := []struct {
		name string
		p    Position
		want bool
	}{
		{"center", center, true},
		{"on east edge", Position{X: 10, Z: 0}, true},
		{"on corner", Position{X: 10, Z: 10}, true},
		{"just inside edge", Position{X: 10 - 1e-9, Z: 0}, true},
		{"just outside edge", Position{X: 10 + 1e-9, Z: 0}, false},
		{"outside on Z", Position{X: 0, Z: -11}, false},
		{"Y ignored", Position{X: 5, Y: 9999, Z: 5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Contains(tt.p, corners); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestOverlaps(t *testing.T) {
	base := SquareCorners(Position{X: 0, Z: 0}, 10)

	tests := []struct {
		name   string
		other  [4]Position
		buffer float64
		want   bool
	}{
		{"identical", SquareCorners(Position{X: 0, Z: 0}, 10), 1, true},
		{"far away", SquareCorners(Position{X: 100, Z: 100}, 10), 1, false},
		{"edges touching", SquareCorners(Position{X: 20, Z: 0}, 10), 1, true},
		{"exactly buffer apart each side", SquareCorners(Position{X: 22, Z: 0}, 10), 1, true},
		{"clearly beyond both buffers", SquareCorners(Position{X: 23, Z: 0}, 10), 1, false},
		{"separated on Z only", SquareCorners(Position{X: 0, Z: 50}, 10), 1, false},
		{"zero buffer touching", SquareCorners(Position{X: 20, Z: 0}, 10), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(base, tt.other, tt.buffer); got != tt.want {
				t.Errorf("Overlaps = %v, want %v", got, tt.want)
			}
			// The test must be symmetric.
			if got := Overlaps(tt.other, base, tt.buffer); got != tt.want {
				t.Errorf("Overlaps (swapped) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOverlaps_SpecScenario(t *testing.T) {
	// Two 128-half-extent zones centered 50 apart on X must conflict:
	// X ranges [-28, 228] and [22, 278] overlap outright.
	north := SquareCorners(Position{X: 100, Y: 64, Z: 100}, 128)
	south := SquareCorners(Position{X: 150, Y: 64, Z: 100}, 128)
	if !Overlaps(north, south, 1) {
		t.Fatal("expected zones 50 apart to overlap")
	}
}

func TestBounds_UnorderedCorners(t *testing.T) {
	// Bounds must not depend on winding order.
	shuffled := [4]Position{
		{X: 228, Z: 228},
		{X: -28, Z: 228},
		{X: 228, Z: -28},
		{X: -28, Z: -28},
	}
	minX, maxX, minZ, maxZ := Bounds(shuffled)
	if minX != -28 || maxX != 228 || minZ != -28 || maxZ != 228 {
		t.Errorf("Bounds = (%f, %f, %f, %f), want (-28, 228, -28, 228)", minX, maxX, minZ, maxZ)
	}
}
