package geometry

// Position is a point in world coordinates. Y is the vertical axis;
// zones extend over the full height band, so most zone math only
// looks at X and Z.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Corner indices returned by SquareCorners. The winding is fixed so
// callers can rely on index semantics: corner[SW] always carries the
// minimum X and Z, corner[NE] the maximum.
const (
	SW = 0
	SE = 1
	NE = 2
	NW = 3
)

// SquareCorners computes the four corners of an axis-aligned square
// centered at center with the given half extent on X and Z. All four
// corners share center's Y. Winding order is SW, SE, NE, NW.
func SquareCorners(center Position, halfExtent float64) [4]Position {
	return [4]Position{
		{X: center.X - halfExtent, Y: center.Y, Z: center.Z - halfExtent},
		{X: center.X + halfExtent, Y: center.Y, Z: center.Z - halfExtent},
		{X: center.X + halfExtent, Y: center.Y, Z: center.Z + halfExtent},
		{X: center.X - halfExtent, Y: center.Y, Z: center.Z + halfExtent},
	}
}

// Bounds extracts the min/max X and Z extents from a corner set.
// It does not assume the fixed winding, so corner sets loaded from
// storage are handled even if they were written by an older revision.
func Bounds(corners [4]Position) (minX, maxX, minZ, maxZ float64) {
	minX, maxX = corners[0].X, corners[0].X
	minZ, maxZ = corners[0].Z, corners[0].Z
	for _, c := range corners[1:] {
		if c.X < minX {
			minX = c.X
		}
		if c.X > maxX {
			maxX = c.X
		}
		if c.Z < minZ {
			minZ = c.Z
		}
		if c.Z > maxZ {
			maxZ = c.Z
		}
	}
	return minX, maxX, minZ, maxZ
}

// Overlaps reports whether two squares, each expanded by buffer on all
// sides, intersect on the X-Z plane. The comparison is buffer-inclusive:
// squares exactly buffer distance apart count as overlapping, which
// guarantees a visible gap between adjacent claims. Symmetric in a and b.
func Overlaps(a, b [4]Position, buffer float64) bool {
	aMinX, aMaxX, aMinZ, aMaxZ := Bounds(a)
	bMinX, bMaxX, bMinZ, bMaxZ := Bounds(b)

	// Separating axis test on the buffered extents. Strict comparisons
	// make the buffer itself part of the forbidden band.
	if aMinX-buffer > bMaxX+buffer || bMinX-buffer > aMaxX+buffer {
		return false
	}
	if aMinZ-buffer > bMaxZ+buffer || bMinZ-buffer > aMaxZ+buffer {
		return false
	}
	return true
}

// Contains reports whether p lies inside the square described by
// corners, bounds inclusive. Y is ignored: zones span the full world
// height band.
func Contains(p Position, corners [4]Position) bool {
	minX, maxX, minZ, maxZ := Bounds(corners)
	return p.X >= minX && p.X <= maxX && p.Z >= minZ && p.Z <= maxZ
}
