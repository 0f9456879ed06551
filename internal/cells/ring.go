// Package cells maps boundary rings to the spatial ID cells their surface
// occupies.
package cells

import (
	"github.com/sells-group/citygml-stid/internal/geometry"
	"github.com/sells-group/citygml-stid/internal/stid"
)

// CoverFunc returns the cells a triangle occupies at zoom z.
type CoverFunc func(z uint8, a, b, c geometry.Point) stid.Set

// Mapper fan-triangulates rings and covers each triangle at a fixed zoom.
type Mapper struct {
	Zoom  uint8
	Cover CoverFunc
}

// NewMapper returns a Mapper backed by stid.CoverTriangle.
func NewMapper(zoom uint8) *Mapper {
	return &Mapper{Zoom: zoom, Cover: stid.CoverTriangle}
}

// CellsForRing returns the union of the cells covered by the fan triangles
// (p0, p[i], p[i+1]). Rings with fewer than three points yield an empty set.
// Concave or self-intersecting rings are covered approximately.
func (m *Mapper) CellsForRing(points []geometry.Point) stid.Set {
	out := make(stid.Set)
	if len(points) < 3 {
		return out
	}

	a := points[0]
	for i := 1; i < len(points)-1; i++ {
		out.Union(m.Cover(m.Zoom, a, points[i], points[i+1]))
	}
	return out
}

// TriangleCount returns the number of fan triangles for a ring of n points.
func TriangleCount(n int) int {
	if n < 3 {
		return 0
	}
	return n - 2
}
