package stid

import (
	"math"

	"github.com/sells-group/citygml-stid/internal/geometry"
)

// maxTriangleSteps bounds the sampling lattice per triangle edge. Triangles
// spanning more than about 2048 voxels on an axis are sampled more coarsely
// than half a voxel and may miss cells. At zoom 18 that takes an edge of a
// few hundred kilometres, at zoom 33 only a few metres.
const maxTriangleSteps = 4096

// CoverTriangle returns the cells touched by triangle abc at zoom z.
//
// The triangle is sampled on a barycentric lattice in voxel space. The lattice
// step is kept under half a voxel on every axis up to maxTriangleSteps, and
// the three vertices are always sampled.
func CoverTriangle(z uint8, a, b, c geometry.Point) Set {
	va := toVec(z, a)
	vb := toVec(z, b)
	vc := toVec(z, c)

	ab := vb.sub(va)
	ac := vc.sub(va)
	extent := math.Max(ab.maxAbs(), math.Max(ac.maxAbs(), vc.sub(vb).maxAbs()))

	steps := latticeSteps(extent)

	cells := make(Set)
	for i := 0; i <= steps; i++ {
		u := float64(i) / float64(steps)
		for j := 0; j <= steps-i; j++ {
			w := float64(j) / float64(steps)
			p := va.add(ab.scale(u)).add(ac.scale(w))
			cells.Add(fromVoxel(z, p.f, p.x, p.y))
		}
	}
	return cells
}

// latticeSteps returns the lattice divisions for a triangle whose largest
// per-axis edge extent is extent voxels.
func latticeSteps(extent float64) int {
	steps := int(math.Ceil(extent*2)) + 1
	return min(steps, maxTriangleSteps)
}

type vec struct{ f, x, y float64 }

func toVec(z uint8, p geometry.Point) vec {
	f, x, y := voxel(z, p.Latitude, p.Longitude, p.Altitude)
	return vec{f, x, y}
}

func (v vec) add(o vec) vec { return vec{v.f + o.f, v.x + o.x, v.y + o.y} }
func (v vec) sub(o vec) vec { return vec{v.f - o.f, v.x - o.x, v.y - o.y} }
func (v vec) scale(k float64) vec { return vec{v.f * k, v.x * k, v.y * k} }
func (v vec) maxAbs() float64 {
	return math.Max(math.Abs(v.f), math.Max(math.Abs(v.x), math.Abs(v.y)))
}
