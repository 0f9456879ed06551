// Package stid implements spatial ID cells: z/f/x/y voxels over a web-mercator
// grid with a vertical index covering 2^25 metres of altitude.
package stid

import (
	"math"
	"strconv"
	"strings"

	"github.com/sells-group/citygml-stid/internal/faults"
)

// MaxZoom is the deepest supported resolution level.
const MaxZoom = 35

// altitudeRange is the vertical extent in metres divided into 2^z floors.
const altitudeRange = 1 << 25

// maxLatitude is the web-mercator latitude limit.
const maxLatitude = 85.0511287798

// ID identifies one voxel at zoom Z: F is the vertical index, X and Y the
// tile column and row.
type ID struct {
	Z uint8
	F int64
	X int64
	Y int64
}

// String returns the canonical "z/f/x/y" encoding.
func (id ID) String() string {
	var b strings.Builder
	b.WriteString(strconv.FormatUint(uint64(id.Z), 10))
	b.WriteByte('/')
	b.WriteString(strconv.FormatInt(id.F, 10))
	b.WriteByte('/')
	b.WriteString(strconv.FormatInt(id.X, 10))
	b.WriteByte('/')
	b.WriteString(strconv.FormatInt(id.Y, 10))
	return b.String()
}

// Parse decodes the "z/f/x/y" form produced by String.
func Parse(s string) (ID, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 4 {
		return ID{}, faults.Format(nil, "stid: malformed id "+strconv.Quote(s))
	}
	z, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil || z > MaxZoom {
		return ID{}, faults.Format(err, "stid: bad zoom in "+strconv.Quote(s))
	}
	var vals [3]int64
	for i, p := range parts[1:] {
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return ID{}, faults.Format(err, "stid: bad index in "+strconv.Quote(s))
		}
		vals[i] = v
	}
	id := ID{Z: uint8(z), F: vals[0], X: vals[1], Y: vals[2]}
	n := int64(1) << z
	if id.X < 0 || id.X >= n || id.Y < 0 || id.Y >= n {
		return ID{}, faults.Format(nil, "stid: tile index out of range in "+strconv.Quote(s))
	}
	return id, nil
}

// FromPoint returns the voxel containing the given coordinate at zoom z.
func FromPoint(z uint8, lat, lon, alt float64) ID {
	f, x, y := voxel(z, lat, lon, alt)
	return fromVoxel(z, f, x, y)
}

// voxel returns continuous voxel-space coordinates; floors give the cell.
func voxel(z uint8, lat, lon, alt float64) (f, x, y float64) {
	n := math.Ldexp(1, int(z))
	lat = math.Max(-maxLatitude, math.Min(maxLatitude, lat))
	rad := lat * math.Pi / 180

	x = (lon + 180) / 360 * n
	y = (1 - math.Asinh(math.Tan(rad))/math.Pi) / 2 * n
	f = alt * n / altitudeRange
	return f, x, y
}

func fromVoxel(z uint8, f, x, y float64) ID {
	n := int64(1) << z
	return ID{
		Z: z,
		F: int64(math.Floor(f)),
		X: clamp(int64(math.Floor(x)), n),
		Y: clamp(int64(math.Floor(y)), n),
	}
}

func clamp(v, n int64) int64 {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}
