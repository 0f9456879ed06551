// Package geometry parses GML coordinate lists into 3D points.
package geometry

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/citygml-stid/internal/faults"
)

// Point is a 3D coordinate in source triple order.
type Point struct {
	Latitude  float64
	Longitude float64
	Altitude  float64
}

// ParsePoints parses whitespace-separated floats into points, three tokens per
// point. Rings are returned as-is: no closure check, no deduplication.
func ParsePoints(text string) ([]Point, error) {
	fields := strings.Fields(text)
	if len(fields)%3 != 0 {
		return nil, faults.Format(nil, "geometry: token count "+strconv.Itoa(len(fields))+" is not a multiple of 3")
	}

	nums := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, faults.Format(err, "geometry: parse coordinate "+strconv.Quote(f))
		}
		nums[i] = v
	}

	points := make([]Point, 0, len(nums)/3)
	for i := 0; i < len(nums); i += 3 {
		points = append(points, Point{
			Latitude:  nums[i],
			Longitude: nums[i+1],
			Altitude:  nums[i+2],
		})
	}
	return points, nil
}

// Ring converts points to an XYZ linear ring with X=longitude, Y=latitude.
func Ring(points []Point) *geom.LinearRing {
	flat := make([]float64, 0, len(points)*3)
	for _, p := range points {
		flat = append(flat, p.Longitude, p.Latitude, p.Altitude)
	}
	return geom.NewLinearRingFlat(geom.XYZ, flat)
}

// Closed returns points with the first point appended when the ring is open.
// Rings with fewer than three points are returned unchanged.
func Closed(points []Point) []Point {
	if len(points) < 3 || points[0] == points[len(points)-1] {
		return points
	}
	out := make([]Point, len(points), len(points)+1)
	copy(out, points)
	return append(out, points[0])
}

// Bounds returns the extent of a non-empty ring.
func Bounds(points []Point) (*geom.Bounds, error) {
	if len(points) == 0 {
		return nil, eris.New("geometry: bounds of empty ring")
	}
	return Ring(points).Bounds(), nil
}
