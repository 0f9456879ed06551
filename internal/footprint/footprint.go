// Package footprint converts building boundary rings to go-geom geometries
// for EWKB storage and shapefile export.
package footprint

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"go.uber.org/zap"

	"github.com/sells-group/citygml-stid/internal/geometry"
)

// SRID is JGD2011 geographic 3D, the CRS of PLATEAU CityGML.
const SRID = 6697

// MultiPolygon builds one single-ring polygon per boundary ring. Rings are
// closed in the output; rings with fewer than three points are skipped.
// Returns nil when no ring qualifies.
func MultiPolygon(rings [][]geometry.Point) *geom.MultiPolygon {
	mp := geom.NewMultiPolygon(geom.XYZ).SetSRID(SRID)

	for i, pts := range rings {
		if len(pts) < 3 {
			continue
		}
		ring := geometry.Ring(geometry.Closed(pts))
		poly := geom.NewPolygon(geom.XYZ)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("footprint: skipping malformed ring", zap.Int("ring", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("footprint: skipping malformed polygon", zap.Int("ring", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// EncodeEWKB returns the rings as little-endian EWKB with SRID. Returns
// nil, nil when no ring qualifies.
func EncodeEWKB(rings [][]geometry.Point) ([]byte, error) {
	mp := MultiPolygon(rings)
	if mp == nil {
		return nil, nil
	}

	data, err := ewkb.Marshal(mp, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "footprint: encode EWKB")
	}
	return data, nil
}
