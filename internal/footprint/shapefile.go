package footprint

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"

	"github.com/sells-group/citygml-stid/internal/geometry"
)

// idFieldSize is the DBF width of the building ID column.
const idFieldSize = 128

// WriteShapefile writes the rings as one POLYGONZ record tagged with the
// building ID. X is longitude, Y latitude, Z altitude.
func WriteShapefile(path, buildingID string, rings [][]geometry.Point) error {
	shape := polygonZ(rings)
	if shape == nil {
		return eris.Errorf("footprint: building %q has no ring with three or more points", buildingID)
	}

	w, err := shp.Create(path, shp.POLYGONZ)
	if err != nil {
		return eris.Wrapf(err, "footprint: create shapefile %s", path)
	}

	if err := w.SetFields([]shp.Field{shp.StringField("ID", idFieldSize)}); err != nil {
		w.Close()
		return eris.Wrap(err, "footprint: set fields")
	}

	row := w.Write(shape)
	id := buildingID
	if len(id) > idFieldSize {
		id = id[:idFieldSize]
	}
	attrErr := w.WriteAttribute(int(row), 0, id)
	w.Close()
	if attrErr != nil {
		return eris.Wrap(attrErr, "footprint: write attribute")
	}

	return fixDBFName(path)
}

// fixDBFName moves the table go-shp writes to "<base>dbf" over to "<base>.dbf".
func fixDBFName(path string) error {
	base := path
	if strings.HasSuffix(strings.ToLower(base), ".shp") {
		base = base[:len(base)-4]
	}
	err := os.Rename(base+"dbf", base+".dbf")
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return eris.Wrap(err, "footprint: rename dbf")
	}
	return nil
}

func polygonZ(rings [][]geometry.Point) *shp.PolygonZ {
	p := &shp.PolygonZ{}
	var used []geometry.Point
	for _, pts := range rings {
		if len(pts) < 3 {
			continue
		}
		used = append(used, pts...)
		p.Parts = append(p.Parts, int32(len(p.Points)))
		for _, pt := range geometry.Closed(pts) {
			p.Points = append(p.Points, shp.Point{X: pt.Longitude, Y: pt.Latitude})
			p.ZArray = append(p.ZArray, pt.Altitude)
			p.MArray = append(p.MArray, 0)
		}
	}
	if len(p.Parts) == 0 {
		return nil
	}

	p.NumParts = int32(len(p.Parts))
	p.NumPoints = int32(len(p.Points))
	bounds, err := geometry.Bounds(used)
	if err != nil {
		return nil
	}
	p.Box = shp.Box{
		MinX: bounds.Min(0), MinY: bounds.Min(1),
		MaxX: bounds.Max(0), MaxY: bounds.Max(1),
	}
	p.ZRange = [2]float64{bounds.Min(2), bounds.Max(2)}
	return p
}
