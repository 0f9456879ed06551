package citygml

import (
	"github.com/sells-group/citygml-stid/internal/geometry"
	"github.com/sells-group/citygml-stid/internal/stid"
)

// BuildingRecord is the extraction result for one building.
type BuildingRecord struct {
	BuildingID string
	Cells      stid.Set
	// Attributes maps the prefixed extension tag to its resolved description,
	// or to the raw code when no description exists. Last write wins.
	Attributes map[string]string
	// Rings holds every boundary ring in document order.
	Rings [][]geometry.Point
}

func newBuildingRecord(id string) *BuildingRecord {
	return &BuildingRecord{
		BuildingID: id,
		Cells:      make(stid.Set),
		Attributes: make(map[string]string),
	}
}
