package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/citygml-stid/internal/citygml"
	"github.com/sells-group/citygml-stid/internal/config"
	"github.com/sells-group/citygml-stid/internal/faults"
	"github.com/sells-group/citygml-stid/internal/ledger"
)

const testDict = `<?xml version="1.0" encoding="UTF-8"?>
<gml:Dictionary xmlns:gml="http://www.opengis.net/gml">
	<gml:dictionaryEntry>
		<gml:Definition gml:id="id1">
			<gml:description>Wooden</gml:description>
			<gml:name>1030</gml:name>
		</gml:Definition>
	</gml:dictionaryEntry>
</gml:Dictionary>`

const testDoc = `<?xml version="1.0" encoding="UTF-8"?>
<core:CityModel xmlns:core="http://www.opengis.net/citygml/2.0" xmlns:bldg="http://www.opengis.net/citygml/building/2.0" xmlns:gml="http://www.opengis.net/gml" xmlns:uro="https://www.geospatial.jp/iur/uro/3.0">
	<core:cityObjectMember>
		<bldg:Building gml:id="bldg_001">
			<bldg:lod0RoofEdge><gml:MultiSurface><gml:surfaceMember><gml:Polygon><gml:exterior><gml:LinearRing>
				<gml:posList>36.3890 139.0630 100 36.3890 139.0640 100 36.3898 139.0640 100 36.3898 139.0630 100</gml:posList>
			</gml:LinearRing></gml:exterior></gml:Polygon></gml:surfaceMember></gml:MultiSurface></bldg:lod0RoofEdge>
			<uro:buildingStructureType codeSpace="../../codelists/Building_buildingStructureType.xml">1030</uro:buildingStructureType>
		</bldg:Building>
	</core:cityObjectMember>
</core:CityModel>`

// testConfig lays out a dataset under a temp dir and returns a config
// pointing at it.
func testConfig(t *testing.T, doc string) *config.Config {
	t.Helper()
	root := t.TempDir()
	codelists := filepath.Join(root, "codelists")
	bldg := filepath.Join(root, "udx", "bldg")
	require.NoError(t, os.MkdirAll(codelists, 0o755))
	require.NoError(t, os.MkdirAll(bldg, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(codelists, "Building_buildingStructureType.xml"), []byte(testDict), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(bldg, "53394611_bldg_6697_op.gml"), []byte(doc), 0o644))

	v := citygml.DefaultVocabulary()
	c := &config.Config{}
	c.Source.Dir = bldg
	c.Source.Extension = ".gml"
	c.Scan.Zoom = 18
	c.Scan.BuildingTag = v.BuildingTag
	c.Scan.IDAttr = v.IDAttr
	c.Scan.ExtensionPrefix = v.ExtensionPrefix
	c.Scan.GeometryTag = v.GeometryTag
	c.Scan.CodeSpaceAttr = v.CodeSpaceAttr
	c.Ledger.Driver = "json"
	c.Ledger.Path = filepath.Join(root, "building_info.json")
	c.Ledger.SQLitePath = filepath.Join(root, "building_info.db")
	return c
}

func TestRunExtract_JSONLedger(t *testing.T) {
	c := testConfig(t, testDoc)
	var out bytes.Buffer

	require.NoError(t, runExtract(context.Background(), c, extractOptions{}, &out))
	assert.Contains(t, out.String(), "building bldg_001 stored under key 0")

	entries, err := ledger.Load(c.Ledger.Path)
	require.NoError(t, err)
	require.Contains(t, entries, "0")
	assert.Equal(t, "bldg_001", entries["0"].ID)
	assert.Equal(t, map[string]string{"uro:buildingStructureType": "Wooden"}, entries["0"].Attributes)
	assert.NotEmpty(t, entries["0"].StidSet)

	// A second run starts its keys over and replaces entry "0".
	out.Reset()
	require.NoError(t, runExtract(context.Background(), c, extractOptions{}, &out))
	entries, err = ledger.Load(c.Ledger.Path)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRunExtract_SQLiteLedgerWithCache(t *testing.T) {
	c := testConfig(t, testDoc)
	c.Ledger.Driver = "sqlite"
	c.Scan.CacheCodeSpaces = true

	var out bytes.Buffer
	require.NoError(t, runExtract(context.Background(), c, extractOptions{}, &out))

	entries, err := loadEntries(context.Background(), c)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Wooden", entries["0"].Attributes["uro:buildingStructureType"])
	assert.NoFileExists(t, c.Ledger.Path)
}

func TestRunExtract_Shapefile(t *testing.T) {
	c := testConfig(t, testDoc)
	shpPath := filepath.Join(t.TempDir(), "footprint.shp")

	var out bytes.Buffer
	require.NoError(t, runExtract(context.Background(), c, extractOptions{Shapefile: shpPath}, &out))
	assert.FileExists(t, shpPath)
	assert.FileExists(t, filepath.Join(filepath.Dir(shpPath), "footprint.dbf"))
}

func TestRunExtract_ExplicitFile(t *testing.T) {
	c := testConfig(t, testDoc)
	path, err := citygml.FindFirst(c.Source.Dir, c.Source.Extension)
	require.NoError(t, err)
	c.Source.Dir = filepath.Join(t.TempDir(), "absent")

	var out bytes.Buffer
	require.NoError(t, runExtract(context.Background(), c, extractOptions{File: path}, &out))
	assert.Contains(t, out.String(), "bldg_001")
}

func TestRunExtract_NoBuilding(t *testing.T) {
	doc := `<core:CityModel xmlns:core="http://www.opengis.net/citygml/2.0"></core:CityModel>`
	c := testConfig(t, doc)

	var out bytes.Buffer
	require.NoError(t, runExtract(context.Background(), c, extractOptions{}, &out))
	assert.Contains(t, out.String(), "no building found")
	assert.NoFileExists(t, c.Ledger.Path)
}

func TestRunExtract_Errors(t *testing.T) {
	t.Run("no document", func(t *testing.T) {
		c := testConfig(t, testDoc)
		c.Source.Extension = ".citygml"
		err := runExtract(context.Background(), c, extractOptions{}, &bytes.Buffer{})
		require.Error(t, err)
		assert.ErrorIs(t, err, citygml.ErrNoDocument)
	})

	t.Run("malformed document", func(t *testing.T) {
		c := testConfig(t, `<core:CityModel><bldg:Building></core:CityModel>`)
		err := runExtract(context.Background(), c, extractOptions{}, &bytes.Buffer{})
		require.Error(t, err)
		assert.True(t, faults.Is(err, faults.KindParse))
		assert.NoFileExists(t, c.Ledger.Path)
	})

	t.Run("corrupt ledger", func(t *testing.T) {
		c := testConfig(t, testDoc)
		require.NoError(t, os.WriteFile(c.Ledger.Path, []byte("not json"), 0o644))
		err := runExtract(context.Background(), c, extractOptions{}, &bytes.Buffer{})
		require.Error(t, err)
		assert.True(t, faults.Is(err, faults.KindParse))
	})
}
