package ledger

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/citygml-stid/internal/citygml"
	"github.com/sells-group/citygml-stid/internal/faults"
	"github.com/sells-group/citygml-stid/internal/geometry"
	"github.com/sells-group/citygml-stid/internal/stid"
)

func testRecord(id string, ids ...stid.ID) *citygml.BuildingRecord {
	return &citygml.BuildingRecord{
		BuildingID: id,
		Cells:      stid.NewSet(ids...),
		Attributes: map[string]string{"uro:buildingStructureType": "Wooden"},
		Rings: [][]geometry.Point{{
			{Latitude: 36.3890, Longitude: 139.0630, Altitude: 100},
			{Latitude: 36.3890, Longitude: 139.0640, Altitude: 100},
			{Latitude: 36.3898, Longitude: 139.0640, Altitude: 100},
		}},
	}
}

func readDoc(t *testing.T, path string) map[string]map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func TestEntryFromRecord(t *testing.T) {
	rec := testRecord("bldg_001",
		stid.ID{Z: 18, F: 0, X: 232847, Y: 103226},
		stid.ID{Z: 18, F: 0, X: 232846, Y: 103226},
	)
	e := EntryFromRecord(rec)

	assert.Equal(t, "bldg_001", e.ID)
	assert.Equal(t, []string{"18/0/232846/103226", "18/0/232847/103226"}, e.StidSet)
	assert.Equal(t, rec.Attributes, e.Attributes)

	rec.Attributes["other"] = "x"
	assert.NotContains(t, e.Attributes, "other")
}

func TestEntryFromRecord_EmptyCollections(t *testing.T) {
	e := EntryFromRecord(&citygml.BuildingRecord{})

	data, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"","stid_set":[],"attributes":{}}`, string(data))
}

func TestJSONLedger_AppendCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "building_info.json")
	l := NewJSON(path)

	key, err := l.Append(context.Background(), testRecord("bldg_001", stid.ID{Z: 18, X: 1, Y: 2}))
	require.NoError(t, err)
	assert.Equal(t, "0", key)

	doc := readDoc(t, path)
	require.Contains(t, doc, "0")
	assert.Equal(t, "bldg_001", doc["0"]["id"])
	assert.Equal(t, []any{"18/0/1/2"}, doc["0"]["stid_set"])
	assert.Equal(t, map[string]any{"uro:buildingStructureType": "Wooden"}, doc["0"]["attributes"])

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestJSONLedger_SequentialKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	l := NewJSON(path)
	ctx := context.Background()

	for i, id := range []string{"a", "b", "c"} {
		key, err := l.Append(ctx, testRecord(id))
		require.NoError(t, err)
		assert.Equal(t, []string{"0", "1", "2"}[i], key)
	}

	entries, err := Load(path)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "c", entries["2"].ID)
}

func TestJSONLedger_FreshInstanceOverwritesKeyZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	ctx := context.Background()

	_, err := NewJSON(path).Append(ctx, testRecord("first"))
	require.NoError(t, err)
	key, err := NewJSON(path).Append(ctx, testRecord("second"))
	require.NoError(t, err)
	assert.Equal(t, "0", key)

	entries, err := Load(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "second", entries["0"].ID)
}

func TestJSONLedger_PreservesOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	existing := `{"0":{"id":"old","stid_set":[],"attributes":{}},"7":{"id":"keep","stid_set":["18/0/1/1"],"attributes":{"k":"v"},"extra":true}}`
	require.NoError(t, os.WriteFile(path, []byte(existing), 0o644))

	_, err := NewJSON(path).Append(context.Background(), testRecord("new"))
	require.NoError(t, err)

	doc := readDoc(t, path)
	require.Len(t, doc, 2)
	assert.Equal(t, "new", doc["0"]["id"])
	assert.Equal(t, "keep", doc["7"]["id"])
	assert.Equal(t, true, doc["7"]["extra"])
}

func TestJSONLedger_BlankFileTreatedAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	require.NoError(t, os.WriteFile(path, []byte(" \n\t "), 0o644))

	key, err := NewJSON(path).Append(context.Background(), testRecord("b"))
	require.NoError(t, err)
	assert.Equal(t, "0", key)
	assert.Len(t, readDoc(t, path), 1)
}

func TestJSONLedger_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"0": [`), 0o644))

	l := NewJSON(path)
	_, err := l.Append(context.Background(), testRecord("b"))
	require.Error(t, err)
	assert.True(t, faults.Is(err, faults.KindParse))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"0": [`, string(data))

	// A failed append does not consume a key.
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))
	key, err := l.Append(context.Background(), testRecord("b"))
	require.NoError(t, err)
	assert.Equal(t, "0", key)
}

func TestJSONLedger_ReadError(t *testing.T) {
	dir := t.TempDir()
	_, err := NewJSON(dir).Append(context.Background(), testRecord("b"))
	require.Error(t, err)
	assert.True(t, faults.Is(err, faults.KindIO))
}

func TestJSONLedger_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ledger.json")
	_, err := NewJSON(path).Append(context.Background(), testRecord("b"))
	require.NoError(t, err)

	names, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, names, 1)
	assert.Equal(t, "ledger.json", names[0].Name())
}

func TestJSONLedger_StidSetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	m := stid.NewSet(
		stid.ID{Z: 18, F: 0, X: 232847, Y: 103226},
		stid.ID{Z: 18, F: 1, X: 232847, Y: 103226},
		stid.ID{Z: 18, F: 0, X: 232848, Y: 103227},
	)
	rec := testRecord("b")
	rec.Cells = m

	_, err := NewJSON(path).Append(context.Background(), rec)
	require.NoError(t, err)

	entries, err := Load(path)
	require.NoError(t, err)
	got, err := stid.ParseSet(entries["0"].StidSet)
	require.NoError(t, err)
	assert.Equal(t, m, got)
	assert.Len(t, entries["0"].StidSet, 3)
}

func TestJSONLedger_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := filepath.Join(t.TempDir(), "ledger.json")
	_, err := NewJSON(path).Append(ctx, testRecord("b"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, path)
}

func TestLoad_Missing(t *testing.T) {
	entries, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLoad_BadEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"0":"not an object"}`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, faults.Is(err, faults.KindParse))
}
