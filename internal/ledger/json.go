package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/citygml-stid/internal/citygml"
	"github.com/sells-group/citygml-stid/internal/faults"
)

// JSONLedger keeps the ledger as a single JSON object on disk. Each Append
// rewrites the whole file through a temporary file and a rename. Concurrent
// writers against one path are not supported.
type JSONLedger struct {
	path string
	counter
}

// NewJSON returns a ledger backed by the file at path.
func NewJSON(path string) *JSONLedger {
	return &JSONLedger{path: path}
}

// Append merges rec into the ledger file under the next key.
func (l *JSONLedger) Append(ctx context.Context, rec *citygml.BuildingRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", eris.Wrap(err, "ledger: context cancelled")
	}

	doc, err := readRaw(l.path)
	if err != nil {
		return "", err
	}

	entry, err := json.Marshal(EntryFromRecord(rec))
	if err != nil {
		return "", eris.Wrap(err, "ledger: marshal entry")
	}
	key := l.peek()
	doc[key] = entry

	data, err := json.Marshal(doc)
	if err != nil {
		return "", eris.Wrap(err, "ledger: marshal ledger")
	}
	if err := writeAtomic(l.path, data); err != nil {
		return "", err
	}
	l.advance()

	zap.L().Info("ledger: entry written",
		zap.String("path", l.path),
		zap.String("key", key),
		zap.String("building_id", rec.BuildingID),
		zap.Int("cells", rec.Cells.Len()),
	)
	return key, nil
}

// Close is a no-op; the file is not held open between appends.
func (l *JSONLedger) Close() error { return nil }

// Load reads every entry of the ledger at path. An absent or blank file yields
// an empty map.
func Load(path string) (map[string]Entry, error) {
	raw, err := readRaw(path)
	if err != nil {
		return nil, err
	}

	out := make(map[string]Entry, len(raw))
	for key, msg := range raw {
		var e Entry
		if err := json.Unmarshal(msg, &e); err != nil {
			return nil, faults.Parse(err, "ledger: decode entry "+key)
		}
		out[key] = e
	}
	return out, nil
}

// readRaw loads the ledger object keeping entries undecoded so unknown fields
// survive a rewrite.
func readRaw(path string) (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]json.RawMessage), nil
	}
	if err != nil {
		return nil, faults.IO(err, "ledger: read "+path)
	}
	if strings.TrimSpace(string(data)) == "" {
		return make(map[string]json.RawMessage), nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, faults.Parse(err, "ledger: decode "+path)
	}
	if doc == nil {
		doc = make(map[string]json.RawMessage)
	}
	return doc, nil
}

// writeAtomic replaces path with data via a temp file in the same directory.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return faults.IO(err, "ledger: create temp file")
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return faults.IO(err, "ledger: write temp file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return faults.IO(err, "ledger: sync temp file")
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return faults.IO(err, "ledger: close temp file")
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return faults.IO(err, "ledger: chmod temp file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return faults.IO(err, "ledger: replace "+path)
	}
	return nil
}
