package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/sells-group/citygml-stid/internal/citygml"
	"github.com/sells-group/citygml-stid/internal/footprint"
)

// SQLiteLedger stores entries in a SQLite table using modernc.org/sqlite.
// Keys follow the same per-instance sequence as JSONLedger.
type SQLiteLedger struct {
	db    *sql.DB
	runID string
	counter
}

// NewSQLite opens a SQLite database at dsn and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteLedger{db: db, runID: uuid.New().String()}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS buildings (
	key         TEXT PRIMARY KEY,
	building_id TEXT NOT NULL,
	stid_set    TEXT NOT NULL,
	attributes  TEXT NOT NULL,
	footprint   BLOB,
	run_id      TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_buildings_building_id ON buildings(building_id);
CREATE INDEX IF NOT EXISTS idx_buildings_run_id ON buildings(run_id);
`

// Migrate creates the buildings table if needed.
func (s *SQLiteLedger) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// RunID identifies the rows written by this instance.
func (s *SQLiteLedger) RunID() string { return s.runID }

func (s *SQLiteLedger) Close() error {
	return s.db.Close()
}

// Append upserts rec under the next key.
func (s *SQLiteLedger) Append(ctx context.Context, rec *citygml.BuildingRecord) (string, error) {
	e := EntryFromRecord(rec)

	stidJSON, err := json.Marshal(e.StidSet)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal stid_set")
	}
	attrJSON, err := json.Marshal(e.Attributes)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal attributes")
	}
	fp, err := footprint.EncodeEWKB(rec.Rings)
	if err != nil {
		return "", err
	}

	key := s.peek()
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO buildings (key, building_id, stid_set, attributes, footprint, run_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			building_id = excluded.building_id,
			stid_set = excluded.stid_set,
			attributes = excluded.attributes,
			footprint = excluded.footprint,
			run_id = excluded.run_id,
			updated_at = excluded.updated_at`,
		key, e.ID, string(stidJSON), string(attrJSON), fp, s.runID, now, now,
	)
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: upsert building %s", key)
	}
	s.advance()

	zap.L().Info("ledger: entry written",
		zap.String("driver", "sqlite"),
		zap.String("key", key),
		zap.String("building_id", e.ID),
		zap.String("run_id", s.runID),
		zap.Int("cells", len(e.StidSet)),
	)
	return key, nil
}

// Row is one stored building with its storage metadata.
type Row struct {
	Key       string
	Entry     Entry
	Footprint []byte
	RunID     string
}

// List returns every stored building ordered by key.
func (s *SQLiteLedger) List(ctx context.Context) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, building_id, stid_set, attributes, footprint, run_id FROM buildings ORDER BY CAST(key AS INTEGER), key`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list buildings")
	}
	defer rows.Close() //nolint:errcheck

	var out []Row
	for rows.Next() {
		var (
			r                  Row
			stidJSON, attrJSON string
		)
		if err := rows.Scan(&r.Key, &r.Entry.ID, &stidJSON, &attrJSON, &r.Footprint, &r.RunID); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan building")
		}
		if err := json.Unmarshal([]byte(stidJSON), &r.Entry.StidSet); err != nil {
			return nil, eris.Wrapf(err, "sqlite: decode stid_set %s", r.Key)
		}
		if err := json.Unmarshal([]byte(attrJSON), &r.Entry.Attributes); err != nil {
			return nil, eris.Wrapf(err, "sqlite: decode attributes %s", r.Key)
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate buildings")
}

// Entries returns the stored entries keyed like the JSON ledger.
func (s *SQLiteLedger) Entries(ctx context.Context) (map[string]Entry, error) {
	rows, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Entry, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Entry
	}
	return out, nil
}
