// Package ledger persists building records under sequential string keys.
//
// The key counter is held by the Store instance and restarts at "0" for every
// new instance, so a fresh run overwrites the entries written by the previous
// run from key "0" upward.
package ledger

import (
	"context"
	"strconv"

	"github.com/sells-group/citygml-stid/internal/citygml"
)

// Entry is the persisted form of a building record.
type Entry struct {
	ID         string            `json:"id" yaml:"id"`
	StidSet    []string          `json:"stid_set" yaml:"stid_set"`
	Attributes map[string]string `json:"attributes" yaml:"attributes"`
}

// EntryFromRecord converts rec. Cell IDs are sorted for stable output.
func EntryFromRecord(rec *citygml.BuildingRecord) Entry {
	e := Entry{
		ID:         rec.BuildingID,
		StidSet:    rec.Cells.Strings(),
		Attributes: make(map[string]string, len(rec.Attributes)),
	}
	for k, v := range rec.Attributes {
		e.Attributes[k] = v
	}
	return e
}

// Store appends building records to a ledger.
type Store interface {
	// Append writes rec under the next key and returns that key.
	Append(ctx context.Context, rec *citygml.BuildingRecord) (string, error)
	Close() error
}

// counter hands out the per-instance sequential keys.
type counter struct {
	next int
}

func (c *counter) peek() string { return strconv.Itoa(c.next) }

func (c *counter) advance() { c.next++ }
