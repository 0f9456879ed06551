package citygml

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/citygml-stid/internal/faults"
)

// ErrNoDocument is returned by FindFirst when dir holds no matching file.
var ErrNoDocument = eris.New("citygml: no document found")

// FindFirst returns the first regular file in dir whose extension matches ext
// (case-insensitive). Entries are visited in name order.
func FindFirst(dir, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", faults.IO(err, "citygml: read dir "+dir)
	}

	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ext) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", faults.IO(ErrNoDocument, "citygml: no "+ext+" file in "+dir)
}
