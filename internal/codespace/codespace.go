// Package codespace resolves CityGML code-list dictionaries into code →
// description lookup tables.
package codespace

import (
	"context"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/citygml-stid/internal/faults"
	"github.com/sells-group/citygml-stid/internal/xmldoc"
)

// CodeMap maps a coded value to its description.
type CodeMap map[string]string

// Lookup returns the description for code.
func (m CodeMap) Lookup(code string) (string, bool) {
	desc, ok := m[code]
	return desc, ok
}

// Resolver loads the code map for a code-list document path.
type Resolver interface {
	Resolve(ctx context.Context, path string) (CodeMap, error)
}

// definition is one gml:Definition record. Tags carry no namespace so any
// prefix bound to the vocabulary matches.
type definition struct {
	Name        string `xml:"name"`
	Description string `xml:"description"`
}

// Parse reads a code-list dictionary. Definitions missing a name or a
// description are skipped. Malformed markup is a parse failure; a failing
// reader is an I/O failure.
func Parse(ctx context.Context, r io.Reader) (CodeMap, error) {
	decoder := xmldoc.NewDecoder(r)
	codes := make(CodeMap)

	for {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "codespace: context cancelled")
		}

		tok, err := decoder.Token()
		if err == io.EOF {
			return codes, nil
		}
		if err != nil {
			return nil, xmldoc.ReadError(err, "codespace: read token")
		}

		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Definition" {
			continue
		}

		var def definition
		if err := decoder.DecodeElement(&def, &se); err != nil {
			return nil, xmldoc.ReadError(err, "codespace: decode definition")
		}
		name := strings.TrimSpace(def.Name)
		desc := strings.TrimSpace(def.Description)
		if name == "" || desc == "" {
			continue
		}
		codes[name] = desc
	}
}

// FileResolver parses the code-list document on every call.
type FileResolver struct{}

// Resolve opens and parses the document at path.
func (FileResolver) Resolve(ctx context.Context, path string) (CodeMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, faults.IO(err, "codespace: open "+path)
	}
	defer func() { _ = f.Close() }()

	codes, err := Parse(ctx, f)
	if err != nil {
		return nil, eris.Wrapf(err, "codespace: %s", path)
	}
	zap.L().Debug("codespace: resolved",
		zap.String("path", path),
		zap.Int("codes", len(codes)),
	)
	return codes, nil
}

// Canonical resolves ref against baseDir and returns the absolute path with
// symlinks evaluated. The referenced file must exist.
func Canonical(baseDir, ref string) (string, error) {
	p := ref
	if !filepath.IsAbs(p) {
		p = filepath.Join(baseDir, ref)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", faults.IO(err, "codespace: absolute path "+ref)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", faults.IO(err, "codespace: canonicalize "+ref)
	}
	return resolved, nil
}
