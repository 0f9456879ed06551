package citygml

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/citygml-stid/internal/cells"
	"github.com/sells-group/citygml-stid/internal/codespace"
	"github.com/sells-group/citygml-stid/internal/faults"
	"github.com/sells-group/citygml-stid/internal/geometry"
	"github.com/sells-group/citygml-stid/internal/xmldoc"
)

// State is the scope the scanner is currently in.
type State int

// Scan states.
const (
	StateIdle State = iota
	StateInBuilding
	StateInExtension
)

func (s State) String() string {
	switch s {
	case StateInBuilding:
		return "in_building"
	case StateInExtension:
		return "in_extension"
	default:
		return "idle"
	}
}

// Scanner extracts the first building of a CityGML document.
type Scanner struct {
	Vocab    Vocabulary
	Mapper   *cells.Mapper
	Resolver codespace.Resolver
}

// NewScanner returns a Scanner. A nil resolver parses code lists on every
// reference without caching.
func NewScanner(vocab Vocabulary, mapper *cells.Mapper, resolver codespace.Resolver) *Scanner {
	if resolver == nil {
		resolver = codespace.FileResolver{}
	}
	return &Scanner{Vocab: vocab, Mapper: mapper, Resolver: resolver}
}

// ScanFile opens path and scans it. Code-list references are resolved
// relative to the directory holding path.
func (s *Scanner) ScanFile(ctx context.Context, path string) (*BuildingRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, faults.IO(err, "citygml: open "+path)
	}
	defer func() { _ = f.Close() }()

	return s.Scan(ctx, f, filepath.Dir(path))
}

// Scan streams r until the first building element closes and returns its
// record. It returns nil, nil when the document holds no building.
func (s *Scanner) Scan(ctx context.Context, r io.Reader, docDir string) (*BuildingRecord, error) {
	decoder := xmldoc.NewDecoder(r)
	sc := &scan{Scanner: s, docDir: docDir}

	for {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "citygml: context cancelled")
		}

		tok, err := decoder.RawToken()
		if err == io.EOF {
			if len(sc.open) > 0 {
				return nil, faults.Parse(nil, fmt.Sprintf("citygml: unexpected EOF, <%s> not closed", sc.open[len(sc.open)-1].tag))
			}
			zap.L().Debug("citygml: no building found")
			return nil, nil
		}
		if err != nil {
			return nil, xmldoc.ReadError(err, "citygml: read token")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if err := sc.start(ctx, t); err != nil {
				return nil, err
			}
		case xml.CharData:
			sc.text(t)
		case xml.EndElement:
			done, err := sc.end(t)
			if err != nil {
				return nil, err
			}
			if done {
				return sc.record, nil
			}
		}
	}
}

// element is one open element on the scan stack.
type element struct {
	tag   string
	class TagClass
	text  strings.Builder
}

// extension is one open extension-attribute element and the code map
// resolved from its codeSpace reference, if any.
type extension struct {
	depth int
	codes codespace.CodeMap
}

// scan holds the per-document state. The record is non-nil only while the
// building scope is open.
type scan struct {
	*Scanner
	docDir string

	open          []*element
	record        *BuildingRecord
	buildingDepth int
	ext           []extension
}

func (sc *scan) state() State {
	switch {
	case sc.record == nil:
		return StateIdle
	case len(sc.ext) > 0:
		return StateInExtension
	default:
		return StateInBuilding
	}
}

func (sc *scan) start(ctx context.Context, t xml.StartElement) error {
	tag := qualifiedName(t.Name)
	el := &element{tag: tag, class: sc.Vocab.Classify(tag)}
	sc.open = append(sc.open, el)
	depth := len(sc.open)

	switch sc.state() {
	case StateIdle:
		if el.class != ClassBuilding {
			return nil
		}
		id, _ := attr(t.Attr, sc.Vocab.IDAttr)
		sc.record = newBuildingRecord(id)
		sc.buildingDepth = depth
		zap.L().Debug("citygml: enter building", zap.String("id", id))

	case StateInBuilding, StateInExtension:
		if el.class != ClassExtension {
			return nil
		}
		frame := extension{depth: depth}
		if ref, ok := attr(t.Attr, sc.Vocab.CodeSpaceAttr); ok && ref != "" {
			path, err := codespace.Canonical(sc.docDir, ref)
			if err != nil {
				return err
			}
			codes, err := sc.Resolver.Resolve(ctx, path)
			if err != nil {
				return err
			}
			frame.codes = codes
		}
		sc.ext = append(sc.ext, frame)
	}
	return nil
}

func (sc *scan) text(data xml.CharData) {
	if sc.state() == StateIdle || len(sc.open) == 0 {
		return
	}
	sc.open[len(sc.open)-1].text.Write(data)
}

// end closes the innermost element. It reports true once the building scope
// closes.
func (sc *scan) end(t xml.EndElement) (bool, error) {
	tag := qualifiedName(t.Name)
	if len(sc.open) == 0 {
		return false, faults.Parse(nil, fmt.Sprintf("citygml: unexpected </%s>", tag))
	}
	el := sc.open[len(sc.open)-1]
	if el.tag != tag {
		return false, faults.Parse(nil, fmt.Sprintf("citygml: <%s> closed by </%s>", el.tag, tag))
	}
	depth := len(sc.open)

	if err := sc.flush(el); err != nil {
		return false, err
	}
	sc.open = sc.open[:depth-1]

	if n := len(sc.ext); n > 0 && sc.ext[n-1].depth == depth {
		sc.ext = sc.ext[:n-1]
	}

	if sc.record != nil && depth == sc.buildingDepth {
		zap.L().Debug("citygml: leave building",
			zap.String("id", sc.record.BuildingID),
			zap.Int("cells", sc.record.Cells.Len()),
			zap.Int("attributes", len(sc.record.Attributes)),
		)
		return true, nil
	}
	return false, nil
}

// flush handles the text collected for el according to the current scope.
func (sc *scan) flush(el *element) error {
	text := strings.TrimSpace(el.text.String())
	if text == "" {
		return nil
	}

	switch sc.state() {
	case StateInExtension:
		value := text
		if desc, ok := sc.ext[len(sc.ext)-1].codes.Lookup(text); ok {
			value = desc
		}
		sc.record.Attributes[el.tag] = value

	case StateInBuilding:
		if el.class != ClassGeometry {
			return nil
		}
		points, err := geometry.ParsePoints(text)
		if err != nil {
			return eris.Wrapf(err, "citygml: building %s", sc.record.BuildingID)
		}
		sc.record.Rings = append(sc.record.Rings, points)
		sc.record.Cells.Union(sc.Mapper.CellsForRing(points))
		zap.L().Debug("citygml: ring mapped",
			zap.String("id", sc.record.BuildingID),
			zap.Int("points", len(points)),
			zap.Int("triangles", cells.TriangleCount(len(points))),
		)
	}
	return nil
}

func qualifiedName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

func attr(attrs []xml.Attr, name string) (string, bool) {
	for _, a := range attrs {
		if qualifiedName(a.Name) == name {
			return a.Value, true
		}
	}
	return "", false
}
