// Package xmldoc provides charset-aware XML decoding shared by the CityGML
// scanner and the code-list resolver.
package xmldoc

import (
	"encoding/xml"
	"errors"
	"io"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/sells-group/citygml-stid/internal/faults"
)

// NewDecoder returns a decoder that transcodes non-UTF-8 documents
// (Shift_JIS, EUC-JP, ...) declared in the XML prolog.
func NewDecoder(r io.Reader) *xml.Decoder {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, eris.Wrapf(err, "xml: unsupported charset %q", charset)
		}
		return enc.NewDecoder().Reader(input), nil
	}
	return decoder
}

// ReadError classifies an error returned by a decoder: malformed markup is a
// parse failure, anything from the underlying reader is an I/O failure.
func ReadError(err error, msg string) *faults.Error {
	var syntaxErr *xml.SyntaxError
	if errors.As(err, &syntaxErr) {
		return faults.Parse(err, msg)
	}
	return faults.IO(err, msg)
}
