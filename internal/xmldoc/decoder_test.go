package xmldoc

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"

	"github.com/sells-group/citygml-stid/internal/faults"
)

func TestNewDecoder_ShiftJIS(t *testing.T) {
	body, err := japanese.ShiftJIS.NewEncoder().String(`<name>木造</name>`)
	require.NoError(t, err)
	doc := `<?xml version="1.0" encoding="Shift_JIS"?>` + body

	var v struct {
		XMLName xml.Name `xml:"name"`
		Text    string   `xml:",chardata"`
	}
	require.NoError(t, NewDecoder(strings.NewReader(doc)).Decode(&v))
	assert.Equal(t, "木造", v.Text)
}

func TestReadError(t *testing.T) {
	dec := NewDecoder(strings.NewReader(`<a><b></a>`))
	var syntaxErr error
	for syntaxErr == nil {
		_, syntaxErr = dec.Token()
	}
	assert.True(t, faults.Is(ReadError(syntaxErr, "read"), faults.KindParse))

	dec = NewDecoder(io.MultiReader(strings.NewReader("<a>"), iotest.ErrReader(errors.New("disk failure"))))
	var readErr error
	for readErr == nil {
		_, readErr = dec.Token()
	}
	fe := ReadError(readErr, "read")
	assert.True(t, faults.Is(fe, faults.KindIO))
	assert.Contains(t, fe.Error(), "disk failure")
}
