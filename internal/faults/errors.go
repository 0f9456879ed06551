// Package faults classifies failures surfaced by the scan and ledger operations.
package faults

import (
	"errors"

	"github.com/rotisserie/eris"
)

// Kind identifies the class of a failure.
type Kind int

const (
	// KindUnknown is reported for errors that carry no classification.
	KindUnknown Kind = iota
	// KindIO covers open/read/write failures on documents and the ledger.
	KindIO
	// KindParse covers malformed markup and unreadable ledger content.
	KindParse
	// KindFormat covers geometry text that is not a list of numeric triples.
	KindFormat
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindParse:
		return "parse"
	case KindFormat:
		return "format"
	default:
		return "unknown"
	}
}

// Error wraps an error with its Kind.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps err with msg and tags it with kind. A nil err yields a fresh error
// carrying only msg.
func New(kind Kind, err error, msg string) *Error {
	if err == nil {
		return &Error{Kind: kind, Err: eris.New(msg)}
	}
	return &Error{Kind: kind, Err: eris.Wrap(err, msg)}
}

// IO tags err as an I/O failure.
func IO(err error, msg string) *Error { return New(KindIO, err, msg) }

// Parse tags err as a markup or ledger parse failure.
func Parse(err error, msg string) *Error { return New(KindParse, err, msg) }

// Format tags err as a geometry format failure.
func Format(err error, msg string) *Error { return New(KindFormat, err, msg) }

// KindOf returns the Kind of the outermost classified error in the chain.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
