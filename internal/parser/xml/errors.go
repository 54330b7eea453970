package xmlparser

import (
	"encoding/xml"
	"errors"
	"fmt"
)

// ParseError reports a malformed or structurally unusable input document.
// Offset is the byte offset in the (decoded) input stream; Line is the
// tokenizer's best-effort line number, 0 when unknown.
type ParseError struct {
	Ref    string // source reference, e.g. "girona.xml" or "lot.zip!a.xml"
	Offset int64
	Line   int
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("xml: %s: line %d (offset %d): %v", e.Ref, e.Line, e.Offset, e.Err)
	}
	return fmt.Sprintf("xml: %s: offset %d: %v", e.Ref, e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// parseErr wraps a tokenizer error, lifting the line number out of
// xml.SyntaxError when one is available.
func parseErr(ref string, offset int64, err error) *ParseError {
	pe := &ParseError{Ref: ref, Offset: offset, Err: err}
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		pe.Line = se.Line
	}
	return pe
}
