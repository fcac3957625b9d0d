package svgicon

import (
	"errors"
	"fmt"
)

var (
	errParamMismatch = errors.New("param mismatch")
	errNoElement     = errors.New("invalid svg xml icon: no element found")
)

// IOError is returned when the document can't be read.
type IOError struct {
	Path string // empty for streams
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("reading svg: %s", e.Err)
	}
	return fmt.Sprintf("reading svg %s: %s", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ParseError is returned for malformed documents,
// or documents using unsupported features in strict mode.
type ParseError struct {
	Element string // may be empty
	Err     error
}

func (e *ParseError) Error() string {
	if e.Element == "" {
		return fmt.Sprintf("parsing svg: %s", e.Err)
	}
	return fmt.Sprintf("parsing svg: element <%s>: %s", e.Element, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
