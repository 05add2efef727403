package hd

import (
	"fmt"

	"github.com/pkg/errors"
)

type Kind int

const (
	UnrecognizedSignature Kind = iota + 1
	StructuralMismatch
	UnresolvedReference
	ArityMismatch
	MissingRequiredEntry
	EncodingError
)

func (k Kind) String() string {
	switch k {
	case UnrecognizedSignature:
		return "unrecognized signature"
	case StructuralMismatch:
		return "structural mismatch"
	case UnresolvedReference:
		return "unresolved reference"
	case ArityMismatch:
		return "arity mismatch"
	case MissingRequiredEntry:
		return "missing required entry"
	case EncodingError:
		return "encoding error"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a classified codec failure.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
func (e *Error) Cause() error  { return e.Err }

func Errorf(kind Kind, format string, a ...interface{}) error {
	return &Error{Kind: kind, Err: errors.Errorf(format, a...)}
}

func Wrapf(kind Kind, err error, format string, a ...interface{}) error {
	return &Error{Kind: kind, Err: errors.Wrapf(err, format, a...)}
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		switch u := err.(type) {
		case interface{ Unwrap() error }:
			err = u.Unwrap()
		case interface{ Cause() error }:
			err = u.Cause()
		default:
			return 0
		}
	}
	return 0
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// KindOrDefault is KindOf with a fallback for unclassified errors.
func KindOrDefault(err error, def Kind) Kind {
	if k := KindOf(err); k != 0 {
		return k
	}
	return def
}
