// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

package decode

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/creachadair/jbind"
	"github.com/creachadair/jbind/jpath"
	"github.com/creachadair/jbind/meta"
)

// Errors reported for input that does not match the target type. These are
// always wrapped in an *Error giving the location of the problem.
var (
	ErrDuplicateKey    = errors.New("duplicate key")
	ErrTypeMismatch    = errors.New("type mismatch")
	ErrNullValue       = errors.New("null value not allowed")
	ErrPairShape       = errors.New("invalid key/value pair")
	ErrMaxDepth        = errors.New("maximum nesting depth exceeded")
	ErrUnknownProperty = errors.New("unknown property")
	ErrUnexpectedItem  = errors.New("unexpected item")
	ErrTrailingData    = errors.New("unexpected data after value")
	ErrIncomplete      = errors.New("incomplete value")
)

// ErrorKind classifies decoding errors.
type ErrorKind byte

const (
	// DataErrorKind errors are caused by the input. Failed conversions of
	// scalar values are data errors wrapping convert.ErrConversion.
	DataErrorKind ErrorKind = iota + 1

	// ConfigErrorKind errors are caused by a target type that cannot be
	// decoded with the current configuration. They wrap a *meta.ConfigError.
	ConfigErrorKind
)

func (k ErrorKind) String() string {
	switch k {
	case DataErrorKind:
		return "data error"
	case ConfigErrorKind:
		return "configuration error"
	default:
		return "unknown error"
	}
}

// Error is the concrete type of errors reported by a Decoder.
type Error struct {
	Kind ErrorKind
	Path jpath.Path     // the position in the input value, if known
	Loc  jbind.Location // the source location of the item, if known
	Type reflect.Type   // the type being decoded, if known
	Err  error          // the underlying error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%v at %v", e.Kind, e.Path)
	if e.Loc.First.Line > 0 {
		msg += fmt.Sprintf(" (%v)", e.Loc)
	}
	if e.Type != nil {
		msg += fmt.Sprintf(" decoding %v", e.Type)
	}
	return msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// kindOf reports the kind of error for err.
func kindOf(err error) ErrorKind {
	var ce *meta.ConfigError
	if errors.As(err, &ce) {
		return ConfigErrorKind
	}
	return DataErrorKind
}
