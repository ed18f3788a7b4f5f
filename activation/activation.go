// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

// Package activation supplies constructors for the types a decoder builds.
//
// A decoder never creates values directly. It asks a Provider either for a
// zero-argument Constructor, for types that are filled in place, or for a
// Factory, for types that can only be built from a finished sequence of
// elements or key/value entries. A Provider may be backed by reflection,
// explicit registrations, or generated code; the decoder only requires that
// its answers are idempotent.
package activation

import (
	"errors"
	"reflect"
)

// A Constructor returns a new zero-initialized value of a specific type.
// For struct types the result is a pointer to a new struct.
type Constructor func() reflect.Value

// Shape describes the arrangement of the input to a Factory.
type Shape byte

const (
	// Sequence factories take an ordered sequence of elements.
	Sequence Shape = iota + 1

	// Pairs factories take an ordered sequence of key/value entries.
	Pairs
)

func (s Shape) String() string {
	switch s {
	case Sequence:
		return "sequence"
	case Pairs:
		return "pairs"
	default:
		return "invalid shape"
	}
}

// A Factory builds a value of a specific type from a finished buffer.
type Factory struct {
	Shape Shape

	// Elem is the type of the elements (for Sequence) or of the entry values
	// (for Pairs) accepted by Build.
	Elem reflect.Type

	// EntryType, if set, overrides Elem for the value of the entry with the
	// given key. It is used only for Pairs factories.
	EntryType func(key string) reflect.Type

	// Build constructs a value from the buffered entries. For a Sequence
	// factory keys is nil. For a Pairs factory keys and elems have equal
	// length and keys are distinct.
	Build func(keys []string, elems []reflect.Value) (reflect.Value, error)
}

// TypeOf returns the type expected for the value of the entry with key.
func (f Factory) TypeOf(key string) reflect.Type {
	if f.EntryType != nil {
		if t := f.EntryType(key); t != nil {
			return t
		}
	}
	return f.Elem
}

// A Provider supplies constructors for types. A Provider must be safe for
// concurrent use, and its methods must return equivalent results each time
// they are called with the same type. A missing constructor is reported as
// ok == false rather than an error.
type Provider interface {
	// DefaultConstructor returns a zero-argument constructor for t.
	DefaultConstructor(t reflect.Type) (_ Constructor, ok bool)

	// ParameterizedConstructor returns a factory for t, if t can be built
	// from a finished buffer of elements or entries.
	ParameterizedConstructor(t reflect.Type) (_ Factory, ok bool)

	// ConcreteType returns the concrete type to construct for values of the
	// interface type t.
	ConcreteType(t reflect.Type) (_ reflect.Type, ok bool)
}

// SequenceType is implemented by types whose values are built from a finished
// sequence of elements. The methods are called on the zero value.
type SequenceType interface {
	// SequenceElem returns the type of the elements.
	SequenceElem() reflect.Type

	// FromSequence returns a new value holding the given elements, each of
	// which has the element type or is nil.
	FromSequence(elems []any) (any, error)
}

// MappingType is implemented by types whose values are built from a finished
// sequence of key/value entries. The methods are called on the zero value.
type MappingType interface {
	// MappingElem returns the type of the entry values.
	MappingElem() reflect.Type

	// FromMapping returns a new value holding the given entries. The keys
	// are distinct and vals[i] is the value for keys[i].
	FromMapping(keys []string, vals []any) (any, error)
}

// ErrTooManyElements is reported when a fixed-size array is built from more
// elements than it can hold.
var ErrTooManyElements = errors.New("too many elements for array")
