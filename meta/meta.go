// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

// Package meta computes the structural metadata a decoder needs for each Go
// type it populates.
//
// Every type is first sorted into a Category, which determines how values of
// that type are assembled from a stream of structural items. The remaining
// metadata (properties, element types, constructors, and converters) is
// computed once per type and published through a Cache, after which it is
// immutable and may be shared by any number of concurrent decoders.
//
// Metadata for the element types of a container is resolved lazily through
// the same cache, so recursive types such as
//
//	type Tree struct {
//	   Label    string
//	   Children []*Tree
//	}
//
// are handled without special treatment.
package meta

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/creachadair/jbind/activation"
	"github.com/creachadair/jbind/convert"
)

// Category is the structural category of a type.
type Category byte

// Constants defining the valid Category values.
const (
	Invalid Category = iota

	// Value types are leaves, converted from a single scalar token.
	Value

	// Object types are structs whose fields are set by property name.
	Object

	// Enumerable types are slices, filled one element at a time.
	Enumerable

	// Dictionary types are maps with string keys, filled one entry at a time.
	Dictionary

	// EnumerableConstructible types are built from a finished sequence of
	// elements, for example fixed-size arrays and immutable lists.
	EnumerableConstructible

	// DictionaryConstructible types are built from a finished sequence of
	// key/value entries, for example immutable maps and kv.Pair.
	DictionaryConstructible

	// Unknown types (the empty interface) take their shape from the input.
	Unknown
)

var catStr = [...]string{
	Invalid:                 "invalid",
	Value:                   "value",
	Object:                  "object",
	Enumerable:              "enumerable",
	Dictionary:              "dictionary",
	EnumerableConstructible: "constructible enumerable",
	DictionaryConstructible: "constructible dictionary",
	Unknown:                 "unknown",
}

func (c Category) String() string {
	if int(c) >= len(catStr) {
		return catStr[Invalid]
	}
	return catStr[c]
}

// IsConstructible reports whether values of category c are built by a factory
// from a finished buffer.
func (c Category) IsConstructible() bool {
	return c == EnumerableConstructible || c == DictionaryConstructible
}

// Errors reported for types that cannot be decoded. These are always wrapped
// in a *ConfigError identifying the offending type.
var (
	ErrUnsupportedType   = errors.New("unsupported type")
	ErrNoConstructor     = errors.New("no constructor available")
	ErrNoConcreteType    = errors.New("no concrete type for interface")
	ErrArrayRank         = errors.New("multi-dimensional arrays are not supported")
	ErrExtensionData     = errors.New("extension data must be map[string]any")
	ErrMultipleExtension = errors.New("multiple extension data properties")
	ErrAmbiguousProperty = errors.New("ambiguous property name")
)

// ConfigError is the concrete type of errors that report a type that cannot
// be decoded with the current configuration. A ConfigError does not depend
// on the input being decoded.
type ConfigError struct {
	Type reflect.Type
	Err  error
}

func (c *ConfigError) Error() string { return fmt.Sprintf("type %v: %v", c.Type, c.Err) }

func (c *ConfigError) Unwrap() error { return c.Err }

func configError(t reflect.Type, err error) error {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return err
	}
	return &ConfigError{Type: t, Err: err}
}

// ClassMetadata records how to decode values of a single type.
type ClassMetadata struct {
	Type     reflect.Type
	Category Category

	// Indirect is true if Type is a pointer to the type described by the
	// rest of the metadata. A decoded value is stored through a new pointer.
	Indirect bool

	// Interface is the interface type this metadata was resolved from, if
	// any. Values are decoded as Type and stored as Interface.
	Interface reflect.Type

	// Converter is the leaf converter for a Value type.
	Converter convert.Converter

	// New constructs an empty container for Object, Enumerable, and
	// Dictionary types. For an Object it returns a pointer to a new struct.
	New activation.Constructor

	// Factory builds values of a constructible type.
	Factory *activation.Factory

	// Key is the key type of a Dictionary.
	Key reflect.Type

	// Props are the properties of an Object, in declaration order.
	Props *PropertyTable

	// Extension is the property of an Object that receives unmapped
	// properties, or nil if it has none.
	Extension *PropertyMetadata

	elem  reflect.Type
	cache *Cache
}

// ElemType returns the type of the elements or entry values of a container,
// or nil for other categories.
func (m *ClassMetadata) ElemType() reflect.Type { return m.elem }

// Elem returns the metadata for the elements (or entry values) of a
// container type.
func (m *ClassMetadata) Elem() (*ClassMetadata, error) {
	if m.elem == nil {
		return nil, fmt.Errorf("%v values have no elements", m.Category)
	}
	return m.cache.Get(m.elem)
}

// Entry returns the metadata for the value of the entry with the given key in
// a constructible dictionary. For other containers it is the same as Elem.
func (m *ClassMetadata) Entry(key string) (*ClassMetadata, error) {
	if m.Factory == nil || m.Factory.Shape != activation.Pairs {
		return m.Elem()
	}
	return m.cache.Get(m.Factory.TypeOf(key))
}

// Prop returns the metadata for the type of property p.
func (m *ClassMetadata) Prop(p *PropertyMetadata) (*ClassMetadata, error) {
	return m.cache.Get(p.Type)
}

// Nillable reports whether null is a valid value for the type.
func (m *ClassMetadata) Nillable() bool {
	if m.Indirect || m.Interface != nil || m.Category == Unknown {
		return true
	}
	switch m.Type.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return true
	}
	return false
}

// Zero returns the value stored for null.
func (m *ClassMetadata) Zero() reflect.Value {
	if m.Interface != nil {
		return reflect.Zero(m.Interface)
	}
	return reflect.Zero(m.Type)
}
