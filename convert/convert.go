// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

// Package convert implements conversion between single JSON scalar tokens and
// Go leaf values.
//
// A Converter handles one leaf type. Converters are stateless, and are
// resolved by type through a Registry:
//
//	r := convert.NewRegistry()
//	c, ok := r.Lookup(reflect.TypeFor[int]())
//	v, err := c.Convert(jbind.Integer, []byte("25"))
//
// The registry knows the built-in leaf types (booleans, numbers, strings,
// byte slices, time.Time, time.Duration, uuid.UUID, json.Number, and types
// that implement encoding.TextUnmarshaler). A pointer to a leaf type is itself
// a leaf, which converts the JSON null to a nil pointer.
package convert

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/creachadair/jbind"
)

// ErrConversion is reported when a token does not match the shape of the leaf
// type it is converted to.
var ErrConversion = errors.New("conversion failed")

// A Converter converts a single JSON scalar token to and from a Go value of a
// specific leaf type.
type Converter interface {
	// Convert converts the raw text of a scalar token to a value of the leaf
	// type. String text is still quoted.
	Convert(tok jbind.Token, text []byte) (reflect.Value, error)

	// Format renders v, which must have the leaf type, as JSON text.
	Format(v reflect.Value) ([]byte, error)
}

// A Registry maps leaf types to their converters. A Registry is safe for
// concurrent use.
type Registry struct {
	mu     sync.RWMutex
	custom map[reflect.Type]Converter
}

// NewRegistry constructs a new Registry containing only the built-in leaf
// types.
func NewRegistry() *Registry { return &Registry{custom: make(map[reflect.Type]Converter)} }

// Register adds c as the converter for values of type t, replacing any
// existing converter for t, including a built-in one.
func (r *Registry) Register(t reflect.Type, c Converter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.custom[t] = c
}

// RegisterFunc adds a converter for values of type T built from the given
// conversion and formatting functions.
func RegisterFunc[T any](r *Registry, conv func(jbind.Token, []byte) (T, error), format func(T) ([]byte, error)) {
	t := reflect.TypeFor[T]()
	r.Register(t, funcConverter[T]{typ: t, conv: conv, format: format})
}

// Lookup returns the converter for values of type t, and reports whether t is
// a leaf type.
func (r *Registry) Lookup(t reflect.Type) (Converter, bool) {
	r.mu.RLock()
	c, ok := r.custom[t]
	r.mu.RUnlock()
	if ok {
		return c, true
	}
	if b, ok := builtin(t); ok {
		return b, true
	}
	if t.Kind() == reflect.Pointer {
		if c, ok := r.Lookup(t.Elem()); ok {
			return nullable{typ: t, elem: c}, true
		}
	}
	return nil, false
}

// Format renders v as JSON text using the converter for its type.
func (r *Registry) Format(v reflect.Value) ([]byte, error) {
	c, ok := r.Lookup(v.Type())
	if !ok {
		return nil, fmt.Errorf("type %v is not a leaf type", v.Type())
	}
	return c.Format(v)
}

// nullable converts null to a nil pointer, and other values to a pointer to a
// converted value of the element type.
type nullable struct {
	typ  reflect.Type // pointer type
	elem Converter
}

func (n nullable) Convert(tok jbind.Token, text []byte) (reflect.Value, error) {
	if tok == jbind.Null {
		return reflect.Zero(n.typ), nil
	}
	v, err := n.elem.Convert(tok, text)
	if err != nil {
		return reflect.Value{}, err
	}
	p := reflect.New(n.typ.Elem())
	p.Elem().Set(v)
	return p, nil
}

func (n nullable) Format(v reflect.Value) ([]byte, error) {
	if v.IsNil() {
		return []byte("null"), nil
	}
	return n.elem.Format(v.Elem())
}

type funcConverter[T any] struct {
	typ    reflect.Type
	conv   func(jbind.Token, []byte) (T, error)
	format func(T) ([]byte, error)
}

func (f funcConverter[T]) Convert(tok jbind.Token, text []byte) (reflect.Value, error) {
	v, err := f.conv(tok, text)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %w", ErrConversion, err)
	}
	return reflect.ValueOf(&v).Elem(), nil
}

func (f funcConverter[T]) Format(v reflect.Value) ([]byte, error) {
	return f.format(v.Interface().(T))
}

// mismatch reports a token that cannot be converted to type t.
func mismatch(t reflect.Type, text []byte) error {
	return fmt.Errorf("%w: cannot convert %s to %v", ErrConversion, clip(text), t)
}

// clip truncates long token text for error messages.
func clip(text []byte) string {
	const maxText = 40
	if len(text) > maxText {
		return string(text[:maxText]) + "..."
	}
	return string(text)
}
