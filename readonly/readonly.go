// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

// Package readonly defines immutable list and map collections.
//
// Values of these types cannot be modified after construction, so a decoder
// cannot fill them in place. Instead they are built from a finished sequence
// of elements, through the activation.SequenceType and activation.MappingType
// interfaces that both types implement.
package readonly

import (
	"bytes"
	"errors"
	"fmt"
	"iter"
	"reflect"
	"slices"

	"github.com/creachadair/jbind"
	"github.com/creachadair/jbind/kv"
	"github.com/goccy/go-json"
)

// A List is an immutable ordered sequence of values.
// The zero value is an empty list.
type List[T any] struct{ items []T }

// ListOf constructs a List containing a copy of items.
func ListOf[T any](items ...T) List[T] { return List[T]{items: slices.Clone(items)} }

// Len reports the number of elements in l.
func (l List[T]) Len() int { return len(l.items) }

// At returns the element of l at index i. It panics if i is out of range.
func (l List[T]) At(i int) T { return l.items[i] }

// All iterates over the indexes and elements of l in order.
func (l List[T]) All() iter.Seq2[int, T] { return slices.All(l.items) }

// Slice returns a copy of the elements of l.
func (l List[T]) Slice() []T { return slices.Clone(l.items) }

// MarshalJSON encodes l as a JSON array.
func (l List[T]) MarshalJSON() ([]byte, error) {
	if l.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.items)
}

// SequenceElem implements part of activation.SequenceType.
func (List[T]) SequenceElem() reflect.Type { return reflect.TypeFor[T]() }

// FromSequence implements part of activation.SequenceType.
func (List[T]) FromSequence(elems []any) (any, error) {
	items := make([]T, len(elems))
	for i, e := range elems {
		v, ok := e.(T)
		if !ok && e != nil {
			return nil, fmt.Errorf("element %d has type %T, want %v", i, e, reflect.TypeFor[T]())
		}
		items[i] = v
	}
	return List[T]{items: items}, nil
}

// ErrDuplicateKey is reported by MapOf when a key appears more than once.
var ErrDuplicateKey = errors.New("duplicate key")

// A Map is an immutable mapping from string keys to values, which remembers
// the order in which keys were added. The zero value is an empty map.
type Map[V any] struct {
	keys []string
	m    map[string]V
}

// MapOf constructs a Map from the given pairs, in order. It reports
// ErrDuplicateKey if any key occurs more than once.
func MapOf[V any](pairs ...kv.Pair[V]) (Map[V], error) {
	out := Map[V]{keys: make([]string, 0, len(pairs)), m: make(map[string]V, len(pairs))}
	for _, p := range pairs {
		if _, ok := out.m[p.Key]; ok {
			return Map[V]{}, fmt.Errorf("%w: %q", ErrDuplicateKey, p.Key)
		}
		out.keys = append(out.keys, p.Key)
		out.m[p.Key] = p.Value
	}
	return out, nil
}

// Len reports the number of entries in m.
func (m Map[V]) Len() int { return len(m.keys) }

// Get returns the value for key in m, and reports whether it was present.
func (m Map[V]) Get(key string) (V, bool) {
	v, ok := m.m[key]
	return v, ok
}

// Keys returns a copy of the keys of m in insertion order.
func (m Map[V]) Keys() []string { return slices.Clone(m.keys) }

// All iterates over the entries of m in insertion order.
func (m Map[V]) All() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		for _, k := range m.keys {
			if !yield(k, m.m[k]) {
				return
			}
		}
	}
}

// MarshalJSON encodes m as a JSON object with members in insertion order.
func (m Map[V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(jbind.Quote(k))
		buf.WriteByte(':')
		v, err := json.Marshal(m.m[k])
		if err != nil {
			return nil, fmt.Errorf("value for %q: %w", k, err)
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MappingElem implements part of activation.MappingType.
func (Map[V]) MappingElem() reflect.Type { return reflect.TypeFor[V]() }

// FromMapping implements part of activation.MappingType.
func (Map[V]) FromMapping(keys []string, vals []any) (any, error) {
	pairs := make([]kv.Pair[V], len(keys))
	for i, k := range keys {
		v, ok := vals[i].(V)
		if !ok && vals[i] != nil {
			return nil, fmt.Errorf("value for %q has type %T, want %v", k, vals[i], reflect.TypeFor[V]())
		}
		pairs[i] = kv.Of(k, v)
	}
	return MapOf(pairs...)
}
