// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

// Package kv defines a key/value pair type with a string key.
//
// A Pair decodes from either of two JSON shapes: a single-member object whose
// key and value become the pair,
//
//	{"name": 25}
//
// or an object with exactly the two members "Key" and "Value":
//
//	{"Key": "name", "Value": 25}
//
// The member name "Key" is reserved for the two-member form: its value must be
// a string, and an object whose only member is "Key" is not a pair. No such
// reservation applies to "Value", so {"Value": 25} is the single-member pair
// with key "Value".
package kv

import (
	"fmt"
	"reflect"
)

// A Pair is a key/value pair.
type Pair[V any] struct {
	Key   string
	Value V
}

// Of constructs a pair with the given key and value.
func Of[V any](key string, value V) Pair[V] { return Pair[V]{Key: key, Value: value} }

func (p Pair[V]) String() string { return fmt.Sprintf("%s=%v", p.Key, p.Value) }

func (Pair[V]) kvPair() {}

var pairType = reflect.TypeFor[interface{ kvPair() }]()

// IsPair reports whether t is an instantiation of Pair.
func IsPair(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && t.Implements(pairType)
}

// Names of the members of the two-member form of a pair.
const (
	KeyName   = "Key"
	ValueName = "Value"
)
