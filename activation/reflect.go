// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

package activation

import (
	"fmt"
	"reflect"

	"github.com/creachadair/jbind/kv"
)

// Reflect is a Provider that constructs values using reflection.
//
// It provides zero-argument constructors for structs, slices, and maps, and
// factories for fixed-size arrays, kv.Pair types, and types implementing
// SequenceType or MappingType. It does not map any interface types.
var Reflect Provider = reflectProvider{}

type reflectProvider struct{}

var (
	sequenceType = reflect.TypeFor[SequenceType]()
	mappingType  = reflect.TypeFor[MappingType]()
	stringType   = reflect.TypeFor[string]()
)

func (reflectProvider) DefaultConstructor(t reflect.Type) (Constructor, bool) {
	switch t.Kind() {
	case reflect.Struct:
		return func() reflect.Value { return reflect.New(t) }, true
	case reflect.Slice:
		return func() reflect.Value { return reflect.MakeSlice(t, 0, 0) }, true
	case reflect.Map:
		return func() reflect.Value { return reflect.MakeMap(t) }, true
	}
	return nil, false
}

func (reflectProvider) ParameterizedConstructor(t reflect.Type) (Factory, bool) {
	switch {
	case t.Kind() == reflect.Interface, t.Kind() == reflect.Pointer:
		return Factory{}, false
	case t.Implements(sequenceType):
		return sequenceFactory(t), true
	case t.Implements(mappingType):
		return mappingFactory(t), true
	case kv.IsPair(t):
		return pairFactory(t), true
	case t.Kind() == reflect.Array:
		return arrayFactory(t), true
	}
	return Factory{}, false
}

func (reflectProvider) ConcreteType(reflect.Type) (reflect.Type, bool) { return nil, false }

func sequenceFactory(t reflect.Type) Factory {
	seq := reflect.Zero(t).Interface().(SequenceType)
	return Factory{
		Shape: Sequence,
		Elem:  seq.SequenceElem(),
		Build: func(_ []string, elems []reflect.Value) (reflect.Value, error) {
			v, err := seq.FromSequence(interfaces(elems))
			if err != nil {
				return reflect.Value{}, err
			}
			return checkBuilt(t, v)
		},
	}
}

func mappingFactory(t reflect.Type) Factory {
	m := reflect.Zero(t).Interface().(MappingType)
	return Factory{
		Shape: Pairs,
		Elem:  m.MappingElem(),
		Build: func(keys []string, elems []reflect.Value) (reflect.Value, error) {
			v, err := m.FromMapping(keys, interfaces(elems))
			if err != nil {
				return reflect.Value{}, err
			}
			return checkBuilt(t, v)
		},
	}
}

// pairFactory builds a kv.Pair from exactly one entry. In the two-member form
// of a pair the "Key" member holds a string, so its entry type is string.
func pairFactory(t reflect.Type) Factory {
	return Factory{
		Shape: Pairs,
		Elem:  t.Field(1).Type,
		EntryType: func(key string) reflect.Type {
			if key == kv.KeyName {
				return stringType
			}
			return nil
		},
		Build: func(keys []string, elems []reflect.Value) (reflect.Value, error) {
			if len(keys) != 1 {
				return reflect.Value{}, fmt.Errorf("pair requires one entry, got %d", len(keys))
			}
			v := reflect.New(t).Elem()
			v.Field(0).SetString(keys[0])
			v.Field(1).Set(elems[0])
			return v, nil
		},
	}
}

func arrayFactory(t reflect.Type) Factory {
	return Factory{
		Shape: Sequence,
		Elem:  t.Elem(),
		Build: func(_ []string, elems []reflect.Value) (reflect.Value, error) {
			if len(elems) > t.Len() {
				return reflect.Value{}, fmt.Errorf("%w: %v holds %d, got %d", ErrTooManyElements, t, t.Len(), len(elems))
			}
			v := reflect.New(t).Elem()
			for i, e := range elems {
				v.Index(i).Set(e)
			}
			return v, nil
		},
	}
}

func interfaces(vs []reflect.Value) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v.Interface()
	}
	return out
}

// checkBuilt verifies that a built value has the expected type.
func checkBuilt(t reflect.Type, v any) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Type() != t {
		return reflect.Value{}, fmt.Errorf("factory for %v returned %T", t, v)
	}
	return rv, nil
}
