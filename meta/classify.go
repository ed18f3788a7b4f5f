// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

package meta

import (
	"fmt"
	"reflect"

	"github.com/creachadair/jbind/activation"
	"github.com/creachadair/jbind/convert"
)

// Classify reports the category of t. Classification depends only on t and
// the answers of p and conv, in the following order:
//
//   - A type with a converter is a Value.
//   - The empty interface is Unknown.
//   - A type with a factory is constructible, according to the factory shape.
//   - A pointer has the category of the type it points to.
//   - A struct is an Object, a slice is Enumerable, and a map with a string
//     key is a Dictionary.
//   - An interface has the category of its concrete type.
//
// Classify reports a *ConfigError for types that cannot be decoded.
func Classify(t reflect.Type, p activation.Provider, conv *convert.Registry) (Category, error) {
	for {
		cat, _, next, err := resolve(t, p, conv)
		if err != nil {
			return Invalid, configError(t, err)
		} else if next == nil {
			return cat, nil
		}
		t = next
	}
}

// resolve classifies t without following pointers or interface mappings. If
// the category of t is that of another type, resolve returns that type.
// Each answer of p and conv is requested at most once.
func resolve(t reflect.Type, p activation.Provider, conv *convert.Registry) (Category, *activation.Factory, reflect.Type, error) {
	if _, ok := conv.Lookup(t); ok {
		return Value, nil, nil, nil
	}
	switch t.Kind() {
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return Unknown, nil, nil, nil
		}
	case reflect.Array:
		if t.Elem().Kind() != reflect.Array {
			break
		} else if _, ok := conv.Lookup(t.Elem()); !ok {
			return Invalid, nil, nil, ErrArrayRank
		}
	}

	if f, ok := p.ParameterizedConstructor(t); ok {
		if f.Shape == activation.Pairs {
			return DictionaryConstructible, &f, nil, nil
		}
		return EnumerableConstructible, &f, nil, nil
	}

	switch t.Kind() {
	case reflect.Pointer:
		switch e := t.Elem(); e.Kind() {
		case reflect.Pointer, reflect.Interface:
			return Invalid, nil, nil, fmt.Errorf("%w: pointer to %v", ErrUnsupportedType, e.Kind())
		default:
			return Invalid, nil, e, nil
		}
	case reflect.Interface:
		ct, ok := p.ConcreteType(t)
		if !ok {
			return Invalid, nil, nil, ErrNoConcreteType
		} else if ct.Kind() == reflect.Interface {
			return Invalid, nil, nil, fmt.Errorf("%w: concrete type %v is an interface", ErrUnsupportedType, ct)
		}
		return Invalid, nil, ct, nil
	case reflect.Struct:
		return Object, nil, nil, nil
	case reflect.Slice:
		return Enumerable, nil, nil, nil
	case reflect.Array:
		// An array without a factory is still constructible; the missing
		// factory is reported when its metadata is built.
		return EnumerableConstructible, nil, nil, nil
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return Invalid, nil, nil, fmt.Errorf("%w: map key %v", ErrUnsupportedType, t.Key())
		}
		return Dictionary, nil, nil, nil
	}
	return Invalid, nil, nil, fmt.Errorf("%w: %v", ErrUnsupportedType, t.Kind())
}
