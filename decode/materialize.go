// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

package decode

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/creachadair/jbind/kv"
)

// materialize builds the value of a completed buffer frame using the factory
// for its type. It is called exactly once per buffer frame.
func materialize(f *frame) (reflect.Value, error) {
	keys, elems := f.keys, f.elems
	t := f.md.Type
	if f.md.Indirect {
		t = t.Elem()
	}
	if kv.IsPair(t) {
		var err error
		keys, elems, err = pairEntry(keys, elems)
		if err != nil {
			return reflect.Value{}, err
		}
	}
	v, err := f.md.Factory.Build(keys, elems)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("build %v: %w", t, err)
	}
	return v, nil
}

// pairEntry normalizes the entries of an object decoded as a kv.Pair to a
// single entry. It accepts either exactly one entry, which is the pair, or
// exactly the two entries "Key" and "Value" in either order.
func pairEntry(keys []string, elems []reflect.Value) ([]string, []reflect.Value, error) {
	switch len(keys) {
	case 1:
		if keys[0] == kv.KeyName {
			return nil, nil, fmt.Errorf("%w: %q without %q", ErrPairShape, kv.KeyName, kv.ValueName)
		}
		return keys, elems, nil
	case 2:
		ki := slices.Index(keys, kv.KeyName)
		vi := slices.Index(keys, kv.ValueName)
		if ki >= 0 && vi >= 0 {
			return []string{elems[ki].String()}, elems[vi : vi+1], nil
		}
	}
	return nil, nil, fmt.Errorf("%w: object has %d members %q", ErrPairShape, len(keys), keys)
}
