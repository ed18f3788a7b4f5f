// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

package activation_test

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/creachadair/jbind/activation"
	"github.com/creachadair/jbind/kv"
	"github.com/creachadair/jbind/readonly"
	"github.com/creachadair/mds/mtest"
	"github.com/google/go-cmp/cmp"
)

type point struct{ X, Y int }

func values[T any](vs ...T) []reflect.Value {
	out := make([]reflect.Value, len(vs))
	for i, v := range vs {
		out[i] = reflect.ValueOf(v)
	}
	return out
}

func TestReflectDefault(t *testing.T) {
	tests := []struct {
		typ  reflect.Type
		want any
	}{
		{reflect.TypeFor[point](), &point{}},
		{reflect.TypeFor[[]int](), []int{}},
		{reflect.TypeFor[map[string]bool](), map[string]bool{}},
	}
	for _, tc := range tests {
		c, ok := activation.Reflect.DefaultConstructor(tc.typ)
		if !ok {
			t.Errorf("DefaultConstructor(%v): not found", tc.typ)
			continue
		}
		if diff := cmp.Diff(tc.want, c().Interface()); diff != "" {
			t.Errorf("Construct %v (-want, +got):\n%s", tc.typ, diff)
		}
	}

	for _, typ := range []reflect.Type{
		reflect.TypeFor[int](),
		reflect.TypeFor[[3]int](),
		reflect.TypeFor[io.Reader](),
		reflect.TypeFor[*point](),
	} {
		if _, ok := activation.Reflect.DefaultConstructor(typ); ok {
			t.Errorf("DefaultConstructor(%v): unexpectedly found", typ)
		}
	}
}

func TestReflectFactory(t *testing.T) {
	t.Run("Array", func(t *testing.T) {
		f, ok := activation.Reflect.ParameterizedConstructor(reflect.TypeFor[[3]string]())
		if !ok {
			t.Fatal("Array factory not found")
		}
		if f.Shape != activation.Sequence {
			t.Errorf("Shape: got %v, want %v", f.Shape, activation.Sequence)
		}
		v, err := f.Build(nil, values("a", "b"))
		if err != nil {
			t.Fatalf("Build: unexpected error: %v", err)
		}
		if diff := cmp.Diff([3]string{"a", "b", ""}, v.Interface()); diff != "" {
			t.Errorf("Build (-want, +got):\n%s", diff)
		}

		_, err = f.Build(nil, values("a", "b", "c", "d"))
		if !errors.Is(err, activation.ErrTooManyElements) {
			t.Errorf("Build overflow: got %v, want %v", err, activation.ErrTooManyElements)
		}
	})

	t.Run("Pair", func(t *testing.T) {
		f, ok := activation.Reflect.ParameterizedConstructor(reflect.TypeFor[kv.Pair[float64]]())
		if !ok {
			t.Fatal("Pair factory not found")
		}
		if f.Shape != activation.Pairs {
			t.Errorf("Shape: got %v, want %v", f.Shape, activation.Pairs)
		}
		if got, want := f.TypeOf(kv.KeyName), reflect.TypeFor[string](); got != want {
			t.Errorf("TypeOf(%q): got %v, want %v", kv.KeyName, got, want)
		}
		if got, want := f.TypeOf("other"), reflect.TypeFor[float64](); got != want {
			t.Errorf("TypeOf(other): got %v, want %v", got, want)
		}
		v, err := f.Build([]string{"pi"}, values(3.25))
		if err != nil {
			t.Fatalf("Build: unexpected error: %v", err)
		}
		if diff := cmp.Diff(kv.Of("pi", 3.25), v.Interface()); diff != "" {
			t.Errorf("Build (-want, +got):\n%s", diff)
		}
		if v, err := f.Build([]string{"a", "b"}, values(1.0, 2.0)); err == nil {
			t.Errorf("Build two entries: got %v, want error", v)
		}
	})

	t.Run("List", func(t *testing.T) {
		f, ok := activation.Reflect.ParameterizedConstructor(reflect.TypeFor[readonly.List[int]]())
		if !ok {
			t.Fatal("List factory not found")
		}
		if got, want := f.Elem, reflect.TypeFor[int](); got != want {
			t.Errorf("Elem: got %v, want %v", got, want)
		}
		v, err := f.Build(nil, values(1, 2, 3))
		if err != nil {
			t.Fatalf("Build: unexpected error: %v", err)
		}
		if diff := cmp.Diff([]int{1, 2, 3}, v.Interface().(readonly.List[int]).Slice()); diff != "" {
			t.Errorf("Build (-want, +got):\n%s", diff)
		}
	})

	t.Run("Map", func(t *testing.T) {
		f, ok := activation.Reflect.ParameterizedConstructor(reflect.TypeFor[readonly.Map[bool]]())
		if !ok {
			t.Fatal("Map factory not found")
		}
		if f.Shape != activation.Pairs {
			t.Errorf("Shape: got %v, want %v", f.Shape, activation.Pairs)
		}
		v, err := f.Build([]string{"b", "a"}, values(true, false))
		if err != nil {
			t.Fatalf("Build: unexpected error: %v", err)
		}
		m := v.Interface().(readonly.Map[bool])
		if diff := cmp.Diff([]string{"b", "a"}, m.Keys()); diff != "" {
			t.Errorf("Keys (-want, +got):\n%s", diff)
		}
	})

	for _, typ := range []reflect.Type{
		reflect.TypeFor[point](),
		reflect.TypeFor[[]int](),
		reflect.TypeFor[fmt.Stringer](),
	} {
		if _, ok := activation.Reflect.ParameterizedConstructor(typ); ok {
			t.Errorf("ParameterizedConstructor(%v): unexpectedly found", typ)
		}
	}
}

type shape interface{ Area() float64 }

type square struct{ Side float64 }

func (s *square) Area() float64 { return s.Side * s.Side }

type words string

func TestRegistry(t *testing.T) {
	r := activation.NewRegistry(nil)

	activation.RegisterConstructor(r, func() point { return point{X: 1, Y: 2} })
	activation.RegisterConstructor(r, func() []string { return []string{"init"} })
	activation.RegisterSequence(r, func(ws []string) (words, error) {
		if len(ws) == 0 {
			return "", errors.New("no words")
		}
		return words(strings.Join(ws, " ")), nil
	})
	activation.RegisterMapping(r, func(ps []kv.Pair[int]) (map[int]string, error) {
		out := make(map[int]string)
		for _, p := range ps {
			out[p.Value] = p.Key
		}
		return out, nil
	})
	activation.RegisterConcrete[shape, *square](r)

	t.Run("Constructor", func(t *testing.T) {
		c, ok := r.DefaultConstructor(reflect.TypeFor[point]())
		if !ok {
			t.Fatal("point constructor not found")
		}
		if diff := cmp.Diff(&point{X: 1, Y: 2}, c().Interface()); diff != "" {
			t.Errorf("Construct point (-want, +got):\n%s", diff)
		}
		c, ok = r.DefaultConstructor(reflect.TypeFor[[]string]())
		if !ok {
			t.Fatal("slice constructor not found")
		}
		if diff := cmp.Diff([]string{"init"}, c().Interface()); diff != "" {
			t.Errorf("Construct slice (-want, +got):\n%s", diff)
		}

		// Types not registered fall back to reflection.
		c, ok = r.DefaultConstructor(reflect.TypeFor[map[string]int]())
		if !ok {
			t.Fatal("map constructor not found")
		}
		if diff := cmp.Diff(map[string]int{}, c().Interface()); diff != "" {
			t.Errorf("Construct map (-want, +got):\n%s", diff)
		}
	})

	t.Run("Sequence", func(t *testing.T) {
		f, ok := r.ParameterizedConstructor(reflect.TypeFor[words]())
		if !ok {
			t.Fatal("words factory not found")
		}
		v, err := f.Build(nil, values("all", "your", "base"))
		if err != nil {
			t.Fatalf("Build: unexpected error: %v", err)
		}
		if got, want := v.Interface(), words("all your base"); got != want {
			t.Errorf("Build: got %q, want %q", got, want)
		}
		if v, err := f.Build(nil, nil); err == nil {
			t.Errorf("Build empty: got %v, want error", v)
		}
	})

	t.Run("Mapping", func(t *testing.T) {
		f, ok := r.ParameterizedConstructor(reflect.TypeFor[map[int]string]())
		if !ok {
			t.Fatal("mapping factory not found")
		}
		if f.Shape != activation.Pairs {
			t.Errorf("Shape: got %v, want %v", f.Shape, activation.Pairs)
		}
		v, err := f.Build([]string{"one", "two"}, values(1, 2))
		if err != nil {
			t.Fatalf("Build: unexpected error: %v", err)
		}
		if diff := cmp.Diff(map[int]string{1: "one", 2: "two"}, v.Interface()); diff != "" {
			t.Errorf("Build (-want, +got):\n%s", diff)
		}
	})

	t.Run("NilElements", func(t *testing.T) {
		r := activation.NewRegistry(nil)
		activation.RegisterSequence(r, func(es []any) ([]any, error) { return es, nil })
		activation.RegisterMapping(r, func(ps []kv.Pair[any]) ([]kv.Pair[any], error) { return ps, nil })
		null := reflect.Zero(reflect.TypeFor[any]())

		f, ok := r.ParameterizedConstructor(reflect.TypeFor[[]any]())
		if !ok {
			t.Fatal("sequence factory not found")
		}
		v, err := f.Build(nil, []reflect.Value{reflect.ValueOf(1.0), null})
		if err != nil {
			t.Fatalf("Build sequence: unexpected error: %v", err)
		}
		if diff := cmp.Diff([]any{1.0, nil}, v.Interface()); diff != "" {
			t.Errorf("Build sequence (-want, +got):\n%s", diff)
		}

		f, ok = r.ParameterizedConstructor(reflect.TypeFor[[]kv.Pair[any]]())
		if !ok {
			t.Fatal("mapping factory not found")
		}
		v, err = f.Build([]string{"a"}, []reflect.Value{null})
		if err != nil {
			t.Fatalf("Build mapping: unexpected error: %v", err)
		}
		if diff := cmp.Diff([]kv.Pair[any]{{Key: "a"}}, v.Interface()); diff != "" {
			t.Errorf("Build mapping (-want, +got):\n%s", diff)
		}
	})

	t.Run("Concrete", func(t *testing.T) {
		c, ok := r.ConcreteType(reflect.TypeFor[shape]())
		if !ok {
			t.Fatal("concrete type not found")
		}
		if got, want := c, reflect.TypeFor[*square](); got != want {
			t.Errorf("ConcreteType: got %v, want %v", got, want)
		}
		if c, ok := r.ConcreteType(reflect.TypeFor[fmt.Stringer]()); ok {
			t.Errorf("ConcreteType(Stringer): got %v, want none", c)
		}
	})

	t.Run("Duplicate", func(t *testing.T) {
		mtest.MustPanic(t, func() {
			activation.RegisterConstructor(r, func() point { return point{} })
		})
		mtest.MustPanic(t, func() {
			activation.RegisterSequence(r, func([]int) (point, error) { return point{}, nil })
		})
		mtest.MustPanic(t, func() { activation.RegisterConcrete[shape, *square](r) })
	})

	t.Run("BadConcrete", func(t *testing.T) {
		mtest.MustPanic(t, func() { activation.RegisterConcrete[point, point](r) })
		mtest.MustPanic(t, func() { activation.RegisterConcrete[fmt.Stringer, point](r) })
	})
}
