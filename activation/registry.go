// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

package activation

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/creachadair/jbind/kv"
)

// A Registry is a Provider that consults explicit registrations before
// falling back to another provider. A Registry is safe for concurrent use,
// but registrations should be complete before it is used for decoding, since
// a decoder may remember the answers it received.
type Registry struct {
	next Provider

	mu       sync.RWMutex
	ctors    map[reflect.Type]Constructor
	facts    map[reflect.Type]Factory
	concrete map[reflect.Type]reflect.Type
}

// NewRegistry constructs an empty Registry that defers to next for types it
// does not know. If next == nil, Reflect is used.
func NewRegistry(next Provider) *Registry {
	if next == nil {
		next = Reflect
	}
	return &Registry{
		next:     next,
		ctors:    make(map[reflect.Type]Constructor),
		facts:    make(map[reflect.Type]Factory),
		concrete: make(map[reflect.Type]reflect.Type),
	}
}

// DefaultConstructor implements part of the Provider interface.
func (r *Registry) DefaultConstructor(t reflect.Type) (Constructor, bool) {
	r.mu.RLock()
	c, ok := r.ctors[t]
	r.mu.RUnlock()
	if ok {
		return c, true
	}
	return r.next.DefaultConstructor(t)
}

// ParameterizedConstructor implements part of the Provider interface.
func (r *Registry) ParameterizedConstructor(t reflect.Type) (Factory, bool) {
	r.mu.RLock()
	f, ok := r.facts[t]
	r.mu.RUnlock()
	if ok {
		return f, true
	}
	return r.next.ParameterizedConstructor(t)
}

// ConcreteType implements part of the Provider interface.
func (r *Registry) ConcreteType(t reflect.Type) (reflect.Type, bool) {
	r.mu.RLock()
	c, ok := r.concrete[t]
	r.mu.RUnlock()
	if ok {
		return c, true
	}
	return r.next.ConcreteType(t)
}

func (r *Registry) checkNew(t reflect.Type) {
	_, c := r.ctors[t]
	_, f := r.facts[t]
	_, i := r.concrete[t]
	if c || f || i {
		panic(fmt.Sprintf("activation: duplicate registration for %v", t))
	}
}

// RegisterConstructor registers f as the zero-argument constructor for T,
// replacing the default. A value returned by f serves as the starting point
// for decoding, so fields absent from the input keep the values set by f.
// It panics if T is already registered.
func RegisterConstructor[T any](r *Registry, f func() T) {
	t := reflect.TypeFor[T]()
	ctor := func() reflect.Value { return reflect.ValueOf(f()) }
	if t.Kind() == reflect.Struct {
		// Structs are filled in place, so the constructor must return a pointer.
		ctor = func() reflect.Value {
			p := reflect.New(t)
			p.Elem().Set(reflect.ValueOf(f()))
			return p
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkNew(t)
	r.ctors[t] = ctor
}

// RegisterSequence registers f as the factory for T, built from a finished
// sequence of elements of type E. It panics if T is already registered.
func RegisterSequence[T, E any](r *Registry, f func([]E) (T, error)) {
	t := reflect.TypeFor[T]()
	fact := Factory{
		Shape: Sequence,
		Elem:  reflect.TypeFor[E](),
		Build: func(_ []string, elems []reflect.Value) (reflect.Value, error) {
			es := make([]E, len(elems))
			for i, e := range elems {
				reflect.ValueOf(&es[i]).Elem().Set(e)
			}
			v, err := f(es)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(&v).Elem(), nil
		},
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkNew(t)
	r.facts[t] = fact
}

// RegisterMapping registers f as the factory for T, built from a finished
// sequence of key/value pairs with values of type V. The keys passed to f
// are distinct. It panics if T is already registered.
func RegisterMapping[T, V any](r *Registry, f func([]kv.Pair[V]) (T, error)) {
	t := reflect.TypeFor[T]()
	fact := Factory{
		Shape: Pairs,
		Elem:  reflect.TypeFor[V](),
		Build: func(keys []string, elems []reflect.Value) (reflect.Value, error) {
			ps := make([]kv.Pair[V], len(keys))
			for i, key := range keys {
				ps[i].Key = key
				reflect.ValueOf(&ps[i].Value).Elem().Set(elems[i])
			}
			v, err := f(ps)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(&v).Elem(), nil
		},
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkNew(t)
	r.facts[t] = fact
}

// RegisterConcrete registers C as the concrete type to construct for values
// of the interface type I. It panics if I is not an interface type, if C does
// not implement I, or if I is already registered.
func RegisterConcrete[I, C any](r *Registry) {
	it, ct := reflect.TypeFor[I](), reflect.TypeFor[C]()
	if it.Kind() != reflect.Interface {
		panic(fmt.Sprintf("activation: %v is not an interface type", it))
	} else if !ct.Implements(it) {
		panic(fmt.Sprintf("activation: %v does not implement %v", ct, it))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkNew(it)
	r.concrete[it] = ct
}
