// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

package meta

import (
	"reflect"
	"sync"

	"github.com/creachadair/jbind/activation"
	"github.com/creachadair/jbind/convert"
	"github.com/creachadair/jbind/kv"
	"github.com/creachadair/mds/mapset"
)

// A Cache computes and retains the metadata for types. The metadata for each
// type is computed at most once during the lifetime of the cache, and the
// provider and converters are consulted at most once per type. A Cache is
// safe for concurrent use.
type Cache struct {
	provider      activation.Provider
	conv          *convert.Registry
	naming        NamingPolicy
	caseSensitive bool

	mu      sync.Mutex
	entries map[reflect.Type]*entry
}

type entry struct {
	once sync.Once
	md   *ClassMetadata
	err  error
}

// A CacheOption configures the metadata computed by a Cache.
type CacheOption func(*Cache)

// WithNaming sets the naming policy for fields without a tag name.
func WithNaming(p NamingPolicy) CacheOption { return func(c *Cache) { c.naming = p } }

// CaseSensitive disables case-insensitive matching of property names.
func CaseSensitive(ok bool) CacheOption { return func(c *Cache) { c.caseSensitive = ok } }

// NewCache constructs an empty cache using the given provider and converters.
// If p == nil, activation.Reflect is used; if conv == nil, a new registry of
// the built-in converters is used.
func NewCache(p activation.Provider, conv *convert.Registry, opts ...CacheOption) *Cache {
	if p == nil {
		p = activation.Reflect
	}
	if conv == nil {
		conv = convert.NewRegistry()
	}
	c := &Cache{provider: p, conv: conv, entries: make(map[reflect.Type]*entry)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the metadata for t, computing it if necessary. If the metadata
// cannot be computed, Get reports a *ConfigError, and reports the same error
// for every later request for t.
//
// For an interface type with a concrete type, the metadata describes the
// concrete type, and its Interface field is the interface.
func (c *Cache) Get(t reflect.Type) (*ClassMetadata, error) {
	c.mu.Lock()
	e, ok := c.entries[t]
	if !ok {
		e = new(entry)
		c.entries[t] = e
	}
	c.mu.Unlock()

	e.once.Do(func() { e.md, e.err = c.compute(t) })
	return e.md, e.err
}

// Len reports the number of types whose metadata has been requested.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Validate computes the metadata for t and every type reachable from it
// through properties, elements, and entries, and reports the first error.
func (c *Cache) Validate(t reflect.Type) error {
	seen := mapset.New[reflect.Type]()
	work := []reflect.Type{t}
	for len(work) != 0 {
		next := work[len(work)-1]
		work = work[:len(work)-1]
		if seen.Has(next) {
			continue
		}
		seen.Add(next)

		md, err := c.Get(next)
		if err != nil {
			return err
		}
		if md.elem != nil {
			work = append(work, md.elem)
		}
		if md.Factory != nil && md.Factory.Shape == activation.Pairs {
			work = append(work, md.Factory.TypeOf(kv.KeyName))
		}
		if md.Props != nil {
			for p := range md.Props.All() {
				work = append(work, p.Type)
			}
		}
		if md.Extension != nil {
			work = append(work, md.Extension.Type)
		}
	}
	return nil
}

func (c *Cache) compute(t reflect.Type) (*ClassMetadata, error) {
	cat, fact, next, err := resolve(t, c.provider, c.conv)
	if err != nil {
		return nil, configError(t, err)
	}
	if next != nil {
		base, err := c.Get(next)
		if err != nil {
			return nil, configError(t, err)
		}
		cp := *base
		if t.Kind() == reflect.Interface {
			cp.Interface = t
		} else {
			cp.Type = t
			cp.Indirect = true
		}
		return &cp, nil
	}

	md := &ClassMetadata{Type: t, Category: cat, cache: c}
	switch cat {
	case Value:
		md.Converter, _ = c.conv.Lookup(t)
		return md, nil
	case Unknown:
		return md, nil
	case EnumerableConstructible, DictionaryConstructible:
		if fact == nil {
			return nil, configError(t, ErrNoConstructor)
		}
		md.Factory = fact
		md.elem = fact.Elem
		return md, nil
	}

	ctor, ok := c.provider.DefaultConstructor(t)
	if !ok {
		return nil, configError(t, ErrNoConstructor)
	}
	md.New = ctor
	switch cat {
	case Object:
		props, ext, err := structProps(t, c.naming)
		if err != nil {
			return nil, configError(t, err)
		}
		md.Props = newPropertyTable(props, c.caseSensitive)
		md.Extension = ext
	case Enumerable:
		md.elem = t.Elem()
	case Dictionary:
		md.Key = t.Key()
		md.elem = t.Elem()
	}
	return md, nil
}
