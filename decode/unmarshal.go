// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/creachadair/jbind"
)

// Unmarshal decodes a single JSON value of type T from data. If cfg == nil,
// Default() is used.
func Unmarshal[T any](cfg *Config, data []byte) (T, error) {
	cfg = orDefault(cfg)
	return UnmarshalFrom[T](cfg, cfg.NewReader(bytes.NewReader(data)))
}

// UnmarshalFrom decodes a single value of type T from the items of src,
// which must contain exactly one complete value. If cfg == nil, Default() is
// used.
func UnmarshalFrom[T any](cfg *Config, src jbind.TokenSource) (T, error) {
	var out T
	d, err := NewDecoder(cfg, reflect.TypeFor[T]())
	if err != nil {
		return out, err
	}
	if err := d.decodeAll(src); err != nil {
		return out, err
	}
	reflect.ValueOf(&out).Elem().Set(d.Value())
	return out, nil
}

// Into decodes a single JSON value from data into the value pointed to by v.
// If cfg == nil, Default() is used.
func Into(cfg *Config, data []byte, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("decode into non-pointer or nil %T", v)
	}
	cfg = orDefault(cfg)
	d, err := NewDecoder(cfg, rv.Type().Elem())
	if err != nil {
		return err
	}
	if err := d.decodeAll(cfg.NewReader(bytes.NewReader(data))); err != nil {
		return err
	}
	rv.Elem().Set(d.Value())
	return nil
}

// decodeAll decodes a complete value from src, and verifies that src has no
// further items.
func (d *Decoder) decodeAll(src jbind.TokenSource) error {
	done, err := d.Resume(src)
	if err != nil {
		return err
	} else if !done {
		return d.fail(jbind.Item{}, fmt.Errorf("%w: %w", ErrIncomplete, jbind.ErrNeedMore))
	}
	it, err := src.Next()
	switch {
	case err == io.EOF, errors.Is(err, jbind.ErrNeedMore):
		return nil
	case err != nil:
		return d.fail(it, err)
	default:
		return d.fail(it, ErrTrailingData)
	}
}
