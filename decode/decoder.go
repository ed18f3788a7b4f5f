// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

// Package decode binds a stream of JSON structural items to Go values.
//
// A Decoder consumes one item at a time and keeps all of its progress in an
// explicit stack of frames, one for each container that is open in the input.
// It never recurses and never blocks, so decoding can stop whenever the input
// runs out and resume when more arrives:
//
//	dec, err := decode.NewDecoder(cfg, reflect.TypeFor[Config]())
//	...
//	feed := cfg.NewFeeder()
//	for chunk := range chunks {
//	   feed.Feed(chunk)
//	   if done, err := dec.Resume(feed); err != nil {
//	      return err
//	   } else if done {
//	      break
//	   }
//	}
//	v := dec.Value()
//
// For input that is available all at once, use Unmarshal or Into.
package decode

import (
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/creachadair/jbind"
	"github.com/creachadair/jbind/jpath"
	"github.com/creachadair/jbind/meta"
)

// A Decoder constructs a single value of a fixed type from a sequence of
// items. A Decoder is not safe for concurrent use, but any number of decoders
// may share a Config.
type Decoder struct {
	cfg  *Config
	typ  reflect.Type
	root *meta.ClassMetadata

	stk    []frame
	result reflect.Value
	done   bool
	err    error
}

// NewDecoder constructs a decoder for values of type t. It computes the
// metadata for t and every type reachable from it, and reports an error if
// any of them cannot be decoded. If cfg == nil, Default() is used.
func NewDecoder(cfg *Config, t reflect.Type) (*Decoder, error) {
	cfg = orDefault(cfg)
	if err := cfg.cache.Validate(t); err != nil {
		return nil, &Error{Kind: ConfigErrorKind, Type: t, Err: err}
	}
	root, err := cfg.cache.Get(t)
	if err != nil {
		return nil, &Error{Kind: ConfigErrorKind, Type: t, Err: err}
	}
	return &Decoder{cfg: cfg, typ: t, root: root}, nil
}

// Type returns the type of value constructed by d.
func (d *Decoder) Type() reflect.Type { return d.typ }

// Done reports whether the value is complete.
func (d *Decoder) Done() bool { return d.done }

// Depth reports the number of containers currently open.
func (d *Decoder) Depth() int { return len(d.stk) }

// Err returns the error that stopped d, or nil.
func (d *Decoder) Err() error { return d.err }

// Value returns the completed value. It returns an invalid Value if the value
// is not complete.
func (d *Decoder) Value() reflect.Value {
	if !d.done {
		return reflect.Value{}
	}
	return d.result
}

// Reset discards any partial or completed value and any error, so that d can
// decode a new value of the same type.
func (d *Decoder) Reset() {
	clear(d.stk)
	d.stk = d.stk[:0]
	d.result = reflect.Value{}
	d.done = false
	d.err = nil
}

// Push applies a single item to the value under construction, and reports
// whether the value is complete. Once Push reports an error, the partial
// value is discarded and every later call reports the same error until the
// decoder is Reset.
func (d *Decoder) Push(it jbind.Item) (done bool, err error) {
	if d.err != nil {
		return false, d.err
	} else if d.done {
		return false, d.fail(it, ErrTrailingData)
	}
	if err := d.push(it); err != nil {
		return false, d.fail(it, err)
	}
	return d.done, nil
}

// Resume reads items from src and pushes them until the value is complete,
// src reports jbind.ErrNeedMore, or an error occurs. It reports whether the
// value is complete. If src ends before the value is complete, Resume
// reports an error wrapping io.ErrUnexpectedEOF.
//
// When Resume returns false with no error, call it again when src has more
// input; decoding continues exactly where it stopped.
func (d *Decoder) Resume(src jbind.TokenSource) (bool, error) {
	for !d.done {
		if d.err != nil {
			return false, d.err
		}
		it, err := src.Next()
		if errors.Is(err, jbind.ErrNeedMore) {
			return false, nil
		} else if err == io.EOF {
			return false, d.fail(jbind.Item{}, io.ErrUnexpectedEOF)
		} else if err != nil {
			return false, d.fail(jbind.Item{}, err)
		}
		if _, err := d.Push(it); err != nil {
			return false, err
		}
	}
	return true, nil
}

// fail records err as the terminal error for d, and discards the stack.
func (d *Decoder) fail(it jbind.Item, err error) error {
	var de *Error
	if !errors.As(err, &de) {
		de = &Error{Kind: kindOf(err), Path: d.path(), Loc: it.Loc, Type: d.typ, Err: err}
		var se *jbind.SyntaxError
		if errors.As(err, &se) {
			de.Loc = jbind.Location{First: se.Location, Last: se.Location}
		}
	}
	clear(d.stk)
	d.stk = d.stk[:0]
	d.result = reflect.Value{}
	d.done = false
	d.err = de
	return de
}

// path returns the path of the value currently being decoded.
func (d *Decoder) path() jpath.Path {
	var p jpath.Path
	for _, f := range d.stk {
		if f.keyed {
			p = p.Member(f.key)
		} else if !f.obj && f.kind != skipFrame {
			p = p.Index(f.n)
		}
	}
	return p
}

func (d *Decoder) push(it jbind.Item) error {
	switch it.Kind {
	case jbind.StartObject:
		return d.startContainer(it, true)
	case jbind.StartArray:
		return d.startContainer(it, false)
	case jbind.PropertyName:
		return d.propertyName(it)
	case jbind.Scalar:
		return d.scalar(it)
	case jbind.EndObject, jbind.EndArray:
		return d.end(it)
	}
	return fmt.Errorf("%w: %v", ErrUnexpectedItem, it.Kind)
}

func (d *Decoder) top() *frame { return &d.stk[len(d.stk)-1] }
