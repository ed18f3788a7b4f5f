// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

package decode

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/creachadair/jbind"
	"github.com/creachadair/jbind/meta"
	"github.com/creachadair/mds/mapset"
	"github.com/goccy/go-json"
)

type frameKind byte

const (
	skipFrame   frameKind = iota // drain a value that has no destination
	objectFrame                  // fill a struct in place
	sliceFrame                   // append to a slice
	mapFrame                     // add entries to a map
	bufferFrame                  // buffer elements for a factory
)

// A frame records the state of one open container.
type frame struct {
	kind frameKind
	obj  bool // the container is an object, closed by EndObject
	md   *meta.ClassMetadata
	val  reflect.Value // the container, nil for buffer and skip frames

	// Buffered entries for a factory. For a sequence, keys is empty.
	keys  []string
	elems []reflect.Value

	key      string // the current key, if keyed
	keyed    bool   // a key has been read and its value is pending
	prop     *meta.PropertyMetadata
	toExt    bool // the pending value belongs in extension data
	skipNext bool // the pending value is discarded

	seen mapset.Set[string] // keys already read
	n    int                // elements completed
}

// clearKey marks the end of the pending value of a key.
func (f *frame) clearKey() {
	f.key, f.keyed, f.prop, f.toExt, f.skipNext = "", false, nil, false, false
}

var (
	genericObjectType = reflect.TypeFor[map[string]any]()
	genericArrayType  = reflect.TypeFor[[]any]()
)

// target returns the metadata for the next value, or skip == true if the
// next value has no destination.
func (d *Decoder) target() (md *meta.ClassMetadata, skip bool, _ error) {
	if len(d.stk) == 0 {
		return d.root, false, nil
	}
	f := d.top()
	if f.kind == skipFrame {
		return nil, true, nil
	}
	if f.obj && !f.keyed {
		return nil, false, fmt.Errorf("%w: value without a property name", ErrUnexpectedItem)
	}
	switch f.kind {
	case objectFrame:
		if f.skipNext {
			return nil, true, nil
		} else if f.toExt {
			ext, err := f.md.Prop(f.md.Extension)
			if err != nil {
				return nil, false, err
			}
			md, err = ext.Elem()
			return md, false, err
		}
		md, err := f.md.Prop(f.prop)
		return md, false, err
	case bufferFrame:
		md, err := f.md.Entry(f.key)
		return md, false, err
	default:
		md, err := f.md.Elem()
		return md, false, err
	}
}

// ignoreNull reports whether a null value for the pending key of the top
// frame should be skipped.
func (d *Decoder) ignoreNull() bool {
	if len(d.stk) == 0 {
		return false
	}
	f := d.top()
	return f.kind == objectFrame && f.prop != nil && (f.prop.IgnoreNull || d.cfg.opts.IgnoreNullValues)
}

// apply stores a completed value v in the top frame, or records it as the
// result if the stack is empty. If v is invalid, the value was skipped.
func (d *Decoder) apply(v reflect.Value) error {
	if len(d.stk) == 0 {
		d.result = v
		d.done = true
		return nil
	}
	f := d.top()
	switch f.kind {
	case skipFrame:
		return nil

	case objectFrame:
		defer f.clearKey()
		if !v.IsValid() {
			return nil
		} else if f.toExt {
			m := fieldAlloc(f.val.Elem(), f.md.Extension.Index)
			if m.IsNil() {
				m.Set(reflect.MakeMap(m.Type()))
			}
			m.SetMapIndex(reflect.ValueOf(f.key).Convert(m.Type().Key()), v)
		} else if !f.prop.ReadOnly {
			fieldAlloc(f.val.Elem(), f.prop.Index).Set(v)
		}

	case sliceFrame:
		f.val = reflect.Append(f.val, v)
		f.n++

	case mapFrame:
		defer f.clearKey()
		f.val.SetMapIndex(reflect.ValueOf(f.key).Convert(f.md.Key), v)

	case bufferFrame:
		if f.obj {
			f.keys = append(f.keys, f.key)
			defer f.clearKey()
		}
		f.elems = append(f.elems, v)
		f.n++
	}
	return nil
}

// fieldAlloc returns the field of the struct v with the given index,
// allocating embedded struct pointers along the way.
func fieldAlloc(v reflect.Value, index []int) reflect.Value {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v
}

func (d *Decoder) pushFrame(f frame) error {
	if len(d.stk) >= d.cfg.opts.maxDepth() {
		return fmt.Errorf("%w: limit is %d", ErrMaxDepth, d.cfg.opts.maxDepth())
	}
	d.stk = append(d.stk, f)
	return nil
}

// startContainer handles StartObject (obj == true) and StartArray.
func (d *Decoder) startContainer(it jbind.Item, obj bool) error {
	md, skip, err := d.target()
	if err != nil {
		return err
	} else if skip {
		return d.pushFrame(frame{kind: skipFrame, obj: obj})
	}

	if md.Category == meta.Unknown {
		gt := genericArrayType
		if obj {
			gt = genericObjectType
		}
		md, err = d.cfg.cache.Get(gt)
		if err != nil {
			return err
		}
	}

	f := frame{obj: obj, md: md}
	switch {
	case obj && md.Category == meta.Object:
		f.kind, f.val = objectFrame, md.New()
	case obj && md.Category == meta.Dictionary:
		f.kind, f.val = mapFrame, md.New()
	case obj && md.Category == meta.DictionaryConstructible:
		f.kind = bufferFrame
	case !obj && md.Category == meta.Enumerable:
		f.kind, f.val = sliceFrame, md.New()
	case !obj && md.Category == meta.EnumerableConstructible:
		f.kind = bufferFrame
	default:
		return mismatch(it, md)
	}
	if obj {
		f.seen = mapset.New[string]()
	}
	return d.pushFrame(f)
}

func (d *Decoder) propertyName(it jbind.Item) error {
	if len(d.stk) == 0 {
		return fmt.Errorf("%w: property name outside an object", ErrUnexpectedItem)
	}
	f := d.top()
	if f.kind == skipFrame {
		return nil
	} else if !f.obj || f.keyed {
		return fmt.Errorf("%w: unexpected property name", ErrUnexpectedItem)
	}
	name, err := it.Name()
	if err != nil {
		return fmt.Errorf("%w: invalid property name: %w", ErrTypeMismatch, err)
	}
	f.key, f.keyed = name, true

	seenKey := name
	if f.kind == objectFrame {
		prop, err := f.md.Props.Lookup(name)
		if err != nil {
			return &meta.ConfigError{Type: f.md.Type, Err: err}
		}
		switch {
		case prop != nil:
			f.prop = prop
			seenKey = prop.Name
		case f.md.Extension != nil:
			f.toExt = true
		case d.cfg.opts.RejectUnknown:
			return fmt.Errorf("%w %q for %v", ErrUnknownProperty, name, f.md.Type)
		default:
			f.skipNext = true
		}
	}
	if f.seen.Has(seenKey) {
		return fmt.Errorf("%w %q", ErrDuplicateKey, name)
	}
	f.seen.Add(seenKey)
	return nil
}

func (d *Decoder) scalar(it jbind.Item) error {
	md, skip, err := d.target()
	if err != nil {
		return err
	} else if skip {
		return d.apply(reflect.Value{})
	}

	if it.Token == jbind.Null && (md.Category != meta.Value || md.Interface != nil) {
		if d.ignoreNull() {
			return d.apply(reflect.Value{})
		} else if !md.Nillable() {
			return fmt.Errorf("%w for %v", ErrNullValue, md.Type)
		}
		return d.apply(md.Zero())
	}

	switch md.Category {
	case meta.Value:
		if it.Token == jbind.Null && d.ignoreNull() {
			return d.apply(reflect.Value{})
		}
		v, err := md.Converter.Convert(it.Token, it.Text)
		if err != nil {
			return err
		}
		return d.apply(v)
	case meta.Unknown:
		v, err := d.box(it)
		if err != nil {
			return err
		}
		return d.apply(v)
	}
	return mismatch(it, md)
}

// box converts a scalar of unknown type to a generic value.
func (d *Decoder) box(it jbind.Item) (reflect.Value, error) {
	var v any
	switch it.Token {
	case jbind.String:
		s, err := it.Name()
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%w: %w", ErrTypeMismatch, err)
		}
		v = s
	case jbind.Integer, jbind.Number:
		if d.cfg.opts.UseNumber {
			v = json.Number(it.Text)
			break
		}
		f, err := strconv.ParseFloat(string(it.Text), 64)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%w: %w", ErrTypeMismatch, err)
		}
		v = f
	case jbind.True, jbind.False:
		v = it.Token == jbind.True
	default:
		return reflect.Value{}, fmt.Errorf("%w: %v", ErrUnexpectedItem, it.Token)
	}
	return reflect.ValueOf(v), nil
}

func (d *Decoder) end(it jbind.Item) error {
	if len(d.stk) == 0 {
		return fmt.Errorf("%w: %v outside a container", ErrUnexpectedItem, it.Kind)
	}
	f := d.top()
	if f.obj != (it.Kind == jbind.EndObject) {
		return fmt.Errorf("%w: mismatched %v", ErrUnexpectedItem, it.Kind)
	} else if f.keyed {
		return fmt.Errorf("%w: missing value for %q", ErrUnexpectedItem, f.key)
	}
	done := *f
	d.stk[len(d.stk)-1] = frame{}
	d.stk = d.stk[:len(d.stk)-1]

	if done.kind == skipFrame {
		return d.apply(reflect.Value{})
	}
	v, err := finish(&done)
	if err != nil {
		return err
	}
	return d.apply(v)
}

// finish returns the completed value of a frame.
func finish(f *frame) (reflect.Value, error) {
	var v reflect.Value
	switch f.kind {
	case objectFrame:
		// The container is always a pointer to the struct.
		if f.md.Indirect {
			return f.val, nil
		}
		return f.val.Elem(), nil
	case bufferFrame:
		var err error
		v, err = materialize(f)
		if err != nil {
			return reflect.Value{}, err
		}
	default:
		v = f.val
	}
	if f.md.Indirect {
		p := reflect.New(v.Type())
		p.Elem().Set(v)
		return p, nil
	}
	return v, nil
}

// mismatch reports an item whose shape does not fit the target type.
func mismatch(it jbind.Item, md *meta.ClassMetadata) error {
	what := strings.TrimPrefix(it.Kind.String(), "start of ")
	if it.Kind == jbind.Scalar {
		what = it.Token.String()
	}
	return fmt.Errorf("%w: cannot decode %s into %v (%v)", ErrTypeMismatch, what, md.Type, md.Category)
}
