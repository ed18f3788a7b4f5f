// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

package convert

import (
	"encoding"
	"encoding/base64"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/creachadair/jbind"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

var (
	timeType     = reflect.TypeFor[time.Time]()
	durationType = reflect.TypeFor[time.Duration]()
	uuidType     = reflect.TypeFor[uuid.UUID]()
	numberType   = reflect.TypeFor[json.Number]()

	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
)

// builtin returns the built-in converter for t, if there is one.
// Exact types are checked before kinds, so that for example time.Duration is
// not treated as a plain int64.
func builtin(t reflect.Type) (Converter, bool) {
	switch t {
	case timeType:
		return textLeaf{typ: t, parse: parseTime, format: formatTime}, true
	case durationType:
		return textLeaf{typ: t, parse: parseDuration, format: formatDuration}, true
	case uuidType:
		return textLeaf{typ: t, parse: parseUUID, format: formatUUID}, true
	case numberType:
		return numberLeaf{}, true
	}
	switch t.Kind() {
	case reflect.Bool:
		return boolLeaf{t}, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return intLeaf{t}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return uintLeaf{t}, true
	case reflect.Float32, reflect.Float64:
		return floatLeaf{t}, true
	case reflect.String:
		return stringLeaf{t}, true
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 && !reflect.PointerTo(t.Elem()).Implements(textUnmarshalerType) {
			return bytesLeaf{t}, true
		}
	}
	if t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return textUnmarshaler{t}, true
	}
	return nil, false
}

type boolLeaf struct{ typ reflect.Type }

func (b boolLeaf) Convert(tok jbind.Token, text []byte) (reflect.Value, error) {
	if tok != jbind.True && tok != jbind.False {
		return reflect.Value{}, mismatch(b.typ, text)
	}
	v := reflect.New(b.typ).Elem()
	v.SetBool(tok == jbind.True)
	return v, nil
}

func (boolLeaf) Format(v reflect.Value) ([]byte, error) {
	return strconv.AppendBool(nil, v.Bool()), nil
}

type intLeaf struct{ typ reflect.Type }

func (n intLeaf) Convert(tok jbind.Token, text []byte) (reflect.Value, error) {
	if tok != jbind.Integer {
		return reflect.Value{}, mismatch(n.typ, text)
	}
	z, err := strconv.ParseInt(string(text), 10, n.typ.Bits())
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %v", ErrConversion, err)
	}
	v := reflect.New(n.typ).Elem()
	v.SetInt(z)
	return v, nil
}

func (intLeaf) Format(v reflect.Value) ([]byte, error) {
	return strconv.AppendInt(nil, v.Int(), 10), nil
}

type uintLeaf struct{ typ reflect.Type }

func (n uintLeaf) Convert(tok jbind.Token, text []byte) (reflect.Value, error) {
	if tok != jbind.Integer {
		return reflect.Value{}, mismatch(n.typ, text)
	}
	z, err := strconv.ParseUint(string(text), 10, n.typ.Bits())
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %v", ErrConversion, err)
	}
	v := reflect.New(n.typ).Elem()
	v.SetUint(z)
	return v, nil
}

func (uintLeaf) Format(v reflect.Value) ([]byte, error) {
	return strconv.AppendUint(nil, v.Uint(), 10), nil
}

type floatLeaf struct{ typ reflect.Type }

func (n floatLeaf) Convert(tok jbind.Token, text []byte) (reflect.Value, error) {
	if tok != jbind.Integer && tok != jbind.Number {
		return reflect.Value{}, mismatch(n.typ, text)
	}
	f, err := strconv.ParseFloat(string(text), n.typ.Bits())
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %v", ErrConversion, err)
	}
	v := reflect.New(n.typ).Elem()
	v.SetFloat(f)
	return v, nil
}

func (n floatLeaf) Format(v reflect.Value) ([]byte, error) {
	f := v.Float()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("unsupported float value %v", f)
	}
	return strconv.AppendFloat(nil, f, 'g', -1, n.typ.Bits()), nil
}

type stringLeaf struct{ typ reflect.Type }

func (s stringLeaf) Convert(tok jbind.Token, text []byte) (reflect.Value, error) {
	if tok != jbind.String {
		return reflect.Value{}, mismatch(s.typ, text)
	}
	dec, err := jbind.Unquote(text)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %v", ErrConversion, err)
	}
	v := reflect.New(s.typ).Elem()
	v.SetString(string(dec))
	return v, nil
}

func (stringLeaf) Format(v reflect.Value) ([]byte, error) { return jbind.Quote(v.String()), nil }

// bytesLeaf encodes byte slices as base64 strings.
type bytesLeaf struct{ typ reflect.Type }

func (b bytesLeaf) Convert(tok jbind.Token, text []byte) (reflect.Value, error) {
	if tok == jbind.Null {
		return reflect.Zero(b.typ), nil
	}
	s, err := unquote(b.typ, tok, text)
	if err != nil {
		return reflect.Value{}, err
	}
	dec, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %v", ErrConversion, err)
	}
	return reflect.ValueOf(dec).Convert(b.typ), nil
}

func (bytesLeaf) Format(v reflect.Value) ([]byte, error) {
	if v.IsNil() {
		return []byte("null"), nil
	}
	return jbind.Quote(base64.StdEncoding.EncodeToString(v.Bytes())), nil
}

// numberLeaf preserves the text of a number token.
type numberLeaf struct{}

func (numberLeaf) Convert(tok jbind.Token, text []byte) (reflect.Value, error) {
	if tok != jbind.Integer && tok != jbind.Number {
		return reflect.Value{}, mismatch(numberType, text)
	}
	return reflect.ValueOf(json.Number(text)), nil
}

func (numberLeaf) Format(v reflect.Value) ([]byte, error) {
	n := v.Interface().(json.Number)
	if _, err := n.Float64(); err != nil {
		return nil, fmt.Errorf("invalid number %q", n)
	}
	return []byte(n), nil
}

// textLeaf handles leaf types carried as JSON strings with dedicated parsing
// and formatting functions.
type textLeaf struct {
	typ    reflect.Type
	parse  func(string) (any, error)
	format func(any) string
}

func (t textLeaf) Convert(tok jbind.Token, text []byte) (reflect.Value, error) {
	s, err := unquote(t.typ, tok, text)
	if err != nil {
		return reflect.Value{}, err
	}
	v, err := t.parse(s)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %v", ErrConversion, err)
	}
	return reflect.ValueOf(v), nil
}

func (t textLeaf) Format(v reflect.Value) ([]byte, error) {
	return jbind.Quote(t.format(v.Interface())), nil
}

func parseTime(s string) (any, error)     { return time.Parse(time.RFC3339Nano, s) }
func formatTime(v any) string             { return v.(time.Time).Format(time.RFC3339Nano) }
func parseDuration(s string) (any, error) { return time.ParseDuration(s) }
func formatDuration(v any) string         { return v.(time.Duration).String() }
func parseUUID(s string) (any, error)     { return uuid.Parse(s) }
func formatUUID(v any) string             { return v.(uuid.UUID).String() }

// textUnmarshaler handles types that implement encoding.TextUnmarshaler.
type textUnmarshaler struct{ typ reflect.Type }

func (u textUnmarshaler) Convert(tok jbind.Token, text []byte) (reflect.Value, error) {
	s, err := unquote(u.typ, tok, text)
	if err != nil {
		return reflect.Value{}, err
	}
	p := reflect.New(u.typ)
	if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %v", ErrConversion, err)
	}
	return p.Elem(), nil
}

func (u textUnmarshaler) Format(v reflect.Value) ([]byte, error) {
	if !u.typ.Implements(textMarshalerType) {
		return nil, fmt.Errorf("type %v does not implement encoding.TextMarshaler", u.typ)
	}
	text, err := v.Interface().(encoding.TextMarshaler).MarshalText()
	if err != nil {
		return nil, err
	}
	return jbind.Quote(string(text)), nil
}

// unquote checks that tok is a string, and returns its decoded value.
func unquote(t reflect.Type, tok jbind.Token, text []byte) (string, error) {
	if tok != jbind.String {
		return "", mismatch(t, text)
	}
	dec, err := jbind.Unquote(text)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrConversion, err)
	}
	return string(dec), nil
}
