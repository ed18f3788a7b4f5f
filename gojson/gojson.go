// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

// Package gojson provides a jbind.TokenSource backed by the streaming token
// decoder of github.com/goccy/go-json.
//
// The items produced carry byte offsets but not line and column positions.
// The go-json token decoder checks only lexical structure, so a decoder
// consuming these items remains responsible for rejecting misplaced items.
package gojson

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/creachadair/jbind"
	"github.com/goccy/go-json"
)

type container byte

const (
	inObject container = iota
	inArray
)

type frame struct {
	kind    container
	wantKey bool
}

// A Source is a jbind.TokenSource that reads items using a go-json decoder.
// Reads from the underlying reader block, so a Source never reports
// jbind.ErrNeedMore.
type Source struct {
	dec *json.Decoder
	stk []frame
}

// NewSource constructs a Source that reads input from r.
func NewSource(r io.Reader) *Source {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return &Source{dec: dec}
}

// NewBytes constructs a Source that reads input from b.
func NewBytes(b []byte) *Source { return NewSource(bytes.NewReader(b)) }

// Next implements the jbind.TokenSource interface.
func (s *Source) Next() (jbind.Item, error) {
	start := s.dec.InputOffset()
	tok, err := s.dec.Token()
	if err != nil {
		return jbind.Item{}, err
	}
	item := jbind.Item{Loc: jbind.Location{Span: jbind.Span{Pos: int(start), End: int(s.dec.InputOffset())}}}

	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			s.stk = append(s.stk, frame{kind: inObject, wantKey: true})
			item.Kind, item.Token, item.Text = jbind.StartObject, jbind.LBrace, []byte("{")
			return item, nil
		case '[':
			s.stk = append(s.stk, frame{kind: inArray})
			item.Kind, item.Token, item.Text = jbind.StartArray, jbind.LSquare, []byte("[")
			return item, nil
		case '}':
			item.Kind, item.Token, item.Text = jbind.EndObject, jbind.RBrace, []byte("}")
		case ']':
			item.Kind, item.Token, item.Text = jbind.EndArray, jbind.RSquare, []byte("]")
		default:
			return jbind.Item{}, fmt.Errorf("unexpected delimiter %q", rune(v))
		}
		if n := len(s.stk); n > 0 {
			s.stk = s.stk[:n-1]
		}
		s.endValue()
		return item, nil

	case string:
		item.Token, item.Text = jbind.String, jbind.Quote(v)
		if n := len(s.stk); n > 0 && s.stk[n-1].wantKey {
			s.stk[n-1].wantKey = false
			item.Kind = jbind.PropertyName
			return item, nil
		}
		item.Kind = jbind.Scalar

	case json.Number:
		// The decoder may reuse the storage of the number text.
		text := strings.Clone(string(v))
		item.Kind, item.Token, item.Text = jbind.Scalar, jbind.Integer, []byte(text)
		if strings.ContainsAny(text, ".eE") {
			item.Token = jbind.Number
		}

	case bool:
		item.Kind, item.Token, item.Text = jbind.Scalar, jbind.False, []byte("false")
		if v {
			item.Token, item.Text = jbind.True, []byte("true")
		}

	case nil:
		item.Kind, item.Token, item.Text = jbind.Scalar, jbind.Null, []byte("null")

	default:
		return jbind.Item{}, fmt.Errorf("unexpected token %T", tok)
	}
	s.endValue()
	return item, nil
}

// endValue records the end of a value in the enclosing container.
func (s *Source) endValue() {
	if n := len(s.stk); n > 0 && s.stk[n-1].kind == inObject {
		s.stk[n-1].wantKey = true
	}
}
