// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

package jbind

import (
	"errors"
	"io"
)

// Kind is the structural kind of an Item delivered to a decoder.
type Kind byte

// Constants defining the valid Kind values.
const (
	NoKind       Kind = iota // no item
	StartObject              // open brace of an object
	EndObject                // close brace of an object
	StartArray               // open bracket of an array
	EndArray                 // close bracket of an array
	PropertyName             // the quoted key of an object member
	Scalar                   // a string, number, or constant value
)

var kindStr = [...]string{
	NoKind:       "no item",
	StartObject:  "start of object",
	EndObject:    "end of object",
	StartArray:   "start of array",
	EndArray:     "end of array",
	PropertyName: "property name",
	Scalar:       "scalar value",
}

func (k Kind) String() string {
	if int(k) >= len(kindStr) {
		return kindStr[NoKind]
	}
	return kindStr[k]
}

// An Item is a single structural token of a JSON value. Punctuation that does
// not affect structure (commas and colons) and comments are not reported.
type Item struct {
	Kind  Kind     // the structural kind of the item
	Token Token    // the lexical token type
	Text  []byte   // the raw (undecoded) text; strings and names are quoted
	Loc   Location // the location of the item in the source, if known
}

// Name returns the unquoted text of a PropertyName or string Scalar item.
func (it Item) Name() (string, error) {
	dec, err := Unquote(it.Text)
	if err != nil {
		return "", err
	}
	return string(dec), nil
}

// ErrNeedMore is reported by a TokenSource when the input available so far
// does not contain a complete item, but more input may still arrive. It is
// distinct from io.EOF, which reports that the input is exhausted.
var ErrNeedMore = errors.New("need more input")

// A TokenSource produces a sequence of structural items. Next returns the next
// item, ErrNeedMore if an item is not yet available, or io.EOF at the end of
// the input. Any other error is fatal to the source.
//
// After Next returns ErrNeedMore, a later call resumes from exactly the point
// where the previous call stopped.
type TokenSource interface {
	Next() (Item, error)
}

// Items returns a TokenSource that delivers the given items in order, and then
// reports io.EOF.
func Items(items []Item) TokenSource { return &itemSource{items: items} }

type itemSource struct {
	items []Item
	pos   int
}

func (s *itemSource) Next() (Item, error) {
	if s.pos >= len(s.items) {
		return Item{}, io.EOF
	}
	s.pos++
	return s.items[s.pos-1], nil
}

// Collect reads all the items from src until io.EOF. Collect reports an error
// if src returns ErrNeedMore, since the remaining items are not available.
func Collect(src TokenSource) ([]Item, error) {
	var out []Item
	for {
		it, err := src.Next()
		if err == io.EOF {
			return out, nil
		} else if err != nil {
			return out, err
		}
		out = append(out, it)
	}
}
