// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package jbind implements the token layer of a resumable JSON decoder.
//
// # Scanning
//
// The Scanner type implements a lexical scanner for JSON. Construct a scanner
// from an io.Reader and call its Next method to iterate over the stream. Next
// advances to the next input token and reports whether one is available:
//
//	s := jbind.NewScanner(input)
//	for s.Next() {
//	   log.Printf("Next token: %v", s.Token())
//	}
//
// At the end of input, Err reports io.EOF. Any other error indicates an I/O or
// lexical error in the input.
//
//	if s.Err() != io.EOF {
//	   log.Fatalf("Scanning failed: %v", s.Err())
//	}
//
// # Items
//
// A TokenSource delivers the structure of a JSON value as a sequence of Item
// values. Each item has one of the following kinds:
//
//	Kind         | Text           | Description
//	------------ | -------------- | ---------------------------------------
//	StartObject  | {              | start of an object
//	EndObject    | }              | end of an object
//	StartArray   | [              | start of an array
//	EndArray     | ]              | end of an array
//	PropertyName | "key"          | the name of an object member
//	Scalar       | 1, "s", true   | a string, number, or constant
//
// Commas, colons, and comments are checked but not reported. The text of an
// item is its raw source text; use Unquote or Item.Name to decode strings.
//
// A Reader consumes a complete io.Reader and blocks for input as needed. A
// Feeder accepts input in chunks supplied by the caller, and reports
// ErrNeedMore when it cannot produce an item from the input it has seen so
// far:
//
//	f := jbind.NewFeeder()
//	for chunk := range chunks {
//	   f.Feed(chunk)
//	   for {
//	      it, err := f.Next()
//	      if err == jbind.ErrNeedMore {
//	         break // wait for the next chunk
//	      } else if err != nil {
//	         log.Fatalf("Next failed: %v", err)
//	      }
//	      handle(it)
//	   }
//	}
//
// Malformed input is reported as an error of concrete type *jbind.SyntaxError.
//
// Items are decoded into Go values by package decode, which can suspend and
// resume between any two items.
package jbind
