// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

package jbind

import (
	"bytes"
	"io"
)

// A Feeder is a TokenSource over input that arrives in chunks. The caller
// adds input with Feed and marks the end of the input with Close. Next
// reports ErrNeedMore when the buffered input ends before a complete item,
// and resumes from the same point once more input has been fed.
//
// A token that reaches the end of the buffered input and could still be
// extended by further input (a number, a constant, or a line comment) is not
// reported until more input arrives or the Feeder is closed.
type Feeder struct {
	buf    []byte       // buffered input; buf[pos:] is unconsumed
	pos    int          // offset in buf of the first unconsumed byte
	base   int          // absolute offset of buf[pos]
	line   int          // 0-based line of buf[pos]
	col    int          // 0-based column of buf[pos]
	rd     bytes.Reader // reader over the unconsumed input, reused
	s      *Scanner     // scanner, reset for each item
	g      grammar      // structure of the items delivered so far
	closed bool         // no more input will be fed
	err    error        // sticky error
}

// NewFeeder constructs a new empty Feeder.
func NewFeeder() *Feeder {
	f := new(Feeder)
	f.s = NewScanner(&f.rd)
	return f
}

// AllowComments configures f to accept (true) or reject (false) comments.
// Accepted comments are discarded.
func (f *Feeder) AllowComments(ok bool) { f.s.AllowComments(ok) }

// AllowTrailingCommas configures f to allow (true) or reject (false) trailing
// commas in objects and arrays.
func (f *Feeder) AllowTrailingCommas(ok bool) { f.g.tcomma = ok }

// Feed adds data to the end of the buffered input. The contents of data are
// copied. It panics if f has been closed.
func (f *Feeder) Feed(data []byte) {
	if f.closed {
		panic("jbind: Feed after Close")
	}
	if f.pos > 0 && f.pos >= len(f.buf)/2 {
		f.buf = f.buf[:copy(f.buf, f.buf[f.pos:])]
		f.pos = 0
	}
	f.buf = append(f.buf, data...)
}

// Close marks the end of the input. After Close, Next no longer reports
// ErrNeedMore.
func (f *Feeder) Close() { f.closed = true }

// Offset reports the absolute offset of the first unconsumed input byte.
func (f *Feeder) Offset() int { return f.base }

// Next returns the next item of the buffered input, ErrNeedMore if the
// buffered input does not yet contain a complete item, or io.EOF if f is
// closed and all input has been consumed. Malformed input is reported as a
// *SyntaxError.
func (f *Feeder) Next() (Item, error) {
	if f.err != nil {
		return Item{}, f.err
	}
	for {
		f.rd.Reset(f.buf[f.pos:])
		f.s.resetAt(&f.rd, f.base, f.line, f.col)
		if !f.s.Next() {
			return f.scanFailed()
		}

		atEnd := f.s.end == f.base+len(f.buf)-f.pos
		if atEnd && !f.closed && tokOneOf(f.s.Token(), extensible) {
			return Item{}, ErrNeedMore
		}
		f.advance()

		it, ok, err := f.g.accept(f.s)
		if err != nil {
			f.err = err
			return Item{}, err
		} else if ok {
			return it, nil
		}
	}
}

// extensible lists tokens that may continue past the end of the buffer.
var extensible = []Token{Integer, Number, True, False, Null, LineComment}

// scanFailed handles a scan that did not produce a token.
func (f *Feeder) scanFailed() (Item, error) {
	err := f.s.Err()
	if err == io.EOF {
		// Only whitespace remained; it is consumed.
		f.advance()
		if !f.closed {
			return Item{}, ErrNeedMore
		}
		if err := f.g.checkEnd(f.s); err != nil {
			f.err = err
			return Item{}, err
		}
		return Item{}, io.EOF
	}

	// A lexical error at the end of the buffer may be an incomplete token.
	if !f.closed && f.s.end == f.base+len(f.buf)-f.pos {
		return Item{}, ErrNeedMore
	}
	f.err = &SyntaxError{Location: f.s.Location().First, Message: err.Error(), err: err}
	return Item{}, f.err
}

// advance discards the input consumed by the scanner.
func (f *Feeder) advance() {
	f.pos += f.s.end - f.base
	f.base, f.line, f.col = f.s.end, f.s.eline, f.s.ecol
}
