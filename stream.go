// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jbind

import (
	"bytes"
	"io"

	"github.com/tailscale/hujson"
)

// A Reader is a TokenSource that consumes input from an io.Reader. Reads from
// the underlying reader block, so a Reader never reports ErrNeedMore.
type Reader struct {
	s *Scanner
	g grammar
}

// NewReader constructs a new Reader that consumes input from r.
func NewReader(r io.Reader) *Reader { return &Reader{s: NewScanner(r)} }

// NewReaderWithScanner constructs a new Reader that consumes input from s.
func NewReaderWithScanner(s *Scanner) *Reader { return &Reader{s: s} }

// NewHuJSON constructs a Reader for data in the HuJSON (JWCC) format, which
// permits comments and trailing commas. The input is converted to standard
// JSON before scanning, so locations refer to the standardized text; the
// conversion preserves the byte offsets of all non-comment tokens.
func NewHuJSON(data []byte) (*Reader, error) {
	std, err := hujson.Standardize(bytes.Clone(data))
	if err != nil {
		return nil, err
	}
	return NewReader(bytes.NewReader(std)), nil
}

// AllowComments configures the scanner associated with r to accept (true) or
// reject (false) comments. Accepted comments are discarded.
func (r *Reader) AllowComments(ok bool) { r.s.AllowComments(ok) }

// AllowTrailingCommas configures r to allow (true) or reject (false) trailing
// commas in objects and arrays.
func (r *Reader) AllowTrailingCommas(ok bool) { r.g.tcomma = ok }

// Next returns the next item of the input. It returns io.EOF when the input
// is exhausted at the boundary between values. A malformed input is reported
// as a *SyntaxError.
func (r *Reader) Next() (Item, error) {
	for r.s.Next() {
		it, ok, err := r.g.accept(r.s)
		if err != nil {
			return Item{}, err
		} else if ok {
			return it, nil
		}
	}
	if err := r.s.Err(); err != io.EOF {
		return Item{}, &SyntaxError{
			Location: r.s.Location().First,
			Message:  err.Error(),
			err:      err,
		}
	}
	if err := r.g.checkEnd(r.s); err != nil {
		return Item{}, err
	}
	return Item{}, io.EOF
}
