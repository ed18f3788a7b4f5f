// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

// Package escape handles quoting and unquoting of JSON strings.
package escape

import (
	"errors"
	"unicode/utf16"
	"unicode/utf8"

	"go4.org/mem"
)

// Unquote decodes a byte slice containing the JSON encoding of a string. The
// input must have the enclosing double quotation marks already removed.
//
// Escape sequences are replaced with their unescaped equivalents, and a
// \u escape pair encoding a UTF-16 surrogate pair is combined into a single
// rune. Invalid escapes are replaced by the Unicode replacement rune. Unquote
// reports an error for an incomplete escape sequence.
func Unquote(src mem.RO) ([]byte, error) {
	i := mem.IndexByte(src, '\\')
	if i < 0 {
		return mem.Append(make([]byte, 0, src.Len()), src), nil
	}

	dec := make([]byte, 0, src.Len())
	for i >= 0 {
		dec = mem.Append(dec, src.SliceTo(i))
		src = src.SliceFrom(i + 1)
		if src.Len() == 0 {
			return nil, errors.New("incomplete escape sequence")
		}
		r, n := mem.DecodeRune(src)
		if n == 0 {
			n++
		}
		src = src.SliceFrom(n)

		switch r {
		case '"', '\\', '/':
			dec = append(dec, byte(r))
		case 'b':
			dec = append(dec, '\b')
		case 'f':
			dec = append(dec, '\f')
		case 'n':
			dec = append(dec, '\n')
		case 'r':
			dec = append(dec, '\r')
		case 't':
			dec = append(dec, '\t')
		case 'u':
			if src.Len() < 4 {
				return nil, errors.New("incomplete Unicode escape")
			}
			v, ok := parseHex(src.SliceTo(4))
			src = src.SliceFrom(4)
			if !ok {
				v = utf8.RuneError
			} else if utf16.IsSurrogate(v) {
				v, src = decodeSurrogate(v, src)
			}
			dec = utf8.AppendRune(dec, v)
		default:
			dec = utf8.AppendRune(dec, utf8.RuneError)
		}
		i = mem.IndexByte(src, '\\')
	}
	return mem.Append(dec, src), nil
}

// decodeSurrogate combines the high surrogate hi with a following \u escape
// for the low half, if one is present. It returns the decoded rune and the
// remaining input. An unpaired surrogate decodes as the replacement rune.
func decodeSurrogate(hi rune, src mem.RO) (rune, mem.RO) {
	if src.Len() < 6 || src.At(0) != '\\' || src.At(1) != 'u' {
		return utf8.RuneError, src
	}
	lo, ok := parseHex(src.Slice(2, 6))
	if !ok {
		return utf8.RuneError, src
	}
	r := utf16.DecodeRune(hi, lo)
	if r == utf8.RuneError {
		return r, src
	}
	return r, src.SliceFrom(6)
}

func parseHex(data mem.RO) (rune, bool) {
	var v rune
	for i := 0; i < data.Len(); i++ {
		b := data.At(i)
		v <<= 4
		switch {
		case '0' <= b && b <= '9':
			v += rune(b - '0')
		case 'a' <= b && b <= 'f':
			v += rune(b - 'a' + 10)
		case 'A' <= b && b <= 'F':
			v += rune(b - 'A' + 10)
		default:
			return 0, false
		}
	}
	return v, true
}
