// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jbind

import (
	"fmt"
	"io"
	"slices"
	"strings"
)

// An Anchor represents a location in source text. The methods of an Anchor
// will report the location, token type, and contents of the anchor.
type Anchor interface {
	Token() Token       // Returns the token type of the anchor
	Text() []byte       // Returns a view of the raw (undecoded) text of the anchor
	Copy() []byte       // Returns a copy of the raw text of the anchor
	Location() Location // Returns the full location of the anchor
}

// expect records what the grammar will accept next.
type expect byte

const (
	expValue      expect = iota // any value
	expValueOrEnd               // any value, or "]"
	expKeyOrEnd                 // a string key, or "}"
	expKey                      // a string key
	expColon                    // ":"
	expCommaOrEnd               // "," or the close of the enclosing container
)

// A grammar checks the structure of a sequence of lexical tokens and converts
// them into items. It keeps an explicit stack of open containers rather than
// recursing, so that it can be suspended between any two tokens.
type grammar struct {
	stk    []Token // LBrace or LSquare for each open container
	exp    expect
	tcomma bool // allow trailing commas in objects and arrays
}

// open reports whether g is inside a value that has not been completed.
func (g *grammar) open() bool { return len(g.stk) != 0 || g.exp != expValue }

// accept consumes the token at loc. If the token has structural meaning it is
// returned as an item with ok == true; commas, colons, and comments are
// consumed without producing an item.
func (g *grammar) accept(loc Anchor) (_ Item, ok bool, _ error) {
	tok := loc.Token()
	if tok == LineComment || tok == BlockComment {
		return Item{}, false, nil
	}
	item := func(k Kind) (Item, bool, error) {
		return Item{Kind: k, Token: tok, Text: loc.Copy(), Loc: loc.Location()}, true, nil
	}

	switch g.exp {
	case expValue, expValueOrEnd:
		switch tok {
		case LBrace:
			g.stk = append(g.stk, LBrace)
			g.exp = expKeyOrEnd
			return item(StartObject)
		case LSquare:
			g.stk = append(g.stk, LSquare)
			g.exp = expValueOrEnd
			return item(StartArray)
		case Integer, Number, String, True, False, Null:
			g.endValue()
			return item(Scalar)
		case RSquare:
			if g.exp == expValueOrEnd {
				g.pop()
				return item(EndArray)
			}
		}
		return Item{}, false, g.syntaxError(loc, "unexpected %v", tok)

	case expKeyOrEnd, expKey:
		if tok == String {
			g.exp = expColon
			return item(PropertyName)
		} else if tok == RBrace && (g.exp == expKeyOrEnd || g.tcomma) {
			g.pop()
			return item(EndObject)
		}
		if g.exp == expKey && !g.tcomma {
			return Item{}, false, g.syntaxError(loc, "%s", tokLabel([]Token{String}, tok))
		}
		return Item{}, false, g.syntaxError(loc, "%s", tokLabel([]Token{RBrace, String}, tok))

	case expColon:
		if tok == Colon {
			g.exp = expValue
			return Item{}, false, nil
		}
		return Item{}, false, g.syntaxError(loc, "%s", tokLabel([]Token{Colon}, tok))

	case expCommaOrEnd:
		end := RSquare
		if g.top() == LBrace {
			end = RBrace
		}
		switch tok {
		case Comma:
			if end == RBrace {
				g.exp = expKey
			} else if g.tcomma {
				g.exp = expValueOrEnd
			} else {
				g.exp = expValue
			}
			return Item{}, false, nil
		case end:
			g.pop()
			if end == RBrace {
				return item(EndObject)
			}
			return item(EndArray)
		}
		return Item{}, false, g.syntaxError(loc, "%s", tokLabel([]Token{end, Comma}, tok))
	}
	panic(fmt.Sprintf("invalid grammar state %d", g.exp))
}

// checkEnd reports an error if the input ended inside a value.
func (g *grammar) checkEnd(loc Anchor) error {
	if g.open() {
		return &SyntaxError{
			Location: loc.Location().Last,
			Message:  "unexpected end of input",
			err:      io.ErrUnexpectedEOF,
		}
	}
	return nil
}

func (g *grammar) top() Token { return g.stk[len(g.stk)-1] }

func (g *grammar) pop() {
	g.stk = g.stk[:len(g.stk)-1]
	g.endValue()
}

// endValue updates the expectation after a complete value.
func (g *grammar) endValue() {
	if len(g.stk) == 0 {
		g.exp = expValue
	} else {
		g.exp = expCommaOrEnd
	}
}

func (g *grammar) syntaxError(loc Anchor, msg string, args ...any) error {
	return &SyntaxError{
		Location: loc.Location().First,
		Message:  fmt.Sprintf(msg, args...),
	}
}

// tokLabel makes a human-readable summary string for the given token types.
func tokLabel(tokens []Token, got any) string {
	if len(tokens) == 0 {
		return fmt.Sprint(got)
	}
	var exp string
	if len(tokens) == 1 {
		exp = tokens[0].String()
	} else {
		last := len(tokens) - 1
		ss := make([]string, len(tokens)-1)
		for i, tok := range tokens[:last] {
			ss[i] = tok.String()
		}
		exp = strings.Join(ss, ", ") + " or " + tokens[last].String()
	}
	return fmt.Sprintf("expected %s, got %v", exp, got)
}

// tokOneOf reports whether cur is an element of tokens.
func tokOneOf(cur Token, tokens []Token) bool {
	return slices.Contains(tokens, cur)
}

// SyntaxError is the concrete type of errors reported for malformed input.
type SyntaxError struct {
	Location LineCol
	Message  string

	err error
}

// Error satisfies the error interface.
func (s *SyntaxError) Error() string {
	return fmt.Sprintf("at %s: %s", s.Location, s.Message)
}

// Unwrap supports error wrapping.
func (s *SyntaxError) Unwrap() error { return s.err }
