// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package jpath implements concrete JSONPath locations.
//
// A Path names a single position inside a JSON value, as a sequence of member
// names and array indexes starting from the root. Only the concrete subset of
// JSONPath is supported; there are no wildcards, slices, or filters.
package jpath

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

/*
Grammar:

  path = "$" [steps]
 steps = step [steps]
  step = "." name
  step = "[" QNAME "]"
  step = "[" INDEX "]"
  name = WORD
  name = QNAME

  WORD = RE `\w+`
 QNAME = RE `'([^'\\]|\\.)*'`
 INDEX = RE `\d+`

Source:
  https://www.ietf.org/archive/id/draft-goessner-dispatch-jsonpath-00.html
*/

// A Path is a parsed concrete JSONPath expression. The zero Path denotes
// the root of a value.
type Path []Step

// Parse parses s as a concrete JSONPath expression.
func Parse(s string) (Path, error) {
	t, ok := strings.CutPrefix(s, "$")
	if !ok {
		return nil, errors.New("missing root marker")
	}
	var p Path
	for t != "" {
		step, rest, err := parseStep(t)
		if err != nil {
			return nil, fmt.Errorf("at %q: %w", t, err)
		}
		p = append(p, step)
		t = rest
	}
	return p, nil
}

// Append returns a new path with the given steps added to the end of p.
// It does not modify p.
func (p Path) Append(steps ...Step) Path { return append(slices.Clip(p), steps...) }

// Member returns a new path extending p by the member with the given name.
func (p Path) Member(name string) Path { return p.Append(Member(name)) }

// Index returns a new path extending p by the array index i.
func (p Path) Index(i int) Path { return p.Append(Index(i)) }

func (p Path) String() string {
	var buf strings.Builder
	buf.WriteString("$")
	for _, s := range p {
		buf.WriteString(s.String())
	}
	return buf.String()
}

func parseStep(s string) (_ Step, rest string, _ error) {
	if t, ok := strings.CutPrefix(s, "."); ok {
		if m := wordRE.FindStringSubmatch(t); m != nil {
			return Member(m[1]), t[len(m[0]):], nil
		}
		if name, u, ok := parseQuoted(t); ok {
			return Member(name), u, nil
		}
		return Step{}, s, errors.New("invalid .name")
	}
	if t, ok := strings.CutPrefix(s, "["); ok {
		var step Step
		if m := indexRE.FindStringSubmatch(t); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				return Step{}, s, fmt.Errorf("invalid index: %w", err)
			}
			step, t = Index(n), t[len(m[0]):]
		} else if name, u, ok := parseQuoted(t); ok {
			step, t = Member(name), u
		} else {
			return Step{}, s, errors.New("invalid value")
		}
		u, ok := strings.CutPrefix(t, "]")
		if !ok {
			return Step{}, t, errors.New("missing close bracket")
		}
		return step, u, nil
	}
	return Step{}, s, errors.New("invalid path step")
}

// parseQuoted parses a single-quoted name with backslash escapes.
func parseQuoted(s string) (name, rest string, ok bool) {
	m := quoteRE.FindStringSubmatch(s)
	if m == nil {
		return "", s, false
	}
	return unescapeRE.ReplaceAllString(m[1], "$1"), s[len(m[0]):], true
}

var (
	wordRE     = regexp.MustCompile(`^(\w+)`)
	fullWordRE = regexp.MustCompile(`^\w+$`)
	indexRE    = regexp.MustCompile(`^(\d+)`)
	quoteRE    = regexp.MustCompile(`^'((?:[^'\\]|\\.)*)'`)
	unescapeRE = regexp.MustCompile(`\\(.)`)
	escapeRE   = regexp.MustCompile(`(['\\])`)
)

// An Op is a path operator.
type Op byte

const (
	Invalid  Op = iota // invalid operator
	OpMember           // object member lookup
	OpIndex            // array index lookup
)

// Member returns a step that selects the object member with the given name.
func Member(name string) Step { return Step{Op: OpMember, Name: name} }

// Index returns a step that selects the array element at offset i.
func Index(i int) Step { return Step{Op: OpIndex, Index: i} }

// A Step is a single step of a path.
type Step struct {
	Op    Op
	Name  string // for a member step
	Index int    // for an index step
}

func (s Step) String() string {
	switch s.Op {
	case OpMember:
		if fullWordRE.MatchString(s.Name) {
			return "." + s.Name
		}
		return "['" + escapeRE.ReplaceAllString(s.Name, `\$1`) + "']"
	case OpIndex:
		return "[" + strconv.Itoa(s.Index) + "]"
	}
	return "[invalid]"
}
