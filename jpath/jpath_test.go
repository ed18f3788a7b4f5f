// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jpath_test

import (
	"testing"

	"github.com/creachadair/jbind/jpath"
	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  jpath.Path
	}{
		{"$", nil},
		{"$.store.book[2]", jpath.Path{jpath.Member("store"), jpath.Member("book"), jpath.Index(2)}},
		{"$[0][15].a_b", jpath.Path{jpath.Index(0), jpath.Index(15), jpath.Member("a_b")}},
		{"$['apple sauce'].pearPlum", jpath.Path{jpath.Member("apple sauce"), jpath.Member("pearPlum")}},
		{`$['it\'s'][3]`, jpath.Path{jpath.Member("it's"), jpath.Index(3)}},
		{`$['a\\b']`, jpath.Path{jpath.Member(`a\b`)}},
		{"$['']", jpath.Path{jpath.Member("")}},
	}
	for _, test := range tests {
		p, err := jpath.Parse(test.input)
		if err != nil {
			t.Errorf("Parse %q: %v", test.input, err)
			continue
		}
		if diff := cmp.Diff(test.want, p); diff != "" {
			t.Errorf("Parse %q (-want, +got):\n%s", test.input, diff)
		}
		if got := p.String(); got != test.input {
			t.Errorf("Parse %q:\n got %q\nwant %q", test.input, got, test.input)
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{
		"", "store", "$.", "$[", "$[1", "$[-1]", "$[*]", "$..a", "$['open]", "$.a b",
	} {
		if p, err := jpath.Parse(input); err == nil {
			t.Errorf("Parse %q: got %v, want error", input, p)
		}
	}
}

func TestAppend(t *testing.T) {
	base := jpath.Path{jpath.Member("root")}
	a := base.Member("x")
	b := base.Index(4)
	if got, want := a.String(), "$.root.x"; got != want {
		t.Errorf("Member: got %q, want %q", got, want)
	}
	if got, want := b.String(), "$.root[4]"; got != want {
		t.Errorf("Index: got %q, want %q", got, want)
	}
	if got, want := base.String(), "$.root"; got != want {
		t.Errorf("Base modified: got %q, want %q", got, want)
	}
}
