// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

package decode_test

import (
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/creachadair/jbind"
	"github.com/creachadair/jbind/convert"
	"github.com/creachadair/jbind/decode"
	"github.com/creachadair/jbind/kv"
	"github.com/creachadair/jbind/readonly"
	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
)

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Shapes struct {
	Name   string           `json:"name"`
	Points []Point          `json:"points"`
	Index  map[string]Point `json:"index"`
	Origin *Point           `json:"origin"`
}

// roundTrip checks that v survives encoding and decoding unchanged.
func roundTrip[T any](t *testing.T, v T) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal %T: %v", v, err)
	}
	got, err := decode.Unmarshal[T](nil, data)
	if err != nil {
		t.Fatalf("Unmarshal %T %s: unexpected error: %v", v, data, err)
	}
	if diff := cmp.Diff(v, got, cmpOpts); diff != "" {
		t.Errorf("Round trip %T %s (-want, +got):\n%s", v, data, diff)
	}
}

func TestRoundTrip(t *testing.T) {
	t.Run("Object", func(t *testing.T) {
		roundTrip(t, Point{X: 3, Y: -4})
		roundTrip(t, &Point{X: 1})
		roundTrip(t, Shapes{
			Name:   "tri",
			Points: []Point{{0, 0}, {1, 0}, {0, 1}},
			Index:  map[string]Point{"a": {0, 0}, "b": {1, 0}},
			Origin: &Point{},
		})
		roundTrip(t, []Shapes{{Name: "empty"}, {Name: "one", Points: []Point{{5, 5}}}})
	})
	t.Run("Enumerable", func(t *testing.T) {
		roundTrip(t, []int{1, 2, 3})
		roundTrip(t, [][]string{{"a"}, {"b", "c"}, {}})
		roundTrip(t, []Point{{1, 2}, {3, 4}})
		roundTrip(t, []bool{})
	})
	t.Run("Dictionary", func(t *testing.T) {
		roundTrip(t, map[string]int{"one": 1, "two": 2})
		roundTrip(t, map[string]map[string]bool{"x": {"y": true}, "z": {}})
		roundTrip(t, map[string][]Point{"line": {{0, 0}, {2, 2}}})
		roundTrip(t, map[string]any{"a": 1.5, "b": []any{"c", nil}, "d": map[string]any{"e": false}})
	})
	t.Run("EnumerableConstructible", func(t *testing.T) {
		roundTrip(t, [3]int{7, 8, 9})
		roundTrip(t, [2][]int{{1}, {2, 3}})
		roundTrip(t, readonly.ListOf(4, 5, 6))
		roundTrip(t, readonly.ListOf(readonly.ListOf(1, 2), readonly.ListOf(3)))
		roundTrip(t, []readonly.List[string]{readonly.ListOf("p", "q")})
	})
	t.Run("DictionaryConstructible", func(t *testing.T) {
		roundTrip(t, kv.Of("answer", 42))
		roundTrip(t, kv.Of("list", []int{1, 2}))
		roundTrip(t, []kv.Pair[string]{kv.Of("a", "b"), kv.Of("c", "d")})
		roundTrip(t, mustMap(t, kv.Of("one", 1), kv.Of("two", 2)))
		roundTrip(t, mustMap(t, kv.Of("odd", []int{1, 3}), kv.Of("even", []int{2})))
	})
}

func TestNullPropagation(t *testing.T) {
	roundTrip(t, (*int)(nil))
	roundTrip(t, (*Point)(nil))
	roundTrip(t, []*int{ptr(1), nil, ptr(3)})
	roundTrip(t, map[string]*string{"a": nil, "b": ptr("b")})
	roundTrip(t, map[string]*Point{"p": nil})
	roundTrip(t, [2]*int{nil, ptr(2)})
	roundTrip(t, []any{nil})

	l, err := decode.Unmarshal[readonly.List[*int]](nil, []byte(`[null, 1]`))
	if err != nil {
		t.Fatalf("Unmarshal list: unexpected error: %v", err)
	}
	if l.Len() != 2 || l.At(0) != nil || *l.At(1) != 1 {
		t.Errorf("Unmarshal list: got %v, want [nil, 1]", l.Slice())
	}
}

func TestDuplicateKeys(t *testing.T) {
	const input = `{"a": 1, "a": 2}`
	type withExt struct {
		B     int            `json:"b"`
		Extra map[string]any `jbind:"extension"`
	}
	type withField struct {
		A int `json:"a"`
	}
	check := func(t *testing.T, err error) {
		t.Helper()
		var de *decode.Error
		if !errors.Is(err, decode.ErrDuplicateKey) || !errors.As(err, &de) {
			t.Fatalf("Unmarshal: got %v, want %v", err, decode.ErrDuplicateKey)
		}
		if de.Kind != decode.DataErrorKind {
			t.Errorf("Error kind: got %v, want %v", de.Kind, decode.DataErrorKind)
		}
		if got, want := de.Path.String(), "$.a"; got != want {
			t.Errorf("Error path: got %q, want %q", got, want)
		}
	}

	t.Run("Dictionary", func(t *testing.T) {
		_, err := decode.Unmarshal[map[string]int](nil, []byte(input))
		check(t, err)
	})
	t.Run("Generic", func(t *testing.T) {
		_, err := decode.Unmarshal[any](nil, []byte(input))
		check(t, err)
	})
	t.Run("Constructible", func(t *testing.T) {
		_, err := decode.Unmarshal[readonly.Map[int]](nil, []byte(input))
		check(t, err)
	})
	t.Run("Extension", func(t *testing.T) {
		_, err := decode.Unmarshal[withExt](nil, []byte(input))
		check(t, err)
	})
	t.Run("Object", func(t *testing.T) {
		_, err := decode.Unmarshal[withField](nil, []byte(input))
		check(t, err)
	})

	// Independent values do not share state.
	t.Run("Sequential", func(t *testing.T) {
		d, err := decode.NewDecoder(nil, reflect.TypeFor[map[string]int]())
		if err != nil {
			t.Fatalf("NewDecoder: %v", err)
		}
		var got []map[string]int
		for _, in := range []string{`{"a": 1}`, `{"a": 2}`} {
			d.Reset()
			if done, err := d.Resume(jbind.Items(mustItems(t, in))); err != nil || !done {
				t.Fatalf("Resume %q: got (%v, %v), want (true, nil)", in, done, err)
			}
			got = append(got, d.Value().Interface().(map[string]int))
		}
		if diff := cmp.Diff([]map[string]int{{"a": 1}, {"a": 2}}, got); diff != "" {
			t.Errorf("Sequential (-want, +got):\n%s", diff)
		}
		for _, in := range []string{`{"a": 1}`, `{"a": 2}`} {
			if _, err := decode.Unmarshal[map[string]int](nil, []byte(in)); err != nil {
				t.Errorf("Unmarshal %q: unexpected error: %v", in, err)
			}
		}
	})
}

type Member struct {
	Name  string         `json:"name"`
	Roles []string       `json:"roles"`
	Attrs map[string]any `jbind:"extension"`
}

type Directory struct {
	ID     string                                  `json:"id"`
	Groups map[string][]Member                     `json:"groups"`
	Matrix [][]float64                             `json:"matrix"`
	Ranges readonly.List[kv.Pair[readonly.List[int]]] `json:"ranges"`
	Flags  [2]bool                                 `json:"flags"`
}

const directoryInput = `{
  "id": "dép\"t",
  "groups": {
    "admins": [
      {"name": "ann", "roles": ["root", "ops"], "shell": "/bin/zsh"},
      {"name": "bob", "roles": [], "quota": {"disk": [10, 20.5], "note": null}}
    ],
    "guests": []
  },
  "ignored": [{"deep": [[true]]}],
  "matrix": [[1, 2.5], [-3e2], []],
  "ranges": [{"low": [1, 2]}, {"Key": "high", "Value": [9]}],
  "flags": [true, false]
}`

var directoryOpts = cmp.Options{
	cmpOpts,
	cmp.Transformer("ranges", func(l readonly.List[kv.Pair[readonly.List[int]]]) []kv.Pair[readonly.List[int]] {
		return l.Slice()
	}),
}

func wantDirectory(t *testing.T) Directory {
	t.Helper()
	want, err := decode.Unmarshal[Directory](nil, []byte(directoryInput))
	if err != nil {
		t.Fatalf("Unmarshal: unexpected error: %v", err)
	}
	check := Directory{
		ID: `dép"t`,
		Groups: map[string][]Member{
			"admins": {
				{Name: "ann", Roles: []string{"root", "ops"}, Attrs: map[string]any{"shell": "/bin/zsh"}},
				{Name: "bob", Roles: []string{}, Attrs: map[string]any{
					"quota": map[string]any{"disk": []any{10.0, 20.5}, "note": nil},
				}},
			},
			"guests": {},
		},
		Matrix: [][]float64{{1, 2.5}, {-300}, {}},
		Ranges: readonly.ListOf(kv.Of("low", readonly.ListOf(1, 2)), kv.Of("high", readonly.ListOf(9))),
		Flags:  [2]bool{true, false},
	}
	if diff := cmp.Diff(check, want, directoryOpts); diff != "" {
		t.Fatalf("Unmarshal (-want, +got):\n%s", diff)
	}
	return want
}

// gatedSource delivers the items of a slice, but reports ErrNeedMore each
// time it reaches limit.
type gatedSource struct {
	items []jbind.Item
	pos   int
	limit int
}

func (g *gatedSource) Next() (jbind.Item, error) {
	if g.pos >= len(g.items) {
		return jbind.Item{}, io.EOF
	} else if g.pos >= g.limit {
		return jbind.Item{}, jbind.ErrNeedMore
	}
	g.pos++
	return g.items[g.pos-1], nil
}

func TestResumeItems(t *testing.T) {
	want := wantDirectory(t)
	items := mustItems(t, directoryInput)

	decodeGated := func(t *testing.T, steps []int) {
		t.Helper()
		d, err := decode.NewDecoder(nil, reflect.TypeFor[Directory]())
		if err != nil {
			t.Fatalf("NewDecoder: %v", err)
		}
		src := &gatedSource{items: items}
		maxDepth := 0
		for _, n := range steps {
			src.limit = n
			done, err := d.Resume(src)
			if err != nil {
				t.Fatalf("Resume at %d: unexpected error: %v", n, err)
			} else if done != (n >= len(items)) {
				t.Fatalf("Resume at %d: got done=%v, want %v", n, done, !done)
			}
			maxDepth = max(maxDepth, d.Depth())
		}
		got := d.Value().Interface().(Directory)
		if diff := cmp.Diff(want, got, directoryOpts); diff != "" {
			t.Errorf("Steps %v (-want, +got):\n%s", steps, diff)
		}
		if len(steps) > 2 && maxDepth < 3 {
			t.Errorf("Maximum depth between items: got %d, want at least 3", maxDepth)
		}
	}

	// Stop once at every boundary.
	for k := 0; k <= len(items); k++ {
		decodeGated(t, []int{k, len(items)})
	}

	// Stop at every boundary.
	var every []int
	for k := 0; k <= len(items); k++ {
		every = append(every, k)
	}
	decodeGated(t, every)
}

func TestResumeBytes(t *testing.T) {
	want := wantDirectory(t)
	input := []byte(directoryInput)

	decodeChunks := func(t *testing.T, chunks [][]byte) {
		t.Helper()
		cfg := decode.Default()
		d, err := decode.NewDecoder(cfg, reflect.TypeFor[Directory]())
		if err != nil {
			t.Fatalf("NewDecoder: %v", err)
		}
		feed := cfg.NewFeeder()
		for i, chunk := range chunks {
			feed.Feed(chunk)
			if i == len(chunks)-1 {
				feed.Close()
			}
			done, err := d.Resume(feed)
			if err != nil {
				t.Fatalf("Resume chunk %d: unexpected error: %v", i, err)
			} else if done && i < len(chunks)-2 {
				// The final "}" may arrive before the trailing newline.
				t.Fatalf("Resume chunk %d: done early", i)
			}
		}
		if !d.Done() {
			t.Fatal("Decoding did not complete")
		}
		got := d.Value().Interface().(Directory)
		if diff := cmp.Diff(want, got, directoryOpts); diff != "" {
			t.Errorf("Chunks %q (-want, +got):\n%s", chunks, diff)
		}
	}

	// Split once at every byte offset.
	for i := 0; i <= len(input); i++ {
		decodeChunks(t, [][]byte{input[:i], input[i:]})
	}

	// Split into chunks of every small size.
	for size := 1; size <= 16; size++ {
		var chunks [][]byte
		for rest := input; len(rest) != 0; {
			n := min(size, len(rest))
			chunks = append(chunks, rest[:n])
			rest = rest[n:]
		}
		decodeChunks(t, chunks)
	}
}

func TestPairShapes(t *testing.T) {
	want := kv.Of("k", 1)
	for _, input := range []string{
		`{"k": 1}`,
		`{"Key": "k", "Value": 1}`,
		`{"Value": 1, "Key": "k"}`,
		`{"k":1}`,
	} {
		got, err := decode.Unmarshal[kv.Pair[int]](nil, []byte(input))
		if err != nil {
			t.Errorf("Unmarshal %q: unexpected error: %v", input, err)
		} else if got != want {
			t.Errorf("Unmarshal %q: got %v, want %v", input, got, want)
		}
	}

	for _, input := range []string{
		`{"Key": "k", "Value": 1, "Extra": 2}`,
		`{}`,
		`{"Key": "k"}`,
		`{"a": 1, "b": 2}`,
		`{"Key": "k", "Other": 1}`,
	} {
		got, err := decode.Unmarshal[kv.Pair[int]](nil, []byte(input))
		if !errors.Is(err, decode.ErrPairShape) {
			t.Errorf("Unmarshal %q: got (%v, %v), want %v", input, got, err, decode.ErrPairShape)
		}
	}

	// "Key" is reserved for the two-member form, but "Value" is not.
	if got, err := decode.Unmarshal[kv.Pair[int]](nil, []byte(`{"Value": 1}`)); err != nil {
		t.Errorf("Unmarshal lone Value: unexpected error: %v", err)
	} else if want := kv.Of("Value", 1); got != want {
		t.Errorf("Unmarshal lone Value: got %v, want %v", got, want)
	}
	if got, err := decode.Unmarshal[kv.Pair[int]](nil, []byte(`{"Key": 5}`)); !errors.Is(err, convert.ErrConversion) {
		t.Errorf("Unmarshal lone numeric Key: got (%v, %v), want %v", got, err, convert.ErrConversion)
	}

	// Both shapes may appear in the same collection.
	got, err := decode.Unmarshal[[]*kv.Pair[[]string]](nil, []byte(
		`[{"a": ["x"]}, {"Key": "b", "Value": []}, null]`))
	if err != nil {
		t.Fatalf("Unmarshal list: unexpected error: %v", err)
	}
	if diff := cmp.Diff([]*kv.Pair[[]string]{
		{Key: "a", Value: []string{"x"}},
		{Key: "b", Value: []string{}},
		nil,
	}, got); diff != "" {
		t.Errorf("Unmarshal list (-want, +got):\n%s", diff)
	}
}

func TestUnknownProperties(t *testing.T) {
	const input = `{
  "known": 1,
  "unknown": {"known": 5, "deep": [1, {"x": null}, [[]]]},
  "also": "text",
  "more": [{"a": {}}]
}`
	type plain struct {
		Known int `json:"known"`
	}
	type withExt struct {
		Known int            `json:"known"`
		Rest  map[string]any `jbind:"extension"`
	}

	p, err := decode.Unmarshal[plain](nil, []byte(input))
	if err != nil {
		t.Fatalf("Unmarshal plain: unexpected error: %v", err)
	}
	if p.Known != 1 {
		t.Errorf("Unmarshal plain: got %+v, want known=1", p)
	}

	e, err := decode.Unmarshal[withExt](nil, []byte(input))
	if err != nil {
		t.Fatalf("Unmarshal extension: unexpected error: %v", err)
	}
	want := withExt{
		Known: 1,
		Rest: map[string]any{
			"unknown": map[string]any{"known": 5.0, "deep": []any{1.0, map[string]any{"x": nil}, []any{[]any{}}}},
			"also":    "text",
			"more":    []any{map[string]any{"a": map[string]any{}}},
		},
	}
	if diff := cmp.Diff(want, e); diff != "" {
		t.Errorf("Unmarshal extension (-want, +got):\n%s", diff)
	}
}
