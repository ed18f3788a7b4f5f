// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

package meta

import (
	"fmt"
	"iter"
	"reflect"
	"slices"
	"strings"
)

// PropertyMetadata describes a single property of an Object type.
type PropertyMetadata struct {
	Name  string       // the JSON property name
	Field string       // the name of the struct field
	Index []int        // the field index sequence, for reflect.Value.FieldByIndex
	Type  reflect.Type // the type of the field

	// ReadOnly properties are decoded and checked, but the result is
	// discarded and the field is not set.
	ReadOnly bool

	// IgnoreNull properties are not set when the input value is null.
	IgnoreNull bool

	// Extension is true for the property that receives unmapped properties.
	Extension bool
}

// A PropertyTable is an ordered collection of properties, indexed by name.
type PropertyTable struct {
	props         []*PropertyMetadata
	exact         map[string]*PropertyMetadata
	folded        map[string][]*PropertyMetadata
	caseSensitive bool
}

func newPropertyTable(props []*PropertyMetadata, caseSensitive bool) *PropertyTable {
	pt := &PropertyTable{
		props:         props,
		exact:         make(map[string]*PropertyMetadata, len(props)),
		caseSensitive: caseSensitive,
	}
	if !caseSensitive {
		pt.folded = make(map[string][]*PropertyMetadata, len(props))
	}
	for _, p := range props {
		pt.exact[p.Name] = p
		if !caseSensitive {
			key := strings.ToLower(p.Name)
			pt.folded[key] = append(pt.folded[key], p)
		}
	}
	return pt
}

// Len reports the number of properties in pt.
func (pt *PropertyTable) Len() int { return len(pt.props) }

// All iterates over the properties of pt in declaration order.
func (pt *PropertyTable) All() iter.Seq[*PropertyMetadata] { return slices.Values(pt.props) }

// Lookup returns the property with the given name, or nil if there is none.
//
// An exact match is preferred. Otherwise, unless the table is case-sensitive,
// a property whose name matches without regard to case is returned, provided
// there is exactly one. If several properties match, Lookup reports an error
// wrapping ErrAmbiguousProperty.
func (pt *PropertyTable) Lookup(name string) (*PropertyMetadata, error) {
	if p, ok := pt.exact[name]; ok {
		return p, nil
	} else if pt.caseSensitive {
		return nil, nil
	}
	switch c := pt.folded[strings.ToLower(name)]; len(c) {
	case 0:
		return nil, nil
	case 1:
		return c[0], nil
	default:
		names := make([]string, len(c))
		for i, p := range c {
			names[i] = p.Name
		}
		return nil, fmt.Errorf("%w: %q matches %s", ErrAmbiguousProperty, name, strings.Join(names, ", "))
	}
}

// field is a candidate property found while walking a struct.
type field struct {
	*PropertyMetadata
	tagged bool // the name came from a tag
}

// structProps returns the properties of the struct type t in declaration
// order, and its extension property if it has one.
//
// Fields of embedded structs are promoted as in encoding/json: among fields
// with the same name the shallowest wins, and if several are equally shallow
// the one with a tag name wins. If that does not settle it, the name is
// dropped.
func structProps(t reflect.Type, naming NamingPolicy) ([]*PropertyMetadata, *PropertyMetadata, error) {
	type walk struct {
		typ   reflect.Type
		index []int
	}
	var fields []field
	var ext *PropertyMetadata

	visited := make(map[reflect.Type]bool)
	next := []walk{{typ: t}}
	for len(next) != 0 {
		cur := next
		next = nil
		for _, w := range cur {
			if visited[w.typ] {
				continue
			}
			visited[w.typ] = true

			for i := range w.typ.NumField() {
				sf := w.typ.Field(i)
				ft := sf.Type
				if sf.Anonymous {
					if ft.Kind() == reflect.Pointer {
						if !sf.IsExported() {
							continue // cannot be allocated
						}
						ft = ft.Elem()
					}
					if !sf.IsExported() && ft.Kind() != reflect.Struct {
						continue
					}
				} else if !sf.IsExported() {
					continue
				}

				tag := sf.Tag.Get("json")
				if tag == "-" {
					continue
				}
				name, _, _ := strings.Cut(tag, ",")
				index := append(slices.Clip(w.index), i)

				if sf.Anonymous && name == "" && ft.Kind() == reflect.Struct {
					next = append(next, walk{typ: ft, index: index})
					continue
				} else if !sf.IsExported() {
					continue
				}

				p := &PropertyMetadata{
					Name:  name,
					Field: sf.Name,
					Index: index,
					Type:  sf.Type,
				}
				if name == "" {
					p.Name = naming.Apply(sf.Name)
				}
				for opt := range strings.SplitSeq(sf.Tag.Get("jbind"), ",") {
					switch strings.TrimSpace(opt) {
					case "readonly":
						p.ReadOnly = true
					case "ignorenull":
						p.IgnoreNull = true
					case "extension":
						p.Extension = true
					}
				}
				if p.Extension {
					if ext != nil {
						return nil, nil, fmt.Errorf("%w: %s and %s", ErrMultipleExtension, ext.Field, p.Field)
					} else if !isExtensionType(p.Type) {
						return nil, nil, fmt.Errorf("%w: field %s has type %v", ErrExtensionData, p.Field, p.Type)
					}
					ext = p
					continue
				}
				fields = append(fields, field{PropertyMetadata: p, tagged: name != ""})
			}
		}
	}

	// Group by name, keeping the dominant field of each group.
	slices.SortStableFunc(fields, func(a, b field) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		} else if c := len(a.Index) - len(b.Index); c != 0 {
			return c
		} else if a.tagged != b.tagged {
			if a.tagged {
				return -1
			}
			return 1
		}
		return 0
	})
	var out []*PropertyMetadata
	for i := 0; i < len(fields); {
		j := i + 1
		for j < len(fields) && fields[j].Name == fields[i].Name {
			j++
		}
		if p, ok := dominant(fields[i:j]); ok {
			out = append(out, p)
		}
		i = j
	}
	slices.SortFunc(out, func(a, b *PropertyMetadata) int { return slices.Compare(a.Index, b.Index) })
	return out, ext, nil
}

// dominant returns the field that wins among fs, which all have the same name
// and are sorted by depth and then by tag.
func dominant(fs []field) (*PropertyMetadata, bool) {
	if len(fs) > 1 && len(fs[0].Index) == len(fs[1].Index) && fs[0].tagged == fs[1].tagged {
		return nil, false
	}
	return fs[0].PropertyMetadata, true
}

// isExtensionType reports whether t can hold extension data.
func isExtensionType(t reflect.Type) bool {
	return t.Kind() == reflect.Map && t.Key().Kind() == reflect.String &&
		t.Elem().Kind() == reflect.Interface && t.Elem().NumMethod() == 0
}
