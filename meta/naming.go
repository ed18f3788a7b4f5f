// Copyright (C) 2025 Michael J. Fromberger. All Rights Reserved.

package meta

import (
	"fmt"

	"github.com/iancoleman/strcase"
)

// A NamingPolicy derives the JSON property name of a struct field that does
// not have an explicit name in its tag.
type NamingPolicy string

// Constants defining the supported naming policies.
const (
	NameAsIs   NamingPolicy = ""       // use the field name unchanged
	CamelCase  NamingPolicy = "camel"  // fieldName
	PascalCase NamingPolicy = "pascal" // FieldName
	SnakeCase  NamingPolicy = "snake"  // field_name
	KebabCase  NamingPolicy = "kebab"  // field-name
)

// Check reports an error if p is not a supported policy.
func (p NamingPolicy) Check() error {
	switch p {
	case NameAsIs, CamelCase, PascalCase, SnakeCase, KebabCase:
		return nil
	}
	return fmt.Errorf("unknown naming policy %q", string(p))
}

// Apply returns the property name for a field with the given name.
func (p NamingPolicy) Apply(name string) string {
	switch p {
	case CamelCase:
		return strcase.ToLowerCamel(name)
	case PascalCase:
		return strcase.ToCamel(name)
	case SnakeCase:
		return strcase.ToSnake(name)
	case KebabCase:
		return strcase.ToKebab(name)
	default:
		return name
	}
}
