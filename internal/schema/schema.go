// Package schema describes the JSON shape an LLM is expected to produce and
// checks decoded values against it.
//
// A Schema is an explicit value built by the caller, either with Object and
// the type helpers or decoded from a JSON/YAML document. It is never derived
// from Go types at runtime.
package schema

import (
	"fmt"
	"slices"
)

// Type names a JSON value kind.
type Type string

const (
	TypeString  Type = "string"
	TypeInteger Type = "integer"
	TypeNumber  Type = "number"
	TypeBoolean Type = "boolean"
	TypeArray   Type = "array"
	TypeObject  Type = "object"
	TypeNull    Type = "null"
)

func (t Type) known() bool {
	switch t {
	case "", TypeString, TypeInteger, TypeNumber, TypeBoolean, TypeArray, TypeObject, TypeNull:
		return true
	}
	return false
}

// Schema is a subset of JSON Schema sufficient to describe structured LLM output.
// An empty Type accepts any value.
type Schema struct {
	Title       string             `json:"title,omitempty" yaml:"title,omitempty"`
	Description string             `json:"description,omitempty" yaml:"description,omitempty"`
	Type        Type               `json:"type,omitempty" yaml:"type,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty" yaml:"properties,omitempty"`
	Required    []string           `json:"required,omitempty" yaml:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty" yaml:"items,omitempty"`
	Enum        []any              `json:"enum,omitempty" yaml:"enum,omitempty"`
	Nullable    bool               `json:"nullable,omitempty" yaml:"nullable,omitempty"`
}

// Field declares one property of an object schema.
type Field struct {
	Name        string
	Description string
	Required    bool
	Schema      *Schema
}

// Object builds an object schema from an ordered field list. The required
// list keeps field order.
func Object(title string, fields ...Field) *Schema {
	s := &Schema{
		Title:      title,
		Type:       TypeObject,
		Properties: make(map[string]*Schema, len(fields)),
	}
	for _, f := range fields {
		prop := &Schema{}
		if f.Schema != nil {
			cp := *f.Schema
			prop = &cp
		}
		if f.Description != "" {
			prop.Description = f.Description
		}
		s.Properties[f.Name] = prop
		if f.Required {
			s.Required = append(s.Required, f.Name)
		}
	}
	return s
}

func String() *Schema  { return &Schema{Type: TypeString} }
func Integer() *Schema { return &Schema{Type: TypeInteger} }
func Number() *Schema  { return &Schema{Type: TypeNumber} }
func Boolean() *Schema { return &Schema{Type: TypeBoolean} }

// ArrayOf returns an array schema whose elements match items.
func ArrayOf(items *Schema) *Schema {
	return &Schema{Type: TypeArray, Items: items}
}

// Enum returns a string schema restricted to values.
func Enum(values ...string) *Schema {
	s := &Schema{Type: TypeString}
	for _, v := range values {
		s.Enum = append(s.Enum, v)
	}
	return s
}

// Check reports structural mistakes in the schema itself: unknown types,
// required names without a property, arrays without items.
func (s *Schema) Check() error {
	if s == nil {
		return fmt.Errorf("schema is nil")
	}
	return s.check("")
}

func (s *Schema) check(path string) error {
	if !s.Type.known() {
		return fmt.Errorf("%s: unknown type %q", displayPath(path), s.Type)
	}
	switch s.Type {
	case TypeArray:
		if s.Items == nil {
			return fmt.Errorf("%s: array schema needs items", displayPath(path))
		}
		if err := s.Items.check(path + "[]"); err != nil {
			return err
		}
	case TypeObject:
		for _, name := range s.Required {
			if _, ok := s.Properties[name]; !ok {
				return fmt.Errorf("%s: required property %q is not declared", displayPath(path), name)
			}
		}
	}
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		prop := s.Properties[name]
		if prop == nil {
			return fmt.Errorf("%s: property schema is nil", displayPath(join(path, name)))
		}
		if err := prop.check(join(path, name)); err != nil {
			return err
		}
	}
	return nil
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func displayPath(path string) string {
	if path == "" {
		return "(root)"
	}
	return path
}
