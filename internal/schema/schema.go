// Copyright 2025 ByteDance Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package schema describes the shape of JSON-like values and validates values
// against those shapes. Schemas are plain data and safe to share.
package schema

import (
	"strings"
)

// Kind is the top-level type of a value.
type Kind string

const (
	KindAny     Kind = "any"
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindObject  Kind = "object"
	KindArray   Kind = "array"
)

// Schema is a declarative shape. A nil *Schema behaves like Any().
type Schema struct {
	Kind        Kind
	Fields      []Field // KindObject only, in declaration order
	Elem        *Schema // KindArray only
	Description string
}

// Field is a named member of an object schema.
type Field struct {
	Name     string
	Schema   *Schema
	Optional bool
}

func Any() *Schema     { return &Schema{Kind: KindAny} }
func String() *Schema  { return &Schema{Kind: KindString} }
func Number() *Schema  { return &Schema{Kind: KindNumber} }
func Boolean() *Schema { return &Schema{Kind: KindBoolean} }

// Object declares an object with the given fields. Extra fields are always
// permitted on values.
func Object(fields ...Field) *Schema {
	return &Schema{Kind: KindObject, Fields: fields}
}

// Array declares a homogeneous array of elem.
func Array(elem *Schema) *Schema {
	return &Schema{Kind: KindArray, Elem: elem}
}

func Required(name string, s *Schema) Field {
	return Field{Name: name, Schema: s}
}

func Optional(name string, s *Schema) Field {
	return Field{Name: name, Schema: s, Optional: true}
}

// WithDescription returns a copy of s carrying desc.
func (s *Schema) WithDescription(desc string) *Schema {
	cp := *s.orAny()
	cp.Description = desc
	return &cp
}

// IsAny reports whether s accepts every value.
func (s *Schema) IsAny() bool {
	return s == nil || s.Kind == KindAny || s.Kind == ""
}

// Field looks up a declared object field by name.
func (s *Schema) Field(name string) (Field, bool) {
	if s == nil {
		return Field{}, false
	}
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (s *Schema) orAny() *Schema {
	if s == nil {
		return Any()
	}
	return s
}

// String renders s in a compact, TypeScript-like notation, e.g.
// {original: any, tags?: string[]}.
func (s *Schema) String() string {
	var sb strings.Builder
	s.write(&sb)
	return sb.String()
}

func (s *Schema) write(sb *strings.Builder) {
	if s.IsAny() {
		sb.WriteString(string(KindAny))
		return
	}
	switch s.Kind {
	case KindObject:
		sb.WriteByte('{')
		for i, f := range s.Fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(f.Name)
			if f.Optional {
				sb.WriteByte('?')
			}
			sb.WriteString(": ")
			f.Schema.write(sb)
		}
		sb.WriteByte('}')
	case KindArray:
		if s.Elem != nil && s.Elem.Kind == KindObject {
			sb.WriteString("Array<")
			s.Elem.write(sb)
			sb.WriteByte('>')
			return
		}
		s.Elem.write(sb)
		sb.WriteString("[]")
	default:
		sb.WriteString(string(s.Kind))
	}
}
