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

package schema

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

var reflector = &jsonschema.Reflector{
	DoNotReference:            true,
	AllowAdditionalProperties: true,
}

// Reflect derives a Schema from a Go value's type using its json tags.
// Fields without omitempty are required; interface fields become Any.
func Reflect(v any) *Schema {
	return FromJSONSchema(reflector.Reflect(v))
}

// GetJSONSchema returns the JSON Schema document of v's type, e.g. for MCP tool arguments.
func GetJSONSchema(v any) json.RawMessage {
	bs, err := json.Marshal(reflector.Reflect(v))
	if err != nil {
		panic(err)
	}
	return bs
}

// FromJSONSchema converts the subset of JSON Schema this package models.
// Anything it cannot express (unions, refs) becomes Any.
func FromJSONSchema(js *jsonschema.Schema) *Schema {
	if js == nil {
		return Any()
	}
	var s *Schema
	switch js.Type {
	case "string":
		s = String()
	case "number", "integer":
		s = Number()
	case "boolean":
		s = Boolean()
	case "array":
		s = Array(FromJSONSchema(js.Items))
	case "object":
		s = Object(objectFields(js)...)
	case "":
		if js.Properties != nil && js.Properties.Len() > 0 {
			s = Object(objectFields(js)...)
		} else {
			s = Any()
		}
	default:
		s = Any()
	}
	s.Description = js.Description
	return s
}

func objectFields(js *jsonschema.Schema) []Field {
	if js.Properties == nil {
		return nil
	}
	required := make(map[string]bool, len(js.Required))
	for _, name := range js.Required {
		required[name] = true
	}
	fields := make([]Field, 0, js.Properties.Len())
	for pair := js.Properties.Oldest(); pair != nil; pair = pair.Next() {
		fields = append(fields, Field{
			Name:     pair.Key,
			Schema:   FromJSONSchema(pair.Value),
			Optional: !required[pair.Key],
		})
	}
	return fields
}

// JSONSchema renders s as a JSON Schema document, e.g. for tool parameters.
func (s *Schema) JSONSchema() *jsonschema.Schema {
	js := &jsonschema.Schema{}
	if s != nil {
		js.Description = s.Description
	}
	if s.IsAny() {
		return js
	}
	switch s.Kind {
	case KindObject:
		js.Type = "object"
		js.Properties = jsonschema.NewProperties()
		for _, f := range s.Fields {
			js.Properties.Set(f.Name, f.Schema.JSONSchema())
			if !f.Optional {
				js.Required = append(js.Required, f.Name)
			}
		}
	case KindArray:
		js.Type = "array"
		js.Items = s.Elem.JSONSchema()
	default:
		js.Type = string(s.Kind)
	}
	return js
}
