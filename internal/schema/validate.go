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
	"fmt"
	"reflect"
	"strconv"

	"github.com/pkg/errors"
)

// SchemaError locates the first value that does not conform to a schema.
type SchemaError struct {
	Path     string // dotted/indexed locator, "$" for the root value
	Expected string
	Received string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema mismatch at %s: expected %s, received %s", e.Path, e.Expected, e.Received)
}

// Validate checks v against s and returns v unchanged when it conforms.
// v must be JSON-like (see Normalize). Checking stops at the first violation.
func Validate(v any, s *Schema) (any, error) {
	if err := validate("$", v, s); err != nil {
		return nil, err
	}
	return v, nil
}

func validate(path string, v any, s *Schema) error {
	if s.IsAny() {
		return nil
	}
	switch s.Kind {
	case KindString:
		if _, ok := v.(string); !ok {
			return mismatch(path, s, v)
		}
	case KindNumber:
		if !isNumber(v) {
			return mismatch(path, s, v)
		}
	case KindBoolean:
		if _, ok := v.(bool); !ok {
			return mismatch(path, s, v)
		}
	case KindObject:
		m, ok := v.(map[string]any)
		if !ok {
			return mismatch(path, s, v)
		}
		for _, f := range s.Fields {
			fv, present := m[f.Name]
			fp := fieldPath(path, f.Name)
			if !present {
				if f.Optional {
					continue
				}
				return &SchemaError{Path: fp, Expected: f.Schema.String(), Received: "missing"}
			}
			if err := validate(fp, fv, f.Schema); err != nil {
				return err
			}
		}
	case KindArray:
		if arr, ok := v.([]any); ok {
			for i, ev := range arr {
				if err := validate(indexPath(path, i), ev, s.Elem); err != nil {
					return err
				}
			}
			return nil
		}
		rv := reflect.ValueOf(v)
		if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
			return mismatch(path, s, v)
		}
		for i := 0; i < rv.Len(); i++ {
			if err := validate(indexPath(path, i), rv.Index(i).Interface(), s.Elem); err != nil {
				return err
			}
		}
	default:
		return &SchemaError{Path: path, Expected: string(s.Kind), Received: "unsupported schema kind"}
	}
	return nil
}

func mismatch(path string, s *Schema, v any) *SchemaError {
	return &SchemaError{Path: path, Expected: s.String(), Received: Describe(v)}
}

func fieldPath(parent, name string) string {
	if parent == "$" {
		return name
	}
	return parent + "." + name
}

func indexPath(parent string, i int) string {
	return parent + "[" + strconv.Itoa(i) + "]"
}

func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, json.Number:
		return true
	}
	return false
}

// Describe names the JSON kind of v.
func Describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	}
	if isNumber(v) {
		return "number"
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}

// Normalize converts v into its JSON-like form (map[string]any, []any,
// string, float64, bool, nil) by a JSON round trip.
func Normalize(v any) (any, error) {
	switch v.(type) {
	case nil, string, bool, float64:
		return v, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "normalize value")
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrap(err, "normalize value")
	}
	return out, nil
}

// Decode fills dst from a JSON-like value.
func Decode(v any, dst any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "decode value")
	}
	return errors.Wrap(json.Unmarshal(raw, dst), "decode value")
}
