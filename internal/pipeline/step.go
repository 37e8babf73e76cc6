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

package pipeline

import (
	"context"
	"reflect"

	"github.com/cloudwego/marketflow/internal/schema"
)

// Step is one typed unit of work. Implementations must not keep per-run
// state: a committed Pipeline may run the same Step concurrently.
type Step interface {
	ID() string
	InputShape() *schema.Schema
	OutputShape() *schema.Schema
	Run(ctx context.Context, input any) (any, error)
}

// StepFunc transforms a JSON-like input value.
type StepFunc func(ctx context.Context, input any) (any, error)

// NewStep builds a Step from explicit shapes and a function.
func NewStep(id string, in, out *schema.Schema, fn StepFunc) Step {
	return &funcStep{id: id, in: in, out: out, fn: fn}
}

type funcStep struct {
	id      string
	in, out *schema.Schema
	fn      StepFunc
}

func (s *funcStep) ID() string                  { return s.id }
func (s *funcStep) InputShape() *schema.Schema  { return s.in }
func (s *funcStep) OutputShape() *schema.Schema { return s.out }

func (s *funcStep) Run(ctx context.Context, input any) (any, error) {
	return s.fn(ctx, input)
}

// Typed builds a Step whose shapes are reflected from I and O. The input is
// decoded into an I before fn runs.
func Typed[I, O any](id string, fn func(ctx context.Context, in I) (O, error)) Step {
	return &typedStep[I, O]{
		id:  id,
		in:  ShapeOf[I](),
		out: ShapeOf[O](),
		fn:  fn,
	}
}

type typedStep[I, O any] struct {
	id      string
	in, out *schema.Schema
	fn      func(ctx context.Context, in I) (O, error)
}

func (s *typedStep[I, O]) ID() string                  { return s.id }
func (s *typedStep[I, O]) InputShape() *schema.Schema  { return s.in }
func (s *typedStep[I, O]) OutputShape() *schema.Schema { return s.out }

func (s *typedStep[I, O]) Run(ctx context.Context, input any) (any, error) {
	var in I
	if err := schema.Decode(input, &in); err != nil {
		return nil, err
	}
	return s.fn(ctx, in)
}

// ShapeOf reflects the schema of T. Interface types are unconstrained.
func ShapeOf[T any]() *schema.Schema {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() == reflect.Interface {
		return schema.Any()
	}
	return schema.Reflect(reflect.New(t).Interface())
}
