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

package workflow

import (
	"github.com/cloudwego/marketflow/internal/pipeline"
	"github.com/invopop/jsonschema"
)

type StepDescription struct {
	ID     string             `json:"id"`
	Input  *jsonschema.Schema `json:"input"`
	Output *jsonschema.Schema `json:"output"`
}

type Description struct {
	ID     string             `json:"id"`
	Input  *jsonschema.Schema `json:"input"`
	Output *jsonschema.Schema `json:"output"`
	Steps  []StepDescription  `json:"steps"`
}

// Describe lists the steps of p in execution order with their shapes as
// JSON Schema.
func Describe(p *pipeline.Pipeline) (Description, error) {
	d := Description{
		ID:     p.ID(),
		Input:  p.InputShape().JSONSchema(),
		Output: p.OutputShape().JSONSchema(),
	}
	order, err := Order(p)
	if err != nil {
		return d, err
	}
	byID := make(map[string]pipeline.Step, len(order))
	for _, s := range p.Steps() {
		byID[s.ID()] = s
	}
	for _, id := range order {
		s := byID[id]
		d.Steps = append(d.Steps, StepDescription{
			ID:     id,
			Input:  s.InputShape().JSONSchema(),
			Output: s.OutputShape().JSONSchema(),
		})
	}
	return d, nil
}
