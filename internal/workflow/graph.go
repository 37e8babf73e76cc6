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
	"io"

	"github.com/cloudwego/marketflow/internal/pipeline"
	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
	"github.com/pkg/errors"
)

const (
	vertexInput  = "<input>"
	vertexOutput = "<output>"
)

// Graph returns the pipeline as a directed graph. Edges carry the shape
// flowing between two vertices as their label.
func Graph(p *pipeline.Pipeline) (graph.Graph[string, string], error) {
	g := graph.New(graph.StringHash, graph.Directed(), graph.Acyclic())

	if err := g.AddVertex(vertexInput, graph.VertexAttribute("shape", "plaintext")); err != nil {
		return nil, errors.Wrap(err, "unable to add vertex")
	}
	prev := vertexInput
	in := p.InputShape().String()
	for _, s := range p.Steps() {
		if err := g.AddVertex(s.ID(), graph.VertexAttribute("shape", "box")); err != nil {
			return nil, errors.Wrapf(err, "unable to add vertex %s", s.ID())
		}
		if err := g.AddEdge(prev, s.ID(), graph.EdgeAttribute("label", in)); err != nil {
			return nil, errors.Wrapf(err, "unable to add edge from %s to %s", prev, s.ID())
		}
		prev, in = s.ID(), s.OutputShape().String()
	}
	if err := g.AddVertex(vertexOutput, graph.VertexAttribute("shape", "plaintext")); err != nil {
		return nil, errors.Wrap(err, "unable to add vertex")
	}
	if err := g.AddEdge(prev, vertexOutput, graph.EdgeAttribute("label", in)); err != nil {
		return nil, errors.Wrapf(err, "unable to add edge from %s to %s", prev, vertexOutput)
	}
	return g, nil
}

// WriteDOT renders the pipeline graph in DOT format.
func WriteDOT(p *pipeline.Pipeline, w io.Writer) error {
	g, err := Graph(p)
	if err != nil {
		return err
	}
	return errors.Wrap(draw.DOT(g, w, draw.GraphAttribute("rankdir", "LR")), "unable to draw graph")
}

// Order returns the step ids in execution order.
func Order(p *pipeline.Pipeline) ([]string, error) {
	g, err := Graph(p)
	if err != nil {
		return nil, err
	}
	order, err := graph.TopologicalSort(g)
	if err != nil {
		return nil, errors.Wrap(err, "unable to sort graph")
	}
	ids := make([]string, 0, len(order))
	for _, v := range order {
		if v != vertexInput && v != vertexOutput {
			ids = append(ids, v)
		}
	}
	return ids, nil
}
