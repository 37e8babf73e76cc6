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
	"context"

	"github.com/cloudwego/marketflow/internal/pipeline"
	"golang.org/x/sync/errgroup"
)

// Payload is one named workflow input, e.g. the content of a file.
type Payload struct {
	Name string
	Data any
}

type BatchResult struct {
	Name   string           `json:"name"`
	Result *pipeline.Result `json:"result"`
}

// RunBatch runs every payload on p with at most limit runs in flight.
// Results keep the order of payloads; a failed run does not stop the others.
func RunBatch(ctx context.Context, p *pipeline.Pipeline, payloads []Payload, limit int) []BatchResult {
	results := make([]BatchResult, len(payloads))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, pl := range payloads {
		i, pl := i, pl
		g.Go(func() error {
			results[i] = BatchResult{Name: pl.Name, Result: p.Run(ctx, pl.Data)}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
