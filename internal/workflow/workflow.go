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

// Package workflow assembles the log-processing pipeline.
package workflow

import (
	"time"

	"github.com/cloudwego/marketflow/internal/pipeline"
	"github.com/cloudwego/marketflow/internal/pipeline/steps"
	"github.com/cloudwego/marketflow/llm"
)

const ID = "log-processing-workflow"

// Deps are the collaborators of the workflow. Zero values fall back to
// defaults except Generator: without it every analysis is degraded.
type Deps struct {
	Generator llm.Generator
	Advisor   steps.Advisor
	Clock     steps.Clock
	Timeout   time.Duration // analysis timeout
	Observer  pipeline.Observer
}

// New builds and commits the workflow:
// log-insight -> clean-data -> final-process -> ai-analysis.
func New(d Deps) (*pipeline.Pipeline, error) {
	analysis := steps.NewAnalysisStep(steps.AnalysisOptions{
		Generator: d.Generator,
		Advisor:   d.Advisor,
		Timeout:   d.Timeout,
	})
	opts := []pipeline.Option{
		pipeline.WithOutputShape(pipeline.ShapeOf[steps.AnalysisOutcome]()),
	}
	if d.Observer != nil {
		opts = append(opts, pipeline.WithObserver(d.Observer))
	}
	return pipeline.New(ID, []pipeline.Step{
		steps.NewInsightStep(),
		steps.NewCleanStep(d.Clock),
		steps.NewFinalizeStep(d.Clock),
		analysis.Step(),
	}, opts...)
}
