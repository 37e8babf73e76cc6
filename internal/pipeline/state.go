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
	"time"
)

// Result is the outcome of one pipeline invocation: either Output conforms
// to the pipeline's output shape, or Err names the failing step.
type Result struct {
	RunID      string        `json:"runId"`
	PipelineID string        `json:"pipeline"`
	Output     any           `json:"output,omitempty"`
	Err        *StepError    `json:"error,omitempty"`
	Trace      []StepRecord  `json:"trace"`
	StartedAt  time.Time     `json:"startedAt"`
	Duration   time.Duration `json:"duration"`
}

func (r *Result) OK() bool { return r.Err == nil }

// Unwrap returns the output, or the step failure as an error.
func (r *Result) Unwrap() (any, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Output, nil
}

// StepRecord is an immutable log entry for one step execution.
type StepRecord struct {
	StepID   string        `json:"step"`
	Status   StepStatus    `json:"status"`
	Error    string        `json:"error,omitempty"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Output   *Snapshot     `json:"output,omitempty"`
}

// StepStatus is the outcome of a step run.
type StepStatus string

const (
	StepOK     StepStatus = "ok"
	StepFailed StepStatus = "failed"
)
