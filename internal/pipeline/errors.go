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
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrNoSteps       = errors.New("pipeline has no steps")
	ErrNilStep       = errors.New("step must be set")
	ErrEmptyStepID   = errors.New("step id must be set")
	ErrDuplicateStep = errors.New("duplicate step id")
	ErrStepPanic     = errors.New("step panicked")
)

// Phase is where within a step a failure happened.
type Phase string

const (
	PhaseInput  Phase = "input"
	PhaseRun    Phase = "run"
	PhaseOutput Phase = "output"
)

// StepError is the structured failure of one pipeline run. It always names
// exactly one step.
type StepError struct {
	StepID string
	Phase  Phase
	Cause  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q failed (%s): %v", e.StepID, e.Phase, e.Cause)
}

func (e *StepError) Unwrap() error { return e.Cause }

func (e *StepError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Step    string `json:"step"`
		Phase   Phase  `json:"phase"`
		Message string `json:"message"`
	}{e.StepID, e.Phase, fmt.Sprint(e.Cause)})
}

// WiringError reports adjacent steps whose shapes do not fit. From or To is
// "<input>"/"<output>" when a declared pipeline shape is involved.
type WiringError struct {
	Pipeline string
	From     string
	To       string
	Cause    error
}

func (e *WiringError) Error() string {
	return fmt.Sprintf("pipeline %q: output of %q is not assignable to input of %q: %v",
		e.Pipeline, e.From, e.To, e.Cause)
}

func (e *WiringError) Unwrap() error { return e.Cause }

const (
	boundaryInput  = "<input>"
	boundaryOutput = "<output>"
)
