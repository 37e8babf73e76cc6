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
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/cloudwego/marketflow/internal/schema"
)

// Pipeline runs steps in sequence, threading each step's output into the
// next step's input. It is committed by New and never changes afterwards, so
// one Pipeline may serve any number of concurrent Run calls.
type Pipeline struct {
	id       string
	steps    []Step
	observer Observer
}

type buildOptions struct {
	input    *schema.Schema
	output   *schema.Schema
	observer Observer
}

type Option func(*buildOptions)

// WithInputShape declares what callers will submit; it must fit the first
// step's input.
func WithInputShape(s *schema.Schema) Option {
	return func(o *buildOptions) { o.input = s }
}

// WithOutputShape declares what callers expect back; the last step's output
// must fit it.
func WithOutputShape(s *schema.Schema) Option {
	return func(o *buildOptions) { o.output = s }
}

func WithObserver(obs Observer) Option {
	return func(o *buildOptions) { o.observer = obs }
}

// New checks that adjacent steps fit together and commits the pipeline.
// Every incompatibility is reported here, never at run time.
func New(id string, steps []Step, opts ...Option) (*Pipeline, error) {
	o := buildOptions{observer: LogObserver{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.observer == nil {
		o.observer = nopObserver{}
	}

	if len(steps) == 0 {
		return nil, errors.Wrapf(ErrNoSteps, "pipeline %q", id)
	}
	seen := make(map[string]struct{}, len(steps))
	for i, step := range steps {
		if step == nil {
			return nil, errors.Wrapf(ErrNilStep, "pipeline %q: step %d", id, i)
		}
		if step.ID() == "" {
			return nil, errors.Wrapf(ErrEmptyStepID, "pipeline %q: step %d", id, i)
		}
		if _, ok := seen[step.ID()]; ok {
			return nil, errors.Wrapf(ErrDuplicateStep, "pipeline %q: %q", id, step.ID())
		}
		seen[step.ID()] = struct{}{}
	}

	first, last := steps[0], steps[len(steps)-1]
	if o.input != nil {
		if err := schema.Assignable(o.input, first.InputShape()); err != nil {
			return nil, &WiringError{Pipeline: id, From: boundaryInput, To: first.ID(), Cause: err}
		}
	}
	for i := 0; i+1 < len(steps); i++ {
		from, to := steps[i], steps[i+1]
		if err := schema.Assignable(from.OutputShape(), to.InputShape()); err != nil {
			return nil, &WiringError{Pipeline: id, From: from.ID(), To: to.ID(), Cause: err}
		}
	}
	if o.output != nil {
		if err := schema.Assignable(last.OutputShape(), o.output); err != nil {
			return nil, &WiringError{Pipeline: id, From: last.ID(), To: boundaryOutput, Cause: err}
		}
	}

	return &Pipeline{
		id:       id,
		steps:    append([]Step(nil), steps...),
		observer: o.observer,
	}, nil
}

func (p *Pipeline) ID() string { return p.id }

// Steps returns a copy of the committed step list.
func (p *Pipeline) Steps() []Step {
	return append([]Step(nil), p.steps...)
}

func (p *Pipeline) InputShape() *schema.Schema { return p.steps[0].InputShape() }

func (p *Pipeline) OutputShape() *schema.Schema { return p.steps[len(p.steps)-1].OutputShape() }

// Run executes all steps against input. Each step's input is validated
// before it runs and its output right after; the first failure stops the run.
// Run never returns a nil Result and never panics on a misbehaving step.
func (p *Pipeline) Run(ctx context.Context, input any) *Result {
	res := &Result{
		RunID:      uuid.NewString(),
		PipelineID: p.id,
		StartedAt:  time.Now(),
		Trace:      make([]StepRecord, 0, len(p.steps)),
	}
	defer func() { res.Duration = time.Since(res.StartedAt) }()

	current, err := schema.Normalize(input)
	if err != nil {
		res.Err = &StepError{StepID: p.steps[0].ID(), Phase: PhaseInput, Cause: err}
		return res
	}

	for _, step := range p.steps {
		p.observer.OnStepStart(ctx, res.RunID, step)
		out, rec, serr := runStep(ctx, step, current)
		res.Trace = append(res.Trace, rec)
		p.observer.OnStepEnd(ctx, res.RunID, rec)
		if serr != nil {
			res.Err = serr
			return res
		}
		current = out
	}
	res.Output = current
	return res
}

func runStep(ctx context.Context, step Step, input any) (any, StepRecord, *StepError) {
	rec := StepRecord{StepID: step.ID(), Started: time.Now()}
	fail := func(phase Phase, cause error) (any, StepRecord, *StepError) {
		rec.Status = StepFailed
		rec.Error = cause.Error()
		rec.Duration = time.Since(rec.Started)
		return nil, rec, &StepError{StepID: step.ID(), Phase: phase, Cause: cause}
	}

	if err := ctx.Err(); err != nil {
		return fail(PhaseRun, err)
	}
	if _, err := schema.Validate(input, step.InputShape()); err != nil {
		return fail(PhaseInput, err)
	}
	raw, err := safeRun(ctx, step, input)
	if err != nil {
		return fail(PhaseRun, err)
	}
	// A wrong output is a bug in the step itself, so it is fatal here.
	out, err := schema.Normalize(raw)
	if err != nil {
		return fail(PhaseOutput, err)
	}
	if _, err := schema.Validate(out, step.OutputShape()); err != nil {
		return fail(PhaseOutput, err)
	}

	js, _ := json.Marshal(out)
	rec.Status = StepOK
	rec.Output = NewSnapshot(step.ID(), out, js)
	rec.Duration = time.Since(rec.Started)
	return out, rec, nil
}

func safeRun(ctx context.Context, step Step, input any) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(ErrStepPanic, "%v", r)
		}
	}()
	return step.Run(ctx, input)
}
