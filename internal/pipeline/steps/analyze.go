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

package steps

import (
	"context"
	"strings"
	"time"

	"github.com/cloudwego/marketflow/internal/log"
	"github.com/cloudwego/marketflow/internal/pipeline"
	"github.com/cloudwego/marketflow/llm"
	"github.com/cloudwego/marketflow/llm/prompt"
	"github.com/pkg/errors"
)

const (
	DefaultAnalysisTimeout = 60 * time.Second

	fallbackAnalysis = "AI analysis unavailable - fallback analysis: Data appears to be processed successfully but detailed insights could not be generated."
)

var errEmptyAnalysis = errors.New("reasoning service returned an empty analysis")

type AnalysisOptions struct {
	Generator llm.Generator
	Advisor   Advisor       // default: NewFixedAdvisor()
	Timeout   time.Duration // default: DefaultAnalysisTimeout
}

// AnalysisStep asks the reasoning service about processed data. It never
// fails: any service failure yields a degraded fallback outcome.
type AnalysisStep struct {
	gen     llm.Generator
	advisor Advisor
	timeout time.Duration
}

func NewAnalysisStep(opts AnalysisOptions) *AnalysisStep {
	if opts.Advisor == nil {
		opts.Advisor = NewFixedAdvisor()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultAnalysisTimeout
	}
	return &AnalysisStep{
		gen:     opts.Generator,
		advisor: opts.Advisor,
		timeout: opts.Timeout,
	}
}

// Step registers the analysis as the ai-analysis pipeline step.
func (s *AnalysisStep) Step() pipeline.Step {
	return pipeline.Typed(StepAIAnalysis, func(ctx context.Context, in ProcessedData) (AnalysisOutcome, error) {
		return s.Analyze(ctx, in), nil
	})
}

func (s *AnalysisStep) Analyze(ctx context.Context, in ProcessedData) AnalysisOutcome {
	text, err := s.generate(ctx, in)
	if err != nil {
		log.Error("%s: reasoning service failed, using fallback: %v", StepAIAnalysis, err)
		adv := s.advisor.Advise(s.adviceInput(in, true, 0))
		return AnalysisOutcome{
			OriginalData:    in.ProcessedData,
			AIAnalysis:      fallbackAnalysis,
			Recommendations: nonNil(adv.Recommendations),
			ConfidenceScore: clampScore(adv.Confidence),
			Degraded:        true,
		}
	}
	adv := s.advisor.Advise(s.adviceInput(in, false, len(text)))
	return AnalysisOutcome{
		OriginalData:    in.ProcessedData,
		AIAnalysis:      text,
		Recommendations: nonNil(adv.Recommendations),
		ConfidenceScore: clampScore(adv.Confidence),
	}
}

func (s *AnalysisStep) adviceInput(in ProcessedData, degraded bool, n int) AdviceInput {
	return AdviceInput{
		Degraded:       degraded,
		DataSize:       in.Metrics.DataSize,
		ProcessingTime: in.Metrics.ProcessingTime,
		AnalysisLength: n,
	}
}

func (s *AnalysisStep) generate(ctx context.Context, in ProcessedData) (string, error) {
	if s.gen == nil {
		return "", errors.New("no reasoning service configured")
	}
	p, err := prompt.RenderAnalysis(prompt.AnalysisData{
		ProcessedData:  in.ProcessedData,
		Summary:        in.Summary,
		ProcessingTime: in.Metrics.ProcessingTime,
		DataSize:       in.Metrics.DataSize,
	})
	if err != nil {
		return "", err
	}
	text, err := s.call(ctx, p)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", errEmptyAnalysis
	}
	return text, nil
}

type reply struct {
	text string
	err  error
}

// call bounds the generator by the step timeout and turns panics into errors.
func (s *AnalysisStep) call(ctx context.Context, input string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ch := make(chan reply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- reply{err: errors.Errorf("reasoning service panic: %v", r)}
			}
		}()
		text, err := s.gen.Call(ctx, input)
		ch <- reply{text: text, err: err}
	}()

	select {
	case r := <-ch:
		return r.text, r.err
	case <-ctx.Done():
		return "", errors.Wrapf(ctx.Err(), "reasoning service did not answer within %s", s.timeout)
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
