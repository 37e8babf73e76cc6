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
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cloudwego/marketflow/internal/pipeline"
	"github.com/cloudwego/marketflow/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func run(t *testing.T, step pipeline.Step, input any) any {
	t.Helper()
	p, err := pipeline.New("test", []pipeline.Step{step}, pipeline.WithObserver(nil))
	require.NoError(t, err)
	out, err := p.Run(context.Background(), input).Unwrap()
	require.NoError(t, err)
	return out
}

func TestInsightStep(t *testing.T) {
	out := run(t, NewInsightStep(), map[string]any{"user": "alice"})
	assert.Equal(t, map[string]any{
		"original": map[string]any{"user": "alice"},
		"insight":  "Initial log processing completed",
	}, out)

	out = run(t, NewInsightStep(), nil)
	assert.Equal(t, map[string]any{"original": nil, "insight": "Initial log processing completed"}, out)
}

func TestCleanStep(t *testing.T) {
	out := run(t, NewCleanStep(fixedClock), map[string]any{
		"original": map[string]any{"user": "alice", "cleaned": false},
		"insight":  "hi",
	})
	assert.Equal(t, map[string]any{
		"cleanedData": map[string]any{
			"user":             "alice",
			"cleaned":          true,
			"processedInsight": "hi",
		},
		"status": "success",
		"metadata": map[string]any{
			"processedAt":  "2024-05-01T10:00:00.000Z",
			"stepsApplied": []any{"normalization", "validation", "sanitization"},
		},
	}, out)
}

func TestCleanStep_NonObjectOriginal(t *testing.T) {
	out := run(t, NewCleanStep(fixedClock), map[string]any{"original": "raw line", "insight": "hi"})
	cleaned := out.(map[string]any)["cleanedData"].(map[string]any)
	assert.Equal(t, "raw line", cleaned["value"])
	assert.Equal(t, true, cleaned["cleaned"])

	out = run(t, NewCleanStep(fixedClock), map[string]any{"original": nil, "insight": "hi"})
	cleaned = out.(map[string]any)["cleanedData"].(map[string]any)
	assert.Len(t, cleaned, 2)
}

func TestFinalizeStep(t *testing.T) {
	later := func() time.Time { return fixedNow.Add(1500 * time.Millisecond) }
	out := run(t, NewFinalizeStep(later), map[string]any{
		"cleanedData": map[string]any{"a": "b"},
		"status":      "success",
		"metadata": map[string]any{
			"processedAt":  "2024-05-01T10:00:00.000Z",
			"stepsApplied": []any{},
		},
	})
	assert.Equal(t, map[string]any{
		"processedData": map[string]any{"a": "b"},
		"summary":       "Data processing completed successfully",
		"metrics": map[string]any{
			"processingTime": 1500.0,
			"dataSize":       float64(len(`{"a":"b"}`)),
		},
	}, out)
}

func TestJSONSize(t *testing.T) {
	for _, tc := range []struct {
		in   any
		want int
	}{
		{map[string]any{"a": "b"}, 9},
		{map[string]any{"s": "é😀"}, 11},
		{map[string]any{"s": "\u2028"}, 9},
		{map[string]any{"s": `a\u2028`}, 16},
		{map[string]any{"s": "<&>"}, 11},
		{[]any{1.5, true, nil}, 15},
	} {
		got, err := jsonSize(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%v", tc.in)
	}
}

func TestFinalizeStep_ClockSkew(t *testing.T) {
	earlier := func() time.Time { return fixedNow.Add(-time.Second) }
	out := run(t, NewFinalizeStep(earlier), map[string]any{
		"cleanedData": map[string]any{},
		"status":      "success",
		"metadata":    map[string]any{"processedAt": "2024-05-01T10:00:00.000Z", "stepsApplied": []any{}},
	})
	metrics := out.(map[string]any)["metrics"].(map[string]any)
	assert.Equal(t, 0.0, metrics["processingTime"])
}

func TestFinalizeStep_BadTimestamp(t *testing.T) {
	p, err := pipeline.New("test", []pipeline.Step{NewFinalizeStep(fixedClock)}, pipeline.WithObserver(nil))
	require.NoError(t, err)
	res := p.Run(context.Background(), map[string]any{
		"cleanedData": map[string]any{},
		"status":      "success",
		"metadata":    map[string]any{"processedAt": "yesterday", "stepsApplied": []any{}},
	})
	require.False(t, res.OK())
	assert.Equal(t, StepFinalProcess, res.Err.StepID)
	assert.Equal(t, pipeline.PhaseRun, res.Err.Phase)
}

func processed() ProcessedData {
	return ProcessedData{
		ProcessedData: map[string]any{"user": "alice", "cleaned": true},
		Summary:       "Data processing completed successfully",
		Metrics:       Metrics{ProcessingTime: 12, DataSize: 34},
	}
}

func TestAnalyze_Success(t *testing.T) {
	var got string
	gen := llm.GeneratorFunc(func(ctx context.Context, input string) (string, error) {
		got = input
		return "All requests authenticated.", nil
	})
	out := NewAnalysisStep(AnalysisOptions{Generator: gen}).Analyze(context.Background(), processed())

	assert.Equal(t, "All requests authenticated.", out.AIAnalysis)
	assert.Equal(t, 85.0, out.ConfidenceScore)
	assert.Equal(t, DefaultSuccessRecommendations, out.Recommendations)
	assert.False(t, out.Degraded)
	assert.Equal(t, processed().ProcessedData, out.OriginalData)
	assert.Contains(t, got, "\"user\": \"alice\"")
	assert.Contains(t, got, "METRICS: Processing Time: 12ms, Data Size: 34 bytes")
}

func TestAnalyze_Failures(t *testing.T) {
	cases := map[string]llm.Generator{
		"error": llm.GeneratorFunc(func(ctx context.Context, input string) (string, error) {
			return "", errors.New("503 service unavailable")
		}),
		"blank": llm.GeneratorFunc(func(ctx context.Context, input string) (string, error) {
			return "  \n", nil
		}),
		"panic": llm.GeneratorFunc(func(ctx context.Context, input string) (string, error) {
			panic("boom")
		}),
		"timeout": llm.GeneratorFunc(func(ctx context.Context, input string) (string, error) {
			<-ctx.Done()
			time.Sleep(10 * time.Millisecond)
			return "late", nil
		}),
		"nil": nil,
	}
	for name, gen := range cases {
		t.Run(name, func(t *testing.T) {
			s := NewAnalysisStep(AnalysisOptions{Generator: gen, Timeout: 50 * time.Millisecond})
			out := s.Analyze(context.Background(), processed())
			assert.True(t, out.Degraded)
			assert.Equal(t, fallbackAnalysis, out.AIAnalysis)
			assert.Equal(t, 50.0, out.ConfidenceScore)
			assert.Equal(t, DefaultFallbackRecommendations, out.Recommendations)
			assert.Equal(t, processed().ProcessedData, out.OriginalData)
		})
	}
}

func TestAnalyze_Timeout_DoesNotWait(t *testing.T) {
	gen := llm.GeneratorFunc(func(ctx context.Context, input string) (string, error) {
		time.Sleep(2 * time.Second)
		return "too late", nil
	})
	start := time.Now()
	out := NewAnalysisStep(AnalysisOptions{Generator: gen, Timeout: 20 * time.Millisecond}).
		Analyze(context.Background(), processed())
	assert.True(t, out.Degraded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestAnalysisStep_InPipeline(t *testing.T) {
	gen := llm.GeneratorFunc(func(ctx context.Context, input string) (string, error) {
		return "", errors.New("down")
	})
	out := run(t, NewAnalysisStep(AnalysisOptions{Generator: gen}).Step(), processed())
	m := out.(map[string]any)
	assert.Equal(t, 50.0, m["confidenceScore"])
	assert.Equal(t, true, m["degraded"])
	assert.True(t, strings.HasPrefix(m["aiAnalysis"].(string), "AI analysis unavailable"))
}

func TestAnalyze_Deterministic(t *testing.T) {
	var calls int32
	prompts := make([]string, 0, 2)
	gen := llm.GeneratorFunc(func(ctx context.Context, input string) (string, error) {
		atomic.AddInt32(&calls, 1)
		prompts = append(prompts, input)
		return "same", nil
	})
	s := NewAnalysisStep(AnalysisOptions{Generator: gen})
	a := s.Analyze(context.Background(), processed())
	b := s.Analyze(context.Background(), processed())
	assert.Equal(t, a, b)
	require.Len(t, prompts, 2)
	assert.Equal(t, prompts[0], prompts[1])
}

func TestFixedAdvisor_Clamps(t *testing.T) {
	a := FixedAdvisor{SuccessScore: 150, FallbackScore: -3}
	assert.Equal(t, 100.0, a.Advise(AdviceInput{}).Confidence)
	assert.Equal(t, 0.0, a.Advise(AdviceInput{Degraded: true}).Confidence)
	assert.Equal(t, []string{}, a.Advise(AdviceInput{}).Recommendations)
}

func TestExprAdvisor(t *testing.T) {
	a, err := NewExprAdvisor("degraded ? baseScore - 10 : baseScore + analysisLength", nil)
	require.NoError(t, err)

	assert.Equal(t, 40.0, a.Advise(AdviceInput{Degraded: true}).Confidence)
	assert.Equal(t, 90.0, a.Advise(AdviceInput{AnalysisLength: 5}).Confidence)
	assert.Equal(t, 100.0, a.Advise(AdviceInput{AnalysisLength: 500}).Confidence)
	assert.Equal(t, DefaultSuccessRecommendations, a.Advise(AdviceInput{}).Recommendations)

	notNumber, err := NewExprAdvisor("'high'", nil)
	require.NoError(t, err)
	assert.Equal(t, 85.0, notNumber.Advise(AdviceInput{}).Confidence)

	_, err = NewExprAdvisor("baseScore +", nil)
	assert.Error(t, err)
}

func TestAnalyze_ExprAdvisor(t *testing.T) {
	adv, err := NewExprAdvisor("dataSize > 10 ? 70 : 95", nil)
	require.NoError(t, err)
	gen := llm.GeneratorFunc(func(ctx context.Context, input string) (string, error) { return "ok", nil })
	out := NewAnalysisStep(AnalysisOptions{Generator: gen, Advisor: adv}).Analyze(context.Background(), processed())
	assert.Equal(t, 70.0, out.ConfidenceScore)
}
