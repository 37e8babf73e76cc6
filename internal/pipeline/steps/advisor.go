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
	"math"

	"github.com/Knetic/govaluate"
	"github.com/cloudwego/marketflow/internal/log"
	"github.com/pkg/errors"
)

// AdviceInput describes one analysis attempt.
type AdviceInput struct {
	Degraded       bool
	DataSize       float64
	ProcessingTime float64
	AnalysisLength int
}

// Advice is what the analysis step reports besides the analysis text.
type Advice struct {
	Recommendations []string
	Confidence      float64
}

// Advisor picks the recommendations and confidence of an analysis.
type Advisor interface {
	Advise(in AdviceInput) Advice
}

var (
	DefaultSuccessRecommendations = []string{
		"Review authentication patterns",
		"Monitor response times regularly",
		"Implement additional logging for error tracking",
	}
	DefaultFallbackRecommendations = []string{
		"Check AI service availability",
		"Verify agent configuration",
		"Review input data format",
	}
)

const (
	DefaultSuccessScore  = 85
	DefaultFallbackScore = 50
)

// FixedAdvisor returns constant advice per outcome.
type FixedAdvisor struct {
	Success       []string
	Fallback      []string
	SuccessScore  float64
	FallbackScore float64
}

func NewFixedAdvisor() FixedAdvisor {
	return FixedAdvisor{
		Success:       DefaultSuccessRecommendations,
		Fallback:      DefaultFallbackRecommendations,
		SuccessScore:  DefaultSuccessScore,
		FallbackScore: DefaultFallbackScore,
	}
}

func (a FixedAdvisor) Advise(in AdviceInput) Advice {
	if in.Degraded {
		return Advice{Recommendations: copyStrings(a.Fallback), Confidence: clampScore(a.FallbackScore)}
	}
	return Advice{Recommendations: copyStrings(a.Success), Confidence: clampScore(a.SuccessScore)}
}

// ExprAdvisor computes the confidence with an expression over the attempt,
// e.g. "degraded ? baseScore : baseScore - processingTime / 1000".
// Parameters: degraded, dataSize, processingTime, analysisLength, baseScore.
// Recommendations come from Base.
type ExprAdvisor struct {
	Base Advisor
	expr *govaluate.EvaluableExpression
}

func NewExprAdvisor(expression string, base Advisor) (*ExprAdvisor, error) {
	expr, err := govaluate.NewEvaluableExpression(expression)
	if err != nil {
		return nil, errors.Wrapf(err, "parse confidence expression %q", expression)
	}
	if base == nil {
		base = NewFixedAdvisor()
	}
	return &ExprAdvisor{Base: base, expr: expr}, nil
}

func (a *ExprAdvisor) Advise(in AdviceInput) Advice {
	adv := a.Base.Advise(in)
	out, err := a.expr.Evaluate(map[string]interface{}{
		"degraded":       in.Degraded,
		"dataSize":       in.DataSize,
		"processingTime": in.ProcessingTime,
		"analysisLength": float64(in.AnalysisLength),
		"baseScore":      adv.Confidence,
	})
	if err != nil {
		log.Warn("confidence expression failed, keeping %v: %v", adv.Confidence, err)
		return adv
	}
	score, ok := out.(float64)
	if !ok {
		log.Warn("confidence expression returned %T, keeping %v", out, adv.Confidence)
		return adv
	}
	adv.Confidence = clampScore(score)
	return adv
}

// clampScore keeps a confidence in [0, 100].
func clampScore(f float64) float64 {
	if math.IsNaN(f) {
		return 0
	}
	return math.Max(0, math.Min(100, f))
}

func copyStrings(s []string) []string {
	ret := make([]string, len(s))
	copy(ret, s)
	return ret
}
