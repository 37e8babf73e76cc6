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

// Package steps holds the steps of the log-processing workflow.
package steps

import "time"

const (
	StepLogInsight   = "log-insight"
	StepCleanData    = "clean-data"
	StepFinalProcess = "final-process"
	StepAIAnalysis   = "ai-analysis"
)

const (
	insightText = "Initial log processing completed"
	summaryText = "Data processing completed successfully"
	statusOK    = "success"

	// isoMillis renders UTC times like 2024-05-01T10:00:00.000Z.
	isoMillis = "2006-01-02T15:04:05.000Z07:00"
)

var stepsApplied = []string{"normalization", "validation", "sanitization"}

// Clock returns the current time.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// Insight is the output of log-insight.
type Insight struct {
	Original any    `json:"original"`
	Insight  string `json:"insight"`
}

type CleanMetadata struct {
	ProcessedAt  string   `json:"processedAt"`
	StepsApplied []string `json:"stepsApplied"`
}

// CleanedData is the output of clean-data.
type CleanedData struct {
	CleanedData map[string]any `json:"cleanedData"`
	Status      string         `json:"status"`
	Metadata    CleanMetadata  `json:"metadata"`
}

type Metrics struct {
	ProcessingTime float64 `json:"processingTime"` // milliseconds
	DataSize       float64 `json:"dataSize"`       // bytes
}

// ProcessedData is the output of final-process and the input of ai-analysis.
type ProcessedData struct {
	ProcessedData any     `json:"processedData"`
	Summary       string  `json:"summary"`
	Metrics       Metrics `json:"metrics"`
}

// AnalysisOutcome is the final workflow output. Degraded marks a fallback
// result produced when the reasoning service failed.
type AnalysisOutcome struct {
	OriginalData    any      `json:"originalData"`
	AIAnalysis      string   `json:"aiAnalysis"`
	Recommendations []string `json:"recommendations"`
	ConfidenceScore float64  `json:"confidenceScore"`
	Degraded        bool     `json:"degraded"`
}
