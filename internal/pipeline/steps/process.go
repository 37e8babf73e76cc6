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
	"bytes"
	"context"
	"encoding/json"
	"time"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/cloudwego/marketflow/internal/log"
	"github.com/cloudwego/marketflow/internal/pipeline"
	"github.com/pkg/errors"
)

// NewInsightStep tags any payload with the initial insight.
func NewInsightStep() pipeline.Step {
	return pipeline.Typed(StepLogInsight, func(ctx context.Context, in any) (Insight, error) {
		log.Debug("%s input: %v", StepLogInsight, in)
		return Insight{Original: in, Insight: insightText}, nil
	})
}

// NewCleanStep merges the insight into the original payload and stamps it.
// A non-object payload is carried under "value"; a null payload merges nothing.
func NewCleanStep(clock Clock) pipeline.Step {
	return pipeline.Typed(StepCleanData, func(ctx context.Context, in Insight) (CleanedData, error) {
		cleaned := map[string]any{}
		switch v := in.Original.(type) {
		case nil:
		case map[string]any:
			for k, x := range v {
				cleaned[k] = x
			}
		default:
			cleaned["value"] = v
		}
		cleaned["cleaned"] = true
		cleaned["processedInsight"] = in.Insight

		return CleanedData{
			CleanedData: cleaned,
			Status:      statusOK,
			Metadata: CleanMetadata{
				ProcessedAt:  clock.now().UTC().Format(isoMillis),
				StepsApplied: append([]string(nil), stepsApplied...),
			},
		}, nil
	})
}

// NewFinalizeStep summarizes the cleaned payload and measures it.
func NewFinalizeStep(clock Clock) pipeline.Step {
	return pipeline.Typed(StepFinalProcess, func(ctx context.Context, in CleanedData) (ProcessedData, error) {
		processedAt, err := time.Parse(time.RFC3339Nano, in.Metadata.ProcessedAt)
		if err != nil {
			return ProcessedData{}, errors.Wrap(err, "metadata.processedAt")
		}
		elapsed := clock.now().Sub(processedAt)
		if elapsed < 0 {
			elapsed = 0
		}
		size, err := jsonSize(in.CleanedData)
		if err != nil {
			return ProcessedData{}, err
		}
		return ProcessedData{
			ProcessedData: in.CleanedData,
			Summary:       summaryText,
			Metrics: Metrics{
				ProcessingTime: float64(elapsed.Milliseconds()),
				DataSize:       float64(size),
			},
		}, nil
	})
}

// jsonSize is the length of the compact JSON encoding of v in UTF-16 code
// units, the way JavaScript measures a string. U+2028 and U+2029 count as
// one unit even though the encoder escapes them.
func jsonSize(v any) (int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return 0, errors.Wrap(err, "encode cleaned data")
	}
	b := bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})

	units := 0
	for i := 0; i < len(b); {
		if b[i] == '\\' {
			if bytes.HasPrefix(b[i:], []byte(`\u2028`)) || bytes.HasPrefix(b[i:], []byte(`\u2029`)) {
				units++
				i += 6
				continue
			}
			units += 2
			i += 2
			continue
		}
		r, n := utf8.DecodeRune(b[i:])
		units += utf16.RuneLen(r)
		i += n
	}
	return units, nil
}
