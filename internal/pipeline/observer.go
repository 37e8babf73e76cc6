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

	"github.com/cloudwego/marketflow/internal/log"
)

// Observer is told about every step execution. It cannot change the outcome.
type Observer interface {
	OnStepStart(ctx context.Context, runID string, step Step)
	OnStepEnd(ctx context.Context, runID string, rec StepRecord)
}

// LogObserver writes step progress to the process logger.
type LogObserver struct{}

func (LogObserver) OnStepStart(ctx context.Context, runID string, step Step) {
	log.Debug("run %s: step %s started", runID, step.ID())
}

func (LogObserver) OnStepEnd(ctx context.Context, runID string, rec StepRecord) {
	if rec.Status == StepOK {
		log.Debug("run %s: step %s ok in %s", runID, rec.StepID, rec.Duration)
		return
	}
	log.Error("run %s: step %s failed after %s: %s", runID, rec.StepID, rec.Duration, rec.Error)
}

type nopObserver struct{}

func (nopObserver) OnStepStart(context.Context, string, Step)     {}
func (nopObserver) OnStepEnd(context.Context, string, StepRecord) {}
