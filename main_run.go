// Copyright 2025 CloudWeGo Authors
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

/**
 * Copyright 2024 ByteDance Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/cloudwego/marketflow/internal/log"
	"github.com/cloudwego/marketflow/internal/pipeline"
	"github.com/cloudwego/marketflow/internal/utils"
	"github.com/cloudwego/marketflow/internal/workflow"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const resultSuffix = ".result.json"

func runCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run [files...]",
		Short: "run the log-processing workflow on each file (or stdin) and print the results",
		Long: `Each file is one payload. JSON content is used as is; any other content is
processed as a single string. Files run concurrently on the same workflow.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := a.workflow(ctx)
			if err != nil {
				return err
			}
			payloads, err := readPayloads(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			results := workflow.RunBatch(ctx, p, payloads, a.cfg.Concurrency)

			failed := 0
			for _, r := range results {
				if !r.Result.OK() {
					failed++
				}
			}
			if len(results) == 1 {
				err = a.print(results[0].Result)
			} else {
				err = a.print(results)
			}
			if err != nil {
				return err
			}
			if failed > 0 {
				return errors.Errorf("%d of %d runs failed", failed, len(results))
			}
			return nil
		},
	}
}

func readPayloads(stdin io.Reader, files []string) ([]workflow.Payload, error) {
	if len(files) == 0 {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, errors.Wrap(err, "read stdin")
		}
		return []workflow.Payload{{Name: "-", Data: parsePayload(data)}}, nil
	}
	payloads := make([]workflow.Payload, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", f)
		}
		payloads = append(payloads, workflow.Payload{Name: f, Data: parsePayload(data)})
	}
	return payloads, nil
}

// parsePayload decodes JSON content, or keeps the raw text as a string.
func parsePayload(data []byte) any {
	var v any
	if err := json.Unmarshal(data, &v); err == nil {
		return v
	}
	return strings.TrimRight(string(data), "\r\n")
}

func watchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch DIR",
		Short: "run the workflow on every *.json file created or updated in DIR",
		Long:  "The result of <name>.json is written next to it as <name>" + resultSuffix + ".",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p, err := a.workflow(ctx)
			if err != nil {
				return err
			}
			return utils.WatchDir(ctx, args[0], func(op fsnotify.Op, file string) {
				if op&(fsnotify.Create|fsnotify.Write) == 0 || !isPayloadFile(file) {
					return
				}
				if err := processFile(ctx, p, file); err != nil {
					log.Warn("skip %s: %v", file, err)
				}
			})
		},
	}
}

func isPayloadFile(file string) bool {
	return strings.HasSuffix(file, ".json") && !strings.HasSuffix(file, resultSuffix)
}

func resultPath(file string) string {
	return strings.TrimSuffix(file, ".json") + resultSuffix
}

// processFile runs one watched file. Incomplete JSON is skipped: the next
// write event retries it.
func processFile(ctx context.Context, p *pipeline.Pipeline, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	var payload any
	if err := json.Unmarshal(bytes.TrimSpace(data), &payload); err != nil {
		return errors.Wrap(err, "not a complete JSON document")
	}
	res := p.Run(ctx, payload)
	out, err := utils.MarshalJSONBytes(res)
	if err != nil {
		return err
	}
	dst := resultPath(file)
	if err := os.WriteFile(dst, append(out, '\n'), 0o644); err != nil {
		return errors.Wrapf(err, "write %s", dst)
	}
	if res.OK() {
		log.Info("%s -> %s", filepath.Base(file), filepath.Base(dst))
	} else {
		log.Error("%s failed: %v", filepath.Base(file), res.Err)
	}
	return nil
}
