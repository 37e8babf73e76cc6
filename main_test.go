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
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/cloudwego/marketflow/internal/workflow"
	"github.com/cloudwego/marketflow/llm"
	"github.com/cloudwego/marketflow/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayload(t *testing.T) {
	assert.Equal(t, map[string]any{"a": 1.0}, parsePayload([]byte(`{"a": 1}`)))
	assert.Equal(t, []any{"x"}, parsePayload([]byte(`["x"]`)))
	assert.Equal(t, "GET /login 401", parsePayload([]byte("GET /login 401\n")))
}

func TestReadPayloads(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "a.json")
	require.NoError(t, os.WriteFile(f, []byte(`{"k": "v"}`), 0o644))

	ps, err := readPayloads(nil, []string{f})
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, f, ps[0].Name)
	assert.Equal(t, map[string]any{"k": "v"}, ps[0].Data)

	ps, err = readPayloads(strings.NewReader(`42`), nil)
	require.NoError(t, err)
	assert.Equal(t, "-", ps[0].Name)
	assert.Equal(t, 42.0, ps[0].Data)

	_, err = readPayloads(nil, []string{filepath.Join(dir, "missing.json")})
	assert.Error(t, err)
}

func TestPayloadFiles(t *testing.T) {
	assert.True(t, isPayloadFile("/tmp/x/req.json"))
	assert.False(t, isPayloadFile("/tmp/x/req.result.json"))
	assert.False(t, isPayloadFile("/tmp/x/req.log"))
	assert.Equal(t, "/tmp/x/req.result.json", resultPath("/tmp/x/req.json"))
}

func TestProcessFile(t *testing.T) {
	p, err := workflow.New(workflow.Deps{
		Generator: llm.GeneratorFunc(func(ctx context.Context, input string) (string, error) {
			return "looks fine", nil
		}),
	})
	require.NoError(t, err)

	dir := t.TempDir()
	f := filepath.Join(dir, "req.json")
	require.NoError(t, os.WriteFile(f, []byte(`{"status": 200}`), 0o644))
	require.NoError(t, processFile(context.Background(), p, f))

	data, err := os.ReadFile(resultPath(f))
	require.NoError(t, err)
	var res struct {
		Output map[string]any `json:"output"`
	}
	require.NoError(t, json.Unmarshal(data, &res))
	assert.Equal(t, "looks fine", res.Output["aiAnalysis"])

	partial := filepath.Join(dir, "partial.json")
	require.NoError(t, os.WriteFile(partial, []byte(`{"status": `), 0o644))
	assert.Error(t, processFile(context.Background(), p, partial))
	_, err = os.Stat(resultPath(partial))
	assert.True(t, os.IsNotExist(err))
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, map[string]any{"a": "<b>"}, true))
	assert.Equal(t, "{\n  \"a\": \"<b>\"\n}\n", buf.String())

	buf.Reset()
	require.NoError(t, printJSON(&buf, map[string]any{"a": 1}, false))
	assert.Contains(t, buf.String(), "\"a\"")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	a := &app{out: &buf}
	defer a.close()
	root := rootCommand(a)
	root.SetArgs(args)
	root.SetOut(&buf)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestCommands(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, version.Version+"\n", out)

	out, err = execute(t, "describe", "--plain")
	require.NoError(t, err)
	var d workflow.Description
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	assert.Equal(t, workflow.ID, d.ID)
	assert.Len(t, d.Steps, 4)

	out, err = execute(t, "describe", "--dot")
	require.NoError(t, err)
	assert.Contains(t, out, "ai-analysis")
}

func TestRunCommand(t *testing.T) {
	t.Setenv("API_TYPE", "")
	t.Setenv("MODEL_NAME", "")
	dir := t.TempDir()
	f := filepath.Join(dir, "a.json")
	require.NoError(t, os.WriteFile(f, []byte(`{"event": "login"}`), 0o644))

	// without a model the analysis falls back but the run succeeds
	out, err := execute(t, "run", "--plain", f)
	require.NoError(t, err)
	var res struct {
		Output struct {
			ConfidenceScore float64 `json:"confidenceScore"`
			Degraded        bool    `json:"degraded"`
		} `json:"output"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 50.0, res.Output.ConfidenceScore)
	assert.True(t, res.Output.Degraded)
}

func TestRunCommand_ChatModelWithoutAgent(t *testing.T) {
	t.Setenv("API_TYPE", "")
	t.Setenv("MODEL_NAME", "")
	t.Setenv("API_KEY", "")
	t.Setenv("BASE_URL", "")

	var calls int32
	var system atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil && len(req.Messages) > 0 && req.Messages[0].Role == "system" {
			system.Store(req.Messages[0].Content)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"m",` +
			`"choices":[{"index":0,"message":{"role":"assistant","content":"No anomalies found."},"finish_reason":"stop"}],` +
			`"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	sys := filepath.Join(dir, "system.md")
	require.NoError(t, os.WriteFile(sys, []byte("You are a log analyst."), 0o644))
	cfg := filepath.Join(dir, "marketflow.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
model:
  type: openai
  base_url: `+srv.URL+`
  api_key: test
  model_name: m
agent:
  max_steps: 0
  prompt:
    type: text
    path: `+sys+`
`), 0o644))
	f := filepath.Join(dir, "a.json")
	require.NoError(t, os.WriteFile(f, []byte(`{"event": "login"}`), 0o644))

	out, err := execute(t, "run", "--plain", "-c", cfg, f)
	require.NoError(t, err)
	var res struct {
		Output struct {
			AIAnalysis      string  `json:"aiAnalysis"`
			ConfidenceScore float64 `json:"confidenceScore"`
			Degraded        bool    `json:"degraded"`
		} `json:"output"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "No anomalies found.", res.Output.AIAnalysis)
	assert.Equal(t, 85.0, res.Output.ConfidenceScore)
	assert.False(t, res.Output.Degraded)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, "You are a log analyst.", system.Load())
}
