/**
 * Copyright 2025 ByteDance Inc.
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

package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mflog "github.com/cloudwego/marketflow/internal/log"
	"github.com/cloudwego/marketflow/internal/workflow"
	"github.com/cloudwego/marketflow/llm"
	"github.com/cloudwego/marketflow/llm/tool"
	"github.com/mark3labs/mcp-go/server"
)

type session struct {
	t      *testing.T
	in     *io.PipeWriter
	out    *bufio.Reader
	nextID int
}

func (s *session) call(method string, params any) map[string]any {
	s.t.Helper()
	s.nextID++
	req := map[string]any{
		"jsonrpc": "2.0",
		"id":      s.nextID,
		"method":  method,
		"params":  params,
	}
	requestBytes, err := json.Marshal(req)
	if err != nil {
		s.t.Fatal(err)
	}
	if _, err = s.in.Write(append(requestBytes, '\n')); err != nil {
		s.t.Fatal(err)
	}

	line, err := s.out.ReadBytes('\n')
	if err != nil {
		s.t.Fatalf("failed to read response: %v", err)
	}
	var response map[string]any
	if err := json.Unmarshal(line, &response); err != nil {
		s.t.Fatalf("failed to unmarshal response: %v", err)
	}
	if e, ok := response["error"]; ok {
		s.t.Fatalf("%s returned error: %v", method, e)
	}
	return response["result"].(map[string]any)
}

func toolText(t *testing.T, result map[string]any) (string, bool) {
	t.Helper()
	content := result["content"].([]any)
	if len(content) == 0 {
		t.Fatal("empty tool result")
	}
	isError, _ := result["isError"].(bool)
	return content[0].(map[string]any)["text"].(string), isError
}

func startServer(t *testing.T, svr *Server) *session {
	stdinReader, stdinWriter := io.Pipe()
	stdoutReader, stdoutWriter := io.Pipe()

	stdioServer := server.NewStdioServer(svr.Server)
	stdioServer.SetErrorLogger(log.New(io.Discard, "", 0))

	ctx, cancel := context.WithCancel(context.Background())
	serverErrCh := make(chan error, 1)
	go func() {
		err := stdioServer.Listen(ctx, stdinReader, stdoutWriter)
		if err != nil && err != io.EOF && err != context.Canceled {
			serverErrCh <- err
		}
		stdoutWriter.Close()
		close(serverErrCh)
	}()
	t.Cleanup(func() {
		cancel()
		stdinWriter.Close()
		if err := <-serverErrCh; err != nil {
			t.Errorf("unexpected server error: %v", err)
		}
	})

	time.Sleep(100 * time.Millisecond)
	s := &session{t: t, in: stdinWriter, out: bufio.NewReader(stdoutReader)}
	s.call("initialize", map[string]any{
		"protocolVersion": "2024-11-05",
		"clientInfo": map[string]any{
			"name":    "test-client",
			"version": "1.0.0",
		},
	})
	return s
}

func newTestServer(t *testing.T) *Server {
	mflog.SetLogLevel(mflog.ErrorLevel)
	market := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Meta Data": {"2. Symbol": "` + r.URL.Query().Get("symbol") + `"}}`))
	}))
	t.Cleanup(market.Close)

	p, err := workflow.New(workflow.Deps{
		Generator: llm.GeneratorFunc(func(ctx context.Context, input string) (string, error) {
			return "ok", nil
		}),
	})
	if err != nil {
		t.Fatal(err)
	}
	svr, err := NewServer(ServerOptions{
		ServerName:    "marketflow",
		ServerVersion: "1.0.0",
		Workflow:      p,
		Fetcher:       tool.NewMarketClient(tool.MarketOptions{BaseURL: market.URL, APIKey: "k"}),
	})
	if err != nil {
		t.Fatal(err)
	}
	return svr
}

func TestServer_ListTools(t *testing.T) {
	s := startServer(t, newTestServer(t))
	res := s.call("tools/list", map[string]any{})
	names := map[string]bool{}
	for _, tt := range res["tools"].([]any) {
		names[tt.(map[string]any)["name"].(string)] = true
	}
	for _, want := range []string{ToolRunWorkflow, ToolDescribeWorkflow, tool.ToolMarketPrice, tool.ToolMarketNews} {
		if !names[want] {
			t.Errorf("tool %s not listed: %v", want, names)
		}
	}
}

func TestServer_RunWorkflow(t *testing.T) {
	s := startServer(t, newTestServer(t))
	res := s.call("tools/call", map[string]any{
		"name":      ToolRunWorkflow,
		"arguments": map[string]any{"payload": map[string]any{"level": "warn"}},
	})
	text, isError := toolText(t, res)
	if isError {
		t.Fatalf("run_workflow failed: %s", text)
	}
	var out struct {
		Output struct {
			AIAnalysis      string  `json:"aiAnalysis"`
			ConfidenceScore float64 `json:"confidenceScore"`
		} `json:"output"`
		Trace []any `json:"trace"`
	}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		t.Fatal(err)
	}
	if out.Output.AIAnalysis != "ok" || out.Output.ConfidenceScore != 85 {
		t.Errorf("unexpected output: %+v", out.Output)
	}
	if len(out.Trace) != 4 {
		t.Errorf("trace: got %d records", len(out.Trace))
	}
}

func TestServer_MarketPrice(t *testing.T) {
	s := startServer(t, newTestServer(t))
	res := s.call("tools/call", map[string]any{
		"name":      tool.ToolMarketPrice,
		"arguments": map[string]any{"symbol": "IBM"},
	})
	text, isError := toolText(t, res)
	if isError || !strings.Contains(text, "IBM") {
		t.Fatalf("market_price: %s", text)
	}

	res = s.call("tools/call", map[string]any{
		"name":      tool.ToolMarketNews,
		"arguments": map[string]any{"ticker": ""},
	})
	text, isError = toolText(t, res)
	if !isError || !strings.Contains(text, string(tool.KindInvalidQuery)) {
		t.Fatalf("expected invalid-query error, got %s", text)
	}
}

func TestServer_DescribeAndPrompt(t *testing.T) {
	s := startServer(t, newTestServer(t))
	res := s.call("tools/call", map[string]any{"name": ToolDescribeWorkflow, "arguments": map[string]any{}})
	text, isError := toolText(t, res)
	if isError || !strings.Contains(text, workflow.ID) {
		t.Fatalf("describe_workflow: %s", text)
	}

	res = s.call("prompts/get", map[string]any{"name": PromptStockAgent})
	msgs := res["messages"].([]any)
	if len(msgs) != 1 {
		t.Fatalf("prompt messages: %v", msgs)
	}
}

func TestNewServer_Invalid(t *testing.T) {
	if _, err := NewServer(ServerOptions{}); err == nil {
		t.Fatal("expected error without workflow")
	}
}
