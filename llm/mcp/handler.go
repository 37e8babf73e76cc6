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
	"context"
	"encoding/json"

	"github.com/cloudwego/marketflow/internal/pipeline"
	"github.com/cloudwego/marketflow/internal/schema"
	"github.com/cloudwego/marketflow/internal/utils"
	"github.com/cloudwego/marketflow/internal/workflow"
	"github.com/cloudwego/marketflow/llm/prompt"
	"github.com/cloudwego/marketflow/llm/tool"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	ToolRunWorkflow      = "run_workflow"
	DescRunWorkflow      = "run the log-processing workflow on a JSON payload and return the analysis with its step trace"
	ToolDescribeWorkflow = "describe_workflow"
	DescDescribeWorkflow = "list the workflow steps with the JSON Schema of their input and output"
	PromptStockAgent     = "stock_agent"
)

// NewTool binds a typed handler. Handler errors become tool-level errors.
func NewTool[R any, T any](name string, desc string, params json.RawMessage, handler func(ctx context.Context, req R) (*T, error)) Tool {
	return Tool{
		Tool: mcp.NewToolWithRawSchema(name, desc, params),
		Handler: func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var req R
			if err := request.BindArguments(&req); err != nil {
				return mcp.NewToolResultError("invalid arguments: " + err.Error()), nil
			}
			resp, err := handler(ctx, req)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return jsonResult(resp, false), nil
		},
	}
}

func jsonResult(v any, isError bool) *mcp.CallToolResult {
	js, err := utils.MarshalJSONBytes(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(string(js)),
		},
		IsError: isError,
	}
}

type RunWorkflowReq struct {
	Payload any `json:"payload" jsonschema:"description=the JSON payload to process, any value is accepted"`
}

type DescribeWorkflowReq struct{}

func getWorkflowTools(p *pipeline.Pipeline) []Tool {
	run := Tool{
		Tool: mcp.NewToolWithRawSchema(ToolRunWorkflow, DescRunWorkflow, schema.GetJSONSchema(RunWorkflowReq{})),
		Handler: func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var req RunWorkflowReq
			if err := request.BindArguments(&req); err != nil {
				return mcp.NewToolResultError("invalid arguments: " + err.Error()), nil
			}
			res := p.Run(ctx, req.Payload)
			return jsonResult(res, !res.OK()), nil
		},
	}
	describe := NewTool(ToolDescribeWorkflow, DescDescribeWorkflow, schema.GetJSONSchema(DescribeWorkflowReq{}),
		func(ctx context.Context, req DescribeWorkflowReq) (*workflow.Description, error) {
			d, err := workflow.Describe(p)
			if err != nil {
				return nil, err
			}
			return &d, nil
		})
	return []Tool{run, describe}
}

func getMarketTools(f tool.Fetcher) []Tool {
	fetch := func(ctx context.Context, q tool.MarketQuery) (*json.RawMessage, error) {
		data, err := f.Fetch(ctx, q)
		if err != nil {
			return nil, err
		}
		return &data, nil
	}
	return []Tool{
		NewTool(tool.ToolMarketPrice, tool.DescMarketPrice, schema.GetJSONSchema(tool.PriceReq{}),
			func(ctx context.Context, req tool.PriceReq) (*json.RawMessage, error) {
				return fetch(ctx, tool.MarketQuery{Symbol: req.Symbol, Market: req.Market, IsCrypto: req.IsCrypto, Mode: tool.ModePrice})
			}),
		NewTool(tool.ToolMarketNews, tool.DescMarketNews, schema.GetJSONSchema(tool.NewsReq{}),
			func(ctx context.Context, req tool.NewsReq) (*json.RawMessage, error) {
				return fetch(ctx, tool.MarketQuery{Symbol: req.Ticker, Mode: tool.ModeNews})
			}),
	}
}

func handleStockAgentPrompt(
	ctx context.Context,
	request mcp.GetPromptRequest,
) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "A prompt for stock and crypto market questions",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: prompt.PromptStockAgent,
				},
			},
		},
	}, nil
}
