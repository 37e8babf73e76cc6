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

package agent

import (
	"context"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/flow/agent/react"
	"github.com/cloudwego/marketflow/internal/log"
	"github.com/cloudwego/marketflow/llm"
	"github.com/cloudwego/marketflow/llm/prompt"
	"github.com/cloudwego/marketflow/llm/tool"
	"github.com/pkg/errors"
)

const StockAgentName = "stock-agent"

type StockAgentOptions struct {
	llm.ModelConfig
	MaxSteps int `json:"max_steps"`

	// SysPrompt replaces the built-in stock agent instructions.
	SysPrompt prompt.Prompt `json:"-"`
	// Model overrides the model built from ModelConfig.
	Model llm.ChatModel `json:"-"`
	// Fetcher backs the market_price and market_news tools.
	Fetcher tool.Fetcher `json:"-"`
	// ExtraTools are appended after the market tools, e.g. tools of external MCP servers.
	ExtraTools []tool.Tool `json:"-"`
}

// NewStockAgent builds the stock and crypto analysis agent.
func NewStockAgent(ctx context.Context, opts StockAgentOptions) (*llm.ReactAgent, error) {
	log.Debug("NewStockAgent, model: %s, max steps: %d", opts.ModelName, opts.MaxSteps)

	exeModel := opts.Model
	if exeModel == nil {
		m, err := llm.NewChatModel(opts.ModelConfig)
		if err != nil {
			return nil, err
		}
		exeModel = m
	}

	market, err := tool.NewMarketTools(tool.MarketToolsOptions{Fetcher: opts.Fetcher})
	if err != nil {
		return nil, errors.Wrap(err, "stock agent tools")
	}
	tcfg := compose.ToolsNodeConfig{}
	tcfg.Tools = append(tcfg.Tools, market.GetTools()...)
	tcfg.Tools = append(tcfg.Tools, opts.ExtraTools...)

	sys := opts.SysPrompt
	if sys == nil {
		sys = prompt.NewTextPrompt(prompt.PromptStockAgent)
	}
	return llm.NewReactAgent(ctx, StockAgentName, llm.ReactAgentOptions{
		SysPrompt: sys,
		AgentConfig: &react.AgentConfig{
			ToolCallingModel: exeModel,
			ToolsConfig:      tcfg,
			MaxStep:          opts.MaxSteps,
		},
		Retries: opts.Retries,
		Timeout: opts.Timeout,
	})
}
