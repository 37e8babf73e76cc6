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
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cloudwego/marketflow/internal/config"
	"github.com/cloudwego/marketflow/internal/log"
	"github.com/cloudwego/marketflow/internal/pipeline"
	"github.com/cloudwego/marketflow/internal/utils"
	"github.com/cloudwego/marketflow/internal/workflow"
	"github.com/cloudwego/marketflow/llm"
	"github.com/cloudwego/marketflow/llm/agent"
	"github.com/cloudwego/marketflow/llm/prompt"
	"github.com/cloudwego/marketflow/llm/tool"
	"github.com/cloudwego/marketflow/version"
	"github.com/hokaccha/go-prettyjson"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	Name             = "marketflow"
	ShortDescription = "Schema-checked log analysis workflow and market data agent"
)

// app carries the loaded configuration and the collaborators built from it.
type app struct {
	configPath string
	verbose    bool
	plain      bool

	cfg     config.Config
	out     io.Writer
	market  tool.Fetcher
	closers []func()
}

func main() {
	a := &app{out: os.Stdout}
	root := rootCommand(a)
	err := root.ExecuteContext(context.Background())
	a.close()
	if err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
}

func rootCommand(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           Name,
		Short:         ShortDescription,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	rootCmd.SetVersionTemplate(Name + " {{.Version}}\n")

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose mode")
	rootCmd.PersistentFlags().BoolVar(&a.plain, "plain", false, "print plain JSON without colors")

	rootCmd.AddCommand(
		runCmd(a),
		watchCmd(a),
		askCmd(a),
		fetchCmd(a),
		describeCmd(a),
		mcpCmd(a),
		versionCmd(a),
	)
	return rootCmd
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	level := log.ParseLevel(cfg.LogLevel)
	if a.verbose {
		level = log.DebugLevel
	}
	log.SetLogLevel(level)
	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
	log.Sync()
}

// fetcher is the market client behind the agent tools, with a response
// cache when a TTL is configured.
func (a *app) fetcher() (tool.Fetcher, error) {
	if a.market != nil {
		return a.market, nil
	}
	client := tool.NewMarketClient(a.cfg.MarketOptions())
	if a.cfg.Market.CacheTTL <= 0 {
		a.market = client
		return client, nil
	}
	cached, err := tool.NewCachedFetcher(client, a.cfg.Market.CacheTTL)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, cached.Close)
	a.market = cached
	return cached, nil
}

// generator builds the reasoning service: the stock agent, or a plain chat
// model when the agent is disabled. Without a configured model it returns nil
// and every analysis is degraded.
func (a *app) generator(ctx context.Context) (llm.Generator, error) {
	if !a.cfg.HasModel() {
		log.Warn("no model configured (API_TYPE, MODEL_NAME): analyses will use the fallback")
		return nil, nil
	}
	if !a.cfg.ToolsEnabled() {
		sys, err := a.cfg.SystemPrompt(nil)
		if err != nil {
			return nil, err
		}
		m, err := llm.NewChatModel(a.cfg.Model)
		if err != nil {
			return nil, err
		}
		log.Info("agent disabled, using %s model %s without tools", a.cfg.Model.APIType, a.cfg.Model.ModelName)
		return llm.NewChatGenerator(m, sys), nil
	}

	sys, err := a.cfg.SystemPrompt(prompt.NewTextPrompt(prompt.PromptStockAgent))
	if err != nil {
		return nil, err
	}
	f, err := a.fetcher()
	if err != nil {
		return nil, err
	}
	mcpTools, err := tool.LoadMCPTools(ctx, a.cfg.Agent.MCPServers)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, mcpTools.Close)

	return agent.NewStockAgent(ctx, agent.StockAgentOptions{
		ModelConfig: a.cfg.Model,
		MaxSteps:    a.cfg.Agent.MaxSteps,
		SysPrompt:   sys,
		Fetcher:     f,
		ExtraTools:  mcpTools.GetTools(),
	})
}

func (a *app) workflow(ctx context.Context) (*pipeline.Pipeline, error) {
	gen, err := a.generator(ctx)
	if err != nil {
		return nil, err
	}
	advisor, err := a.cfg.Advisor()
	if err != nil {
		return nil, err
	}
	return workflow.New(workflow.Deps{
		Generator: gen,
		Advisor:   advisor,
		Timeout:   a.cfg.Analysis.Timeout,
	})
}

func (a *app) print(v any) error {
	return printJSON(a.out, v, a.plain)
}

func printJSON(w io.Writer, v any, plain bool) error {
	var bs []byte
	var err error
	if plain {
		bs, err = utils.MarshalJSONBytes(v)
	} else {
		bs, err = prettyjson.Marshal(v)
	}
	if err != nil {
		return errors.Wrap(err, "marshal output")
	}
	_, err = fmt.Fprintf(w, "%s\n", bs)
	return err
}

func versionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the version of " + Name,
		Args:  cobra.NoArgs,
		// no config needed
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.out, "%s\n", version.Version)
		},
	}
}

// withTimeout bounds ctx when d is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
