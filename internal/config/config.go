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

// Package config loads the marketflow configuration.
package config

import (
	"os"
	"time"

	"github.com/cloudwego/marketflow/internal/pipeline/steps"
	"github.com/cloudwego/marketflow/llm"
	"github.com/cloudwego/marketflow/llm/prompt"
	"github.com/cloudwego/marketflow/llm/tool"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config represents the full configuration for marketflow.
type Config struct {
	Model    llm.ModelConfig `yaml:"model"`
	Agent    AgentConfig     `yaml:"agent"`
	Analysis AnalysisConfig  `yaml:"analysis"`
	Market   MarketConfig    `yaml:"market"`

	// Concurrency bounds the runs of one batch.
	Concurrency int    `yaml:"concurrency" validate:"gte=1"`
	LogLevel    string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

type AgentConfig struct {
	// MaxSteps 0 disables the agent: the model answers directly, without tools.
	MaxSteps   int              `yaml:"max_steps" validate:"gte=0"`
	MCPServers []tool.MCPConfig `yaml:"mcp_servers" validate:"dive"`
	// Prompt replaces the built-in system prompt.
	Prompt *prompt.FilePrompt `yaml:"prompt"`
}

// AnalysisConfig tunes the ai-analysis step.
type AnalysisConfig struct {
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
	// Confidence is an optional expression, see steps.ExprAdvisor.
	Confidence              string   `yaml:"confidence"`
	SuccessScore            float64  `yaml:"success_score" validate:"gte=0,lte=100"`
	FallbackScore           float64  `yaml:"fallback_score" validate:"gte=0,lte=100"`
	SuccessRecommendations  []string `yaml:"success_recommendations"`
	FallbackRecommendations []string `yaml:"fallback_recommendations"`
}

type MarketConfig struct {
	BaseURL  string        `yaml:"base_url" validate:"omitempty,url"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout" validate:"gte=0"`
	CacheTTL time.Duration `yaml:"cache_ttl" validate:"gte=0"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Agent: AgentConfig{
			MaxSteps: 10,
		},
		Analysis: AnalysisConfig{
			Timeout:                 steps.DefaultAnalysisTimeout,
			SuccessScore:            steps.DefaultSuccessScore,
			FallbackScore:           steps.DefaultFallbackScore,
			SuccessRecommendations:  steps.DefaultSuccessRecommendations,
			FallbackRecommendations: steps.DefaultFallbackRecommendations,
		},
		Market: MarketConfig{
			BaseURL:  tool.DefaultMarketURL,
			Timeout:  30 * time.Second,
			CacheTTL: 5 * time.Minute,
		},
		Concurrency: 4,
		LogLevel:    "info",
	}
}

// Load reads .env (when present), the YAML file at path (when set) and the
// environment, in increasing priority, then validates the result.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, errors.Wrap(err, "load .env")
	}
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, errors.Wrapf(err, "read config %s", path)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "parse config %s", path)
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	if v, ok := lookup("API_TYPE"); ok && v != "" {
		c.Model.APIType = llm.NewModelType(v)
	}
	set(&c.Model.APIKey, "API_KEY")
	set(&c.Model.ModelName, "MODEL_NAME")
	set(&c.Model.BaseURL, "BASE_URL")
	if c.Model.APIKey == "" && c.Model.APIType == llm.ModelTypeOpenRouter {
		set(&c.Model.APIKey, "OPENROUTER_API_KEY")
	}
	set(&c.Market.BaseURL, "ALPHA_URL")
	set(&c.Market.APIKey, "ALPHA_API_KEY")
	set(&c.LogLevel, "MARKETFLOW_LOG_LEVEL")
}

var validate = validator.New()

func (c Config) Validate() error {
	return errors.Wrap(validate.Struct(c), "invalid config")
}

// HasModel reports whether a reasoning service is configured.
func (c Config) HasModel() bool {
	return c.Model.APIType != llm.ModelTypeUnknown && c.Model.ModelName != ""
}

// ToolsEnabled reports whether the reasoning service is the tool-calling agent.
func (c Config) ToolsEnabled() bool {
	return c.Agent.MaxSteps > 0
}

// SystemPrompt loads the configured system prompt, or returns def.
func (c Config) SystemPrompt(def prompt.Prompt) (prompt.Prompt, error) {
	if c.Agent.Prompt == nil {
		return def, nil
	}
	p, err := prompt.NewFilePrompt(c.Agent.Prompt)
	return p, errors.Wrap(err, "agent prompt")
}

// Advisor builds the scoring strategy of the analysis step.
func (c Config) Advisor() (steps.Advisor, error) {
	fixed := steps.FixedAdvisor{
		Success:       c.Analysis.SuccessRecommendations,
		Fallback:      c.Analysis.FallbackRecommendations,
		SuccessScore:  c.Analysis.SuccessScore,
		FallbackScore: c.Analysis.FallbackScore,
	}
	if c.Analysis.Confidence == "" {
		return fixed, nil
	}
	return steps.NewExprAdvisor(c.Analysis.Confidence, fixed)
}

func (c Config) MarketOptions() tool.MarketOptions {
	return tool.MarketOptions{
		BaseURL: c.Market.BaseURL,
		APIKey:  c.Market.APIKey,
		Timeout: c.Market.Timeout,
	}
}
