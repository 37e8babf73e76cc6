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

package llm

import (
	"context"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino-ext/components/model/qwen"
	"github.com/pkg/errors"
)

const (
	defaultDashScopeURL  = "https://dashscope.aliyuncs.com/compatible-mode/v1"
	defaultDeepSeekURL   = "https://api.deepseek.com"
	defaultOpenRouterURL = "https://openrouter.ai/api/v1"
)

// NewChatModel builds the provider client selected by m.APIType.
func NewChatModel(m ModelConfig) (ChatModel, error) {
	if m.MaxTokens == 0 {
		m.MaxTokens = 16 * 1024
	}
	// Set default timeout to 600 seconds if not specified
	if m.Timeout == 0 {
		m.Timeout = 600 * time.Second
	}
	ctx := context.Background()
	switch m.APIType {
	case ModelTypeARK:
		cm, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
			BaseURL:     m.BaseURL,
			APIKey:      m.APIKey,
			Model:       m.ModelName,
			Temperature: m.Temperature,
			MaxTokens:   &m.MaxTokens,
		})
		return cm, errors.Wrap(err, "ark chat model")
	case ModelTypeOpenAI:
		return newOpenAICompatible(ctx, m, "")
	case ModelTypeDashScope:
		baseURL := m.BaseURL
		if baseURL == "" {
			baseURL = defaultDashScopeURL
		}
		cm, err := qwen.NewChatModel(ctx, &qwen.ChatModelConfig{
			BaseURL:     baseURL,
			APIKey:      m.APIKey,
			Model:       m.ModelName,
			Temperature: m.Temperature,
			MaxTokens:   &m.MaxTokens,
			Timeout:     m.Timeout,
		})
		return cm, errors.Wrap(err, "dashscope chat model")
	case ModelTypeDeepSeek:
		// DeepSeek uses OpenAI-compatible API
		return newOpenAICompatible(ctx, m, defaultDeepSeekURL)
	case ModelTypeOpenRouter:
		// OpenRouter uses OpenAI-compatible API
		return newOpenAICompatible(ctx, m, defaultOpenRouterURL)
	case ModelTypeOllama:
		cm, err := ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: m.BaseURL,
			Model:   m.ModelName,
			Timeout: m.Timeout,
		})
		return cm, errors.Wrap(err, "ollama chat model")
	case ModelTypeClaude:
		var baseURL *string
		if m.BaseURL != "" {
			baseURL = &m.BaseURL
		}
		cm, err := claude.NewChatModel(ctx, &claude.Config{
			BaseURL:     baseURL,
			APIKey:      m.APIKey,
			Model:       m.ModelName,
			Temperature: m.Temperature,
			MaxTokens:   m.MaxTokens,
		})
		return cm, errors.Wrap(err, "claude chat model")
	default:
		return nil, errors.Errorf("unsupported model type %q", m.APIType)
	}
}

func newOpenAICompatible(ctx context.Context, m ModelConfig, defaultURL string) (ChatModel, error) {
	baseURL := m.BaseURL
	if baseURL == "" {
		baseURL = defaultURL
	}
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL:     baseURL,
		APIKey:      m.APIKey,
		Model:       m.ModelName,
		Temperature: m.Temperature,
		MaxTokens:   &m.MaxTokens,
		Timeout:     m.Timeout,
	})
	return cm, errors.Wrapf(err, "%s chat model", m.APIType)
}
