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

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/cloudwego/marketflow/internal/log"
	"github.com/cloudwego/marketflow/llm/prompt"
	"github.com/pkg/errors"
)

var _ Generator = (*ChatGenerator)(nil)

// ChatGenerator is a single-turn Generator without tools.
type ChatGenerator struct {
	model     model.BaseChatModel
	sysPrompt prompt.Prompt
}

func NewChatGenerator(m model.BaseChatModel, sys prompt.Prompt) *ChatGenerator {
	return &ChatGenerator{model: m, sysPrompt: sys}
}

func (g *ChatGenerator) Call(ctx context.Context, input string) (string, error) {
	msgs := []*schema.Message{schema.UserMessage(input)}
	if g.sysPrompt != nil {
		msgs = appendSysPrompt(g.sysPrompt.String(), msgs)
	}
	out, err := g.model.Generate(ctx, msgs)
	if err != nil {
		return "", errors.Wrap(err, "chat generate")
	}
	if out == nil {
		return "", errors.New("chat generate: empty response")
	}
	log.Debug("[Assistant] %s", out.Content)
	return out.Content, nil
}
