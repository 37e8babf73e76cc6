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
	"strings"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/flow/agent"
	"github.com/cloudwego/eino/flow/agent/react"
	"github.com/cloudwego/eino/schema"
	"github.com/cloudwego/marketflow/internal/log"
	"github.com/cloudwego/marketflow/llm/prompt"
	"github.com/pkg/errors"
)

var _ Generator = (*ReactAgent)(nil)

type ReactAgent struct {
	opts ReactAgentOptions
	*react.Agent
	retries int           // Number of retries on failure
	timeout time.Duration // Request timeout
}

type ReactAgentOptions struct {
	SysPrompt prompt.Prompt `json:"-"`
	*react.AgentConfig
	Retries int           `json:"retries"` // Number of retries, default: 3
	Timeout time.Duration `json:"timeout"` // Request timeout, default: 600s
}

const maxStepNotice = "The maximum number of iterations has been reached. Give your conclusion now and do not call any more tools."

func NewReactAgent(ctx context.Context, name string, opts ReactAgentOptions) (*ReactAgent, error) {
	if opts.AgentConfig == nil {
		return nil, errors.New("agent config is nil")
	}
	if opts.AgentConfig.MessageModifier == nil {
		sys := ""
		if opts.SysPrompt != nil {
			sys = opts.SysPrompt.String()
		}
		opts.AgentConfig.MessageModifier = newMessageModifier(sys, name, opts.AgentConfig.MaxStep)
	}
	ra, err := react.NewAgent(ctx, opts.AgentConfig)
	if err != nil {
		return nil, errors.Wrapf(err, "new react agent %s", name)
	}
	retries := opts.Retries
	if retries == 0 {
		retries = 3 // Default: 3 retries
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 600 * time.Second // Default: 600 seconds
	}
	return &ReactAgent{
		opts:    opts,
		Agent:   ra,
		retries: retries,
		timeout: timeout,
	}, nil
}

func newMessageModifier(sysPrompt string, name string, limit int) func(ctx context.Context, input []*schema.Message) []*schema.Message {
	return func(ctx context.Context, input []*schema.Message) []*schema.Message {
		log.Debug("newMessageModifier, name: %v, limit: %d, input: %v", name, limit, len(input))
		if limit > 0 && len(input) >= limit-1 {
			input = append(input, schema.UserMessage(maxStepNotice))
		}
		return appendSysPrompt(sysPrompt, input)
	}
}

func appendSysPrompt(sysPrompt string, input []*schema.Message) []*schema.Message {
	res := make([]*schema.Message, 0, len(input)+1)
	if sysPrompt != "" {
		res = append(res, schema.SystemMessage(sysPrompt))
	}
	res = append(res, input...)
	return res
}

func (p *ReactAgent) Call(ctx context.Context, input string) (string, error) {
	log.Debug("[User] %s", input)
	inputMsgs := []*schema.Message{schema.UserMessage(input)}

	var lastErr error
	for attempt := 0; attempt <= p.retries; attempt++ {
		if attempt > 0 {
			log.Info("Retrying LLM call (attempt %d/%d)...", attempt+1, p.retries+1)
			if err := sleepCtx(ctx, backoff(attempt)); err != nil {
				return "", errors.Wrap(err, "ReactAgent canceled while backing off")
			}
		}

		out, err := p.generate(ctx, inputMsgs)
		if err == nil {
			return out.Content, nil
		}
		lastErr = err

		if ctx.Err() != nil || !isRetryable(err) {
			log.Error("Non-retryable error occurred: %v", err)
			return "", errors.Wrap(err, "ReactAgent RoundTrip error")
		}
		log.Info("Retryable error occurred (attempt %d/%d): %v", attempt+1, p.retries+1, err)
	}

	return "", errors.Wrapf(lastErr, "ReactAgent RoundTrip error: failed after %d attempts", p.retries+1)
}

func (p *ReactAgent) generate(ctx context.Context, msgs []*schema.Message) (*schema.Message, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.Generate(attemptCtx, msgs, agent.WithComposeOptions(compose.WithCallbacks(CallbackHandler{})))
}

// backoff waits 1s, 2s, 4s... capped at 10s.
func backoff(attempt int) time.Duration {
	d := time.Duration(1<<uint(attempt-1)) * time.Second
	if d > 10*time.Second {
		d = 10 * time.Second
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// isRetryable reports transport-level failures (timeout, connection reset, etc.)
func isRetryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	errStr := err.Error()
	for _, s := range []string{
		"timeout",
		"connection reset",
		"connection refused",
		"operation timed out",
		"context deadline exceeded",
		"read tcp",
		"write tcp",
	} {
		if strings.Contains(errStr, s) {
			return true
		}
	}
	return false
}

type CallbackHandler struct{}

var _ callbacks.Handler = (*CallbackHandler)(nil)

func (h CallbackHandler) OnStart(ctx context.Context, info *callbacks.RunInfo, input callbacks.CallbackInput) context.Context {
	log.Debug("<OnStart> INFO: %+v", info)
	return ctx
}

func (h CallbackHandler) OnEnd(ctx context.Context, info *callbacks.RunInfo, output callbacks.CallbackOutput) context.Context {
	log.Debug("<OnEnd> INFO %+v OUTPUT: %v", info, output)
	return ctx
}

func (h CallbackHandler) OnError(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
	log.Error("<OnError> INFO: %+v ERROR: %v", info, err)
	return ctx
}

func (h CallbackHandler) OnStartWithStreamInput(ctx context.Context, info *callbacks.RunInfo,
	input *schema.StreamReader[callbacks.CallbackInput]) context.Context {
	input.Close()
	return ctx
}

func (h CallbackHandler) OnEndWithStreamOutput(ctx context.Context, info *callbacks.RunInfo,
	output *schema.StreamReader[callbacks.CallbackOutput]) context.Context {
	output.Close()
	return ctx
}
