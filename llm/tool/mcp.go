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

package tool

import (
	"context"

	emcp "github.com/cloudwego/eino-ext/components/tool/mcp"
	"github.com/cloudwego/marketflow/internal/log"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/pkg/errors"
)

// MCPConfig describes an external MCP tool server for the agent.
type MCPConfig struct {
	Name    string   `json:"name" yaml:"name"`
	Type    MCPType  `json:"type" yaml:"type" validate:"oneof=stdio sse"`
	Command string   `json:"command,omitempty" yaml:"command"`
	Args    []string `json:"args,omitempty" yaml:"args"`
	Envs    []string `json:"envs,omitempty" yaml:"envs"`
	SSEURL  string   `json:"sse_url,omitempty" yaml:"sse_url"`
}

type MCPType string

const (
	MCPTypeStdio MCPType = "stdio"
	MCPTypeSSE   MCPType = "sse"
)

type MCPClient struct {
	name string
	cli  *client.Client
}

func NewMCPClient(opts MCPConfig) (*MCPClient, error) {
	var cli *client.Client
	var err error
	switch opts.Type {
	case MCPTypeStdio:
		if opts.Command == "" {
			return nil, errors.New("command is empty")
		}
		cli, err = client.NewStdioMCPClient(opts.Command, opts.Envs, opts.Args...)
	case MCPTypeSSE:
		if opts.SSEURL == "" {
			return nil, errors.New("sse url is empty")
		}
		cli, err = client.NewSSEMCPClient(opts.SSEURL)
	default:
		return nil, errors.Errorf("unsupported mcp type %q", opts.Type)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "new mcp client %s", opts.Name)
	}
	return &MCPClient{name: opts.Name, cli: cli}, nil
}

func (c *MCPClient) Start(ctx context.Context) error {
	if err := c.cli.Start(ctx); err != nil {
		return errors.Wrapf(err, "start mcp client %s", c.name)
	}
	initRequest := mcp.InitializeRequest{}
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{
		Name:    "marketflow",
		Version: "1.0.0",
	}
	if _, err := c.cli.Initialize(ctx, initRequest); err != nil {
		return errors.Wrapf(err, "initialize mcp client %s", c.name)
	}
	return nil
}

func (c *MCPClient) GetTools(ctx context.Context) ([]Tool, error) {
	mcpTools, err := emcp.GetTools(ctx, &emcp.Config{Cli: c.cli})
	if err != nil {
		return nil, errors.Wrapf(err, "list tools of %s", c.name)
	}
	tools := make([]Tool, 0, len(mcpTools))
	for _, t := range mcpTools {
		tools = append(tools, t)
	}
	return tools, nil
}

func (c *MCPClient) Close() error {
	return c.cli.Close()
}

// MCPTools holds the started clients of configured tool servers.
type MCPTools struct {
	clients []*MCPClient
	tools   []Tool
}

// LoadMCPTools starts every configured server and collects its tools.
// Already started clients are closed when a later one fails.
func LoadMCPTools(ctx context.Context, cfgs []MCPConfig) (*MCPTools, error) {
	ret := &MCPTools{}
	for _, cfg := range cfgs {
		cli, err := NewMCPClient(cfg)
		if err == nil {
			err = cli.Start(ctx)
		}
		var ts []Tool
		if err == nil {
			ts, err = cli.GetTools(ctx)
		}
		if err != nil {
			if cli != nil {
				_ = cli.Close()
			}
			ret.Close()
			return nil, err
		}
		log.Info("loaded %d tools from mcp server %s", len(ts), cfg.Name)
		ret.clients = append(ret.clients, cli)
		ret.tools = append(ret.tools, ts...)
	}
	return ret, nil
}

func (m *MCPTools) GetTools() []Tool {
	if m == nil {
		return nil
	}
	return m.tools
}

func (m *MCPTools) Close() {
	if m == nil {
		return
	}
	for _, c := range m.clients {
		if err := c.Close(); err != nil {
			log.Warn("close mcp client %s: %v", c.name, err)
		}
	}
	m.clients = nil
}
