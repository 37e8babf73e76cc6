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
	"github.com/cloudwego/marketflow/internal/pipeline"
	"github.com/cloudwego/marketflow/llm/tool"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/pkg/errors"
)

type ServerOptions struct {
	ServerName    string
	ServerVersion string
	Verbose       bool
	Workflow      *pipeline.Pipeline
	Fetcher       tool.Fetcher
}

type Server struct {
	Server *server.MCPServer
}

type Tool struct {
	mcp.Tool
	Handler server.ToolHandlerFunc
}

func NewServer(opts ServerOptions) (*Server, error) {
	if opts.Workflow == nil {
		return nil, errors.New("mcp server: workflow is nil")
	}
	if opts.Fetcher == nil {
		return nil, errors.New("mcp server: fetcher is nil")
	}
	sopts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithPromptCapabilities(false),
		server.WithRecovery(),
	}
	if opts.Verbose {
		sopts = append(sopts, server.WithLogging())
	}
	s := server.NewMCPServer(opts.ServerName, opts.ServerVersion, sopts...)

	for _, t := range getWorkflowTools(opts.Workflow) {
		s.AddTool(t.Tool, t.Handler)
	}
	for _, t := range getMarketTools(opts.Fetcher) {
		s.AddTool(t.Tool, t.Handler)
	}
	s.AddPrompt(mcp.NewPrompt(PromptStockAgent,
		mcp.WithPromptDescription("System prompt of the stock and crypto analysis agent"),
	), handleStockAgentPrompt)

	return &Server{Server: s}, nil
}

// ServeStdio serves MCP over stdin/stdout until the input closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.Server)
}
