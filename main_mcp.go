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
	"github.com/cloudwego/marketflow/internal/log"
	"github.com/cloudwego/marketflow/internal/workflow"
	"github.com/cloudwego/marketflow/llm/mcp"
	"github.com/cloudwego/marketflow/version"
	"github.com/spf13/cobra"
)

func describeCmd(a *app) *cobra.Command {
	var dot bool
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "describe the workflow steps and their shapes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// shapes do not depend on the reasoning service
			p, err := workflow.New(workflow.Deps{})
			if err != nil {
				return err
			}
			if dot {
				return workflow.WriteDOT(p, a.out)
			}
			d, err := workflow.Describe(p)
			if err != nil {
				return err
			}
			return a.print(d)
		},
	}
	cmd.Flags().BoolVar(&dot, "dot", false, "print a DOT graph instead of JSON")
	return cmd
}

func mcpCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "run as a MCP server over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.workflow(cmd.Context())
			if err != nil {
				return err
			}
			f, err := a.fetcher()
			if err != nil {
				return err
			}
			svr, err := mcp.NewServer(mcp.ServerOptions{
				ServerName:    Name,
				ServerVersion: version.Version,
				Verbose:       log.GetLevel() <= log.DebugLevel,
				Workflow:      p,
				Fetcher:       f,
			})
			if err != nil {
				return err
			}
			return svr.ServeStdio()
		},
	}
}
