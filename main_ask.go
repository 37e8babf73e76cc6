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
	"fmt"
	"strings"

	"github.com/cloudwego/marketflow/llm/tool"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func askCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ask QUESTION...",
		Short: "ask the stock and crypto agent a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := withTimeout(cmd.Context(), a.cfg.Model.Timeout)
			defer cancel()
			gen, err := a.generator(ctx)
			if err != nil {
				return err
			}
			if gen == nil {
				return errors.New("ask needs a model: set API_TYPE, MODEL_NAME and API_KEY")
			}
			answer, err := gen.Call(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.out, answer)
			return err
		},
	}
}

func fetchCmd(a *app) *cobra.Command {
	var q tool.MarketQuery
	cmd := &cobra.Command{
		Use:       "fetch price|news SYMBOL",
		Short:     "fetch raw market data",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(tool.ModePrice), string(tool.ModeNews)},
		RunE: func(cmd *cobra.Command, args []string) error {
			q.Mode = tool.Mode(args[0])
			q.Symbol = args[1]
			f, err := a.fetcher()
			if err != nil {
				return err
			}
			data, err := f.Fetch(cmd.Context(), q)
			if err != nil {
				return err
			}
			return a.print(data)
		},
	}
	cmd.Flags().BoolVar(&q.IsCrypto, "crypto", false, "symbol is a cryptocurrency")
	cmd.Flags().StringVar(&q.Market, "market", "", "market currency for crypto (default USD)")
	return cmd
}
