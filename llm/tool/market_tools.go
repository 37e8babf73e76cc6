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
	"encoding/json"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/marketflow/internal/log"
	mfutil "github.com/cloudwego/marketflow/internal/utils"
	"github.com/pkg/errors"
)

const (
	ToolMarketPrice = "market_price"
	DescMarketPrice = "Get daily price data for stocks or cryptocurrencies"
	ToolMarketNews  = "market_news"
	DescMarketNews  = "Get news sentiment data for stocks"
)

type MarketToolsOptions struct {
	Fetcher Fetcher
}

// MarketTools exposes a Fetcher to agents as invokable tools.
type MarketTools struct {
	opts  MarketToolsOptions
	tools map[string]tool.InvokableTool
}

func NewMarketTools(opts MarketToolsOptions) (*MarketTools, error) {
	if opts.Fetcher == nil {
		return nil, errors.New("market tools: fetcher is nil")
	}
	ret := &MarketTools{
		opts:  opts,
		tools: map[string]tool.InvokableTool{},
	}
	marshal := utils.WithMarshalOutput(func(ctx context.Context, output interface{}) (string, error) {
		return mfutil.MarshalJSONIndent(output)
	})

	tt, err := utils.InferTool(ToolMarketPrice, DescMarketPrice, ret.Price, marshal)
	if err != nil {
		return nil, errors.Wrap(err, "infer market_price tool")
	}
	ret.tools[ToolMarketPrice] = tt

	tt, err = utils.InferTool(ToolMarketNews, DescMarketNews, ret.News, marshal)
	if err != nil {
		return nil, errors.Wrap(err, "infer market_news tool")
	}
	ret.tools[ToolMarketNews] = tt

	return ret, nil
}

func (t *MarketTools) GetTools() []Tool {
	return []Tool{t.tools[ToolMarketPrice], t.tools[ToolMarketNews]}
}

func (t *MarketTools) GetTool(name string) Tool {
	tt, ok := t.tools[name]
	if !ok {
		return nil
	}
	return tt
}

type PriceReq struct {
	Symbol   string `json:"symbol" jsonschema:"description=Stock symbol (e.g. AAPL) or crypto symbol (e.g. BTC)"`
	Market   string `json:"market,omitempty" jsonschema:"description=Market for crypto (e.g. USD or EUR) - required for crypto symbols"`
	IsCrypto bool   `json:"isCrypto,omitempty" jsonschema:"description=Set to true if fetching cryptocurrency data"`
}

type NewsReq struct {
	Ticker string `json:"ticker" jsonschema:"description=Stock ticker symbol (e.g. AAPL or TSLA)"`
}

// MarketResp carries either the raw market document or the failure.
type MarketResp struct {
	Data      json.RawMessage `json:"data,omitempty" jsonschema:"description=the raw market data document"`
	ErrorKind ErrorKind       `json:"error_kind,omitempty" jsonschema:"description=the error kind"`
	Error     string          `json:"error,omitempty" jsonschema:"description=the error message"`
}

func (t *MarketTools) Price(ctx context.Context, req PriceReq) (*MarketResp, error) {
	return t.fetch(ctx, MarketQuery{
		Symbol:   req.Symbol,
		Market:   req.Market,
		IsCrypto: req.IsCrypto,
		Mode:     ModePrice,
	})
}

func (t *MarketTools) News(ctx context.Context, req NewsReq) (*MarketResp, error) {
	return t.fetch(ctx, MarketQuery{Symbol: req.Ticker, Mode: ModeNews})
}

// fetch reports ToolErrors inside the response so the agent can explain them;
// other errors abort the agent run.
func (t *MarketTools) fetch(ctx context.Context, q MarketQuery) (*MarketResp, error) {
	data, err := t.opts.Fetcher.Fetch(ctx, q)
	if err != nil {
		var te *ToolError
		if errors.As(err, &te) {
			log.Error("market %s tool failed: %v", q.Mode, te)
			return &MarketResp{ErrorKind: te.Kind, Error: te.Error()}, nil
		}
		return nil, err
	}
	return &MarketResp{Data: data}, nil
}
