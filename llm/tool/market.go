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
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cloudwego/marketflow/internal/log"
	"github.com/go-playground/validator/v10"
)

const (
	DefaultMarketURL = "https://www.alphavantage.co/query"
	DefaultMarket    = "USD"
)

type Mode string

const (
	ModePrice Mode = "price"
	ModeNews  Mode = "news"
)

// MarketQuery selects one market-data request.
type MarketQuery struct {
	Symbol   string `json:"symbol" validate:"required,max=32"`
	Market   string `json:"market,omitempty" validate:"omitempty,max=16"`
	IsCrypto bool   `json:"isCrypto,omitempty"`
	Mode     Mode   `json:"mode" validate:"required,oneof=price news"`
}

// Fetcher returns the raw JSON document for a query.
type Fetcher interface {
	Fetch(ctx context.Context, q MarketQuery) (json.RawMessage, error)
}

type MarketOptions struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration // per request, default: 30s
	Client  *http.Client  // optional
}

// MarketClient talks to an AlphaVantage-compatible query endpoint.
// It performs no retries.
type MarketClient struct {
	opts     MarketOptions
	cli      *http.Client
	validate *validator.Validate
}

var _ Fetcher = (*MarketClient)(nil)

func NewMarketClient(opts MarketOptions) *MarketClient {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	cli := opts.Client
	if cli == nil {
		cli = &http.Client{Timeout: opts.Timeout}
	}
	return &MarketClient{
		opts:     opts,
		cli:      cli,
		validate: validator.New(),
	}
}

func (c *MarketClient) Fetch(ctx context.Context, q MarketQuery) (json.RawMessage, error) {
	if c.opts.BaseURL == "" || c.opts.APIKey == "" {
		return nil, newToolError(KindMissingConfig, nil, "market data base URL and API key are required")
	}
	q.Symbol = strings.TrimSpace(q.Symbol)
	if err := c.validate.Struct(q); err != nil {
		return nil, newToolError(KindInvalidQuery, err, "invalid market query")
	}

	u, err := url.Parse(c.opts.BaseURL)
	if err != nil {
		return nil, newToolError(KindMissingConfig, err, "invalid market data base URL")
	}
	params := queryParams(q)
	log.Info("market fetch %s %s", u.Redacted(), params.Encode())
	params.Set("apikey", c.opts.APIKey)
	u.RawQuery = params.Encode()

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, newToolError(KindTransport, err, "build request")
	}
	resp, err := c.cli.Do(req)
	if err != nil {
		return nil, newToolError(KindTransport, redact(err, c.opts.APIKey), "%s request failed", q.Mode)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newToolError(KindTransport, err, "read %s response", q.Mode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newToolError(KindRemote, nil, "%s request returned %s", q.Mode, resp.Status)
	}
	if !json.Valid(body) {
		return nil, newToolError(KindRemote, nil, "%s response is not valid JSON", q.Mode)
	}
	if msg, ok := apiError(body); ok {
		return nil, newToolError(KindRemote, nil, "%s", msg)
	}
	log.Info("market %s call successful", q.Mode)
	return json.RawMessage(bytes.TrimSpace(body)), nil
}

func queryParams(q MarketQuery) url.Values {
	v := url.Values{}
	switch {
	case q.Mode == ModeNews:
		v.Set("function", "NEWS_SENTIMENT")
		v.Set("tickers", q.Symbol)
	case q.IsCrypto:
		market := q.Market
		if market == "" {
			market = DefaultMarket
		}
		v.Set("function", "DIGITAL_CURRENCY_DAILY")
		v.Set("symbol", q.Symbol)
		v.Set("market", market)
	default:
		v.Set("function", "TIME_SERIES_DAILY")
		v.Set("symbol", q.Symbol)
	}
	return v
}

// apiError detects the error documents AlphaVantage returns with status 200.
func apiError(body []byte) (string, bool) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", false
	}
	for _, key := range []string{"Error Message", "Note", "Information"} {
		raw, ok := doc[key]
		if !ok {
			continue
		}
		var msg string
		if json.Unmarshal(raw, &msg) != nil {
			msg = string(raw)
		}
		return msg, true
	}
	return "", false
}

// redact strips the API key from errors that echo the request URL.
func redact(err error, key string) error {
	if key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	return redactedError{msg: strings.ReplaceAll(err.Error(), key, "REDACTED"), cause: err}
}

type redactedError struct {
	msg   string
	cause error
}

func (e redactedError) Error() string { return e.msg }
func (e redactedError) Unwrap() error { return e.cause }
