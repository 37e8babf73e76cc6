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
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/marketflow/internal/log"
	"github.com/dgraph-io/ristretto"
	"github.com/pkg/errors"
)

// CachedFetcher keeps successful responses in memory for a TTL.
// Errors are never cached.
type CachedFetcher struct {
	next  Fetcher
	ttl   time.Duration
	cache *ristretto.Cache
}

var _ Fetcher = (*CachedFetcher)(nil)

func NewCachedFetcher(next Fetcher, ttl time.Duration) (*CachedFetcher, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10000,    // number of keys to track frequency
		MaxCost:     64 << 20, // maximum cost of cache (64mb)
		BufferItems: 64,       // number of keys per Get buffer
	})
	if err != nil {
		return nil, errors.Wrap(err, "init market cache")
	}
	return &CachedFetcher{next: next, ttl: ttl, cache: cache}, nil
}

func (c *CachedFetcher) Fetch(ctx context.Context, q MarketQuery) (json.RawMessage, error) {
	key := cacheKey(q)
	if v, ok := c.cache.Get(key); ok {
		log.Debug("market cache hit %s", key)
		return cloneRaw(v.(json.RawMessage)), nil
	}
	data, err := c.next.Fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	c.cache.SetWithTTL(key, cloneRaw(data), int64(len(data)), c.ttl)
	// wait for value to pass through buffers
	c.cache.Wait()
	return data, nil
}

// cloneRaw keeps cached entries private to the cache.
func cloneRaw(v json.RawMessage) json.RawMessage {
	return append(json.RawMessage(nil), v...)
}

func (c *CachedFetcher) Close() {
	c.cache.Close()
}

func cacheKey(q MarketQuery) string {
	market := ""
	if q.IsCrypto {
		market = strings.ToUpper(q.Market)
		if market == "" {
			market = DefaultMarket
		}
	}
	return strings.Join([]string{
		string(q.Mode),
		strings.ToUpper(strings.TrimSpace(q.Symbol)),
		strconv.FormatBool(q.IsCrypto),
		market,
	}, "|")
}
