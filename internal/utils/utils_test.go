// Copyright 2025 ByteDance Inc.
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

package utils

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalJSONIndent(t *testing.T) {
	s, err := MarshalJSONIndent(map[string]any{"a": "<b>", "n": 1})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": \"<b>\",\n  \"n\": 1\n}", s)

	_, err = MarshalJSONIndent(make(chan int))
	assert.Error(t, err)
}

func TestWatchDir(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	seen := map[string]fsnotify.Op{}
	done := make(chan error, 1)
	go func() {
		done <- WatchDir(ctx, dir, func(op fsnotify.Op, file string) {
			mu.Lock()
			seen[filepath.Base(file)] |= op
			mu.Unlock()
		})
	}()

	target := filepath.Join(dir, "payload.json")
	require.Eventually(t, func() bool {
		_ = os.WriteFile(target, []byte(`{}`), 0o644)
		mu.Lock()
		defer mu.Unlock()
		return seen["payload.json"]&(fsnotify.Create|fsnotify.Write) != 0
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("WatchDir did not return after cancel")
	}
}

func TestWatchDir_Missing(t *testing.T) {
	err := WatchDir(context.Background(), filepath.Join(t.TempDir(), "missing"), func(fsnotify.Op, string) {})
	assert.Error(t, err)
}
