// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderPage struct {
	Total int      `json:"total"`
	IDs   []string `json:"ids"`
}

func TestTypedCache_SetGet(t *testing.T) {
	tc := NewTypedCache[orderPage](newTestMemoryCache(t, 0), time.Hour)
	ctx := context.Background()

	want := &orderPage{Total: 2, IDs: []string{"o1", "o2"}}
	require.NoError(t, tc.Set(ctx, Key("orders", "pending", ""), want))

	got, ok := tc.Get(ctx, Key("orders", "pending", ""))
	require.True(t, ok)
	assert.Equal(t, want, got)

	_, ok = tc.Get(ctx, Key("orders", "shipped", ""))
	assert.False(t, ok)
}

func TestTypedCache_GetOrSet(t *testing.T) {
	tc := NewTypedCache[orderPage](newTestMemoryCache(t, 0), time.Hour)
	ctx := context.Background()

	calls := 0
	load := func() (*orderPage, error) {
		calls++
		return &orderPage{Total: calls}, nil
	}

	first, err := tc.GetOrSet(ctx, "orders:all", load)
	require.NoError(t, err)
	second, err := tc.GetOrSet(ctx, "orders:all", load)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestTypedCache_GetOrSetError(t *testing.T) {
	tc := NewTypedCache[orderPage](newTestMemoryCache(t, 0), time.Hour)
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := tc.GetOrSet(ctx, "orders:all", func() (*orderPage, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	_, ok := tc.Get(ctx, "orders:all")
	assert.False(t, ok)
}

func TestTypedCache_Invalidate(t *testing.T) {
	tc := NewTypedCache[orderPage](newTestMemoryCache(t, 0), time.Hour)
	ctx := context.Background()

	require.NoError(t, tc.Set(ctx, Key("orders", "pending", "ali"), &orderPage{}))
	require.NoError(t, tc.Set(ctx, Key("orders", "", ""), &orderPage{}))
	require.NoError(t, tc.Set(ctx, Key("products", "en"), &orderPage{}))

	require.NoError(t, tc.Invalidate(ctx, Prefix("orders")))

	cached := func(key string) bool {
		_, ok := tc.Get(ctx, key)
		return ok
	}
	assert.False(t, cached(Key("orders", "pending", "ali")))
	assert.False(t, cached(Key("orders", "", "")))
	assert.True(t, cached(Key("products", "en")))
}

func TestTypedCache_InvalidateDuringLoad(t *testing.T) {
	tc := NewTypedCache[orderPage](newTestMemoryCache(t, 0), time.Hour)
	ctx := context.Background()
	key := Key("orders", "pending", "")

	// The write lands after the loader read the old rows.
	stale, err := tc.GetOrSet(ctx, key, func() (*orderPage, error) {
		require.NoError(t, tc.Invalidate(ctx, Prefix("orders")))
		return &orderPage{Total: 1}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stale.Total)

	calls := 0
	fresh, err := tc.GetOrSet(ctx, key, func() (*orderPage, error) {
		calls++
		return &orderPage{Total: 2}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "value loaded before the invalidation must not be served")
	assert.Equal(t, 2, fresh.Total)

	again, err := tc.GetOrSet(ctx, key, func() (*orderPage, error) {
		calls++
		return nil, errors.New("should be cached")
	})
	require.NoError(t, err)
	assert.Equal(t, 2, again.Total)
	assert.Equal(t, 1, calls)
}

func TestInvalidatePrefix_SharesGenerationWithTypedCache(t *testing.T) {
	mem := newTestMemoryCache(t, 0)
	pages := NewTypedCache[orderPage](mem, time.Hour)
	ctx := context.Background()

	require.NoError(t, pages.Set(ctx, Key("pages", "about", "en"), &orderPage{Total: 1}))
	require.NoError(t, pages.Set(ctx, Key("products", "en"), &orderPage{Total: 2}))

	require.NoError(t, InvalidatePrefix(ctx, mem, Prefix("pages")))

	_, ok := pages.Get(ctx, Key("pages", "about", "en"))
	assert.False(t, ok)
	got, ok := pages.Get(ctx, Key("products", "en"))
	require.True(t, ok)
	assert.Equal(t, 2, got.Total)
}

func TestTypedCache_CorruptEntryIsMiss(t *testing.T) {
	mem := newTestMemoryCache(t, 0)
	tc := NewTypedCache[orderPage](mem, time.Hour)
	ctx := context.Background()

	require.NoError(t, mem.Set(ctx, "orders:bad@0", []byte("{not json"), 0))
	_, ok := tc.Get(ctx, "orders:bad")
	assert.False(t, ok)
}
