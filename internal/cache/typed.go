// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	generationPrefix = "_gen:"
	generationTTL    = 24 * time.Hour
)

// TypedCache stores values of one type as JSON in a Cacher. Entries are
// stored under their key plus the current generation of the key's
// resource (the text before the first colon), so InvalidatePrefix also
// orphans values a concurrent GetOrSet loaded before the invalidation.
type TypedCache[T any] struct {
	cache      Cacher
	defaultTTL time.Duration
}

// NewTypedCache wraps cache; entries expire after defaultTTL.
func NewTypedCache[T any](cache Cacher, defaultTTL time.Duration) *TypedCache[T] {
	return &TypedCache[T]{
		cache:      cache,
		defaultTTL: defaultTTL,
	}
}

// Get returns the cached value for key. Missing and undecodable entries
// both report false.
func (c *TypedCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	return c.get(ctx, versionedKey(ctx, c.cache, key))
}

func (c *TypedCache[T]) get(ctx context.Context, stored string) (*T, bool) {
	data, err := c.cache.Get(ctx, stored)
	if err != nil {
		return nil, false
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, false
	}

	return &value, true
}

// Set stores a value under key with the default TTL.
func (c *TypedCache[T]) Set(ctx context.Context, key string, value *T) error {
	return c.set(ctx, versionedKey(ctx, c.cache, key), value)
}

func (c *TypedCache[T]) set(ctx context.Context, stored string, value *T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.cache.Set(ctx, stored, data, c.defaultTTL)
}

// GetOrSet returns the cached value for key, or loads it with fn and caches
// the result. Load errors are returned and never cached. The result is
// stored under the generation read before fn ran.
func (c *TypedCache[T]) GetOrSet(ctx context.Context, key string, fn func() (*T, error)) (*T, error) {
	stored := versionedKey(ctx, c.cache, key)
	if value, ok := c.get(ctx, stored); ok {
		return value, nil
	}

	value, err := fn()
	if err != nil {
		return nil, err
	}

	// A failed cache write still returns the fresh value.
	_ = c.set(ctx, stored, value)
	return value, nil
}

// Invalidate removes every entry under prefix.
func (c *TypedCache[T]) Invalidate(ctx context.Context, prefix string) error {
	return InvalidatePrefix(ctx, c.cache, prefix)
}

// InvalidatePrefix starts a new generation for the resource prefix belongs
// to, then deletes the entries stored under prefix.
func InvalidatePrefix(ctx context.Context, c Cacher, prefix string) error {
	gen := []byte(uuid.NewString())
	if err := c.Set(ctx, generationPrefix+resourceOf(prefix), gen, generationTTL); err != nil {
		return err
	}
	return c.DeleteByPrefix(ctx, prefix)
}

func resourceOf(key string) string {
	resource, _, _ := strings.Cut(key, ":")
	return resource
}

// versionedKey appends the resource generation to key. A resource that
// was never invalidated is at generation "0".
func versionedKey(ctx context.Context, c Cacher, key string) string {
	gen := "0"
	if b, err := c.Get(ctx, generationPrefix+resourceOf(key)); err == nil {
		gen = string(b)
	}
	return key + "@" + gen
}
