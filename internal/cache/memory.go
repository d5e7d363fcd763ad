// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryCache is a thread-safe in-process cache.
type MemoryCache struct {
	mu         sync.RWMutex
	data       map[string]*memoryCacheEntry
	defaultTTL time.Duration
	maxSize    int // 0 = unlimited
	stopCh     chan struct{}
	closed     atomic.Bool

	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64
	size   atomic.Int64 // approximate bytes
}

type memoryCacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCacheOptions configures the memory cache.
type MemoryCacheOptions struct {
	DefaultTTL      time.Duration
	MaxSize         int           // Maximum number of entries (0 = unlimited)
	CleanupInterval time.Duration // Interval for expired entry cleanup (0 = no cleanup)
}

// NewMemoryCache creates a new memory cache with the given options.
func NewMemoryCache(opts MemoryCacheOptions) *MemoryCache {
	c := &MemoryCache{
		data:       make(map[string]*memoryCacheEntry),
		defaultTTL: opts.DefaultTTL,
		maxSize:    opts.MaxSize,
		stopCh:     make(chan struct{}),
	}
	if c.defaultTTL <= 0 {
		c.defaultTTL = 5 * time.Minute
	}

	if opts.CleanupInterval > 0 {
		go c.cleanupLoop(opts.CleanupInterval)
	}

	return c
}

// Get retrieves a copy of the cached value.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrCacheClosed
	}

	c.mu.RLock()
	entry, ok := c.data[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		if ok {
			c.mu.Lock()
			c.removeLocked(key)
			c.mu.Unlock()
		}
		c.misses.Add(1)
		return nil, ErrCacheMiss
	}

	c.hits.Add(1)
	result := make([]byte, len(entry.value))
	copy(result, entry.value)
	return result, nil
}

// Set stores a copy of value. When the cache is full, expired entries are
// dropped first and then the entry closest to expiry is evicted.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)
	entry := &memoryCacheEntry{value: valueCopy, expiresAt: time.Now().Add(ttl)}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.data[key]; !exists && c.maxSize > 0 && len(c.data) >= c.maxSize {
		c.removeExpiredLocked(time.Now())
		if len(c.data) >= c.maxSize {
			c.evictOneLocked()
		}
	}

	c.removeLocked(key)
	c.data[key] = entry
	c.size.Add(int64(len(valueCopy)))
	c.sets.Add(1)
	return nil
}

// Delete removes a key from the cache.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	c.mu.Lock()
	c.removeLocked(key)
	c.mu.Unlock()
	return nil
}

// DeleteByPrefix removes all keys starting with the given prefix.
func (c *MemoryCache) DeleteByPrefix(_ context.Context, prefix string) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.data {
		if strings.HasPrefix(key, prefix) {
			c.removeLocked(key)
		}
	}
	return nil
}

// Clear removes all entries from the cache.
func (c *MemoryCache) Clear(_ context.Context) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	c.mu.Lock()
	c.data = make(map[string]*memoryCacheEntry)
	c.size.Store(0)
	c.mu.Unlock()
	return nil
}

// Has checks if a key exists in the cache (and is not expired).
func (c *MemoryCache) Has(_ context.Context, key string) (bool, error) {
	if c.closed.Load() {
		return false, ErrCacheClosed
	}
	c.mu.RLock()
	entry, ok := c.data[key]
	c.mu.RUnlock()
	return ok && !time.Now().After(entry.expiresAt), nil
}

// Close stops the cleanup goroutine.
func (c *MemoryCache) Close() error {
	if c.closed.CompareAndSwap(false, true) {
		close(c.stopCh)
	}
	return nil
}

// Stats returns current cache statistics.
func (c *MemoryCache) Stats(_ context.Context) Stats {
	c.mu.RLock()
	items := len(c.data)
	c.mu.RUnlock()

	hits, misses := c.hits.Load(), c.misses.Load()
	return Stats{
		Backend: "memory",
		Hits:    hits,
		Misses:  misses,
		Sets:    c.sets.Load(),
		Items:   items,
		HitRate: hitRate(hits, misses),
		Size:    c.size.Load(),
	}
}

func (c *MemoryCache) removeLocked(key string) {
	if entry, ok := c.data[key]; ok {
		delete(c.data, key)
		c.size.Add(-int64(len(entry.value)))
	}
}

func (c *MemoryCache) removeExpiredLocked(now time.Time) {
	for key, entry := range c.data {
		if now.After(entry.expiresAt) {
			c.removeLocked(key)
		}
	}
}

func (c *MemoryCache) evictOneLocked() {
	var (
		victim   string
		earliest time.Time
		found    bool
	)
	for key, entry := range c.data {
		if !found || entry.expiresAt.Before(earliest) {
			victim, earliest, found = key, entry.expiresAt, true
		}
	}
	if found {
		c.removeLocked(victim)
	}
}

func (c *MemoryCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			c.removeExpiredLocked(time.Now())
			c.mu.Unlock()
		case <-c.stopCh:
			return
		}
	}
}

var (
	_ Cacher        = (*MemoryCache)(nil)
	_ StatsProvider = (*MemoryCache)(nil)
)
