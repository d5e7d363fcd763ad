// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cache provides the short-lived read cache that services put in
// front of the database. Entries are invalidated by key prefix after a
// successful write.
package cache

import (
	"context"
	"time"
)

// Cacher is implemented by the memory and Redis backends.
// All implementations must be safe for concurrent use.
type Cacher interface {
	// Get returns ErrCacheMiss when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key. A zero ttl uses the backend default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error

	// DeleteByPrefix removes every key starting with prefix.
	DeleteByPrefix(ctx context.Context, prefix string) error

	Clear(ctx context.Context) error

	Has(ctx context.Context, key string) (bool, error)

	Close() error
}

// Stats holds cache statistics.
type Stats struct {
	Backend string  `json:"backend"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Sets    int64   `json:"sets"`
	Items   int     `json:"items"`
	HitRate float64 `json:"hit_rate"`
	Size    int64   `json:"size_bytes,omitempty"`
}

// StatsProvider is implemented by backends that count hits and misses.
type StatsProvider interface {
	Stats(ctx context.Context) Stats
}

// Pinger is implemented by backends behind a network connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Error represents an error type for cache operations.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	// ErrCacheMiss indicates the key was not found in cache or has expired.
	ErrCacheMiss Error = "cache miss"

	// ErrCacheClosed indicates the cache has been closed.
	ErrCacheClosed Error = "cache closed"
)

func hitRate(hits, misses int64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}
