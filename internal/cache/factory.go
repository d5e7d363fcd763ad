// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"log/slog"
	"net/url"
	"time"
)

// Config holds configuration for cache creation.
type Config struct {
	// RedisURL selects the Redis backend when set, e.g. redis://localhost:6379/0.
	RedisURL string
	Prefix   string

	DefaultTTL time.Duration

	// MaxSize bounds the memory backend (0 = unlimited).
	MaxSize         int
	CleanupInterval time.Duration

	// FallbackToMemory keeps the process running on an unreachable Redis.
	FallbackToMemory bool
}

// Info describes which backend NewCache picked.
type Info struct {
	Backend  string
	RedisURL string // sanitized
	Fallback bool
	Err      error
}

// NewCache returns a Redis cache when RedisURL is set and reachable,
// otherwise an in-memory cache.
func NewCache(cfg Config) (Cacher, Info, error) {
	if cfg.RedisURL != "" {
		rc, err := DialRedis(context.Background(), cfg)
		if err == nil {
			return rc, Info{Backend: "redis", RedisURL: SanitizeRedisURL(cfg.RedisURL)}, nil
		}
		if !cfg.FallbackToMemory {
			return nil, Info{}, err
		}
		slog.Warn("redis unavailable, using memory cache",
			"category", "cache", "url", SanitizeRedisURL(cfg.RedisURL), "error", err)
		return newMemoryFromConfig(cfg), Info{
			Backend:  "memory",
			RedisURL: SanitizeRedisURL(cfg.RedisURL),
			Fallback: true,
			Err:      err,
		}, nil
	}

	return newMemoryFromConfig(cfg), Info{Backend: "memory"}, nil
}

func newMemoryFromConfig(cfg Config) *MemoryCache {
	interval := cfg.CleanupInterval
	if interval == 0 {
		interval = time.Minute
	}
	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      cfg.DefaultTTL,
		MaxSize:         cfg.MaxSize,
		CleanupInterval: interval,
	})
}

// SanitizeRedisURL masks the password in a Redis URL for logging.
func SanitizeRedisURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "[invalid URL]"
	}
	if _, hasPassword := u.User.Password(); hasPassword {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}
