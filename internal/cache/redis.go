// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPrefix = "deta:"
	redisPoolSize      = 10
	redisDialTimeout   = 5 * time.Second
	redisIOTimeout     = 3 * time.Second
	redisScanBatch     = 500
)

// RedisCache is the shared backend used when several server processes
// serve the same site. Every key is namespaced under one prefix so a
// staging and a production site can share a Redis database.
type RedisCache struct {
	rdb    *redis.Client
	ns     string
	ttl    time.Duration
	closed atomic.Bool

	hits, misses, sets atomic.Int64
}

// DialRedis connects to cfg.RedisURL and checks the server answers
// before returning. Pool size can be overridden with ?pool_size= in the URL.
func DialRedis(ctx context.Context, cfg Config) (*RedisCache, error) {
	if cfg.RedisURL == "" {
		return nil, errors.New("redis URL is required")
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL %s: %w", SanitizeRedisURL(cfg.RedisURL), err)
	}
	if opts.PoolSize == 0 {
		opts.PoolSize = redisPoolSize
	}
	opts.DialTimeout = redisDialTimeout
	opts.ReadTimeout = redisIOTimeout
	opts.WriteTimeout = redisIOTimeout

	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, redisDialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", SanitizeRedisURL(cfg.RedisURL), err)
	}

	c := &RedisCache{rdb: rdb, ns: cfg.Prefix, ttl: cfg.DefaultTTL}
	if c.ns == "" {
		c.ns = defaultRedisPrefix
	}
	if c.ttl <= 0 {
		c.ttl = time.Hour
	}
	return c, nil
}

// usable reports ErrCacheClosed once Close has run.
func (c *RedisCache) usable() error {
	if c.closed.Load() {
		return ErrCacheClosed
	}
	return nil
}

// Get returns ErrCacheMiss for absent or expired keys.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := c.usable(); err != nil {
		return nil, err
	}
	val, err := c.rdb.Get(ctx, c.ns+key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		c.misses.Add(1)
		return nil, ErrCacheMiss
	case err != nil:
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	c.hits.Add(1)
	return val, nil
}

// Set stores value under key. A zero ttl uses the configured default.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.usable(); err != nil {
		return err
	}
	if ttl == 0 {
		ttl = c.ttl
	}
	if err := c.rdb.Set(ctx, c.ns+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	c.sets.Add(1)
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.usable(); err != nil {
		return err
	}
	return c.rdb.Del(ctx, c.ns+key).Err()
}

func (c *RedisCache) Has(ctx context.Context, key string) (bool, error) {
	if err := c.usable(); err != nil {
		return false, err
	}
	n, err := c.rdb.Exists(ctx, c.ns+key).Result()
	return n > 0, err
}

// DeleteByPrefix removes every key in the namespace starting with prefix.
func (c *RedisCache) DeleteByPrefix(ctx context.Context, prefix string) error {
	if err := c.usable(); err != nil {
		return err
	}
	return c.eachKey(ctx, c.ns+escapeGlob(prefix)+"*", func(batch []string) error {
		return c.rdb.Unlink(ctx, batch...).Err()
	})
}

// Clear empties the namespace, leaving other keys in the database alone.
func (c *RedisCache) Clear(ctx context.Context) error {
	return c.DeleteByPrefix(ctx, "")
}

func (c *RedisCache) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.rdb.Close()
}

// Ping is used by the health endpoint.
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.usable(); err != nil {
		return err
	}
	return c.rdb.Ping(ctx).Err()
}

// Stats counts the keys in the namespace with SCAN. Hit and miss counters
// belong to this process only.
func (c *RedisCache) Stats(ctx context.Context) Stats {
	s := Stats{
		Backend: "redis",
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Sets:    c.sets.Load(),
	}
	s.HitRate = hitRate(s.Hits, s.Misses)
	if c.usable() != nil {
		return s
	}
	_ = c.eachKey(ctx, c.ns+"*", func(batch []string) error {
		s.Items += len(batch)
		return nil
	})
	return s
}

// eachKey walks the keys matching pattern in SCAN batches. KEYS would
// block the server on a large database.
func (c *RedisCache) eachKey(ctx context.Context, pattern string, fn func(batch []string) error) error {
	iter := c.rdb.Scan(ctx, 0, pattern, redisScanBatch).Iterator()
	batch := make([]string, 0, redisScanBatch)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == redisScanBatch {
			if err := fn(batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return fn(batch)
	}
	return nil
}

// escapeGlob quotes the characters SCAN MATCH treats as patterns.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`*?[]\`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

var (
	_ Cacher        = (*RedisCache)(nil)
	_ StatsProvider = (*RedisCache)(nil)
	_ Pinger        = (*RedisCache)(nil)
)
