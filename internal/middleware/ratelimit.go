// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/detagroup/detaweb/internal/util"
)

// maxLimiters bounds the per-client limiter map. It is reset when full.
const maxLimiters = 10000

// limiterCache hands out one token bucket per key.
type limiterCache[K comparable] struct {
	limiters map[K]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

func newLimiterCache[K comparable](limit rate.Limit, burst int) *limiterCache[K] {
	return &limiterCache[K]{
		limiters: make(map[K]*rate.Limiter),
		rate:     limit,
		burst:    burst,
	}
}

// get returns the limiter for key, creating one if needed.
func (lc *limiterCache[K]) get(key K) *rate.Limiter {
	lc.mu.RLock()
	limiter, exists := lc.limiters[key]
	lc.mu.RUnlock()
	if exists {
		return limiter
	}

	lc.mu.Lock()
	defer lc.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists = lc.limiters[key]; exists {
		return limiter
	}
	if len(lc.limiters) >= maxLimiters {
		lc.limiters = make(map[K]*rate.Limiter)
	}
	limiter = rate.NewLimiter(lc.rate, lc.burst)
	lc.limiters[key] = limiter
	return limiter
}

// RateLimit allows perMinute requests per client address with the given
// burst and answers 429 with Retry-After beyond that.
func RateLimit(perMinute, burst int) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if burst <= 0 {
		burst = perMinute
	}
	limit := rate.Every(time.Minute / time.Duration(perMinute))
	limiters := newLimiterCache[string](limit, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := util.ClientIP(r)
			res := limiters.get(ip).Reserve()
			if delay := res.Delay(); delay > 0 {
				res.Cancel()
				slog.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
				WriteAPIError(w, r, http.StatusTooManyRequests, "rate_limited", "error.rate_limited")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
