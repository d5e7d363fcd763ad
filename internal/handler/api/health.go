// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/detagroup/detaweb/internal/cache"
	"github.com/detagroup/detaweb/internal/middleware"
	"github.com/detagroup/detaweb/internal/model"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusDegraded  = "degraded"
)

// HealthStatus is the health response. Anonymous callers only see Status.
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp *time.Time       `json:"timestamp,omitempty"`
	Uptime    string           `json:"uptime,omitempty"`
	Version   string           `json:"version,omitempty"`
	Commit    string           `json:"commit,omitempty"`
	GoVersion string           `json:"go_version,omitempty"`
	Checks    map[string]Check `json:"checks,omitempty"`
	Cache     *cache.Stats     `json:"cache,omitempty"`
}

// Check represents a single health check result.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Health handles GET /health. It answers 503 when the database is
// unreachable; a failing cache only degrades the status. Staff see
// version, check details and cache counters.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	db := h.checkDatabase(r.Context())
	checks := map[string]Check{"database": db}
	if h.cache != nil {
		checks["cache"] = h.checkCache(r.Context())
	}

	code := http.StatusOK
	resp := HealthStatus{Status: statusHealthy}
	if db.Status != statusHealthy {
		code = http.StatusServiceUnavailable
		resp.Status = statusDegraded
	} else if c, ok := checks["cache"]; ok && c.Status != statusHealthy {
		resp.Status = statusDegraded
	}

	if user := middleware.GetUser(r); user != nil && model.HasRole(user.Role, model.RoleEditor) {
		now := time.Now().UTC()
		resp.Timestamp = &now
		resp.Uptime = time.Since(h.started).Round(time.Second).String()
		resp.Version = h.version.Version
		resp.Commit = h.version.GitCommit
		resp.GoVersion = runtime.Version()
		resp.Checks = checks
		if sp, ok := h.cache.(cache.StatsProvider); ok {
			stats := sp.Stats(r.Context())
			resp.Cache = &stats
		}
	}

	WriteJSON(w, code, resp)
}

// checkDatabase verifies database connectivity.
func (h *Handler) checkDatabase(ctx context.Context) Check {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.PingContext(ctx)
	latency := time.Since(start)

	if err != nil {
		h.logger.Error("health check: database unreachable", "error", err)
		return Check{Status: statusUnhealthy, Message: "database unreachable", Latency: latency.String()}
	}
	return Check{Status: statusHealthy, Latency: latency.String()}
}

// checkCache pings backends that sit behind a connection. The memory
// cache is always healthy.
func (h *Handler) checkCache(ctx context.Context) Check {
	p, ok := h.cache.(cache.Pinger)
	if !ok {
		return Check{Status: statusHealthy}
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := p.Ping(ctx)
	latency := time.Since(start)
	if err != nil {
		h.logger.Warn("health check: cache unreachable", "error", err)
		return Check{Status: statusUnhealthy, Message: "cache unreachable", Latency: latency.String()}
	}
	return Check{Status: statusHealthy, Latency: latency.String()}
}
