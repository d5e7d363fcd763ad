// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Retention windows and sources for the maintenance jobs. Nil sources
// skip their job.
type Maintenance struct {
	EventRetention    time.Duration
	PageViewRetention time.Duration

	Events interface {
		Purge(ctx context.Context, retention time.Duration) (int64, error)
	}
	PageViews interface {
		Purge(ctx context.Context, retention time.Duration) (int64, error)
	}
	Notifications interface {
		RetryDue(ctx context.Context) (int, error)
	}
	Sessions interface {
		Cleanup(ctx context.Context) (int64, error)
	}
	LoginGuard interface {
		Sweep() int
	}
	GeoIP interface {
		Reload() error
	}
}

// Jobs returns the maintenance jobs for the configured sources.
func (m Maintenance) Jobs(logger *slog.Logger) []Job {
	if logger == nil {
		logger = slog.Default()
	}
	var jobs []Job

	if m.Notifications != nil {
		jobs = append(jobs, Job{
			Name:        "retry-notifications",
			Description: "Requeue order emails whose retry time has come",
			Schedule:    "*/5 * * * *",
			Run: func(ctx context.Context) error {
				n, err := m.Notifications.RetryDue(ctx)
				if n > 0 {
					logger.Info("requeued notifications", "count", n)
				}
				return err
			},
		})
	}
	if m.Events != nil && m.EventRetention > 0 {
		jobs = append(jobs, Job{
			Name:        "purge-events",
			Description: "Delete events older than the retention window",
			Schedule:    "30 3 * * *",
			Run:         purgeJob(logger, "events", m.Events.Purge, m.EventRetention),
		})
	}
	if m.PageViews != nil && m.PageViewRetention > 0 {
		jobs = append(jobs, Job{
			Name:        "purge-page-views",
			Description: "Delete raw page views older than the retention window",
			Schedule:    "0 3 * * *",
			Run:         purgeJob(logger, "page views", m.PageViews.Purge, m.PageViewRetention),
		})
	}
	if m.Sessions != nil {
		jobs = append(jobs, Job{
			Name:        "cleanup-sessions",
			Description: "Delete expired sessions",
			Schedule:    "15 * * * *",
			Run: func(ctx context.Context) error {
				_, err := m.Sessions.Cleanup(ctx)
				return err
			},
		})
	}
	if m.LoginGuard != nil {
		jobs = append(jobs, Job{
			Name:        "sweep-login-guard",
			Description: "Forget expired sign-in lockouts",
			Schedule:    "*/10 * * * *",
			Run: func(context.Context) error {
				m.LoginGuard.Sweep()
				return nil
			},
		})
	}
	if m.GeoIP != nil {
		jobs = append(jobs, Job{
			Name:        "reload-geoip",
			Description: "Reopen the GeoIP database when the file changes",
			Schedule:    "0 4 * * *",
			Run: func(context.Context) error {
				return m.GeoIP.Reload()
			},
		})
	}
	return jobs
}

func purgeJob(logger *slog.Logger, what string, purge func(context.Context, time.Duration) (int64, error), retention time.Duration) func(context.Context) error {
	return func(ctx context.Context) error {
		n, err := purge(ctx, retention)
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info("purged old "+what, "count", n, "retention", retention)
		}
		return nil
	}
}
