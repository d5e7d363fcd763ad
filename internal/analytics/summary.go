// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/detagroup/detaweb/internal/store"
)

const topLimit = 10

// Summary aggregates page views over a trailing window.
type Summary struct {
	Since     time.Time        `json:"since"`
	Total     int64            `json:"total"`
	PerDay    []store.CountRow `json:"per_day"`
	TopPaths  []store.CountRow `json:"top_paths"`
	Languages []store.CountRow `json:"languages"`
	Countries []store.CountRow `json:"countries"`
	Browsers  []store.CountRow `json:"browsers"`
	Devices   []store.CountRow `json:"devices"`
}

// Summarize reports the views of the last days days, today included.
func (r *Recorder) Summarize(ctx context.Context, days int) (*Summary, error) {
	if days < 1 {
		days = 1
	}
	today := r.now().Truncate(24 * time.Hour)
	since := today.AddDate(0, 0, -(days - 1))

	s := &Summary{Since: since}

	var err error
	if s.Total, err = r.queries.CountPageViewsSince(ctx, since); err != nil {
		return nil, fmt.Errorf("counting page views: %w", err)
	}
	if s.PerDay, err = r.queries.CountPageViewsByDay(ctx, since); err != nil {
		return nil, fmt.Errorf("counting page views by day: %w", err)
	}

	groups := []struct {
		column string
		dst    *[]store.CountRow
	}{
		{"path", &s.TopPaths},
		{"language_code", &s.Languages},
		{"country_code", &s.Countries},
		{"browser", &s.Browsers},
		{"device_type", &s.Devices},
	}
	for _, g := range groups {
		rows, err := r.queries.CountPageViewsBy(ctx, g.column, since, topLimit)
		if err != nil {
			return nil, fmt.Errorf("counting page views by %s: %w", g.column, err)
		}
		if rows == nil {
			rows = []store.CountRow{}
		}
		*g.dst = rows
	}
	if s.PerDay == nil {
		s.PerDay = []store.CountRow{}
	}

	return s, nil
}

// Purge removes raw views older than retention.
func (r *Recorder) Purge(ctx context.Context, retention time.Duration) (int64, error) {
	n, err := r.queries.DeleteOldPageViews(ctx, r.now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("deleting old page views: %w", err)
	}
	return n, nil
}
