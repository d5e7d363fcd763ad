// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package analytics records anonymous page views and summarizes them for
// the admin dashboard. No addresses or user ids are stored, only the
// country the address resolves to.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/detagroup/detaweb/internal/geoip"
	"github.com/detagroup/detaweb/internal/store"
)

// DefaultBufferSize is the number of views that can wait for the writer.
const DefaultBufferSize = 256

// View is one page view as seen by the HTTP layer.
type View struct {
	Path      string
	Language  string
	UserAgent string
	IP        string
}

// Recorder writes page views in the background. Views are dropped rather
// than slowing requests down when the buffer is full.
type Recorder struct {
	queries *store.Queries
	geo     *geoip.Lookup
	logger  *slog.Logger
	now     func() time.Time

	queue   chan View
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewRecorder creates a Recorder. geo may be nil.
func NewRecorder(queries *store.Queries, geo *geoip.Lookup, logger *slog.Logger, bufferSize int) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	if geo == nil {
		geo = &geoip.Lookup{}
	}
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Recorder{
		queries: queries,
		geo:     geo,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		queue:   make(chan View, bufferSize),
	}
}

// Start launches the writer. It stops when ctx is cancelled or Stop is called.
func (r *Recorder) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	r.running = true

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-r.queue:
				if !ok {
					return
				}
				if err := r.Record(ctx, v); err != nil {
					r.logger.Warn("failed to record page view", "path", v.Path, "error", err)
				}
			}
		}
	}()
}

// Stop drains queued views and waits for the writer to exit.
func (r *Recorder) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	close(r.queue)
	r.mu.Unlock()
	r.wg.Wait()
}

// Track queues v without blocking and reports whether it was accepted.
func (r *Recorder) Track(v View) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return false
	}
	select {
	case r.queue <- v:
		return true
	default:
		return false
	}
}

// Record writes v synchronously. Bot traffic is ignored.
func (r *Recorder) Record(ctx context.Context, v View) error {
	client := ParseUserAgent(v.UserAgent)
	if client.DeviceType == DeviceBot {
		return nil
	}

	err := r.queries.CreatePageView(ctx, store.CreatePageViewParams{
		Path:         v.Path,
		LanguageCode: v.Language,
		Browser:      client.Browser,
		Os:           client.OS,
		DeviceType:   client.DeviceType,
		CountryCode:  r.geo.Country(v.IP),
		CreatedAt:    r.now(),
	})
	if err != nil {
		return fmt.Errorf("creating page view: %w", err)
	}
	return nil
}
