// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/detagroup/detaweb/internal/model"
	"github.com/detagroup/detaweb/internal/store"
	"github.com/detagroup/detaweb/internal/util"
)

// EventEntry is one audit event written explicitly by a handler.
type EventEntry struct {
	Level      string
	Category   string
	Message    string
	UserID     string
	IPAddress  string
	RequestURL string
	Metadata   map[string]any
}

// ListEventsInput filters the event log. Empty fields match everything.
type ListEventsInput struct {
	Level    string
	Category string
	Page     int
	PerPage  int
}

// EventService reads and writes the audit event log. Most events arrive
// through the slog EventLogHandler; Log is for events that carry request
// details the handler cannot see.
type EventService struct {
	queries *store.Queries
	logger  *slog.Logger
	now     func() time.Time
}

// NewEventService creates a new EventService.
func NewEventService(queries *store.Queries, logger *slog.Logger) *EventService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventService{
		queries: queries,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Log stores e. Failures are logged and returned.
func (s *EventService) Log(ctx context.Context, e EventEntry) error {
	if e.Level == "" {
		e.Level = model.EventLevelInfo
	}
	if e.Category == "" {
		e.Category = model.EventCategorySystem
	}

	metadata := "{}"
	if len(e.Metadata) > 0 {
		if b, err := json.Marshal(e.Metadata); err == nil {
			metadata = string(b)
		}
	}

	_, err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:      e.Level,
		Category:   e.Category,
		Message:    e.Message,
		UserID:     util.NullStringFromValue(e.UserID),
		Metadata:   metadata,
		IpAddress:  e.IPAddress,
		RequestUrl: e.RequestURL,
		CreatedAt:  s.now(),
	})
	if err != nil {
		s.logger.Warn("failed to store event", "message", e.Message, "error", err)
		return fmt.Errorf("storing event: %w", err)
	}
	return nil
}

// List returns a page of events, newest first.
func (s *EventService) List(ctx context.Context, in ListEventsInput) (*Page[store.Event], error) {
	page, perPage := pageBounds(in.Page, in.PerPage)

	total, err := s.queries.CountEvents(ctx, in.Level, in.Category)
	if err != nil {
		return nil, fmt.Errorf("counting events: %w", err)
	}

	events, err := s.queries.ListEvents(ctx, store.ListEventsParams{
		Level:    in.Level,
		Category: in.Category,
		Limit:    int64(perPage),
		Offset:   int64((page - 1) * perPage),
	})
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	if events == nil {
		events = []store.Event{}
	}

	return &Page[store.Event]{Items: events, Total: total, Page: page, PerPage: perPage}, nil
}

// Purge removes events older than retention and reports how many went.
func (s *EventService) Purge(ctx context.Context, retention time.Duration) (int64, error) {
	n, err := s.queries.DeleteOldEvents(ctx, s.now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("deleting old events: %w", err)
	}
	return n, nil
}
