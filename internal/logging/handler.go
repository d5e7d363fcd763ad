// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a slog handler that mirrors warnings and errors
// into the events table shown on the admin events screen.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/detagroup/detaweb/internal/model"
	"github.com/detagroup/detaweb/internal/store"
)

// Attribute keys with a dedicated events column.
const (
	AttrCategory   = "category"
	AttrUserID     = "user_id"
	AttrIP         = "ip"
	AttrRequestURL = "url"
)

// eventWriteTimeout bounds the database write for one record.
const eventWriteTimeout = 2 * time.Second

// EventLogHandler wraps another handler and also writes records at or
// above its level to the events table.
type EventLogHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level
	attrs   []slog.Attr
	group   string
}

// NewEventLogHandler forwards WARN and above to the events table.
func NewEventLogHandler(inner slog.Handler, queries *store.Queries) *EventLogHandler {
	return NewEventLogHandlerWithLevel(inner, queries, slog.LevelWarn)
}

// NewEventLogHandlerWithLevel creates a handler with a custom minimum level.
func NewEventLogHandlerWithLevel(inner slog.Handler, queries *store.Queries, level slog.Level) *EventLogHandler {
	return &EventLogHandler{
		inner:   inner,
		queries: queries,
		level:   level,
	}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}

	if r.Level >= h.level {
		h.writeEvent(r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.inner = h.inner.WithAttrs(attrs)
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), h.qualify(attrs)...)
	return &clone
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.inner = h.inner.WithGroup(name)
	if h.group != "" {
		clone.group = h.group + "." + name
	} else {
		clone.group = name
	}
	return &clone
}

func (h *EventLogHandler) qualify(attrs []slog.Attr) []slog.Attr {
	if h.group == "" {
		return attrs
	}
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: h.group + "." + a.Key, Value: a.Value}
	}
	return out
}

// writeEvent uses its own context so the event survives a cancelled
// request.
func (h *EventLogHandler) writeEvent(r slog.Record) {
	ev := store.CreateEventParams{
		Level:     eventLevel(r.Level),
		Message:   r.Message,
		CreatedAt: r.Time.UTC(),
	}
	if r.Time.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}

	metadata := make(map[string]string)
	collect := func(a slog.Attr) {
		v := a.Value.Resolve().String()
		switch a.Key {
		case AttrCategory:
			ev.Category = v
		case AttrUserID:
			ev.UserID = sql.NullString{String: v, Valid: v != ""}
		case AttrIP:
			ev.IpAddress = v
		case AttrRequestURL:
			ev.RequestUrl = v
		default:
			metadata[a.Key] = v
		}
	}
	for _, a := range h.attrs {
		collect(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		collect(a)
		return true
	})

	if ev.Category == "" {
		ev.Category = inferCategory(r.Message)
	}
	ev.Metadata = "{}"
	if len(metadata) > 0 {
		if b, err := json.Marshal(metadata); err == nil {
			ev.Metadata = string(b)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventWriteTimeout)
	defer cancel()
	_, _ = h.queries.CreateEvent(ctx, ev)
}

func eventLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return model.EventLevelError
	case level >= slog.LevelWarn:
		return model.EventLevelWarning
	default:
		return model.EventLevelInfo
	}
}

// inferCategory guesses a category from the message when none was given.
func inferCategory(message string) string {
	msg := strings.ToLower(message)
	switch {
	case strings.Contains(msg, "order"):
		return model.EventCategoryOrder
	case strings.Contains(msg, "auth") || strings.Contains(msg, "login") ||
		strings.Contains(msg, "sign-in") || strings.Contains(msg, "logout"):
		return model.EventCategoryAuth
	case strings.Contains(msg, "notification") || strings.Contains(msg, "email"):
		return model.EventCategoryNotify
	case strings.Contains(msg, "media") || strings.Contains(msg, "upload") || strings.Contains(msg, "image"):
		return model.EventCategoryMedia
	case strings.Contains(msg, "article") || strings.Contains(msg, "product") ||
		strings.Contains(msg, "translation") || strings.Contains(msg, "content"):
		return model.EventCategoryContent
	case strings.Contains(msg, "user") || strings.Contains(msg, "profile"):
		return model.EventCategoryUser
	case strings.Contains(msg, "cache"):
		return model.EventCategoryCache
	default:
		return model.EventCategorySystem
	}
}
