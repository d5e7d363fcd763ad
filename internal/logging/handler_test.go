package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/detagroup/detaweb/internal/model"
	"github.com/detagroup/detaweb/internal/store"
	"github.com/detagroup/detaweb/internal/testutil"
)

// discardHandler is a slog.Handler that discards all logs.
type discardHandler struct{}

func (h discardHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h discardHandler) WithGroup(string) slog.Handler             { return h }

func listEvents(t *testing.T, q *store.Queries) []store.Event {
	t.Helper()
	events, err := q.ListEvents(context.Background(), store.ListEventsParams{Limit: 50})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	return events
}

func TestEventLogHandler_ErrorLevel(t *testing.T) {
	_, q := testutil.TestQueries(t)
	logger := slog.New(NewEventLogHandler(discardHandler{}, q))

	logger.Error("database connection failed", "host", "localhost", "port", 5432)

	events := listEvents(t, q)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.Level != model.EventLevelError {
		t.Errorf("level = %q, want %q", ev.Level, model.EventLevelError)
	}
	if ev.Category != model.EventCategorySystem {
		t.Errorf("category = %q, want %q", ev.Category, model.EventCategorySystem)
	}

	var meta map[string]string
	if err := json.Unmarshal([]byte(ev.Metadata), &meta); err != nil {
		t.Fatalf("metadata is not JSON: %v", err)
	}
	if meta["host"] != "localhost" || meta["port"] != "5432" {
		t.Errorf("metadata = %v", meta)
	}
}

func TestEventLogHandler_InfoNotStored(t *testing.T) {
	_, q := testutil.TestQueries(t)
	logger := slog.New(NewEventLogHandler(discardHandler{}, q))

	logger.Info("server started")
	logger.Debug("noise")

	if events := listEvents(t, q); len(events) != 0 {
		t.Errorf("expected no events, got %d", len(events))
	}
}

func TestEventLogHandler_DedicatedColumns(t *testing.T) {
	_, q := testutil.TestQueries(t)
	logger := slog.New(NewEventLogHandler(discardHandler{}, q)).With("ip", "203.0.113.7")

	logger.Warn("forced order status transition",
		"category", model.EventCategoryOrder,
		"user_id", "u-1",
		"url", "/api/v1/admin/orders/o-1/status",
		"from", "pending",
		"to", "shipped",
	)

	events := listEvents(t, q)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.Level != model.EventLevelWarning {
		t.Errorf("level = %q", ev.Level)
	}
	if ev.Category != model.EventCategoryOrder {
		t.Errorf("category = %q", ev.Category)
	}
	if ev.UserID.String != "u-1" || ev.IpAddress != "203.0.113.7" {
		t.Errorf("user/ip = %q/%q", ev.UserID.String, ev.IpAddress)
	}
	if ev.RequestUrl != "/api/v1/admin/orders/o-1/status" {
		t.Errorf("url = %q", ev.RequestUrl)
	}
}

func TestEventLogHandler_Group(t *testing.T) {
	_, q := testutil.TestQueries(t)
	logger := slog.New(NewEventLogHandler(discardHandler{}, q)).WithGroup("s3").With("bucket", "media")

	logger.Warn("upload retry", "attempt", 2)

	events := listEvents(t, q)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	var meta map[string]string
	if err := json.Unmarshal([]byte(events[0].Metadata), &meta); err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if meta["s3.bucket"] != "media" || meta["s3.attempt"] != "2" {
		t.Errorf("metadata = %v", meta)
	}
	if events[0].Category != model.EventCategoryMedia {
		t.Errorf("category = %q", events[0].Category)
	}
}

func TestInferCategory(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"order submitted", model.EventCategoryOrder},
		{"Login failed", model.EventCategoryAuth},
		{"notification delivery failed", model.EventCategoryNotify},
		{"upload rejected", model.EventCategoryMedia},
		{"translation saved", model.EventCategoryContent},
		{"profile created", model.EventCategoryUser},
		{"cache miss storm", model.EventCategoryCache},
		{"something else", model.EventCategorySystem},
	}
	for _, tt := range tests {
		if got := inferCategory(tt.msg); got != tt.want {
			t.Errorf("inferCategory(%q) = %q, want %q", tt.msg, got, tt.want)
		}
	}
}
