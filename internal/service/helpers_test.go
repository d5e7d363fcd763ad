package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/detagroup/detaweb/internal/cache"
	"github.com/detagroup/detaweb/internal/locale"
	"github.com/detagroup/detaweb/internal/store"
	"github.com/detagroup/detaweb/internal/testutil"
)

type sentNotification struct {
	OrderID string
	Kind    string
	Data    any
}

// recordingNotifier captures enqueued notifications.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) Enqueue(_ context.Context, orderID, kind string, data any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{OrderID: orderID, Kind: kind, Data: data})
}

func (n *recordingNotifier) all() []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]sentNotification, len(n.sent))
	copy(out, n.sent)
	return out
}

type testEnv struct {
	db       *sql.DB
	queries  *store.Queries
	cache    *cache.MemoryCache
	registry *locale.Registry
	notifier *recordingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, queries := testutil.TestQueries(t)

	registry := locale.NewRegistry()
	if err := registry.Load(context.Background(), queries); err != nil {
		t.Fatalf("loading languages: %v", err)
	}

	c := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = c.Close() })

	return &testEnv{
		db:       db,
		queries:  queries,
		cache:    c,
		registry: registry,
		notifier: &recordingNotifier{},
	}
}

func (e *testEnv) orders() *OrderService {
	return NewOrderService(e.db, e.queries, e.cache, e.notifier, testutil.TestLoggerSilent(), time.Minute)
}

func (e *testEnv) content() *ContentService {
	return NewContentService(e.db, e.queries, e.registry, e.cache, testutil.TestLoggerSilent(), time.Minute)
}

// clock returns a now func that advances one second per call.
func clock(start time.Time) func() time.Time {
	var mu sync.Mutex
	t := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}
