package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/detagroup/detaweb/internal/store"
	"github.com/detagroup/detaweb/internal/testutil"
)

func TestSignatureRoundTrip(t *testing.T) {
	payload := []byte(`{"type":"order.submitted","data":{"customer_name":"علي"}}`)

	sig := GenerateSignature(payload, "s3cret")
	assert.Len(t, sig, 64)
	assert.Equal(t, sig, GenerateSignature(payload, "s3cret"))
	assert.True(t, VerifySignature(payload, sig, "s3cret"))
	assert.False(t, VerifySignature(payload, sig, "other"))
	assert.False(t, VerifySignature([]byte("tampered"), sig, "s3cret"))
	// HMAC-SHA256 of "" under key "secret".
	assert.Equal(t, "f9e66e179b6747ae54108f82f8ade8b3c25d76fd30afde6c395822c530196169",
		GenerateSignature([]byte{}, "secret"))
}

func TestCalculateBackoff(t *testing.T) {
	tests := []struct {
		attempt int64
		want    time.Duration
	}{
		{0, time.Minute},
		{1, time.Minute},
		{2, 2 * time.Minute},
		{4, 8 * time.Minute},
		{20, MaxBackoff},
	}
	for _, tt := range tests {
		if got := calculateBackoff(tt.attempt); got != tt.want {
			t.Errorf("calculateBackoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func startDispatcher(t *testing.T, q *store.Queries, url string) *Dispatcher {
	t.Helper()
	d := NewDispatcher(q, testutil.TestLoggerSilent(), Config{URL: url, Secret: "s3cret", Workers: 1, Timeout: 2 * time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	t.Cleanup(func() {
		d.Stop()
		cancel()
	})
	return d
}

func waitForStatus(t *testing.T, q *store.Queries, orderID, status string) store.Notification {
	t.Helper()
	var got store.Notification
	require.Eventually(t, func() bool {
		rows, err := q.ListNotificationsForOrder(context.Background(), orderID)
		if err != nil || len(rows) != 1 {
			return false
		}
		got = rows[0]
		return got.Status == status
	}, 3*time.Second, 10*time.Millisecond)
	return got
}

func TestEnqueueDelivers(t *testing.T) {
	_, q := testutil.TestQueries(t)

	var received atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		sig := strings.TrimPrefix(r.Header.Get("X-Deta-Signature"), "sha256=")
		if !VerifySignature(body, sig, "s3cret") || r.Header.Get("X-Deta-Event") != KindOrderSubmitted {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		received.Store(body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	d := startDispatcher(t, q, srv.URL)
	d.Enqueue(context.Background(), "order-1", KindOrderSubmitted, OrderSubmitted{
		OrderID:      "order-1",
		CustomerName: "Ali Hassan",
		LanguageCode: "ar",
	})

	n := waitForStatus(t, q, "order-1", StatusDelivered)
	assert.Equal(t, int64(1), n.Attempts)

	var ev struct {
		Type string         `json:"type"`
		Data OrderSubmitted `json:"data"`
	}
	require.NoError(t, json.Unmarshal(received.Load().([]byte), &ev))
	assert.Equal(t, KindOrderSubmitted, ev.Type)
	assert.Equal(t, "Ali Hassan", ev.Data.CustomerName)
}

func TestServerErrorSchedulesRetry(t *testing.T) {
	_, q := testutil.TestQueries(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	d := startDispatcher(t, q, srv.URL)
	d.Enqueue(context.Background(), "order-2", KindOrderSubmitted, OrderSubmitted{OrderID: "order-2"})

	n := waitForStatus(t, q, "order-2", StatusFailed)
	assert.Equal(t, int64(1), n.Attempts)
	assert.True(t, n.NextAttemptAt.Valid)
	assert.True(t, n.NextAttemptAt.Time.After(time.Now().UTC()))
	assert.Contains(t, n.LastError.String, "502")

	// Not due yet.
	queued, err := d.RetryDue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, queued)
}

func TestClientErrorIsDead(t *testing.T) {
	_, q := testutil.TestQueries(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	d := startDispatcher(t, q, srv.URL)
	d.Enqueue(context.Background(), "order-3", KindOrderSubmitted, OrderSubmitted{OrderID: "order-3"})

	n := waitForStatus(t, q, "order-3", StatusDead)
	assert.Contains(t, n.LastError.String, "400")
}

func TestRetryDueRequeues(t *testing.T) {
	_, q := testutil.TestQueries(t)
	ctx := context.Background()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	now := time.Now().UTC()
	n, err := q.CreateNotification(ctx, store.CreateNotificationParams{
		OrderID: "order-4", Kind: KindOrderSubmitted, Payload: `{}`, Status: StatusPending, CreatedAt: now,
	})
	require.NoError(t, err)
	require.NoError(t, q.UpdateNotificationStatus(ctx, store.UpdateNotificationStatusParams{
		ID: n.ID, Status: StatusFailed, Attempts: 1, NextAttemptAt: sqlTime(now.Add(-time.Second)), UpdatedAt: now,
	}))

	d := startDispatcher(t, q, srv.URL)
	queued, err := d.RetryDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, queued)

	got := waitForStatus(t, q, "order-4", StatusDelivered)
	assert.Equal(t, int64(2), got.Attempts)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDisabledDispatcherRecordsNothing(t *testing.T) {
	_, q := testutil.TestQueries(t)
	d := NewDispatcher(q, testutil.TestLoggerSilent(), Config{})

	assert.False(t, d.Enabled())
	d.Enqueue(context.Background(), "order-5", KindOrderSubmitted, OrderSubmitted{})

	rows, err := q.ListNotificationsForOrder(context.Background(), "order-5")
	require.NoError(t, err)
	assert.Empty(t, rows)

	queued, err := d.RetryDue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, queued)
}

func TestEnqueueWhenStoppedDefersToSweep(t *testing.T) {
	_, q := testutil.TestQueries(t)
	d := NewDispatcher(q, testutil.TestLoggerSilent(), Config{URL: "http://127.0.0.1:1/hook"})

	d.Enqueue(context.Background(), "order-6", KindOrderSubmitted, OrderSubmitted{})

	rows, err := q.ListNotificationsForOrder(context.Background(), "order-6")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, StatusFailed, rows[0].Status)
	assert.True(t, rows[0].NextAttemptAt.Valid)
	assert.Zero(t, rows[0].Attempts)
}
