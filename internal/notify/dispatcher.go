// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/detagroup/detaweb/internal/store"
)

// Dispatcher records notifications and delivers them with a worker pool.
type Dispatcher struct {
	queries *store.Queries
	logger  *slog.Logger
	client  *http.Client
	url     string
	secret  string
	queue   chan int64
	workers int
	wg      sync.WaitGroup
	done    chan struct{}
	mu      sync.RWMutex
	running bool
}

// Config holds dispatcher configuration.
type Config struct {
	URL       string // email sender endpoint; empty disables delivery
	Secret    string // HMAC key for X-Deta-Signature
	Workers   int
	Timeout   time.Duration
	QueueSize int
}

// DefaultConfig returns default dispatcher configuration.
func DefaultConfig() Config {
	return Config{
		Workers:   2,
		Timeout:   10 * time.Second,
		QueueSize: 100,
	}
}

// NewDispatcher creates a dispatcher. Call Start before Enqueue.
func NewDispatcher(queries *store.Queries, logger *slog.Logger, cfg Config) *Dispatcher {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		queries: queries,
		logger:  logger,
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		url:     cfg.URL,
		secret:  cfg.Secret,
		queue:   make(chan int64, cfg.QueueSize),
		workers: cfg.Workers,
		done:    make(chan struct{}),
	}
}

// Enabled reports whether an email sender endpoint is configured.
func (d *Dispatcher) Enabled() bool {
	return d != nil && d.url != ""
}

// Start starts the delivery workers.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()

	d.logger.Info("starting notification dispatcher", "workers", d.workers, "enabled", d.Enabled())

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
}

// Stop stops the workers and waits for in-flight deliveries.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	d.mu.Unlock()

	close(d.done)
	d.wg.Wait()
	d.logger.Info("notification dispatcher stopped")
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()

	for {
		select {
		case <-d.done:
			return
		case <-ctx.Done():
			return
		case notificationID := <-d.queue:
			d.logger.Debug("processing notification", "worker_id", id, "notification_id", notificationID)
			d.process(ctx, notificationID)
		}
	}
}

// Enqueue records a notification for orderID and hands it to a worker.
// Errors are logged and never returned: the caller's write has already
// succeeded and must not be affected.
func (d *Dispatcher) Enqueue(ctx context.Context, orderID, kind string, data any) {
	if !d.Enabled() {
		d.logger.Debug("notifications disabled, skipping", "order_id", orderID, "kind", kind)
		return
	}

	payload, err := json.Marshal(NewEvent(kind, data))
	if err != nil {
		d.logger.Error("failed to marshal notification", "category", "notify", "order_id", orderID, "error", err)
		return
	}

	n, err := d.queries.CreateNotification(ctx, store.CreateNotificationParams{
		OrderID:   orderID,
		Kind:      kind,
		Payload:   string(payload),
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		d.logger.Error("failed to record notification", "category", "notify", "order_id", orderID, "error", err)
		return
	}

	d.push(ctx, n)
}

// push queues n, or schedules it for the retry sweep when the queue is full
// or the dispatcher is stopped.
func (d *Dispatcher) push(ctx context.Context, n store.Notification) {
	d.mu.RLock()
	running := d.running
	d.mu.RUnlock()

	if running {
		select {
		case d.queue <- n.ID:
			return
		default:
		}
	}

	d.logger.Warn("notification deferred to retry sweep",
		"category", "notify", "notification_id", n.ID, "order_id", n.OrderID)
	now := time.Now().UTC()
	if err := d.queries.UpdateNotificationStatus(ctx, store.UpdateNotificationStatusParams{
		ID:            n.ID,
		Status:        StatusFailed,
		Attempts:      n.Attempts,
		LastError:     n.LastError,
		NextAttemptAt: sqlTime(now),
		UpdatedAt:     now,
	}); err != nil {
		d.logger.Error("failed to defer notification", "notification_id", n.ID, "error", err)
	}
}

// RetryDue re-queues failed notifications whose retry time has passed and
// returns how many were queued.
func (d *Dispatcher) RetryDue(ctx context.Context) (int, error) {
	if !d.Enabled() {
		return 0, nil
	}
	due, err := d.queries.ListDueNotifications(ctx, StatusFailed, time.Now().UTC(), int64(cap(d.queue)))
	if err != nil {
		return 0, fmt.Errorf("listing due notifications: %w", err)
	}

	queued := 0
	for _, n := range due {
		select {
		case d.queue <- n.ID:
			queued++
		default:
			return queued, nil
		}
	}
	return queued, nil
}

// GenerateSignature returns the hex HMAC-SHA256 of payload.
func GenerateSignature(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a signature produced by GenerateSignature.
func VerifySignature(payload []byte, signature, secret string) bool {
	return hmac.Equal([]byte(signature), []byte(GenerateSignature(payload, secret)))
}
