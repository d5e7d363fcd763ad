// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package notify

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/detagroup/detaweb/internal/store"
)

// Delivery limits.
const (
	MaxAttempts    = 5
	InitialBackoff = 1 * time.Minute
	MaxBackoff     = 6 * time.Hour
	MaxResponseLen = 4 * 1024
	UserAgent      = "detaweb-notify/1.0"
)

// DeliveryResult is the outcome of one POST.
type DeliveryResult struct {
	Success     bool
	StatusCode  int
	Error       error
	ShouldRetry bool
}

func (d *Dispatcher) process(ctx context.Context, id int64) {
	n, err := d.queries.GetNotification(ctx, id)
	if err != nil {
		d.logger.Error("failed to load notification", "notification_id", id, "error", err)
		return
	}
	if n.Status == StatusDelivered || n.Status == StatusDead {
		return
	}

	result := d.attempt(ctx, n)
	now := time.Now().UTC()
	attempts := n.Attempts + 1

	params := store.UpdateNotificationStatusParams{
		ID:        n.ID,
		Attempts:  attempts,
		UpdatedAt: now,
	}

	switch {
	case result.Success:
		params.Status = StatusDelivered
		d.logger.Info("notification delivered",
			"notification_id", n.ID, "order_id", n.OrderID, "kind", n.Kind, "status_code", result.StatusCode)
	case !result.ShouldRetry || attempts >= MaxAttempts:
		params.Status = StatusDead
		params.LastError = errString(result.Error)
		d.logger.Warn("notification delivery abandoned",
			"category", "notify", "notification_id", n.ID, "order_id", n.OrderID,
			"attempts", attempts, "error", result.Error)
	default:
		backoff := calculateBackoff(attempts)
		params.Status = StatusFailed
		params.LastError = errString(result.Error)
		params.NextAttemptAt = sqlTime(now.Add(backoff))
		d.logger.Info("notification delivery scheduled for retry",
			"notification_id", n.ID, "order_id", n.OrderID,
			"attempt", attempts, "backoff", backoff.String(), "error", result.Error)
	}

	if err := d.queries.UpdateNotificationStatus(ctx, params); err != nil {
		d.logger.Error("failed to update notification", "notification_id", n.ID, "error", err)
	}
}

func (d *Dispatcher) attempt(ctx context.Context, n store.Notification) DeliveryResult {
	payload := []byte(n.Payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(payload))
	if err != nil {
		return DeliveryResult{Error: fmt.Errorf("creating request: %w", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("X-Deta-Event", n.Kind)
	req.Header.Set("X-Deta-Delivery", strconv.FormatInt(n.ID, 10))
	if d.secret != "" {
		req.Header.Set("X-Deta-Signature", "sha256="+GenerateSignature(payload, d.secret))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return DeliveryResult{Error: fmt.Errorf("request failed: %w", err), ShouldRetry: true}
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxResponseLen))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return DeliveryResult{Success: true, StatusCode: resp.StatusCode}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return DeliveryResult{
			StatusCode:  resp.StatusCode,
			Error:       fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
			ShouldRetry: resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode == http.StatusTooManyRequests,
		}
	default:
		return DeliveryResult{
			StatusCode:  resp.StatusCode,
			Error:       fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
			ShouldRetry: true,
		}
	}
}

// calculateBackoff doubles InitialBackoff per attempt, capped at MaxBackoff.
func calculateBackoff(attempt int64) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}
	backoff := time.Duration(float64(InitialBackoff) * math.Pow(2, float64(attempt-1)))
	if backoff > MaxBackoff {
		backoff = MaxBackoff
	}
	return backoff
}

func errString(err error) sql.NullString {
	if err == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: err.Error(), Valid: true}
}

func sqlTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: true}
}
