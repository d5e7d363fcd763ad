package store

import (
	"context"
	"database/sql"
	"time"
)

const eventColumns = `id, level, category, message, user_id, metadata, ip_address, request_url, created_at`

func scanEvent(row interface{ Scan(...interface{}) error }) (Event, error) {
	var i Event
	err := row.Scan(
		&i.ID,
		&i.Level,
		&i.Category,
		&i.Message,
		&i.UserID,
		&i.Metadata,
		&i.IpAddress,
		&i.RequestUrl,
		&i.CreatedAt,
	)
	return i, err
}

type CreateEventParams struct {
	Level      string         `json:"level"`
	Category   string         `json:"category"`
	Message    string         `json:"message"`
	UserID     sql.NullString `json:"user_id"`
	Metadata   string         `json:"metadata"`
	IpAddress  string         `json:"ip_address"`
	RequestUrl string         `json:"request_url"`
	CreatedAt  time.Time      `json:"created_at"`
}

const createEvent = `INSERT INTO events (level, category, message, user_id, metadata, ip_address, request_url, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + eventColumns

func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (Event, error) {
	return scanEvent(q.queryRow(ctx, createEvent,
		arg.Level,
		arg.Category,
		arg.Message,
		arg.UserID,
		arg.Metadata,
		arg.IpAddress,
		arg.RequestUrl,
		arg.CreatedAt,
	))
}

type ListEventsParams struct {
	Level    string
	Category string
	Limit    int64
	Offset   int64
}

func eventFilter(level, category string) (string, []interface{}) {
	where := ` WHERE 1 = 1`
	var args []interface{}
	if level != "" {
		where += ` AND level = ?`
		args = append(args, level)
	}
	if category != "" {
		where += ` AND category = ?`
		args = append(args, category)
	}
	return where, args
}

func (q *Queries) ListEvents(ctx context.Context, arg ListEventsParams) ([]Event, error) {
	where, args := eventFilter(arg.Level, arg.Category)
	args = append(args, arg.Limit, arg.Offset)
	rows, err := q.query(ctx, `SELECT `+eventColumns+` FROM events`+where+`
ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []Event
	for rows.Next() {
		i, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

func (q *Queries) CountEvents(ctx context.Context, level, category string) (int64, error) {
	where, args := eventFilter(level, category)
	var count int64
	err := q.queryRow(ctx, `SELECT COUNT(*) FROM events`+where, args...).Scan(&count)
	return count, err
}

const deleteOldEvents = `DELETE FROM events WHERE created_at < ?`

func (q *Queries) DeleteOldEvents(ctx context.Context, before time.Time) (int64, error) {
	result, err := q.exec(ctx, deleteOldEvents, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Page views

type CreatePageViewParams struct {
	Path         string    `json:"path"`
	LanguageCode string    `json:"language_code"`
	Browser      string    `json:"browser"`
	Os           string    `json:"os"`
	DeviceType   string    `json:"device_type"`
	CountryCode  string    `json:"country_code"`
	CreatedAt    time.Time `json:"created_at"`
}

const createPageView = `INSERT INTO page_views (path, language_code, browser, os, device_type, country_code, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreatePageView(ctx context.Context, arg CreatePageViewParams) error {
	_, err := q.exec(ctx, createPageView,
		arg.Path,
		arg.LanguageCode,
		arg.Browser,
		arg.Os,
		arg.DeviceType,
		arg.CountryCode,
		arg.CreatedAt,
	)
	return err
}

type CountRow struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// pageViewGroupColumns is the closed set of columns page views can be
// grouped by.
var pageViewGroupColumns = map[string]bool{
	"path":          true,
	"language_code": true,
	"browser":       true,
	"os":            true,
	"device_type":   true,
	"country_code":  true,
}

// CountPageViewsBy groups views since the given time by column, largest
// group first.
func (q *Queries) CountPageViewsBy(ctx context.Context, column string, since time.Time, limit int64) ([]CountRow, error) {
	if !pageViewGroupColumns[column] {
		column = "path"
	}
	rows, err := q.query(ctx, `SELECT `+column+`, COUNT(*) AS views FROM page_views
WHERE created_at >= ?
GROUP BY `+column+`
ORDER BY views DESC, `+column+`
LIMIT ?`, since, limit)
	if err != nil {
		return nil, err
	}
	return scanCountRows(rows)
}

// CountPageViewsByDay returns daily totals since the given time, keyed by
// YYYY-MM-DD.
func (q *Queries) CountPageViewsByDay(ctx context.Context, since time.Time) ([]CountRow, error) {
	day := `substr(created_at, 1, 10)`
	if q.dialect == DriverPostgres {
		day = `to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD')`
	}
	rows, err := q.query(ctx, `SELECT `+day+` AS day, COUNT(*) FROM page_views
WHERE created_at >= ?
GROUP BY day
ORDER BY day`, since)
	if err != nil {
		return nil, err
	}
	return scanCountRows(rows)
}

func scanCountRows(rows *sql.Rows) ([]CountRow, error) {
	defer func() { _ = rows.Close() }()
	var items []CountRow
	for rows.Next() {
		var i CountRow
		if err := rows.Scan(&i.Key, &i.Count); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countPageViewsSince = `SELECT COUNT(*) FROM page_views WHERE created_at >= ?`

func (q *Queries) CountPageViewsSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := q.queryRow(ctx, countPageViewsSince, since).Scan(&count)
	return count, err
}

const deleteOldPageViews = `DELETE FROM page_views WHERE created_at < ?`

func (q *Queries) DeleteOldPageViews(ctx context.Context, before time.Time) (int64, error) {
	result, err := q.exec(ctx, deleteOldPageViews, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Notifications

const notificationColumns = `id, order_id, kind, payload, status, attempts, last_error, next_attempt_at, created_at, updated_at`

func scanNotification(row interface{ Scan(...interface{}) error }) (Notification, error) {
	var i Notification
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.Kind,
		&i.Payload,
		&i.Status,
		&i.Attempts,
		&i.LastError,
		&i.NextAttemptAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

type CreateNotificationParams struct {
	OrderID   string    `json:"order_id"`
	Kind      string    `json:"kind"`
	Payload   string    `json:"payload"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

const createNotification = `INSERT INTO notifications (order_id, kind, payload, status, attempts, created_at, updated_at)
VALUES (?, ?, ?, ?, 0, ?, ?)
RETURNING ` + notificationColumns

func (q *Queries) CreateNotification(ctx context.Context, arg CreateNotificationParams) (Notification, error) {
	return scanNotification(q.queryRow(ctx, createNotification,
		arg.OrderID,
		arg.Kind,
		arg.Payload,
		arg.Status,
		arg.CreatedAt,
		arg.CreatedAt,
	))
}

const getNotification = `SELECT ` + notificationColumns + ` FROM notifications WHERE id = ?`

func (q *Queries) GetNotification(ctx context.Context, id int64) (Notification, error) {
	return scanNotification(q.queryRow(ctx, getNotification, id))
}

type UpdateNotificationStatusParams struct {
	ID            int64          `json:"id"`
	Status        string         `json:"status"`
	Attempts      int64          `json:"attempts"`
	LastError     sql.NullString `json:"last_error"`
	NextAttemptAt sql.NullTime   `json:"next_attempt_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

const updateNotificationStatus = `UPDATE notifications
SET status = ?, attempts = ?, last_error = ?, next_attempt_at = ?, updated_at = ?
WHERE id = ?`

func (q *Queries) UpdateNotificationStatus(ctx context.Context, arg UpdateNotificationStatusParams) error {
	_, err := q.exec(ctx, updateNotificationStatus,
		arg.Status,
		arg.Attempts,
		arg.LastError,
		arg.NextAttemptAt,
		arg.UpdatedAt,
		arg.ID,
	)
	return err
}

const listDueNotifications = `SELECT ` + notificationColumns + ` FROM notifications
WHERE status = ? AND next_attempt_at IS NOT NULL AND next_attempt_at <= ?
ORDER BY next_attempt_at, id
LIMIT ?`

// ListDueNotifications returns notifications in status whose retry time
// has passed.
func (q *Queries) ListDueNotifications(ctx context.Context, status string, now time.Time, limit int64) ([]Notification, error) {
	rows, err := q.query(ctx, listDueNotifications, status, now, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []Notification
	for rows.Next() {
		i, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listNotificationsForOrder = `SELECT ` + notificationColumns + ` FROM notifications
WHERE order_id = ? ORDER BY created_at, id`

func (q *Queries) ListNotificationsForOrder(ctx context.Context, orderID string) ([]Notification, error) {
	rows, err := q.query(ctx, listNotificationsForOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []Notification
	for rows.Next() {
		i, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const pingDB = `SELECT 1`

// Ping runs a trivial query through the connection.
func (q *Queries) Ping(ctx context.Context) error {
	var one int
	return q.queryRow(ctx, pingDB).Scan(&one)
}
