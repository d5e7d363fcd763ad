package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Sessions back the scs store used with PostgreSQL. SQLite deployments
// use scs/sqlite3store on the same table name with its own layout.

const findSession = `SELECT data FROM sessions WHERE token = ? AND expiry > ?`

// FindSession returns the data of an unexpired session.
func (q *Queries) FindSession(ctx context.Context, token string, now time.Time) ([]byte, bool, error) {
	var data []byte
	err := q.queryRow(ctx, findSession, token, now).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

const commitSession = `INSERT INTO sessions (token, data, expiry) VALUES (?, ?, ?)
ON CONFLICT (token) DO UPDATE SET data = EXCLUDED.data, expiry = EXCLUDED.expiry`

// CommitSession inserts or replaces a session.
func (q *Queries) CommitSession(ctx context.Context, token string, data []byte, expiry time.Time) error {
	_, err := q.exec(ctx, commitSession, token, data, expiry)
	return err
}

const deleteSession = `DELETE FROM sessions WHERE token = ?`

func (q *Queries) DeleteSession(ctx context.Context, token string) error {
	_, err := q.exec(ctx, deleteSession, token)
	return err
}

const deleteExpiredSessions = `DELETE FROM sessions WHERE expiry <= ?`

func (q *Queries) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	result, err := q.exec(ctx, deleteExpiredSessions, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
