// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"time"

	"github.com/detagroup/detaweb/internal/store"
)

// DBStore is an scs store over the sessions table, used with PostgreSQL.
type DBStore struct {
	queries *store.Queries
	now     func() time.Time
}

// NewDBStore creates a DBStore. Expired rows are removed by Cleanup, which
// the scheduler runs periodically.
func NewDBStore(queries *store.Queries) *DBStore {
	return &DBStore{queries: queries, now: func() time.Time { return time.Now().UTC() }}
}

// FindCtx returns the data of an unexpired session.
func (s *DBStore) FindCtx(ctx context.Context, token string) ([]byte, bool, error) {
	return s.queries.FindSession(ctx, token, s.now())
}

// CommitCtx saves a session until expiry.
func (s *DBStore) CommitCtx(ctx context.Context, token string, b []byte, expiry time.Time) error {
	return s.queries.CommitSession(ctx, token, b, expiry.UTC())
}

// DeleteCtx removes a session.
func (s *DBStore) DeleteCtx(ctx context.Context, token string) error {
	return s.queries.DeleteSession(ctx, token)
}

// Find implements scs.Store.
func (s *DBStore) Find(token string) ([]byte, bool, error) {
	return s.FindCtx(context.Background(), token)
}

// Commit implements scs.Store.
func (s *DBStore) Commit(token string, b []byte, expiry time.Time) error {
	return s.CommitCtx(context.Background(), token, b, expiry)
}

// Delete implements scs.Store.
func (s *DBStore) Delete(token string) error {
	return s.DeleteCtx(context.Background(), token)
}

// Cleanup deletes expired sessions.
func (s *DBStore) Cleanup(ctx context.Context) (int64, error) {
	return s.queries.DeleteExpiredSessions(ctx, s.now())
}
