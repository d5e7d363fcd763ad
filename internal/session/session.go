// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures the server-side session manager.
package session

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	"github.com/detagroup/detaweb/internal/store"
)

// Lifetime is the absolute lifetime of a session.
const Lifetime = 24 * time.Hour

// Cookie names. The __Host- prefix requires Secure, so it is only used
// outside development.
const (
	CookieName    = "__Host-deta_session"
	DevCookieName = "deta_session"
)

// New creates a session manager storing sessions in the application
// database. SQLite uses scs/sqlite3store; PostgreSQL uses DBStore.
func New(db *sql.DB, queries *store.Queries, isDev bool) *scs.SessionManager {
	sm := scs.New()

	if queries.Dialect() == store.DriverPostgres {
		sm.Store = NewDBStore(queries)
	} else {
		sm.Store = sqlite3store.New(db)
	}

	sm.Lifetime = Lifetime
	sm.IdleTimeout = 2 * time.Hour
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"
	sm.Cookie.Secure = !isDev
	if isDev {
		sm.Cookie.Name = DevCookieName
	} else {
		sm.Cookie.Name = CookieName
	}

	return sm
}
