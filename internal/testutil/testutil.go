// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers for the detaweb project.
package testutil

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/detagroup/detaweb/internal/store"

	_ "github.com/mattn/go-sqlite3"
)

var memoryDBSeq atomic.Int64

// TestLogger creates a silent test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestLoggerSilent creates a completely silent test logger (error level only).
func TestLoggerSilent() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// TestDB creates a temporary file database through store.NewDB with all
// migrations applied. Returns the database and a cleanup function that
// should be deferred.
func TestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "detaweb-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := store.NewDB(dbPath)
	if err != nil {
		_ = os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}

	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		_ = os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() {
		_ = db.Close()
		_ = os.Remove(dbPath)
	}
}

// TestMemoryDB creates a migrated in-memory database on the mattn driver.
// Each call gets its own database; it is closed when the test ends.
func TestMemoryDB(t *testing.T) *sql.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=on&_busy_timeout=5000",
		name, memoryDBSeq.Add(1))

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	// A shared-cache memory database lives as long as one connection does.
	db.SetMaxOpenConns(1)

	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("Migrate: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}

// TestQueries returns a migrated in-memory database and queries bound to it.
func TestQueries(t *testing.T) (*sql.DB, *store.Queries) {
	t.Helper()
	db := TestMemoryDB(t)
	return db, store.New(db)
}
