// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries runs the application's SQL against a connection or transaction.
// Statements are written with ? placeholders and rebound for PostgreSQL.
type Queries struct {
	db      DBTX
	dialect string
}

// New returns Queries for a SQLite connection.
func New(db DBTX) *Queries {
	return &Queries{db: db, dialect: DriverSQLite}
}

// NewWithDialect returns Queries for the given driver.
func NewWithDialect(db DBTX, dialect string) *Queries {
	if dialect == "" {
		dialect = DriverSQLite
	}
	return &Queries{db: db, dialect: dialect}
}

// WithTx returns Queries bound to tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx, dialect: q.dialect}
}

// Dialect returns the driver name the queries are written for.
func (q *Queries) Dialect() string {
	return q.dialect
}

func (q *Queries) exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return q.db.ExecContext(ctx, q.rebind(query), args...)
}

func (q *Queries) query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return q.db.QueryContext(ctx, q.rebind(query), args...)
}

func (q *Queries) queryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return q.db.QueryRowContext(ctx, q.rebind(query), args...)
}

// rebind rewrites ? placeholders as $1..$n for PostgreSQL. Question marks
// inside single-quoted literals are left alone.
func (q *Queries) rebind(query string) string {
	if q.dialect != DriverPostgres {
		return query
	}
	return rebindDollar(query)
}

func rebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// TxRunner opens transactions and hands out Queries bound to them.
type TxRunner struct {
	db      *sql.DB
	queries *Queries
}

// NewTxRunner returns a TxRunner for db.
func NewTxRunner(db *sql.DB, queries *Queries) *TxRunner {
	return &TxRunner{db: db, queries: queries}
}

// RunInTx executes fn inside a transaction. The transaction is committed
// when fn returns nil and rolled back otherwise.
func (r *TxRunner) RunInTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(r.queries.WithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether err is a unique constraint failure on
// either supported driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

// IsForeignKeyViolation reports whether err is a foreign key failure on
// either supported driver.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "FOREIGN KEY constraint failed") ||
		strings.Contains(msg, "violates foreign key constraint")
}
