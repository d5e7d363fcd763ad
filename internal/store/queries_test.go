package store

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestRebindDollar(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SELECT 1", "SELECT 1"},
		{"SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = $1 AND b = $2"},
		{"SELECT '?' FROM t WHERE a = ?", "SELECT '?' FROM t WHERE a = $1"},
		{`WHERE k LIKE ? ESCAPE '\' AND id = ?`, `WHERE k LIKE $1 ESCAPE '\' AND id = $2`},
	}

	for _, tt := range tests {
		if got := rebindDollar(tt.in); got != tt.want {
			t.Errorf("rebindDollar(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestQueries_SQLiteKeepsPlaceholders(t *testing.T) {
	q := New(nil)
	if got := q.rebind("a = ?"); got != "a = ?" {
		t.Errorf("rebind = %q", got)
	}
}

func TestQueries_PostgresPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer func() { _ = db.Close() }()

	q := NewWithDialect(db, DriverPostgres)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT name FROM lookup_translations WHERE kind = $1 AND lookup_id = $2 AND language_code = $3")).
		WithArgs("country", "SD", "en").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Sudan"))

	name, err := q.GetLookupName(context.Background(), LookupCountry, "SD", "en")
	if err != nil {
		t.Fatalf("GetLookupName: %v", err)
	}
	if name != "Sudan" {
		t.Errorf("name = %q, want Sudan", name)
	}

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM orders WHERE id = $1")).
		WithArgs("o-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := q.DeleteOrder(context.Background(), "o-1")
	if err != nil {
		t.Fatalf("DeleteOrder: %v", err)
	}
	if n != 1 {
		t.Errorf("rows = %d, want 1", n)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"UNIQUE constraint failed: accounts.email", true},
		{`pq: duplicate key value violates unique constraint "accounts_email_key"`, true},
		{"no such table", false},
	}
	for _, tt := range tests {
		if got := IsUniqueViolation(errString(tt.msg)); got != tt.want {
			t.Errorf("IsUniqueViolation(%q) = %v", tt.msg, got)
		}
	}
	if IsUniqueViolation(nil) {
		t.Error("nil is not a violation")
	}
}

type errString string

func (e errString) Error() string { return string(e) }
