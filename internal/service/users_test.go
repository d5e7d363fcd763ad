package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/detagroup/detaweb/internal/model"
	"github.com/detagroup/detaweb/internal/store"
	"github.com/detagroup/detaweb/internal/testutil"
)

func TestEnsureProfile_CreateConflict(t *testing.T) {
	profileRow := []string{"id", "email", "full_name", "role", "created_at", "updated_at"}
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	account := store.Account{ID: "acc-1", Email: "amna@detagroup.sd"}

	tests := []struct {
		name     string
		insert   error
		wantRole string
		wantErr  bool
	}{
		{"concurrent sign-in created it first", errors.New("UNIQUE constraint failed: profiles.id"), model.RoleEditor, false},
		{"other insert failure", errors.New("disk I/O error"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = db.Close() }()

			svc := NewUserService(db, store.New(db), testutil.TestLoggerSilent())

			mock.ExpectQuery("FROM profiles WHERE id = ").
				WithArgs(account.ID).
				WillReturnError(sql.ErrNoRows)
			mock.ExpectQuery("INSERT INTO profiles").
				WithArgs(account.ID, account.Email, "", model.RoleUser, sqlmock.AnyArg(), sqlmock.AnyArg()).
				WillReturnError(tt.insert)
			if !tt.wantErr {
				mock.ExpectQuery("FROM profiles WHERE id = ").
					WithArgs(account.ID).
					WillReturnRows(sqlmock.NewRows(profileRow).
						AddRow(account.ID, account.Email, "Amna", tt.wantRole, created, created))
			}

			p, err := svc.EnsureProfile(context.Background(), account)
			if tt.wantErr {
				assert.ErrorIs(t, err, tt.insert)
				assert.Nil(t, p)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantRole, p.Role)
				assert.Equal(t, "Amna", p.FullName)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
