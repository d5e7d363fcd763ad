package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/detagroup/detaweb/internal/auth"
)

// Default admin credentials used when none are configured.
const (
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "changeme"
	DefaultAdminName     = "Administrator"
)

// SeedAdmin creates the admin account and profile unless an account with
// the email already exists. Reference data (languages, lookups) is seeded
// by migrations.
func SeedAdmin(ctx context.Context, q *Queries, email, password string) error {
	if email == "" {
		email = DefaultAdminEmail
	}
	if password == "" {
		password = DefaultAdminPassword
	}
	email = auth.NormalizeEmail(email)

	_, err := q.GetAccountByEmail(ctx, email)
	if err == nil {
		slog.Info("admin account already exists, skipping seed")
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for admin account: %w", err)
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now().UTC()
	account, err := q.CreateAccount(ctx, CreateAccountParams{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("creating admin account: %w", err)
	}

	if _, err := q.CreateProfile(ctx, CreateProfileParams{
		ID:        account.ID,
		Email:     email,
		FullName:  DefaultAdminName,
		Role:      "admin",
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		return fmt.Errorf("creating admin profile: %w", err)
	}

	if password == DefaultAdminPassword {
		slog.Warn("created admin account with the default password; change it after first sign-in",
			"email", email, "category", "auth")
	} else {
		slog.Info("created admin account", "email", email)
	}

	return nil
}
