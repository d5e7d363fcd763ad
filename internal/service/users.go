// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/detagroup/detaweb/internal/auth"
	"github.com/detagroup/detaweb/internal/model"
	"github.com/detagroup/detaweb/internal/store"
)

// dummyHash is verified against when an email is unknown so sign-in takes
// the same time either way.
var dummyHash, _ = auth.HashPassword("detaweb-dummy-password")

// SignUpInput registers a new account.
type SignUpInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// UserService implements the auth provider and user administration.
type UserService struct {
	queries *store.Queries
	tx      *store.TxRunner
	logger  *slog.Logger
	now     func() time.Time
}

// NewUserService creates a UserService.
func NewUserService(db *sql.DB, queries *store.Queries, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		queries: queries,
		tx:      store.NewTxRunner(db, queries),
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func validateCredentials(email, password string) error {
	verr := NewValidationError()
	if email == "" {
		verr.Add("email", "validation.required")
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		verr.Add("email", "validation.email")
	}
	switch err := auth.ValidatePassword(password); {
	case errors.Is(err, auth.ErrPasswordTooShort):
		verr.Add("password", "auth.password_too_short")
	case errors.Is(err, auth.ErrPasswordTooLong):
		verr.Add("password", "auth.password_too_long")
	}
	return verr.OrNil()
}

// SignUp creates an account with a user-role profile.
func (s *UserService) SignUp(ctx context.Context, in SignUpInput) (*store.Profile, error) {
	email := auth.NormalizeEmail(in.Email)
	if err := validateCredentials(email, in.Password); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.FullName)
	if len([]rune(name)) > 200 {
		return nil, fieldError("full_name", "validation.max_length")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := s.now()
	var profile store.Profile
	err = s.tx.RunInTx(ctx, func(q *store.Queries) error {
		account, err := q.CreateAccount(ctx, store.CreateAccountParams{
			ID:           uuid.NewString(),
			Email:        email,
			PasswordHash: hash,
			CreatedAt:    now,
		})
		if err != nil {
			return err
		}
		profile, err = q.CreateProfile(ctx, store.CreateProfileParams{
			ID:        account.ID,
			Email:     email,
			FullName:  name,
			Role:      model.RoleUser,
			CreatedAt: now,
			UpdatedAt: now,
		})
		return err
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("creating account: %w", err)
	}

	s.logger.Info("account created", "user_id", profile.ID)
	return &profile, nil
}

// SignIn verifies credentials and returns the profile, creating it on first
// sign-in when missing.
func (s *UserService) SignIn(ctx context.Context, email, password string) (*store.Profile, error) {
	email = auth.NormalizeEmail(email)
	account, err := s.queries.GetAccountByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("loading account: %w", err)
		}
		_, _ = auth.CheckPassword(password, dummyHash)
		return nil, ErrInvalidCredentials
	}

	ok, err := auth.CheckPassword(password, account.PasswordHash)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}

	if err := s.queries.UpdateAccountLastLogin(ctx, account.ID, s.now()); err != nil {
		s.logger.Error("failed to record last login", "user_id", account.ID, "error", err)
	}
	if auth.NeedsRehash(account.PasswordHash) {
		if hash, err := auth.HashPassword(password); err == nil {
			if err := s.queries.UpdateAccountPassword(ctx, account.ID, hash); err != nil {
				s.logger.Error("failed to upgrade password hash", "user_id", account.ID, "error", err)
			}
		}
	}

	return s.EnsureProfile(ctx, account)
}

// EnsureProfile returns the profile of account, creating a user-role one
// when none exists. A concurrent sign-in that created the profile first
// wins; its row is returned.
func (s *UserService) EnsureProfile(ctx context.Context, account store.Account) (*store.Profile, error) {
	profile, err := s.queries.GetProfile(ctx, account.ID)
	if err == nil {
		return &profile, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("loading profile: %w", err)
	}

	now := s.now()
	profile, err = s.queries.CreateProfile(ctx, store.CreateProfileParams{
		ID:        account.ID,
		Email:     account.Email,
		Role:      model.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if store.IsUniqueViolation(err) {
		profile, err = s.queries.GetProfile(ctx, account.ID)
		if err != nil {
			return nil, fmt.Errorf("loading concurrently created profile: %w", err)
		}
		return &profile, nil
	}
	if err != nil {
		return nil, fmt.Errorf("creating profile: %w", err)
	}
	s.logger.Info("profile created on sign-in", "user_id", account.ID)
	return &profile, nil
}

// GetProfile returns a user's profile.
func (s *UserService) GetProfile(ctx context.Context, id string) (*store.Profile, error) {
	p, err := s.queries.GetProfile(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &p, nil
}

// UpdateName changes a user's display name.
func (s *UserService) UpdateName(ctx context.Context, id, name string) (*store.Profile, error) {
	name = strings.TrimSpace(name)
	if len([]rune(name)) > 200 {
		return nil, fieldError("full_name", "validation.max_length")
	}
	p, err := s.queries.UpdateProfileName(ctx, id, name, s.now())
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &p, nil
}

// ChangePassword replaces a password after verifying the current one.
func (s *UserService) ChangePassword(ctx context.Context, id, current, next string) error {
	account, err := s.queries.GetAccount(ctx, id)
	if err != nil {
		return notFound(err, ErrUserNotFound)
	}
	if ok, err := auth.CheckPassword(current, account.PasswordHash); err != nil || !ok {
		return ErrInvalidCredentials
	}
	if err := validateCredentials(account.Email, next); err != nil {
		return err
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	return s.queries.UpdateAccountPassword(ctx, id, hash)
}

// ListUsers returns one page of profiles, newest first.
func (s *UserService) ListUsers(ctx context.Context, page, perPage int) (*Page[store.Profile], error) {
	page, perPage = pageBounds(page, perPage)
	users, err := s.queries.ListProfiles(ctx, int64(perPage), int64((page-1)*perPage))
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	total, err := s.queries.CountProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting users: %w", err)
	}
	if users == nil {
		users = []store.Profile{}
	}
	return &Page[store.Profile]{Items: users, Total: total, Page: page, PerPage: perPage}, nil
}

// ChangeRole sets a user's role. The last admin cannot be demoted.
func (s *UserService) ChangeRole(ctx context.Context, id, role, actorID string) (*store.Profile, error) {
	if !model.IsValidRole(role) {
		return nil, ErrInvalidRole
	}

	var before, after store.Profile
	err := s.tx.RunInTx(ctx, func(q *store.Queries) error {
		var err error
		before, err = q.GetProfile(ctx, id)
		if err != nil {
			return notFound(err, ErrUserNotFound)
		}
		if before.Role == role {
			after = before
			return nil
		}
		if err := guardLastAdmin(ctx, q, before); err != nil {
			return err
		}
		after, err = q.UpdateProfileRole(ctx, id, role, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	if before.Role != after.Role {
		s.logger.Info("user role changed",
			"category", model.EventCategoryUser,
			"user_id", id, "from", before.Role, "to", after.Role, "actor_id", actorID)
	}
	return &after, nil
}

// DeleteUser removes an account and its profile. The last admin cannot be
// deleted.
func (s *UserService) DeleteUser(ctx context.Context, id, actorID string) error {
	err := s.tx.RunInTx(ctx, func(q *store.Queries) error {
		p, err := q.GetProfile(ctx, id)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if err == nil {
			if err := guardLastAdmin(ctx, q, p); err != nil {
				return err
			}
		}
		n, err := q.DeleteAccount(ctx, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrUserNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("user deleted", "category", model.EventCategoryUser, "user_id", id, "actor_id", actorID)
	return nil
}

func guardLastAdmin(ctx context.Context, q *store.Queries, p store.Profile) error {
	if p.Role != model.RoleAdmin {
		return nil
	}
	admins, err := q.CountProfilesByRole(ctx, model.RoleAdmin)
	if err != nil {
		return fmt.Errorf("counting admins: %w", err)
	}
	if admins <= 1 {
		return ErrLastAdmin
	}
	return nil
}
