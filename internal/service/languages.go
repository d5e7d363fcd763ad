// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/detagroup/detaweb/internal/cache"
	"github.com/detagroup/detaweb/internal/locale"
	"github.com/detagroup/detaweb/internal/store"
)

// LanguageInput creates or updates a site language.
type LanguageInput struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	NativeName string `json:"native_name"`
	IsRTL      bool   `json:"is_rtl"`
	IsActive   bool   `json:"is_active"`
	Position   int64  `json:"position"`
}

// LanguageService manages the site languages and keeps the locale
// registry in step with them.
type LanguageService struct {
	queries  *store.Queries
	tx       *store.TxRunner
	registry *locale.Registry
	cache    cache.Cacher
	logger   *slog.Logger
	now      func() time.Time
}

// NewLanguageService creates a LanguageService.
func NewLanguageService(db *sql.DB, queries *store.Queries, registry *locale.Registry, c cache.Cacher, logger *slog.Logger) *LanguageService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LanguageService{
		queries:  queries,
		tx:       store.NewTxRunner(db, queries),
		registry: registry,
		cache:    c,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// List returns every language, active or not.
func (s *LanguageService) List(ctx context.Context) ([]store.Language, error) {
	langs, err := s.queries.ListLanguages(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing languages: %w", err)
	}
	if langs == nil {
		langs = []store.Language{}
	}
	return langs, nil
}

// Active returns the languages visitors can choose from.
func (s *LanguageService) Active() []store.Language {
	return s.registry.List()
}

func (s *LanguageService) validate(in *LanguageInput) error {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	in.NativeName = strings.TrimSpace(in.NativeName)

	verr := NewValidationError()
	if in.Code == "" {
		verr.Add("code", "validation.required")
	} else if tag, err := language.Parse(in.Code); err != nil || len(in.Code) > 10 {
		verr.Add("code", "validation.invalid")
	} else {
		// Store the canonical form, e.g. "EN" becomes "en".
		in.Code = tag.String()
	}
	if in.Name == "" {
		verr.Add("name", "validation.required")
	}
	if in.NativeName == "" {
		in.NativeName = in.Name
	}
	return verr.OrNil()
}

// Create adds a language. New languages are never the default.
func (s *LanguageService) Create(ctx context.Context, in LanguageInput) (*store.Language, error) {
	if err := s.validate(&in); err != nil {
		return nil, err
	}
	now := s.now()
	lang, err := s.queries.CreateLanguage(ctx, store.CreateLanguageParams{
		Code:       in.Code,
		Name:       in.Name,
		NativeName: in.NativeName,
		IsRtl:      in.IsRTL,
		IsActive:   in.IsActive,
		Position:   in.Position,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("creating language: %w", err)
	}
	s.reload(ctx)
	return &lang, nil
}

// Update changes a language. The default language cannot be deactivated.
func (s *LanguageService) Update(ctx context.Context, code string, in LanguageInput) (*store.Language, error) {
	in.Code = code
	if err := s.validate(&in); err != nil {
		return nil, err
	}
	current, err := s.queries.GetLanguage(ctx, in.Code)
	if err != nil {
		return nil, notFound(err, ErrLanguageNotFound)
	}
	if current.IsDefault && !in.IsActive {
		return nil, ErrDefaultLanguage
	}

	lang, err := s.queries.UpdateLanguage(ctx, store.UpdateLanguageParams{
		Code:       in.Code,
		Name:       in.Name,
		NativeName: in.NativeName,
		IsRtl:      in.IsRTL,
		IsActive:   in.IsActive,
		Position:   in.Position,
		UpdatedAt:  s.now(),
	})
	if err != nil {
		return nil, notFound(err, ErrLanguageNotFound)
	}
	s.reload(ctx)
	return &lang, nil
}

// SetDefault makes code the default language, activating it if needed.
// Exactly one language is flagged afterwards.
func (s *LanguageService) SetDefault(ctx context.Context, code string) error {
	err := s.tx.RunInTx(ctx, func(q *store.Queries) error {
		now := s.now()
		if err := q.ClearDefaultLanguage(ctx, now); err != nil {
			return fmt.Errorf("clearing default: %w", err)
		}
		n, err := q.SetDefaultLanguage(ctx, code, now)
		if err != nil {
			return fmt.Errorf("setting default: %w", err)
		}
		if n == 0 {
			return ErrLanguageNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("default language changed", "code", code)
	s.reload(ctx)
	return nil
}

// Delete removes a language and every translation in it. The default
// language cannot be deleted.
func (s *LanguageService) Delete(ctx context.Context, code string) error {
	lang, err := s.queries.GetLanguage(ctx, code)
	if err != nil {
		return notFound(err, ErrLanguageNotFound)
	}
	if lang.IsDefault {
		return ErrDefaultLanguage
	}
	if _, err := s.queries.DeleteLanguage(ctx, code); err != nil {
		return fmt.Errorf("deleting language: %w", err)
	}
	s.logger.Info("language deleted", "code", code)
	s.reload(ctx)
	return nil
}

// reload refreshes the registry and drops cached content, whose
// translations may have changed with the language list.
func (s *LanguageService) reload(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	if err := s.registry.Load(ctx, s.queries); err != nil {
		s.logger.Error("failed to reload languages", "error", err)
	}
	if err := s.cache.Clear(ctx); err != nil {
		s.logger.Error("failed to clear cache after language change", "error", err)
	}
}
