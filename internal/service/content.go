// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/detagroup/detaweb/internal/cache"
	"github.com/detagroup/detaweb/internal/content"
	"github.com/detagroup/detaweb/internal/locale"
	"github.com/detagroup/detaweb/internal/store"
)

// ResolveOptions selects the locale a read resolves at. Fallback is empty
// unless the caller opted in to another locale for missing translations.
type ResolveOptions struct {
	Locale   string
	Fallback string
}

// Page is one page of a resolved listing.
type Page[T any] struct {
	Items   []T   `json:"items"`
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
}

// Translations maps a locale code to the text of one entity in it.
type Translations map[string]content.TranslationInput

// ContentService manages translatable entities: articles, products,
// categories and site settings.
type ContentService struct {
	queries  *store.Queries
	tx       *store.TxRunner
	registry *locale.Registry
	renderer *content.Renderer
	cache    cache.Cacher
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewContentService creates a ContentService.
func NewContentService(db *sql.DB, queries *store.Queries, registry *locale.Registry, c cache.Cacher, logger *slog.Logger, ttl time.Duration) *ContentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContentService{
		queries:  queries,
		tx:       store.NewTxRunner(db, queries),
		registry: registry,
		renderer: content.NewRenderer(),
		cache:    c,
		ttl:      ttl,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// prepareTranslations validates every locale of in and derives missing
// slugs. Field errors are keyed "translations.<locale>.<field>".
func (s *ContentService) prepareTranslations(in Translations) (map[string]content.TranslationInput, error) {
	verr := NewValidationError()
	out := make(map[string]content.TranslationInput, len(in))
	for code, tr := range in {
		code = strings.TrimSpace(code)
		if !s.registry.Has(code) {
			verr.Add("translations."+code, "validation.unknown_reference")
			continue
		}
		prepared, err := content.Prepare(code, tr)
		if err != nil {
			var fe *content.FieldError
			if errors.As(err, &fe) {
				key := "validation.invalid"
				switch {
				case errors.Is(err, content.ErrTooLong):
					key = "validation.max_length"
				case errors.Is(err, content.ErrInvalidSlug):
					key = "validation.slug"
				}
				verr.Add("translations."+fe.Locale+"."+fe.Field, key)
				continue
			}
			return nil, err
		}
		out[code] = prepared
	}
	return out, verr.OrNil()
}

// upsertTranslations writes one row per locale keyed on (entity, locale).
// It must run inside the caller's transaction.
func (s *ContentService) upsertTranslations(ctx context.Context, q *store.Queries, table store.TranslationTable, entityID string, prepared map[string]content.TranslationInput) error {
	codes := make([]string, 0, len(prepared))
	for code := range prepared {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	now := s.now()
	for _, code := range codes {
		tr := prepared[code]
		if _, err := q.UpsertTranslation(ctx, table, store.UpsertTranslationParams{
			EntityID:     entityID,
			LanguageCode: code,
			Title:        tr.Title,
			Excerpt:      tr.Excerpt,
			Content:      tr.Content,
			Slug:         tr.Slug,
			Now:          now,
		}); err != nil {
			return fmt.Errorf("upserting %s translation: %w", code, err)
		}
	}
	return nil
}

// translationTables maps a content resource to its translation table.
var translationTables = map[string]store.TranslationTable{
	articlesResource:   store.ArticleTranslations,
	productsResource:   store.ProductTranslations,
	categoriesResource: store.CategoryTranslations,
	settingsResource:   store.SiteSettingTranslations,
}

// Content resources with translations.
const (
	ResourceArticles   = articlesResource
	ResourceProducts   = productsResource
	ResourceCategories = categoriesResource
	ResourceSettings   = settingsResource
)

func translationTable(resource string) (store.TranslationTable, error) {
	table, ok := translationTables[resource]
	if !ok {
		return "", ErrNotFound
	}
	return table, nil
}

// ListTranslations lists every translation of one entity of resource.
func (s *ContentService) ListTranslations(ctx context.Context, resource, entityID string) ([]store.Translation, error) {
	switch resource {
	case articlesResource:
		return s.ArticleTranslations(ctx, entityID)
	case productsResource:
		return s.ProductTranslations(ctx, entityID)
	case categoriesResource:
		return s.CategoryTranslations(ctx, entityID)
	case settingsResource:
		if _, err := s.queries.GetSiteSetting(ctx, entityID); err != nil {
			return nil, notFound(err, ErrNotFound)
		}
		return s.queries.ListTranslations(ctx, store.SiteSettingTranslations, entityID)
	}
	return nil, ErrNotFound
}

// UpsertTranslations creates or updates the given locales of one entity
// without touching the others.
func (s *ContentService) UpsertTranslations(ctx context.Context, resource, entityID string, in Translations) ([]store.Translation, error) {
	table, err := translationTable(resource)
	if err != nil {
		return nil, err
	}
	prepared, err := s.prepareTranslations(in)
	if err != nil {
		return nil, err
	}
	err = s.tx.RunInTx(ctx, func(q *store.Queries) error {
		return s.upsertTranslations(ctx, q, table, entityID, prepared)
	})
	if err != nil {
		if store.IsForeignKeyViolation(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.invalidate(ctx, resource)
	return s.queries.ListTranslations(ctx, table, entityID)
}

// DeleteTranslation removes one locale of an entity.
func (s *ContentService) DeleteTranslation(ctx context.Context, resource, entityID, code string) error {
	table, err := translationTable(resource)
	if err != nil {
		return err
	}
	n, err := s.queries.DeleteTranslation(ctx, table, entityID, code)
	if err != nil {
		return fmt.Errorf("deleting translation: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	s.invalidate(ctx, resource)
	return nil
}

// resolveAll attaches translations to entities and resolves each one.
func resolveAll[E any](ctx context.Context, q *store.Queries, table store.TranslationTable, entities []E, id func(E) string, opts ResolveOptions) ([]content.Resolved[E], error) {
	ids := make([]string, len(entities))
	for i, e := range entities {
		ids[i] = id(e)
	}
	rows, err := q.ListTranslationsForEntities(ctx, table, ids)
	if err != nil {
		return nil, fmt.Errorf("loading translations: %w", err)
	}
	grouped := content.GroupByEntity(rows)

	out := make([]content.Resolved[E], len(entities))
	for i, e := range entities {
		out[i] = content.ResolveWithFallback(e, grouped[id(e)], opts.Locale, opts.Fallback)
	}
	return out, nil
}

func resolveOne[E any](ctx context.Context, q *store.Queries, table store.TranslationTable, entity E, entityID string, opts ResolveOptions) (content.Resolved[E], error) {
	rows, err := q.ListTranslations(ctx, table, entityID)
	if err != nil {
		return content.Resolved[E]{}, fmt.Errorf("loading translations: %w", err)
	}
	return content.ResolveWithFallback(entity, rows, opts.Locale, opts.Fallback), nil
}

// cached reads key through the shared cache.
func cached[T any](ctx context.Context, s *ContentService, key string, load func() (*T, error)) (*T, error) {
	return cache.NewTypedCache[T](s.cache, s.ttl).GetOrSet(ctx, key, load)
}

func (s *ContentService) invalidate(ctx context.Context, resource string) {
	if err := cache.InvalidatePrefix(context.WithoutCancel(ctx), s.cache, cache.Prefix(resource)); err != nil {
		s.logger.Error("failed to invalidate content cache", "resource", resource, "error", err)
	}
}

func pageBounds(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}

func fallbackKey(opts ResolveOptions) string {
	return opts.Locale + "~" + opts.Fallback
}
