// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/detagroup/detaweb/internal/cache"
	"github.com/detagroup/detaweb/internal/content"
	"github.com/detagroup/detaweb/internal/store"
)

const categoriesResource = "categories"

// Category kinds.
const (
	CategoryKindArticle = "article"
	CategoryKindProduct = "product"
)

// CategoryInput creates or updates a category. Kind is fixed at creation.
type CategoryInput struct {
	Kind         string       `json:"kind"`
	Position     int64        `json:"position"`
	Translations Translations `json:"translations"`
}

func validCategoryKind(kind string) bool {
	return kind == CategoryKindArticle || kind == CategoryKindProduct
}

// CreateCategory inserts a category and its translations.
func (s *ContentService) CreateCategory(ctx context.Context, in CategoryInput) (*store.Category, error) {
	if !validCategoryKind(in.Kind) {
		return nil, ErrInvalidCategoryKind
	}
	prepared, err := s.prepareTranslations(in.Translations)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var category store.Category
	err = s.tx.RunInTx(ctx, func(q *store.Queries) error {
		var err error
		category, err = q.CreateCategory(ctx, store.CreateCategoryParams{
			ID:        uuid.NewString(),
			Kind:      in.Kind,
			Position:  in.Position,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("creating category: %w", err)
		}
		return s.upsertTranslations(ctx, q, store.CategoryTranslations, category.ID, prepared)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, categoriesResource)
	return &category, nil
}

// UpdateCategory changes a category's position and upserts translations.
func (s *ContentService) UpdateCategory(ctx context.Context, id string, in CategoryInput) (*store.Category, error) {
	prepared, err := s.prepareTranslations(in.Translations)
	if err != nil {
		return nil, err
	}

	var category store.Category
	err = s.tx.RunInTx(ctx, func(q *store.Queries) error {
		var err error
		category, err = q.UpdateCategory(ctx, id, in.Position, s.now())
		if err != nil {
			return err
		}
		return s.upsertTranslations(ctx, q, store.CategoryTranslations, id, prepared)
	})
	if err != nil {
		return nil, notFound(err, ErrNotFound)
	}

	s.invalidate(ctx, categoriesResource)
	return &category, nil
}

// GetCategory resolves one category at opts.Locale.
func (s *ContentService) GetCategory(ctx context.Context, id string, opts ResolveOptions) (*content.Resolved[store.Category], error) {
	category, err := s.queries.GetCategory(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrNotFound)
	}
	resolved, err := resolveOne(ctx, s.queries, store.CategoryTranslations, category, category.ID, opts)
	if err != nil {
		return nil, err
	}
	return &resolved, nil
}

// ListCategories returns every category of kind (all kinds when empty),
// resolved at opts.Locale.
func (s *ContentService) ListCategories(ctx context.Context, kind string, opts ResolveOptions) ([]content.Resolved[store.Category], error) {
	if kind != "" && !validCategoryKind(kind) {
		return nil, ErrInvalidCategoryKind
	}
	key := cache.Key(categoriesResource, fallbackKey(opts), kind)

	list, err := cached(ctx, s, key, func() (*[]content.Resolved[store.Category], error) {
		categories, err := s.queries.ListCategories(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("listing categories: %w", err)
		}
		items, err := resolveAll(ctx, s.queries, store.CategoryTranslations, categories,
			func(c store.Category) string { return c.ID }, opts)
		if err != nil {
			return nil, err
		}
		return &items, nil
	})
	if err != nil {
		return nil, err
	}
	return *list, nil
}

// CategoryTranslations lists every translation of a category for editing.
func (s *ContentService) CategoryTranslations(ctx context.Context, id string) ([]store.Translation, error) {
	if _, err := s.queries.GetCategory(ctx, id); err != nil {
		return nil, notFound(err, ErrNotFound)
	}
	return s.queries.ListTranslations(ctx, store.CategoryTranslations, id)
}

// DeleteCategory removes a category. Articles and products in it become
// uncategorized, so their caches are dropped too.
func (s *ContentService) DeleteCategory(ctx context.Context, id string) error {
	n, err := s.queries.DeleteCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting category: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	s.invalidate(ctx, categoriesResource)
	s.invalidate(ctx, articlesResource)
	s.invalidate(ctx, productsResource)
	return nil
}
