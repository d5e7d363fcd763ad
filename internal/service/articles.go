// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/detagroup/detaweb/internal/cache"
	"github.com/detagroup/detaweb/internal/content"
	"github.com/detagroup/detaweb/internal/store"
	"github.com/detagroup/detaweb/internal/util"
)

const articlesResource = "articles"

// ArticleInput creates or replaces an article. Translations are upserted
// per locale; locales absent from the map are left untouched.
type ArticleInput struct {
	CategoryID   string       `json:"category_id"`
	ImageURL     string       `json:"image_url"`
	IsPublished  bool         `json:"is_published"`
	AuthorID     string       `json:"-"`
	Translations Translations `json:"translations"`
}

// ArticleView is an article resolved at one locale. HTML is only rendered
// for single-article reads.
type ArticleView struct {
	content.Resolved[store.Article]
	HTML string `json:"html,omitempty"`
}

// ListArticlesInput filters an article listing.
type ListArticlesInput struct {
	ResolveOptions
	PublishedOnly bool
	CategoryID    string
	Page          int
	PerPage       int
}

func (s *ContentService) checkCategory(ctx context.Context, q *store.Queries, id, kind string) error {
	if id == "" {
		return nil
	}
	cat, err := q.GetCategory(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fieldError("category_id", "validation.unknown_reference")
		}
		return fmt.Errorf("loading category: %w", err)
	}
	if cat.Kind != kind {
		return fieldError("category_id", "validation.invalid")
	}
	return nil
}

// CreateArticle inserts an article and its translations in one transaction.
func (s *ContentService) CreateArticle(ctx context.Context, in ArticleInput) (*store.Article, error) {
	in.CategoryID = strings.TrimSpace(in.CategoryID)
	prepared, err := s.prepareTranslations(in.Translations)
	if err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, s.queries, in.CategoryID, "article"); err != nil {
		return nil, err
	}

	now := s.now()
	params := store.CreateArticleParams{
		ID:          uuid.NewString(),
		CategoryID:  util.NullStringFromValue(in.CategoryID),
		ImageUrl:    strings.TrimSpace(in.ImageURL),
		IsPublished: in.IsPublished,
		AuthorID:    util.NullStringFromValue(in.AuthorID),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.IsPublished {
		params.PublishedAt = sql.NullTime{Time: now, Valid: true}
	}

	var article store.Article
	err = s.tx.RunInTx(ctx, func(q *store.Queries) error {
		var err error
		article, err = q.CreateArticle(ctx, params)
		if err != nil {
			return fmt.Errorf("creating article: %w", err)
		}
		return s.upsertTranslations(ctx, q, store.ArticleTranslations, article.ID, prepared)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, articlesResource)
	s.logger.Info("article created", "article_id", article.ID, "locales", len(prepared))
	return &article, nil
}

// UpdateArticle replaces an article's fields and upserts the given
// translations. PublishedAt is set on first publication and kept after.
func (s *ContentService) UpdateArticle(ctx context.Context, id string, in ArticleInput) (*store.Article, error) {
	in.CategoryID = strings.TrimSpace(in.CategoryID)
	prepared, err := s.prepareTranslations(in.Translations)
	if err != nil {
		return nil, err
	}
	current, err := s.queries.GetArticle(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrNotFound)
	}
	if err := s.checkCategory(ctx, s.queries, in.CategoryID, "article"); err != nil {
		return nil, err
	}

	now := s.now()
	params := store.UpdateArticleParams{
		ID:          id,
		CategoryID:  util.NullStringFromValue(in.CategoryID),
		ImageUrl:    strings.TrimSpace(in.ImageURL),
		IsPublished: in.IsPublished,
		PublishedAt: current.PublishedAt,
		UpdatedAt:   now,
	}
	if in.IsPublished && !current.PublishedAt.Valid {
		params.PublishedAt = sql.NullTime{Time: now, Valid: true}
	}

	var article store.Article
	err = s.tx.RunInTx(ctx, func(q *store.Queries) error {
		var err error
		article, err = q.UpdateArticle(ctx, params)
		if err != nil {
			return fmt.Errorf("updating article: %w", err)
		}
		return s.upsertTranslations(ctx, q, store.ArticleTranslations, id, prepared)
	})
	if err != nil {
		return nil, notFound(err, ErrNotFound)
	}

	s.invalidate(ctx, articlesResource)
	return &article, nil
}

// GetArticle resolves one article at opts.Locale and renders its content.
func (s *ContentService) GetArticle(ctx context.Context, id string, opts ResolveOptions) (*ArticleView, error) {
	article, err := s.queries.GetArticle(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrNotFound)
	}
	return s.articleView(ctx, article, opts)
}

// GetArticleBySlug finds a published article by its slug in opts.Locale.
func (s *ContentService) GetArticleBySlug(ctx context.Context, slug string, opts ResolveOptions) (*ArticleView, error) {
	id, err := s.queries.FindEntityIDBySlug(ctx, store.ArticleTranslations, opts.Locale, slug)
	if err != nil {
		return nil, notFound(err, ErrNotFound)
	}
	article, err := s.queries.GetArticle(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrNotFound)
	}
	if !article.IsPublished {
		return nil, ErrNotFound
	}
	return s.articleView(ctx, article, opts)
}

func (s *ContentService) articleView(ctx context.Context, article store.Article, opts ResolveOptions) (*ArticleView, error) {
	resolved, err := resolveOne(ctx, s.queries, store.ArticleTranslations, article, article.ID, opts)
	if err != nil {
		return nil, err
	}
	html, err := s.renderer.HTML(resolved.Content)
	if err != nil {
		return nil, fmt.Errorf("rendering article: %w", err)
	}
	return &ArticleView{Resolved: resolved, HTML: html}, nil
}

// ListArticles returns one page of articles resolved at opts.Locale,
// newest first.
func (s *ContentService) ListArticles(ctx context.Context, in ListArticlesInput) (*Page[content.Resolved[store.Article]], error) {
	page, perPage := pageBounds(in.Page, in.PerPage)
	key := cache.Key(articlesResource, fallbackKey(in.ResolveOptions), fmt.Sprint(in.PublishedOnly),
		in.CategoryID, cache.Int(page), cache.Int(perPage))

	return cached(ctx, s, key, func() (*Page[content.Resolved[store.Article]], error) {
		articles, err := s.queries.ListArticles(ctx, store.ListArticlesParams{
			PublishedOnly: in.PublishedOnly,
			CategoryID:    in.CategoryID,
			Limit:         int64(perPage),
			Offset:        int64((page - 1) * perPage),
		})
		if err != nil {
			return nil, fmt.Errorf("listing articles: %w", err)
		}
		total, err := s.queries.CountArticles(ctx, in.PublishedOnly, in.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("counting articles: %w", err)
		}
		items, err := resolveAll(ctx, s.queries, store.ArticleTranslations, articles,
			func(a store.Article) string { return a.ID }, in.ResolveOptions)
		if err != nil {
			return nil, err
		}
		return &Page[content.Resolved[store.Article]]{Items: items, Total: total, Page: page, PerPage: perPage}, nil
	})
}

// ArticleTranslations lists every translation of an article for editing.
func (s *ContentService) ArticleTranslations(ctx context.Context, id string) ([]store.Translation, error) {
	if _, err := s.queries.GetArticle(ctx, id); err != nil {
		return nil, notFound(err, ErrNotFound)
	}
	return s.queries.ListTranslations(ctx, store.ArticleTranslations, id)
}

// DeleteArticle removes an article; its translations cascade.
func (s *ContentService) DeleteArticle(ctx context.Context, id string) error {
	n, err := s.queries.DeleteArticle(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting article: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	s.invalidate(ctx, articlesResource)
	s.logger.Info("article deleted", "article_id", id)
	return nil
}
