// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/detagroup/detaweb/internal/cache"
	"github.com/detagroup/detaweb/internal/content"
	"github.com/detagroup/detaweb/internal/store"
	"github.com/detagroup/detaweb/internal/util"
)

const productsResource = "products"

// ProductInput creates or replaces a product.
type ProductInput struct {
	CategoryID   string       `json:"category_id"`
	Price        float64      `json:"price"`
	Unit         string       `json:"unit"`
	ImageURL     string       `json:"image_url"`
	IsFeatured   bool         `json:"is_featured"`
	IsActive     bool         `json:"is_active"`
	Position     int64        `json:"position"`
	Translations Translations `json:"translations"`
}

// ListProductsInput filters a product listing.
type ListProductsInput struct {
	ResolveOptions
	ActiveOnly   bool
	FeaturedOnly bool
	CategoryID   string
	Page         int
	PerPage      int
}

func (s *ContentService) validateProduct(ctx context.Context, in *ProductInput) (map[string]content.TranslationInput, error) {
	in.CategoryID = strings.TrimSpace(in.CategoryID)
	in.Unit = strings.TrimSpace(in.Unit)
	in.ImageURL = strings.TrimSpace(in.ImageURL)

	prepared, err := s.prepareTranslations(in.Translations)
	if err != nil {
		return nil, err
	}
	if in.Price < 0 || math.IsNaN(in.Price) || math.IsInf(in.Price, 0) {
		return nil, fieldError("price", "validation.invalid")
	}
	if len(in.Unit) > 50 {
		return nil, fieldError("unit", "validation.max_length")
	}
	if err := s.checkCategory(ctx, s.queries, in.CategoryID, "product"); err != nil {
		return nil, err
	}
	return prepared, nil
}

// CreateProduct inserts a product and its translations.
func (s *ContentService) CreateProduct(ctx context.Context, in ProductInput) (*store.Product, error) {
	prepared, err := s.validateProduct(ctx, &in)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var product store.Product
	err = s.tx.RunInTx(ctx, func(q *store.Queries) error {
		var err error
		product, err = q.CreateProduct(ctx, store.CreateProductParams{
			ID:         uuid.NewString(),
			CategoryID: util.NullStringFromValue(in.CategoryID),
			Price:      in.Price,
			Unit:       in.Unit,
			ImageUrl:   in.ImageURL,
			IsFeatured: in.IsFeatured,
			IsActive:   in.IsActive,
			Position:   in.Position,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		if err != nil {
			return fmt.Errorf("creating product: %w", err)
		}
		return s.upsertTranslations(ctx, q, store.ProductTranslations, product.ID, prepared)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, productsResource)
	s.logger.Info("product created", "product_id", product.ID)
	return &product, nil
}

// UpdateProduct replaces a product's fields and upserts the given
// translations.
func (s *ContentService) UpdateProduct(ctx context.Context, id string, in ProductInput) (*store.Product, error) {
	prepared, err := s.validateProduct(ctx, &in)
	if err != nil {
		return nil, err
	}

	var product store.Product
	err = s.tx.RunInTx(ctx, func(q *store.Queries) error {
		var err error
		product, err = q.UpdateProduct(ctx, store.UpdateProductParams{
			ID:         id,
			CategoryID: util.NullStringFromValue(in.CategoryID),
			Price:      in.Price,
			Unit:       in.Unit,
			ImageUrl:   in.ImageURL,
			IsFeatured: in.IsFeatured,
			IsActive:   in.IsActive,
			Position:   in.Position,
			UpdatedAt:  s.now(),
		})
		if err != nil {
			return err
		}
		return s.upsertTranslations(ctx, q, store.ProductTranslations, id, prepared)
	})
	if err != nil {
		return nil, notFound(err, ErrNotFound)
	}

	s.invalidate(ctx, productsResource)
	return &product, nil
}

// GetProduct resolves one product at opts.Locale.
func (s *ContentService) GetProduct(ctx context.Context, id string, opts ResolveOptions) (*content.Resolved[store.Product], error) {
	product, err := s.queries.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrNotFound)
	}
	resolved, err := resolveOne(ctx, s.queries, store.ProductTranslations, product, product.ID, opts)
	if err != nil {
		return nil, err
	}
	return &resolved, nil
}

// GetProductBySlug finds an active product by its slug in opts.Locale.
func (s *ContentService) GetProductBySlug(ctx context.Context, slug string, opts ResolveOptions) (*content.Resolved[store.Product], error) {
	id, err := s.queries.FindEntityIDBySlug(ctx, store.ProductTranslations, opts.Locale, slug)
	if err != nil {
		return nil, notFound(err, ErrNotFound)
	}
	p, err := s.GetProduct(ctx, id, opts)
	if err != nil {
		return nil, err
	}
	if !p.Entity.IsActive {
		return nil, ErrNotFound
	}
	return p, nil
}

// ListProducts returns one page of products ordered by position.
func (s *ContentService) ListProducts(ctx context.Context, in ListProductsInput) (*Page[content.Resolved[store.Product]], error) {
	page, perPage := pageBounds(in.Page, in.PerPage)
	key := cache.Key(productsResource, fallbackKey(in.ResolveOptions), fmt.Sprint(in.ActiveOnly),
		fmt.Sprint(in.FeaturedOnly), in.CategoryID, cache.Int(page), cache.Int(perPage))

	return cached(ctx, s, key, func() (*Page[content.Resolved[store.Product]], error) {
		params := store.ListProductsParams{
			ActiveOnly:   in.ActiveOnly,
			FeaturedOnly: in.FeaturedOnly,
			CategoryID:   in.CategoryID,
			Limit:        int64(perPage),
			Offset:       int64((page - 1) * perPage),
		}
		products, err := s.queries.ListProducts(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("listing products: %w", err)
		}
		total, err := s.queries.CountProducts(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("counting products: %w", err)
		}
		items, err := resolveAll(ctx, s.queries, store.ProductTranslations, products,
			func(p store.Product) string { return p.ID }, in.ResolveOptions)
		if err != nil {
			return nil, err
		}
		return &Page[content.Resolved[store.Product]]{Items: items, Total: total, Page: page, PerPage: perPage}, nil
	})
}

// ProductTranslations lists every translation of a product for editing.
func (s *ContentService) ProductTranslations(ctx context.Context, id string) ([]store.Translation, error) {
	if _, err := s.queries.GetProduct(ctx, id); err != nil {
		return nil, notFound(err, ErrNotFound)
	}
	return s.queries.ListTranslations(ctx, store.ProductTranslations, id)
}

// DeleteProduct removes a product. Order items keep their description.
func (s *ContentService) DeleteProduct(ctx context.Context, id string) error {
	n, err := s.queries.DeleteProduct(ctx, id)
	if err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	s.invalidate(ctx, productsResource)
	return nil
}
