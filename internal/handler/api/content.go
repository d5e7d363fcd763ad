// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/detagroup/detaweb/internal/content"
	"github.com/detagroup/detaweb/internal/middleware"
	"github.com/detagroup/detaweb/internal/service"
	"github.com/detagroup/detaweb/internal/store"
)

// ListPublishedArticles handles GET /articles?category_id=&page=&per_page=.
func (h *Handler) ListPublishedArticles(w http.ResponseWriter, r *http.Request) {
	h.listArticles(w, r, true)
}

// AdminListArticles handles GET /admin/articles, drafts included.
func (h *Handler) AdminListArticles(w http.ResponseWriter, r *http.Request) {
	h.listArticles(w, r, false)
}

func (h *Handler) listArticles(w http.ResponseWriter, r *http.Request, publishedOnly bool) {
	page, perPage := pagination(r)
	result, err := h.svc.Content.ListArticles(r.Context(), service.ListArticlesInput{
		ResolveOptions: h.resolveOptions(r),
		PublishedOnly:  publishedOnly,
		CategoryID:     r.URL.Query().Get("category_id"),
		Page:           page,
		PerPage:        perPage,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	items := mapAll(result.Items, func(res content.Resolved[store.Article]) content.Resolved[ArticleResponse] {
		return mapResolved(res, articleResponse)
	})
	WriteSuccess(w, r, items, pageMeta(result.Total, result.Page, result.PerPage))
}

// GetPublishedArticle handles GET /articles/{slug}. The slug is matched in
// the request locale.
func (h *Handler) GetPublishedArticle(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Content.GetArticleBySlug(r.Context(), chi.URLParam(r, "slug"), h.resolveOptions(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, articleViewResponse(view), nil)
}

// AdminGetArticle handles GET /admin/articles/{id}.
func (h *Handler) AdminGetArticle(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Content.GetArticle(r.Context(), chi.URLParam(r, "id"), h.resolveOptions(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, articleViewResponse(view), nil)
}

// CreateArticle handles POST /admin/articles.
func (h *Handler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	var in service.ArticleInput
	if !decodeJSON(w, r, &in) {
		return
	}
	in.AuthorID = middleware.GetUserID(r)
	article, err := h.svc.Content.CreateArticle(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, r, articleResponse(*article), nil)
}

// UpdateArticle handles PUT /admin/articles/{id}.
func (h *Handler) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	var in service.ArticleInput
	if !decodeJSON(w, r, &in) {
		return
	}
	in.AuthorID = middleware.GetUserID(r)
	article, err := h.svc.Content.UpdateArticle(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, articleResponse(*article), nil)
}

// DeleteArticle handles DELETE /admin/articles/{id}.
func (h *Handler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Content.DeleteArticle(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteNoContent(w)
}

// ListActiveProducts handles GET /products?category_id=&featured=true.
func (h *Handler) ListActiveProducts(w http.ResponseWriter, r *http.Request) {
	h.listProducts(w, r, true)
}

// AdminListProducts handles GET /admin/products, inactive ones included.
func (h *Handler) AdminListProducts(w http.ResponseWriter, r *http.Request) {
	h.listProducts(w, r, false)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request, activeOnly bool) {
	page, perPage := pagination(r)
	result, err := h.svc.Content.ListProducts(r.Context(), service.ListProductsInput{
		ResolveOptions: h.resolveOptions(r),
		ActiveOnly:     activeOnly,
		FeaturedOnly:   r.URL.Query().Get("featured") == "true",
		CategoryID:     r.URL.Query().Get("category_id"),
		Page:           page,
		PerPage:        perPage,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	items := mapAll(result.Items, func(res content.Resolved[store.Product]) content.Resolved[ProductResponse] {
		return mapResolved(res, productResponse)
	})
	WriteSuccess(w, r, items, pageMeta(result.Total, result.Page, result.PerPage))
}

// GetActiveProduct handles GET /products/{slug}.
func (h *Handler) GetActiveProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.svc.Content.GetProductBySlug(r.Context(), chi.URLParam(r, "slug"), h.resolveOptions(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, mapResolved(*product, productResponse), nil)
}

// AdminGetProduct handles GET /admin/products/{id}.
func (h *Handler) AdminGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.svc.Content.GetProduct(r.Context(), chi.URLParam(r, "id"), h.resolveOptions(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, mapResolved(*product, productResponse), nil)
}

// CreateProduct handles POST /admin/products.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var in service.ProductInput
	if !decodeJSON(w, r, &in) {
		return
	}
	product, err := h.svc.Content.CreateProduct(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, r, productResponse(*product), nil)
}

// UpdateProduct handles PUT /admin/products/{id}.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var in service.ProductInput
	if !decodeJSON(w, r, &in) {
		return
	}
	product, err := h.svc.Content.UpdateProduct(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, productResponse(*product), nil)
}

// DeleteProduct handles DELETE /admin/products/{id}.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Content.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteNoContent(w)
}

// ListCategories handles GET /categories?kind= and GET /admin/categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.Content.ListCategories(r.Context(), r.URL.Query().Get("kind"), h.resolveOptions(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, categories, nil)
}

// AdminGetCategory handles GET /admin/categories/{id}.
func (h *Handler) AdminGetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.svc.Content.GetCategory(r.Context(), chi.URLParam(r, "id"), h.resolveOptions(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, category, nil)
}

// CreateCategory handles POST /admin/categories.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in service.CategoryInput
	if !decodeJSON(w, r, &in) {
		return
	}
	category, err := h.svc.Content.CreateCategory(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, r, category, nil)
}

// UpdateCategory handles PUT /admin/categories/{id}.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var in service.CategoryInput
	if !decodeJSON(w, r, &in) {
		return
	}
	category, err := h.svc.Content.UpdateCategory(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, category, nil)
}

// DeleteCategory handles DELETE /admin/categories/{id}.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Content.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteNoContent(w)
}

// ListSettings handles GET /settings.
func (h *Handler) ListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.svc.Content.ListSettings(r.Context(), h.resolveOptions(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, settings, nil)
}

// GetSetting handles GET /settings/{key}.
func (h *Handler) GetSetting(w http.ResponseWriter, r *http.Request) {
	setting, err := h.svc.Content.GetSetting(r.Context(), chi.URLParam(r, "key"), h.resolveOptions(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, setting, nil)
}

// UpsertSetting handles PUT /admin/settings/{key}.
func (h *Handler) UpsertSetting(w http.ResponseWriter, r *http.Request) {
	var in service.SettingInput
	if !decodeJSON(w, r, &in) {
		return
	}
	setting, err := h.svc.Content.UpsertSetting(r.Context(), chi.URLParam(r, "key"), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, setting, nil)
}

// DeleteSetting handles DELETE /admin/settings/{key}.
func (h *Handler) DeleteSetting(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Content.DeleteSetting(r.Context(), chi.URLParam(r, "key")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteNoContent(w)
}

// ListTranslations returns a handler listing every translation of one
// entity of resource.
func (h *Handler) ListTranslations(resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		trs, err := h.svc.Content.ListTranslations(r.Context(), resource, chi.URLParam(r, "id"))
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		WriteSuccess(w, r, trs, nil)
	}
}

// UpsertTranslations returns a handler saving the posted locales of one
// entity of resource. Locales not in the body are left alone.
func (h *Handler) UpsertTranslations(resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in service.Translations
		if !decodeJSON(w, r, &in) {
			return
		}
		trs, err := h.svc.Content.UpsertTranslations(r.Context(), resource, chi.URLParam(r, "id"), in)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		WriteSuccess(w, r, trs, nil)
	}
}

// DeleteTranslation returns a handler removing one locale of an entity.
func (h *Handler) DeleteTranslation(resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h.svc.Content.DeleteTranslation(r.Context(), resource, chi.URLParam(r, "id"), chi.URLParam(r, "code"))
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		WriteNoContent(w)
	}
}
