// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/detagroup/detaweb/internal/middleware"
	"github.com/detagroup/detaweb/internal/service"
)

// Routes returns the API router. It expects the session and locale
// middleware to run before it.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.LoadUser(h.sm, h.svc.Users))

	r.Get("/health", h.Health)

	// Locale
	r.Get("/languages", h.ListActiveLanguages)
	r.Put("/locale", h.SwitchLocale)
	r.Delete("/locale", h.ResetLocale)

	// Order form reference data
	r.Get("/lookups/{kind}", h.ListLookups)

	// Ordering and tracking
	r.Route("/orders", func(r chi.Router) {
		limited := r.With(middleware.RateLimit(h.orderLimit, 0))
		limited.Post("/", h.SubmitOrder)
		limited.Post("/find", h.FindOrder)
		limited.Get("/{id}/messages", h.ListCustomerMessages)
		limited.Post("/{id}/messages", h.SendCustomerMessage)
	})

	// Published content
	r.Group(func(r chi.Router) {
		if h.pageViews != nil {
			r.Use(middleware.TrackPageViews(h.pageViews))
		}
		r.Get("/articles", h.ListPublishedArticles)
		r.Get("/articles/{slug}", h.GetPublishedArticle)
		r.Get("/products", h.ListActiveProducts)
		r.Get("/products/{slug}", h.GetActiveProduct)
		r.Get("/categories", h.ListCategories)
		r.Get("/settings", h.ListSettings)
		r.Get("/settings/{key}", h.GetSetting)
		r.Get("/backgrounds/{page}", h.ListPageBackgrounds)
	})

	// Auth
	r.Route("/auth", func(r chi.Router) {
		r.Use(middleware.NoStore)
		limited := r.With(middleware.RateLimit(h.loginLimit, 0))
		limited.Post("/signup", h.SignUp)
		limited.Post("/signin", h.SignIn)
		r.Post("/signout", h.SignOut)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/me", h.Me)
			r.Patch("/me", h.UpdateMe)
			r.Put("/me/password", h.ChangePassword)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.NoStore)
		r.Use(middleware.RequireEditor())

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.AdminListOrders)
			r.Get("/counts", h.AdminOrderCounts)
			r.Get("/{id}", h.AdminGetOrder)
			r.With(middleware.RequireAdmin()).Put("/{id}/status", h.AdminUpdateOrderStatus)
			r.Get("/{id}/messages", h.AdminListMessages)
			r.Post("/{id}/messages", h.AdminSendMessage)
			r.With(middleware.RequireAdmin()).Delete("/{id}", h.AdminDeleteOrder)
		})

		r.Route("/articles", func(r chi.Router) {
			r.Get("/", h.AdminListArticles)
			r.Post("/", h.CreateArticle)
			r.Get("/{id}", h.AdminGetArticle)
			r.Put("/{id}", h.UpdateArticle)
			r.Delete("/{id}", h.DeleteArticle)
			h.translationRoutes(r, service.ResourceArticles)
		})
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.AdminListProducts)
			r.Post("/", h.CreateProduct)
			r.Get("/{id}", h.AdminGetProduct)
			r.Put("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
			h.translationRoutes(r, service.ResourceProducts)
		})
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.ListCategories)
			r.Post("/", h.CreateCategory)
			r.Get("/{id}", h.AdminGetCategory)
			r.Put("/{id}", h.UpdateCategory)
			r.Delete("/{id}", h.DeleteCategory)
			h.translationRoutes(r, service.ResourceCategories)
		})
		r.Route("/settings", func(r chi.Router) {
			r.Get("/", h.ListSettings)
			r.Put("/{key}", h.UpsertSetting)
			r.Delete("/{key}", h.DeleteSetting)
			h.translationRoutes(r, service.ResourceSettings)
		})

		r.Route("/media", func(r chi.Router) {
			r.Get("/", h.ListMedia)
			r.Post("/", h.UploadMedia)
			r.Get("/{id}", h.GetMedia)
			r.Delete("/{id}", h.DeleteMedia)
		})
		r.Route("/backgrounds", func(r chi.Router) {
			r.Get("/", h.AdminListBackgrounds)
			r.Post("/", h.CreateBackground)
			r.Get("/{id}", h.GetBackground)
			r.Put("/{id}", h.UpdateBackground)
			r.Delete("/{id}", h.DeleteBackground)
		})

		r.Route("/lookups/{kind}", func(r chi.Router) {
			r.Get("/", h.AdminListLookups)
			r.Put("/", h.UpsertLookup)
			r.Get("/{id}/names", h.LookupNames)
			r.Delete("/{id}", h.DeleteLookup)
		})

		r.Get("/analytics", h.AnalyticsSummary)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin())

			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.ListUsers)
				r.Put("/{id}/role", h.ChangeUserRole)
				r.Delete("/{id}", h.DeleteUser)
			})
			r.Route("/languages", func(r chi.Router) {
				r.Get("/", h.AdminListLanguages)
				r.Post("/", h.CreateLanguage)
				r.Put("/{code}", h.UpdateLanguage)
				r.Put("/{code}/default", h.SetDefaultLanguage)
				r.Delete("/{code}", h.DeleteLanguage)
			})
			r.Get("/events", h.ListEvents)
			r.Get("/jobs", h.ListJobs)
			r.Post("/jobs/{name}/run", h.RunJob)
		})
	})

	return r
}

// translationRoutes adds the per-locale translation endpoints of resource
// to its subrouter.
func (h *Handler) translationRoutes(r chi.Router, resource string) {
	r.Get("/{id}/translations", h.ListTranslations(resource))
	r.Put("/{id}/translations", h.UpsertTranslations(resource))
	r.Delete("/{id}/translations/{code}", h.DeleteTranslation(resource))
}
