// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/detagroup/detaweb/internal/middleware"
	"github.com/detagroup/detaweb/internal/service"
)

// defaultSummaryDays is the analytics window when none is requested.
const defaultSummaryDays = 30

// ChangeRoleRequest sets a user's role.
type ChangeRoleRequest struct {
	Role string `json:"role"`
}

// ListLookups handles GET /lookups/{kind}?parent_id=: active entries named
// in the request locale.
func (h *Handler) ListLookups(w http.ResponseWriter, r *http.Request) {
	h.listLookups(w, r, true)
}

// AdminListLookups handles GET /admin/lookups/{kind}, inactive entries
// included.
func (h *Handler) AdminListLookups(w http.ResponseWriter, r *http.Request) {
	h.listLookups(w, r, false)
}

func (h *Handler) listLookups(w http.ResponseWriter, r *http.Request, activeOnly bool) {
	kind, err := service.ParseLookupKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	items, err := h.svc.Lookups.List(r.Context(), kind, h.activeLocale(r), r.URL.Query().Get("parent_id"), activeOnly)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, items, nil)
}

// LookupNames handles GET /admin/lookups/{kind}/{id}/names.
func (h *Handler) LookupNames(w http.ResponseWriter, r *http.Request) {
	kind, err := service.ParseLookupKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	names, err := h.svc.Lookups.Names(r.Context(), kind, chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, names, nil)
}

// UpsertLookup handles PUT /admin/lookups/{kind}.
func (h *Handler) UpsertLookup(w http.ResponseWriter, r *http.Request) {
	kind, err := service.ParseLookupKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	var in service.LookupInput
	if !decodeJSON(w, r, &in) {
		return
	}
	lookup, err := h.svc.Lookups.Upsert(r.Context(), kind, in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, lookupResponse(lookup), nil)
}

// DeleteLookup handles DELETE /admin/lookups/{kind}/{id}.
func (h *Handler) DeleteLookup(w http.ResponseWriter, r *http.Request) {
	kind, err := service.ParseLookupKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if err := h.svc.Lookups.Delete(r.Context(), kind, chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteNoContent(w)
}

// ListUsers handles GET /admin/users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r)
	result, err := h.svc.Users.ListUsers(r.Context(), page, perPage)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, result.Items, pageMeta(result.Total, result.Page, result.PerPage))
}

// ChangeUserRole handles PUT /admin/users/{id}/role.
func (h *Handler) ChangeUserRole(w http.ResponseWriter, r *http.Request) {
	var req ChangeRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	profile, err := h.svc.Users.ChangeRole(r.Context(), chi.URLParam(r, "id"), req.Role, middleware.GetUserID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, profile, nil)
}

// DeleteUser handles DELETE /admin/users/{id}.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Users.DeleteUser(r.Context(), chi.URLParam(r, "id"), middleware.GetUserID(r)); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteNoContent(w)
}

// AdminListLanguages handles GET /admin/languages, inactive ones included.
func (h *Handler) AdminListLanguages(w http.ResponseWriter, r *http.Request) {
	langs, err := h.svc.Languages.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, langs, nil)
}

// CreateLanguage handles POST /admin/languages.
func (h *Handler) CreateLanguage(w http.ResponseWriter, r *http.Request) {
	var in service.LanguageInput
	if !decodeJSON(w, r, &in) {
		return
	}
	lang, err := h.svc.Languages.Create(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, r, lang, nil)
}

// UpdateLanguage handles PUT /admin/languages/{code}.
func (h *Handler) UpdateLanguage(w http.ResponseWriter, r *http.Request) {
	var in service.LanguageInput
	if !decodeJSON(w, r, &in) {
		return
	}
	lang, err := h.svc.Languages.Update(r.Context(), chi.URLParam(r, "code"), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, lang, nil)
}

// SetDefaultLanguage handles PUT /admin/languages/{code}/default.
func (h *Handler) SetDefaultLanguage(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Languages.SetDefault(r.Context(), chi.URLParam(r, "code")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, h.registry.List(), nil)
}

// DeleteLanguage handles DELETE /admin/languages/{code}.
func (h *Handler) DeleteLanguage(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Languages.Delete(r.Context(), chi.URLParam(r, "code")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteNoContent(w)
}

// ListEvents handles GET /admin/events?level=&category=&page=&per_page=.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r)
	result, err := h.svc.Events.List(r.Context(), service.ListEventsInput{
		Level:    r.URL.Query().Get("level"),
		Category: r.URL.Query().Get("category"),
		Page:     page,
		PerPage:  perPage,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, mapAll(result.Items, eventResponse), pageMeta(result.Total, result.Page, result.PerPage))
}

// AnalyticsSummary handles GET /admin/analytics?days=.
func (h *Handler) AnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	if h.analytics == nil {
		WriteError(w, r, http.StatusNotFound, "not_found", "error.not_found", nil)
		return
	}
	days, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil || days < 1 {
		days = defaultSummaryDays
	}
	summary, err := h.analytics.Summarize(r.Context(), days)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, summary, nil)
}

// ListJobs handles GET /admin/jobs.
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		WriteSuccess(w, r, []any{}, nil)
		return
	}
	WriteSuccess(w, r, h.jobs.Jobs(), nil)
}

// RunJob handles POST /admin/jobs/{name}/run. The job runs before the
// response is written.
func (h *Handler) RunJob(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		WriteError(w, r, http.StatusNotFound, "not_found", "error.not_found", nil)
		return
	}
	name := chi.URLParam(r, "name")
	if err := h.jobs.Trigger(r.Context(), name); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.logger.Info("job run manually", "job", name, "user_id", middleware.GetUserID(r))
	for _, job := range h.jobs.Jobs() {
		if job.Name == name {
			WriteSuccess(w, r, job, nil)
			return
		}
	}
	WriteNoContent(w)
}
