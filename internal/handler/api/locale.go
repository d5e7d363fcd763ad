// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/detagroup/detaweb/internal/locale"
	"github.com/detagroup/detaweb/internal/middleware"
)

// LocaleRequest selects a session locale.
type LocaleRequest struct {
	Code string `json:"code"`
}

// LocaleResponse describes the active locale.
type LocaleResponse struct {
	Code       string `json:"code"`
	Direction  string `json:"dir"`
	IsRTL      bool   `json:"is_rtl"`
	Overridden bool   `json:"overridden"`
}

func localeResponse(lc *locale.Context) LocaleResponse {
	return LocaleResponse{
		Code:       lc.Active(),
		Direction:  lc.Direction(),
		IsRTL:      lc.IsRTL(),
		Overridden: lc.Overridden(),
	}
}

// ListActiveLanguages handles GET /languages.
func (h *Handler) ListActiveLanguages(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, h.registry.List(), nil)
}

// SwitchLocale handles PUT /locale. The choice is kept in the session and
// wins over Accept-Language on later requests.
func (h *Handler) SwitchLocale(w http.ResponseWriter, r *http.Request) {
	var req LocaleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	lc, ok := locale.FromContext(r.Context())
	if !ok {
		WriteBadRequest(w, r)
		return
	}
	if err := lc.Set(req.Code); err != nil {
		WriteValidationError(w, r, map[string]string{"code": "validation.invalid"})
		return
	}
	h.sm.Put(r.Context(), middleware.SessionKeyLanguage, lc.Active())
	WriteSuccess(w, r, localeResponse(lc), &Meta{Message: lc.T("language.changed")})
}

// ResetLocale handles DELETE /locale, dropping the session override.
func (h *Handler) ResetLocale(w http.ResponseWriter, r *http.Request) {
	lc, ok := locale.FromContext(r.Context())
	if !ok {
		WriteBadRequest(w, r)
		return
	}
	h.sm.Remove(r.Context(), middleware.SessionKeyLanguage)
	lc.Reset()
	WriteSuccess(w, r, localeResponse(lc), nil)
}
