// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/detagroup/detaweb/internal/i18n"
	"github.com/detagroup/detaweb/internal/locale"
)

// Locale selection inputs, in priority order.
const (
	LanguageQueryParam  = "lang"
	SessionKeyLanguage  = "lang"
	HeaderTextDirection = "X-Text-Direction"
)

// Locale attaches a locale.Context to every request. The locale comes from
// the lang query parameter, then the session override, then
// Accept-Language, then the site default. The response reports it through
// Content-Language and X-Text-Direction, and follows switches made by the
// handler before the body is written. sm may be nil.
func Locale(registry *locale.Registry, catalog *i18n.Catalog, sm *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lc := locale.New(registry, catalog)

			if code := pickLocale(r, registry, sm); code != "" {
				_ = lc.Set(code)
			}

			setLocaleHeaders(w, lc.Active(), lc.Direction())
			unsubscribe := lc.OnChange(func(c locale.Change) {
				setLocaleHeaders(w, c.To, c.Direction)
			})
			defer unsubscribe()

			w.Header().Add("Vary", "Accept-Language")
			next.ServeHTTP(w, r.WithContext(locale.WithContext(r.Context(), lc)))
		})
	}
}

func pickLocale(r *http.Request, registry *locale.Registry, sm *scs.SessionManager) string {
	if code := r.URL.Query().Get(LanguageQueryParam); registry.Has(code) {
		return code
	}
	if sm != nil {
		if code := sm.GetString(r.Context(), SessionKeyLanguage); registry.Has(code) {
			return code
		}
	}
	return i18n.Match(r.Header.Get("Accept-Language"), registry.Codes())
}

func setLocaleHeaders(w http.ResponseWriter, code, dir string) {
	w.Header().Set("Content-Language", code)
	w.Header().Set(HeaderTextDirection, dir)
}
