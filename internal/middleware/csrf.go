// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"

	csrf "filippo.io/csrf/gorilla"

	"github.com/detagroup/detaweb/internal/logging"
	"github.com/detagroup/detaweb/internal/model"
)

// CSRF rejects cross-origin state-changing browser requests. Protection
// relies on Fetch metadata and Origin headers, so same-origin clients and
// non-browser callers need no token. trustedOrigins are host[:port] values.
func CSRF(authKey []byte, trustedOrigins []string) func(http.Handler) http.Handler {
	opts := []csrf.Option{csrf.ErrorHandler(http.HandlerFunc(csrfFailed))}
	if len(trustedOrigins) > 0 {
		opts = append(opts, csrf.TrustedOrigins(trustedOrigins))
	}
	return csrf.Protect(authKey, opts...)
}

func csrfFailed(w http.ResponseWriter, r *http.Request) {
	reason := "unknown"
	if err := csrf.FailureReason(r); err != nil {
		reason = err.Error()
	}
	slog.Warn("CSRF validation failed",
		logging.AttrCategory, model.EventCategoryAuth,
		"reason", reason,
		"method", r.Method,
		"path", r.URL.Path,
		"origin", r.Header.Get("Origin"),
		"sec_fetch_site", r.Header.Get("Sec-Fetch-Site"),
	)
	WriteAPIError(w, r, http.StatusForbidden, "forbidden", "error.forbidden")
}
