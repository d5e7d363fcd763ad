// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"strconv"
)

// hstsMaxAge is one year in seconds.
const hstsMaxAge = 31536000

// apiCSP forbids everything; responses are JSON or uploaded files.
const apiCSP = "default-src 'none'; img-src 'self'; frame-ancestors 'none'; base-uri 'none'"

// SecurityHeaders sets the response hardening headers. HSTS is only sent
// outside development.
func SecurityHeaders(isDev bool) func(http.Handler) http.Handler {
	hsts := "max-age=" + strconv.Itoa(hstsMaxAge) + "; includeSubDomains"
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Content-Security-Policy", apiCSP)
			h.Set("Permissions-Policy", "camera=(), geolocation=(), microphone=(), payment=(), browsing-topics=()")
			if !isDev {
				h.Set("Strict-Transport-Security", hsts)
			}
			next.ServeHTTP(w, r)
		})
	}
}
