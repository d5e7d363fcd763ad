// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for locale negotiation,
// sessions, authorization and request protection.
package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/detagroup/detaweb/internal/locale"
)

// APIError is the error body shared with the API handlers.
type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

type errorEnvelope struct {
	Error APIError `json:"error"`
}

// WriteAPIError writes an error envelope. message is an i18n key and is
// translated into the request locale when one is available.
func WriteAPIError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	if lc, ok := locale.FromContext(r.Context()); ok {
		message = lc.T(message)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: APIError{Code: code, Message: message}})
}
