// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the JSON API of the site: public ordering and
// content reads, session auth, and the admin back office.
package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/detagroup/detaweb/internal/analytics"
	"github.com/detagroup/detaweb/internal/cache"
	"github.com/detagroup/detaweb/internal/locale"
	"github.com/detagroup/detaweb/internal/middleware"
	"github.com/detagroup/detaweb/internal/scheduler"
	"github.com/detagroup/detaweb/internal/service"
	"github.com/detagroup/detaweb/internal/util"
	"github.com/detagroup/detaweb/internal/version"
)

// maxBodySize bounds JSON request bodies.
const maxBodySize = 1 << 20

// Services groups the domain services the handlers call.
type Services struct {
	Orders    *service.OrderService
	Content   *service.ContentService
	Lookups   *service.LookupService
	Languages *service.LanguageService
	Users     *service.UserService
	Media     *service.MediaService
	Events    *service.EventService
}

// Analytics summarizes recorded page views.
type Analytics interface {
	Summarize(ctx context.Context, days int) (*analytics.Summary, error)
}

// Jobs lists and runs scheduled jobs.
type Jobs interface {
	Jobs() []scheduler.JobInfo
	Trigger(ctx context.Context, name string) error
}

// Config holds the handler dependencies. Analytics, Jobs and PageViews
// may be nil.
type Config struct {
	DB         *sql.DB
	Cache      cache.Cacher // optional, reported by /health
	Services   Services
	Registry   *locale.Registry
	Sessions   *scs.SessionManager
	LoginGuard *middleware.LoginGuard
	Analytics  Analytics
	Jobs       Jobs
	PageViews  middleware.PageViewTracker
	Version    version.Info
	Logger     *slog.Logger

	// Requests per minute per client address; zero disables the limit.
	OrderRateLimit int
	LoginRateLimit int
}

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	db        *sql.DB
	cache     cache.Cacher
	svc       Services
	registry  *locale.Registry
	sm        *scs.SessionManager
	guard     *middleware.LoginGuard
	analytics Analytics
	jobs      Jobs
	pageViews middleware.PageViewTracker
	version   version.Info
	logger    *slog.Logger
	started   time.Time

	orderLimit int
	loginLimit int
}

// NewHandler creates a new API handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	guard := cfg.LoginGuard
	if guard == nil {
		guard = middleware.NewLoginGuard(middleware.DefaultLoginGuardConfig())
	}
	return &Handler{
		db:         cfg.DB,
		cache:      cfg.Cache,
		svc:        cfg.Services,
		registry:   cfg.Registry,
		sm:         cfg.Sessions,
		guard:      guard,
		analytics:  cfg.Analytics,
		jobs:       cfg.Jobs,
		pageViews:  cfg.PageViews,
		version:    cfg.Version,
		logger:     logger,
		started:    time.Now(),
		orderLimit: cfg.OrderRateLimit,
		loginLimit: cfg.LoginRateLimit,
	}
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta carries the response locale, pagination and an optional
// localized notice.
type Meta struct {
	Locale    string `json:"locale,omitempty"`
	Direction string `json:"dir,omitempty"`
	Message   string `json:"message,omitempty"`
	Total     int64  `json:"total,omitempty"`
	Page      int    `json:"page,omitempty"`
	PerPage   int    `json:"per_page,omitempty"`
	Pages     int    `json:"pages,omitempty"`
}

// pageMeta builds pagination metadata.
func pageMeta(total int64, page, perPage int) *Meta {
	m := &Meta{Total: total, Page: page, PerPage: perPage}
	if perPage > 0 {
		m.Pages = int((total + int64(perPage) - 1) / int64(perPage))
	}
	return m
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeData writes a data envelope. The meta always reports the request
// locale and direction.
func writeData(w http.ResponseWriter, r *http.Request, status int, data any, meta *Meta) {
	if meta == nil {
		meta = &Meta{}
	}
	if lc, ok := locale.FromContext(r.Context()); ok {
		meta.Locale = lc.Active()
		meta.Direction = lc.Direction()
	}
	WriteJSON(w, status, Response{Data: data, Meta: meta})
}

// WriteSuccess writes a 200 response.
func WriteSuccess(w http.ResponseWriter, r *http.Request, data any, meta *Meta) {
	writeData(w, r, http.StatusOK, data, meta)
}

// WriteCreated writes a 201 Created response.
func WriteCreated(w http.ResponseWriter, r *http.Request, data any, meta *Meta) {
	writeData(w, r, http.StatusCreated, data, meta)
}

// WriteNoContent writes a 204 response.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteError writes an error envelope. message and detail values are i18n
// keys translated into the request locale.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]string) {
	t := translator(r)
	var localized map[string]string
	if len(details) > 0 {
		localized = make(map[string]string, len(details))
		for field, key := range details {
			localized[field] = t(key)
		}
	}
	WriteJSON(w, status, struct {
		Error middleware.APIError `json:"error"`
	}{middleware.APIError{Code: code, Message: t(message), Details: localized}})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, http.StatusBadRequest, "bad_request", "error.bad_request", nil)
}

// WriteValidationError writes a 422 response with field errors.
func WriteValidationError(w http.ResponseWriter, r *http.Request, fields map[string]string) {
	WriteError(w, r, http.StatusUnprocessableEntity, "validation_error", "error.validation", fields)
}

func translator(r *http.Request) func(string) string {
	if lc, ok := locale.FromContext(r.Context()); ok {
		return func(key string) string { return lc.T(key) }
	}
	return func(key string) string { return key }
}

// errorMapping maps a service error to a response.
type errorMapping struct {
	err    error
	status int
	code   string
	key    string
}

var errorMappings = []errorMapping{
	{service.ErrOrderNotFound, http.StatusNotFound, "not_found", "order.not_found"},
	{service.ErrUserNotFound, http.StatusNotFound, "not_found", "user.not_found"},
	{service.ErrLanguageNotFound, http.StatusNotFound, "not_found", "language.not_found"},
	{service.ErrUnknownLookupKind, http.StatusNotFound, "not_found", "lookup.unknown_kind"},
	{scheduler.ErrJobNotFound, http.StatusNotFound, "not_found", "error.not_found"},
	{service.ErrNotFound, http.StatusNotFound, "not_found", "error.not_found"},
	{service.ErrInvalidStatus, http.StatusUnprocessableEntity, "invalid_status", "order.invalid_status"},
	{service.ErrInvalidTransition, http.StatusConflict, "invalid_transition", "order.invalid_transition"},
	{service.ErrEmptyMessage, http.StatusUnprocessableEntity, "empty_message", "order.empty_message"},
	{service.ErrOrderClosed, http.StatusConflict, "order_closed", "order.closed"},
	{service.ErrInvalidSender, http.StatusBadRequest, "bad_request", "error.bad_request"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials", "auth.invalid_credentials"},
	{service.ErrEmailTaken, http.StatusConflict, "email_taken", "auth.email_taken"},
	{service.ErrInvalidRole, http.StatusUnprocessableEntity, "invalid_role", "user.invalid_role"},
	{service.ErrLastAdmin, http.StatusConflict, "last_admin", "user.last_admin"},
	{service.ErrDefaultLanguage, http.StatusConflict, "default_language", "language.default_protected"},
	{service.ErrInvalidCategoryKind, http.StatusUnprocessableEntity, "invalid_category_kind", "content.invalid_category_kind"},
	{service.ErrUnsupportedMediaType, http.StatusUnsupportedMediaType, "unsupported_media_type", "media.unsupported_type"},
	{service.ErrInvalidBucket, http.StatusBadRequest, "invalid_bucket", "media.invalid_bucket"},
	{service.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "payload_too_large", "error.payload_too_large"},
	{scheduler.ErrJobRunning, http.StatusConflict, "conflict", "error.conflict"},
	{service.ErrConflict, http.StatusConflict, "conflict", "error.conflict"},
}

// writeServiceError maps err to a status and a localized message. Unknown
// errors are logged and answered with 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		WriteValidationError(w, r, verr.Fields)
		return
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			WriteError(w, r, m.status, m.code, m.key, nil)
			return
		}
	}
	if errors.Is(err, context.Canceled) {
		h.logger.Debug("request cancelled", "path", r.URL.Path)
		return
	}

	h.logger.Error("request failed",
		"error", err,
		"method", r.Method,
		"url", r.URL.Path,
		"ip", util.ClientIP(r),
		"user_id", middleware.GetUserID(r),
	)
	WriteError(w, r, http.StatusInternalServerError, "internal_error", "error.internal", nil)
}

// decodeJSON reads the request body into dst. It writes a 400 and returns
// false on malformed input.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, r, http.StatusRequestEntityTooLarge, "payload_too_large", "error.payload_too_large", nil)
			return false
		}
		WriteBadRequest(w, r)
		return false
	}
	return true
}

// pagination reads page and per_page from the query string. Services
// clamp the values.
func pagination(r *http.Request) (page, perPage int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))
	return page, perPage
}

// activeLocale returns the request locale, or the site default.
func (h *Handler) activeLocale(r *http.Request) string {
	return locale.ActiveFrom(r.Context(), h.registry.Default())
}

// resolveOptions resolves content at the request locale. A fallback is
// only used when the client asks for one with ?fallback=<code> or
// ?fallback=default.
func (h *Handler) resolveOptions(r *http.Request) service.ResolveOptions {
	opts := service.ResolveOptions{Locale: h.activeLocale(r)}
	switch fb := r.URL.Query().Get("fallback"); {
	case fb == "default":
		opts.Fallback = h.registry.Default()
	case h.registry.Has(fb):
		opts.Fallback = fb
	}
	return opts
}

// parseSince reads an RFC 3339 "since" query parameter. ok is false when
// the value is present but malformed.
func parseSince(r *http.Request) (since *time.Time, ok bool) {
	raw := r.URL.Query().Get("since")
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, false
	}
	return &t, true
}
