// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"database/sql"
	"errors"
	"sort"
	"strings"
)

// Sentinel errors returned by the services. Handlers map them to HTTP
// statuses and localized messages.
var (
	ErrNotFound          = errors.New("not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrInvalidTransition = errors.New("order status transition not allowed")
	ErrEmptyMessage      = errors.New("message is empty")
	ErrOrderClosed       = errors.New("order is closed")
	ErrInvalidSender     = errors.New("invalid message sender")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidRole        = errors.New("invalid role")
	ErrLastAdmin          = errors.New("cannot remove the last admin")

	ErrLanguageNotFound     = errors.New("language not found")
	ErrDefaultLanguage      = errors.New("the default language cannot be removed or deactivated")
	ErrUnknownLookupKind    = errors.New("unknown lookup kind")
	ErrInvalidCategoryKind  = errors.New("invalid category kind")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrInvalidBucket        = errors.New("invalid media bucket")
	ErrFileTooLarge         = errors.New("file exceeds the upload size limit")
	ErrConflict             = errors.New("conflict")
)

// ValidationError carries per-field problems. Values are i18n keys such
// as "validation.required" so handlers can localize them.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns an empty ValidationError.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add records the first problem for field.
func (e *ValidationError) Add(field, key string) {
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = key
	}
}

// fieldError returns a ValidationError with a single field.
func fieldError(field, key string) *ValidationError {
	e := NewValidationError()
	e.Add(field, key)
	return e
}

// HasErrors reports whether any field failed.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// OrNil returns e when it has errors and nil otherwise.
func (e *ValidationError) OrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// notFound maps sql.ErrNoRows to target.
func notFound(err, target error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return target
	}
	return err
}
