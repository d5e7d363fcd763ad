// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package locale tracks the site languages and the active locale of a
// session, with the text direction derived from it.
package locale

import (
	"context"
	"fmt"
	"sync"

	"github.com/detagroup/detaweb/internal/model"
	"github.com/detagroup/detaweb/internal/store"
)

// LanguageLister loads the active languages.
type LanguageLister interface {
	ListActiveLanguages(ctx context.Context) ([]store.Language, error)
}

// Registry is the process-wide list of active languages. Until Load
// succeeds it knows only the hard default.
type Registry struct {
	mu          sync.RWMutex
	languages   []store.Language
	byCode      map[string]store.Language
	defaultCode string
	loaded      bool
}

// NewRegistry returns a registry initialized to the hard default locale.
func NewRegistry() *Registry {
	return &Registry{
		byCode:      map[string]store.Language{},
		defaultCode: model.DefaultLanguageCode,
	}
}

// Load replaces the language list and adopts the entry flagged as default.
// When no entry is flagged the previous default is kept.
func (r *Registry) Load(ctx context.Context, lister LanguageLister) error {
	langs, err := lister.ListActiveLanguages(ctx)
	if err != nil {
		return fmt.Errorf("loading languages: %w", err)
	}
	r.Replace(langs)
	return nil
}

// Replace installs an already loaded language list.
func (r *Registry) Replace(langs []store.Language) {
	byCode := make(map[string]store.Language, len(langs))
	def := ""
	for _, l := range langs {
		byCode[l.Code] = l
		if l.IsDefault {
			def = l.Code
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.languages = append([]store.Language(nil), langs...)
	r.byCode = byCode
	if def != "" {
		r.defaultCode = def
	}
	r.loaded = true
}

// Loaded reports whether a language list has been installed.
func (r *Registry) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// Default returns the default locale code.
func (r *Registry) Default() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultCode
}

// Get returns the language with the given code.
func (r *Registry) Get(code string) (store.Language, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.byCode[code]
	return l, ok
}

// Has reports whether code is an active language. Before the list loads
// only the hard default is known.
func (r *Registry) Has(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.loaded {
		return code == r.defaultCode
	}
	_, ok := r.byCode[code]
	return ok
}

// List returns a copy of the active languages in display order.
func (r *Registry) List() []store.Language {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]store.Language(nil), r.languages...)
}

// Codes returns the active language codes in display order.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codes := make([]string, len(r.languages))
	for i, l := range r.languages {
		codes[i] = l.Code
	}
	return codes
}

// IsRTL reports whether code is written right to left. Unknown codes fall
// back to the hard default's direction only when they are the hard default.
func (r *Registry) IsRTL(code string) bool {
	if l, ok := r.Get(code); ok {
		return l.IsRtl
	}
	return code == model.DefaultLanguageCode
}

// Direction returns "rtl" or "ltr" for code.
func (r *Registry) Direction(code string) string {
	return model.DirectionFor(r.IsRTL(code))
}
