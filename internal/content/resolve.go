// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package content merges per-language translation rows onto
// language-agnostic entities and prepares translations for writing.
package content

import (
	"sort"

	"github.com/detagroup/detaweb/internal/store"
)

// Resolved is an entity with the text of one locale merged onto it.
type Resolved[E any] struct {
	Entity E `json:"entity"`
	// Locale is the requested locale.
	Locale string `json:"locale"`
	// SourceLocale is the locale the text came from; empty when Missing.
	SourceLocale string `json:"source_locale,omitempty"`
	Title        string `json:"title"`
	Excerpt      string `json:"excerpt"`
	Content      string `json:"content"`
	Slug         string `json:"slug"`
	// Missing is true when no translation exists for Locale (or for the
	// fallback, when one was requested). Text fields are then empty.
	Missing bool `json:"missing"`
	// AvailableLocales lists every locale with a translation row.
	AvailableLocales []string `json:"available_locales"`
}

// Resolve merges the translation whose language code equals locale. It
// never falls back to another locale: an absent row yields empty text and
// Missing set.
func Resolve[E any](entity E, translations []store.Translation, locale string) Resolved[E] {
	r := Resolved[E]{
		Entity:           entity,
		Locale:           locale,
		Missing:          true,
		AvailableLocales: availableLocales(translations),
	}
	for _, t := range translations {
		if t.LanguageCode == locale {
			r.SourceLocale = t.LanguageCode
			r.Title = t.Title
			r.Excerpt = t.Excerpt
			r.Content = t.Content
			r.Slug = t.Slug
			r.Missing = false
			break
		}
	}
	return r
}

// ResolveWithFallback resolves at locale and, when that translation is
// missing, at fallback. Locale keeps the requested value; SourceLocale
// tells which one supplied the text.
func ResolveWithFallback[E any](entity E, translations []store.Translation, locale, fallback string) Resolved[E] {
	r := Resolve(entity, translations, locale)
	if !r.Missing || fallback == "" || fallback == locale {
		return r
	}
	fb := Resolve(entity, translations, fallback)
	fb.Locale = locale
	return fb
}

// GroupByEntity indexes translation rows by entity id.
func GroupByEntity(translations []store.Translation) map[string][]store.Translation {
	out := make(map[string][]store.Translation)
	for _, t := range translations {
		out[t.EntityID] = append(out[t.EntityID], t)
	}
	return out
}

func availableLocales(translations []store.Translation) []string {
	locales := make([]string, 0, len(translations))
	for _, t := range translations {
		locales = append(locales, t.LanguageCode)
	}
	sort.Strings(locales)
	return locales
}
