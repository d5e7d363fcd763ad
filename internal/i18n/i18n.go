// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package i18n holds the static key→string dictionaries for the short
// UI and API strings in each supported locale.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/language"
)

//go:embed locales
var localesFS embed.FS

// Message represents a single translatable message.
type Message struct {
	ID          string `json:"id"`
	Message     string `json:"message"`
	Translation string `json:"translation"`
}

// MessageFile represents the structure of a messages JSON file.
type MessageFile struct {
	Language string    `json:"language"`
	Messages []Message `json:"messages"`
}

// SupportedLanguages lists the locales that ship a dictionary.
var SupportedLanguages = []string{"ar", "en"}

// Catalog is an immutable set of dictionaries, safe for concurrent use
// once loaded.
type Catalog struct {
	translations map[string]map[string]string // lang -> key -> translation
}

// Load reads every supported dictionary from the embedded filesystem.
func Load(logger *slog.Logger) (*Catalog, error) {
	c := &Catalog{
		translations: make(map[string]map[string]string, len(SupportedLanguages)),
	}

	for _, lang := range SupportedLanguages {
		n, err := c.loadLanguage(lang)
		if err != nil {
			return nil, fmt.Errorf("loading language %s: %w", lang, err)
		}
		if logger != nil {
			logger.Debug("loaded translations", "language", lang, "count", n)
		}
	}

	return c, nil
}

// MustLoad is Load for tests and package initialization; it panics on a
// broken embedded dictionary.
func MustLoad() *Catalog {
	c, err := Load(nil)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) loadLanguage(lang string) (int, error) {
	path := fmt.Sprintf("locales/%s/messages.json", lang)
	data, err := localesFS.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}

	var msgFile MessageFile
	if err := json.Unmarshal(data, &msgFile); err != nil {
		return 0, fmt.Errorf("parsing %s: %w", path, err)
	}
	if msgFile.Language != lang {
		return 0, fmt.Errorf("%s declares language %q", path, msgFile.Language)
	}

	m := make(map[string]string, len(msgFile.Messages))
	for _, msg := range msgFile.Messages {
		m[msg.ID] = msg.Translation
	}
	c.translations[lang] = m
	return len(m), nil
}

// T translates key into lang. A key missing from that language's
// dictionary, or a language without a dictionary, yields the key itself;
// other locales are never consulted. Args are applied with fmt.Sprintf.
func (c *Catalog) T(lang, key string, args ...any) string {
	if c == nil {
		return key
	}
	translation, ok := c.translations[lang][key]
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(translation, args...)
	}
	return translation
}

// Match returns the entry of codes that best matches an Accept-Language
// header, or "" when none does. Codes are the site's active languages, not
// only those shipping a dictionary.
func Match(header string, codes []string) string {
	if strings.TrimSpace(header) == "" || len(codes) == 0 {
		return ""
	}
	desired, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(desired) == 0 {
		return ""
	}

	tags := make([]language.Tag, len(codes))
	for i, code := range codes {
		tags[i] = language.Make(code)
	}
	_, idx, confidence := language.NewMatcher(tags).Match(desired...)
	if confidence == language.No {
		return ""
	}
	return codes[idx]
}
