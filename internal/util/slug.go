// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides general-purpose helpers: slug derivation for
// translated titles, search key folding, nullable column helpers and
// client address extraction.
package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// filenameRegex matches characters not allowed in stored file names
	filenameRegex = regexp.MustCompile(`[^a-z0-9._-]+`)
	// multipleHyphens matches multiple consecutive hyphens
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// arabicSlugRanges lists the Arabic blocks whose code points survive slug derivation.
var arabicSlugRanges = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x0600, Hi: 0x06FF, Stride: 1}, // Arabic
		{Lo: 0x0750, Hi: 0x077F, Stride: 1}, // Arabic Supplement
		{Lo: 0x08A0, Hi: 0x08FF, Stride: 1}, // Arabic Extended-A
		{Lo: 0xFB50, Hi: 0xFDFF, Stride: 1}, // Presentation Forms-A
		{Lo: 0xFE70, Hi: 0xFEFF, Stride: 1}, // Presentation Forms-B
	},
}

// isSlugRune reports whether r is kept verbatim in a derived slug.
func isSlugRune(r rune) bool {
	if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
		return true
	}
	return unicode.Is(arabicSlugRanges, r)
}

// DeriveSlug converts a translated title into its slug: the title is
// lowercased, every run of characters that are neither ASCII letters/digits
// nor Arabic-block characters becomes a single hyphen, and leading and
// trailing hyphens are dropped. DeriveSlug(DeriveSlug(s)) == DeriveSlug(s).
func DeriveSlug(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	pendingHyphen := false
	for _, r := range strings.ToLower(title) {
		if !isSlugRune(r) {
			pendingHyphen = true
			continue
		}
		if pendingHyphen && b.Len() > 0 {
			b.WriteByte('-')
		}
		pendingHyphen = false
		b.WriteRune(r)
	}

	return b.String()
}

// IsValidSlug reports whether s is a non-empty slug in canonical form.
func IsValidSlug(s string) bool {
	return s != "" && DeriveSlug(s) == s
}

// Slugify converts a file name into an ASCII-only name safe for object keys.
// Accents are stripped, spaces become hyphens and everything outside
// [a-z0-9._-] is removed.
func Slugify(s string) string {
	// Normalize unicode characters (decompose accents)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)

	result = strings.ToLower(result)
	result = strings.ReplaceAll(result, " ", "-")
	result = filenameRegex.ReplaceAllString(result, "")
	result = multipleHyphens.ReplaceAllString(result, "-")

	return strings.Trim(result, "-.")
}
