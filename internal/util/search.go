package util

import (
	"strings"

	"github.com/mozillazg/go-unidecode"
)

// SearchKey folds the given fields into a lowercase ASCII string used for
// diacritic-insensitive LIKE matching. Empty fields are skipped.
func SearchKey(fields ...string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			parts = append(parts, f)
		}
	}
	return NormalizeSearchTerm(strings.Join(parts, " "))
}

// NormalizeSearchTerm applies the same folding as SearchKey to a user query.
func NormalizeSearchTerm(term string) string {
	folded := unidecode.Unidecode(term)
	return strings.ToLower(strings.Join(strings.Fields(folded), " "))
}

// EscapeLike escapes LIKE wildcards so a search term matches literally.
// Queries using it must declare ESCAPE '\'.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
