package i18n

import (
	"sort"
	"testing"
)

func TestLoad(t *testing.T) {
	c, err := Load(nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	for _, lang := range SupportedLanguages {
		if len(c.translations[lang]) == 0 {
			t.Errorf("expected %s translations to be loaded", lang)
		}
	}
}

func TestDictionariesShareKeys(t *testing.T) {
	c := MustLoad()

	keys := func(lang string) []string {
		out := make([]string, 0, len(c.translations[lang]))
		for k := range c.translations[lang] {
			out = append(out, k)
		}
		sort.Strings(out)
		return out
	}
	ar := keys("ar")
	en := keys("en")

	if len(ar) != len(en) {
		t.Fatalf("ar has %d keys, en has %d", len(ar), len(en))
	}
	for i := range ar {
		if ar[i] != en[i] {
			t.Errorf("key mismatch at %d: ar=%q en=%q", i, ar[i], en[i])
		}
	}
}

func TestT(t *testing.T) {
	c := MustLoad()

	tests := []struct {
		lang     string
		key      string
		args     []any
		expected string
	}{
		{"en", "nav.products", nil, "Products"},
		{"ar", "nav.products", nil, "المنتجات"},
		{"en", "order.not_found", nil, "Order not found"},
		{"ar", "order.not_found", nil, "الطلب غير موجود"},
		// A missing key is returned verbatim.
		{"en", "nonexistent.key", nil, "nonexistent.key"},
		{"ar", "nonexistent.key", nil, "nonexistent.key"},
		// No dictionary means no translation; other locales are not consulted.
		{"fr", "nav.products", nil, "nav.products"},
		{"", "nav.products", nil, "nav.products"},
	}

	for _, tt := range tests {
		t.Run(tt.lang+"_"+tt.key, func(t *testing.T) {
			if got := c.T(tt.lang, tt.key, tt.args...); got != tt.expected {
				t.Errorf("T(%q, %q) = %q, want %q", tt.lang, tt.key, got, tt.expected)
			}
		})
	}
}

func TestT_NilCatalog(t *testing.T) {
	var c *Catalog
	if got := c.T("en", "nav.home"); got != "nav.home" {
		t.Errorf("nil catalog T = %q", got)
	}
}

func TestMatch(t *testing.T) {
	codes := []string{"ar", "en"}
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"en", "en"},
		{"en-GB", "en"},
		{"en-US,en;q=0.9", "en"},
		{"ar-SD,ar;q=0.9,en;q=0.8", "ar"},
		{"fr-FR,en;q=0.5", "en"},
		{"de-CH, ar;q=0.5", "ar"},
		{"fr", ""},
		{"not a language", ""},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			if got := Match(tt.header, codes); got != tt.want {
				t.Errorf("Match(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}

	if got := Match("en", nil); got != "" {
		t.Errorf("Match with no codes = %q, want empty", got)
	}
	// Only the active codes are candidates.
	if got := Match("en", []string{"ar"}); got != "" {
		t.Errorf("Match(en, [ar]) = %q, want empty", got)
	}
}
