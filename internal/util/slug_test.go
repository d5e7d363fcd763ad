package util

import (
	"strings"
	"testing"
	"unicode"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestDeriveSlug(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "english title", input: "Organic Wheat", expected: "organic-wheat"},
		{name: "arabic title", input: "قمح عضوي", expected: "قمح-عضوي"},
		{name: "mixed scripts", input: "Deta قمح 2024", expected: "deta-قمح-2024"},
		{name: "punctuation collapses", input: "Hello, World!", expected: "hello-world"},
		{name: "surrounding whitespace", input: "  Hello World  ", expected: "hello-world"},
		{name: "existing hyphens collapse", input: "Hello - World", expected: "hello-world"},
		{name: "leading symbols", input: "***Sale***", expected: "sale"},
		{name: "arabic-indic digits kept", input: "منتج ٢٠٢٤", expected: "منتج-٢٠٢٤"},
		{name: "latin accents act as separators", input: "Café", expected: "caf"},
		{name: "presentation forms kept", input: "ﷺ test", expected: "ﷺ-test"},
		{name: "cjk removed", input: "日本語タイトル", expected: ""},
		{name: "only symbols", input: "!@#$%^&*()", expected: ""},
		{name: "empty", input: "", expected: ""},
		{name: "uppercase", input: "UPPER Case", expected: "upper-case"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveSlug(tt.input); got != tt.expected {
				t.Errorf("DeriveSlug(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDeriveSlugProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("derivation is idempotent", prop.ForAll(
		func(s string) bool {
			once := DeriveSlug(s)
			return DeriveSlug(once) == once
		},
		gen.AnyString(),
	))

	properties.Property("derivation is deterministic for arabic titles", prop.ForAll(
		func(s string) bool {
			return DeriveSlug(s) == DeriveSlug(s)
		},
		gen.UnicodeString(unicode.Arabic),
	))

	properties.Property("result never starts, ends or doubles hyphens", prop.ForAll(
		func(s string) bool {
			slug := DeriveSlug(s)
			return !strings.HasPrefix(slug, "-") &&
				!strings.HasSuffix(slug, "-") &&
				!strings.Contains(slug, "--")
		},
		gen.AnyString(),
	))

	properties.Property("ascii alphanumerics survive lowercased", prop.ForAll(
		func(s string) bool {
			return DeriveSlug(s) == strings.ToLower(s)
		},
		gen.AlphaString().SuchThat(func(s string) bool { return s != "" }),
	))

	properties.TestingRun(t)
}

func TestIsValidSlug(t *testing.T) {
	tests := []struct {
		slug  string
		valid bool
	}{
		{"organic-wheat", true},
		{"قمح-عضوي", true},
		{"page-123", true},
		{"", false},
		{"-leading", false},
		{"trailing-", false},
		{"double--hyphen", false},
		{"Upper", false},
		{"with space", false},
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			if got := IsValidSlug(tt.slug); got != tt.valid {
				t.Errorf("IsValidSlug(%q) = %v, want %v", tt.slug, got, tt.valid)
			}
		})
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "simple file", input: "My Photo.JPG", expected: "my-photo.jpg"},
		{name: "accents stripped", input: "Café résumé.png", expected: "cafe-resume.png"},
		{name: "german umlauts", input: "Über München.webp", expected: "uber-munchen.webp"},
		{name: "path separators removed", input: "../../etc/passwd", expected: "etcpasswd"},
		{name: "arabic name", input: "صورة.png", expected: "png"},
		{name: "multiple spaces", input: "a   b.gif", expected: "a-b.gif"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.input); got != tt.expected {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
