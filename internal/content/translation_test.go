package content

import (
	"errors"
	"strings"
	"testing"
)

func TestPrepare(t *testing.T) {
	tests := []struct {
		name     string
		locale   string
		in       TranslationInput
		wantSlug string
		wantErr  error
		field    string
	}{
		{name: "slug derived from english title", locale: "en", in: TranslationInput{Title: "Organic Wheat"}, wantSlug: "organic-wheat"},
		{name: "slug derived from arabic title", locale: "ar", in: TranslationInput{Title: " قمح عضوي "}, wantSlug: "قمح-عضوي"},
		{name: "explicit slug kept", locale: "en", in: TranslationInput{Title: "Organic Wheat", Slug: "wheat"}, wantSlug: "wheat"},
		{name: "explicit slug must be canonical", locale: "en", in: TranslationInput{Title: "x", Slug: "Bad Slug"}, wantErr: ErrInvalidSlug, field: "slug"},
		{name: "title too long", locale: "en", in: TranslationInput{Title: strings.Repeat("a", MaxTitleLength+1)}, wantErr: ErrTooLong, field: "title"},
		{name: "excerpt too long", locale: "ar", in: TranslationInput{Title: "a", Excerpt: strings.Repeat("ب", MaxExcerptLength+1)}, wantErr: ErrTooLong, field: "excerpt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Prepare(tt.locale, tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Prepare() error = %v, want %v", err, tt.wantErr)
				}
				var fe *FieldError
				if !errors.As(err, &fe) {
					t.Fatalf("error %T is not a *FieldError", err)
				}
				if fe.Field != tt.field || fe.Locale != tt.locale {
					t.Errorf("FieldError = %s.%s, want %s.%s", fe.Locale, fe.Field, tt.locale, tt.field)
				}
				return
			}
			if err != nil {
				t.Fatalf("Prepare() unexpected error: %v", err)
			}
			if got.Slug != tt.wantSlug {
				t.Errorf("Slug = %q, want %q", got.Slug, tt.wantSlug)
			}
		})
	}
}

func TestPrepareKeepsContentVerbatim(t *testing.T) {
	in := TranslationInput{Title: "T", Content: "  # Heading\n\nbody  "}
	got, err := Prepare("en", in)
	if err != nil {
		t.Fatal(err)
	}
	if got.Content != in.Content {
		t.Errorf("Content = %q, want %q", got.Content, in.Content)
	}
}
