package content

import (
	"errors"
	"strings"

	"github.com/detagroup/detaweb/internal/util"
)

// Field length limits for translation text.
const (
	MaxTitleLength   = 300
	MaxExcerptLength = 1000
	MaxSlugLength    = 200
)

var (
	ErrInvalidSlug = errors.New("invalid slug")
	ErrTooLong     = errors.New("value too long")
)

// TranslationInput is the localized text of one entity in one locale.
type TranslationInput struct {
	Title   string `json:"title"`
	Excerpt string `json:"excerpt"`
	Content string `json:"content"`
	Slug    string `json:"slug"`
}

// FieldError reports a problem with one field of one locale.
type FieldError struct {
	Locale string
	Field  string
	Err    error
}

func (e *FieldError) Error() string {
	return e.Locale + "." + e.Field + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error { return e.Err }

// Prepare trims the input and fills a missing slug from the title. An
// explicit slug must already be in canonical form.
func Prepare(locale string, in TranslationInput) (TranslationInput, error) {
	out := TranslationInput{
		Title:   strings.TrimSpace(in.Title),
		Excerpt: strings.TrimSpace(in.Excerpt),
		Content: in.Content,
		Slug:    strings.TrimSpace(in.Slug),
	}

	if len([]rune(out.Title)) > MaxTitleLength {
		return out, &FieldError{Locale: locale, Field: "title", Err: ErrTooLong}
	}
	if len([]rune(out.Excerpt)) > MaxExcerptLength {
		return out, &FieldError{Locale: locale, Field: "excerpt", Err: ErrTooLong}
	}

	if out.Slug == "" {
		out.Slug = util.DeriveSlug(out.Title)
	} else if !util.IsValidSlug(out.Slug) {
		return out, &FieldError{Locale: locale, Field: "slug", Err: ErrInvalidSlug}
	}
	if len([]rune(out.Slug)) > MaxSlugLength {
		return out, &FieldError{Locale: locale, Field: "slug", Err: ErrTooLong}
	}

	return out, nil
}
