package content

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/detagroup/detaweb/internal/store"
)

func wheatTranslations() []store.Translation {
	return []store.Translation{
		{EntityID: "P1", LanguageCode: "en", Title: "Organic Wheat", Slug: "organic-wheat", Excerpt: "Grown in Gezira"},
		{EntityID: "P1", LanguageCode: "ar", Title: "قمح عضوي", Slug: "قمح-عضوي"},
	}
}

func TestResolve(t *testing.T) {
	product := store.Product{ID: "P1"}

	t.Run("matching locale", func(t *testing.T) {
		r := Resolve(product, wheatTranslations(), "en")
		assert.False(t, r.Missing)
		assert.Equal(t, "Organic Wheat", r.Title)
		assert.Equal(t, "organic-wheat", r.Slug)
		assert.Equal(t, "Grown in Gezira", r.Excerpt)
		assert.Equal(t, "en", r.SourceLocale)
		assert.Equal(t, "P1", r.Entity.ID)
	})

	t.Run("arabic locale", func(t *testing.T) {
		r := Resolve(product, wheatTranslations(), "ar")
		assert.Equal(t, "قمح عضوي", r.Title)
	})

	t.Run("untranslated locale is missing", func(t *testing.T) {
		r := Resolve(product, wheatTranslations(), "fr")
		assert.True(t, r.Missing)
		assert.Empty(t, r.Title)
		assert.Empty(t, r.Excerpt)
		assert.Empty(t, r.Content)
		assert.Empty(t, r.Slug)
		assert.Empty(t, r.SourceLocale)
		assert.Equal(t, "fr", r.Locale)
		assert.Equal(t, []string{"ar", "en"}, r.AvailableLocales)
	})

	t.Run("no translations", func(t *testing.T) {
		r := Resolve(product, nil, "en")
		assert.True(t, r.Missing)
		assert.Empty(t, r.AvailableLocales)
	})
}

func TestResolveWithFallback(t *testing.T) {
	product := store.Product{ID: "P1"}

	r := ResolveWithFallback(product, wheatTranslations(), "fr", "ar")
	assert.False(t, r.Missing)
	assert.Equal(t, "fr", r.Locale)
	assert.Equal(t, "ar", r.SourceLocale)
	assert.Equal(t, "قمح عضوي", r.Title)

	r = ResolveWithFallback(product, wheatTranslations(), "en", "ar")
	assert.Equal(t, "en", r.SourceLocale)

	r = ResolveWithFallback(product, wheatTranslations(), "fr", "de")
	assert.True(t, r.Missing)
	assert.Equal(t, "fr", r.Locale)

	r = ResolveWithFallback(product, wheatTranslations(), "fr", "")
	assert.True(t, r.Missing)
}

func TestGroupByEntity(t *testing.T) {
	rows := append(wheatTranslations(), store.Translation{EntityID: "P2", LanguageCode: "en", Title: "Sesame"})
	grouped := GroupByEntity(rows)

	assert.Len(t, grouped, 2)
	assert.Len(t, grouped["P1"], 2)
	assert.Len(t, grouped["P2"], 1)
	assert.Nil(t, grouped["P3"])
}

func TestResolveAbsenceProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("a locale without a row resolves to empty text", prop.ForAll(
		func(locale string) bool {
			if locale == "en" || locale == "ar" {
				return true
			}
			r := Resolve(store.Product{ID: "P1"}, wheatTranslations(), locale)
			return r.Missing && r.Title == "" && r.Excerpt == "" && r.Content == "" && r.Slug == ""
		},
		gen.AlphaString(),
	))

	properties.Property("a present row is returned unchanged", prop.ForAll(
		func(title string) bool {
			rows := []store.Translation{{EntityID: "X", LanguageCode: "en", Title: title}}
			r := Resolve(struct{}{}, rows, "en")
			return !r.Missing && r.Title == title
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
