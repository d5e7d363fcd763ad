package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/detagroup/detaweb/internal/i18n"
	"github.com/detagroup/detaweb/internal/locale"
	"github.com/detagroup/detaweb/internal/store"
)

func testRegistry() *locale.Registry {
	r := locale.NewRegistry()
	r.Replace([]store.Language{
		{Code: "ar", Name: "Arabic", NativeName: "العربية", IsRtl: true, IsDefault: true, IsActive: true, Position: 1},
		{Code: "en", Name: "English", NativeName: "English", IsActive: true, Position: 2},
	})
	return r
}

func activeLocale(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(locale.ActiveFrom(r.Context(), "none")))
}

func TestLocale_Selection(t *testing.T) {
	mw := Locale(testRegistry(), i18n.MustLoad(), nil)
	handler := mw(http.HandlerFunc(activeLocale))

	tests := []struct {
		name      string
		target    string
		accept    string
		want      string
		direction string
	}{
		{"site default", "/", "", "ar", "rtl"},
		{"accept-language", "/", "en-US,en;q=0.9", "en", "ltr"},
		{"unsupported accept-language", "/", "fr-FR", "ar", "rtl"},
		{"query wins over header", "/?lang=ar", "en", "ar", "rtl"},
		{"unknown query ignored", "/?lang=de", "en", "en", "ltr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Body.String())
			assert.Equal(t, tt.want, rec.Header().Get("Content-Language"))
			assert.Equal(t, tt.direction, rec.Header().Get(HeaderTextDirection))
			assert.Contains(t, rec.Header().Values("Vary"), "Accept-Language")
		})
	}
}

func TestLocale_SessionOverride(t *testing.T) {
	sm := scs.New()
	mux := http.NewServeMux()
	mux.HandleFunc("/set", func(w http.ResponseWriter, r *http.Request) {
		sm.Put(r.Context(), SessionKeyLanguage, "en")
	})
	mux.HandleFunc("/", activeLocale)
	handler := sm.LoadAndSave(Locale(testRegistry(), i18n.MustLoad(), sm)(mux))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/set", nil))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "ar")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "en", rec.Body.String())
}

func TestLocale_HeadersFollowSwitch(t *testing.T) {
	mw := Locale(testRegistry(), i18n.MustLoad(), nil)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lc, ok := locale.FromContext(r.Context())
		require.True(t, ok)
		require.NoError(t, lc.Set("en"))
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, "en", rec.Header().Get("Content-Language"))
	assert.Equal(t, "ltr", rec.Header().Get(HeaderTextDirection))
}
