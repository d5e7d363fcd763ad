package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/detagroup/detaweb/internal/middleware"
	"github.com/detagroup/detaweb/internal/model"
	"github.com/detagroup/detaweb/internal/service"
	"github.com/detagroup/detaweb/internal/store"
)

func TestSwitchLocale(t *testing.T) {
	s := newTestServer(t)
	c := s.client(t)

	res := c.do(http.MethodGet, "/languages", nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "ar", res.header.Get("Content-Language"))
	assert.Equal(t, "rtl", res.header.Get(middleware.HeaderTextDirection))
	var langs []store.Language
	res.data(t, &langs)
	assert.Len(t, langs, 2)

	res = c.do(http.MethodPut, "/locale", LocaleRequest{Code: "en"})
	require.Equal(t, http.StatusOK, res.status, string(res.body))
	assert.Equal(t, "en", res.header.Get("Content-Language"))
	assert.Equal(t, "ltr", res.header.Get(middleware.HeaderTextDirection))
	var lr LocaleResponse
	res.data(t, &lr)
	assert.Equal(t, LocaleResponse{Code: "en", Direction: "ltr", IsRTL: false, Overridden: true}, lr)
	assert.Equal(t, "en", res.env.Meta.Locale)
	assert.NotEmpty(t, res.env.Meta.Message)

	// The session choice beats Accept-Language.
	res = c.do(http.MethodGet, "/languages", nil, "Accept-Language", "ar")
	assert.Equal(t, "en", res.header.Get("Content-Language"))

	res = c.do(http.MethodPut, "/locale", LocaleRequest{Code: "fr"})
	require.Equal(t, http.StatusUnprocessableEntity, res.status)
	assert.Contains(t, res.env.Error.Details, "code")
	assert.Equal(t, "en", res.header.Get("Content-Language"))

	res = c.do(http.MethodDelete, "/locale", nil)
	require.Equal(t, http.StatusOK, res.status)
	res.data(t, &lr)
	assert.Equal(t, "ar", lr.Code)
	assert.True(t, lr.IsRTL)
	assert.False(t, lr.Overridden)

	res = c.do(http.MethodGet, "/languages", nil)
	assert.Equal(t, "ar", res.header.Get("Content-Language"))
}

func TestSwitchLocale_SessionsAreIsolated(t *testing.T) {
	s := newTestServer(t)
	first := s.client(t)
	second := s.client(t)

	res := first.do(http.MethodPut, "/locale", LocaleRequest{Code: "en"})
	require.Equal(t, http.StatusOK, res.status)

	res = second.do(http.MethodGet, "/languages", nil)
	assert.Equal(t, "ar", res.header.Get("Content-Language"))
}

func TestLookups(t *testing.T) {
	s := newTestServer(t)
	c := s.client(t)

	res := c.do(http.MethodGet, "/lookups/country?lang=en", nil)
	require.Equal(t, http.StatusOK, res.status, string(res.body))
	var countries []service.LookupItem
	res.data(t, &countries)
	ids := make([]string, 0, len(countries))
	for _, it := range countries {
		ids = append(ids, it.ID)
		assert.NotEmpty(t, it.Name)
	}
	assert.Contains(t, ids, "SD")

	res = c.do(http.MethodGet, "/lookups/city?parent_id=SD", nil)
	require.Equal(t, http.StatusOK, res.status)
	var cities []service.LookupItem
	res.data(t, &cities)
	require.NotEmpty(t, cities)
	for _, it := range cities {
		assert.Equal(t, "SD", it.ParentID)
	}

	res = c.do(http.MethodGet, "/lookups/planet", nil)
	assert.Equal(t, http.StatusNotFound, res.status)
	assert.Equal(t, "not_found", res.env.Error.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	decode := func(t *testing.T, res *result) HealthStatus {
		t.Helper()
		var hs HealthStatus
		require.NoError(t, json.Unmarshal(res.body, &hs))
		return hs
	}

	res := s.client(t).do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, res.status)
	hs := decode(t, res)
	assert.Equal(t, "healthy", hs.Status)
	assert.Empty(t, hs.Version)
	assert.Nil(t, hs.Checks)
	assert.Nil(t, hs.Cache)

	admin := s.signedIn(t, "admin@detagroup.sd", model.RoleAdmin)
	res = admin.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, res.status)
	hs = decode(t, res)
	assert.Equal(t, "1.4.0", hs.Version)
	assert.Equal(t, "abc1234", hs.Commit)
	require.Contains(t, hs.Checks, "database")
	assert.Equal(t, "healthy", hs.Checks["database"].Status)
	require.Contains(t, hs.Checks, "cache")
	assert.Equal(t, "healthy", hs.Checks["cache"].Status)
	require.NotNil(t, hs.Cache)
	assert.Equal(t, "memory", hs.Cache.Backend)
}

func TestAdminWithoutOptionalServices(t *testing.T) {
	s := newTestServer(t)
	admin := s.signedIn(t, "admin@detagroup.sd", model.RoleAdmin)

	res := admin.do(http.MethodGet, "/admin/analytics", nil)
	assert.Equal(t, http.StatusNotFound, res.status)

	res = admin.do(http.MethodGet, "/admin/jobs", nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.JSONEq(t, `[]`, string(res.env.Data))

	res = admin.do(http.MethodPost, "/admin/jobs/purge-events/run", nil)
	assert.Equal(t, http.StatusNotFound, res.status)
}

func TestAdminLanguages(t *testing.T) {
	s := newTestServer(t)
	admin := s.signedIn(t, "admin@detagroup.sd", model.RoleAdmin)

	res := admin.do(http.MethodDelete, "/admin/languages/ar", nil)
	require.Equal(t, http.StatusConflict, res.status, string(res.body))
	assert.Equal(t, "default_language", res.env.Error.Code)

	res = admin.do(http.MethodPut, "/admin/languages/en/default", nil)
	require.Equal(t, http.StatusOK, res.status, string(res.body))

	// A visitor without a preference now gets English.
	res = s.client(t).do(http.MethodGet, "/languages", nil)
	assert.Equal(t, "en", res.header.Get("Content-Language"))
	assert.Equal(t, "ltr", res.header.Get(middleware.HeaderTextDirection))
}
