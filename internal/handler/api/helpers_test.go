package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/stretchr/testify/require"

	"github.com/detagroup/detaweb/internal/cache"
	"github.com/detagroup/detaweb/internal/i18n"
	"github.com/detagroup/detaweb/internal/locale"
	"github.com/detagroup/detaweb/internal/middleware"
	"github.com/detagroup/detaweb/internal/model"
	"github.com/detagroup/detaweb/internal/service"
	"github.com/detagroup/detaweb/internal/storage"
	"github.com/detagroup/detaweb/internal/store"
	"github.com/detagroup/detaweb/internal/testutil"
	"github.com/detagroup/detaweb/internal/version"
)

const testPassword = "wheat-and-sesame-2026"

type testServer struct {
	srv      *httptest.Server
	queries  *store.Queries
	services Services
}

// newTestServer serves the API behind the session and locale middleware,
// as the binary mounts it.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, queries := testutil.TestQueries(t)
	logger := testutil.TestLoggerSilent()

	registry := locale.NewRegistry()
	require.NoError(t, registry.Load(context.Background(), queries))
	catalog := i18n.MustLoad()

	c := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = c.Close() })

	files, err := storage.NewLocalStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	services := Services{
		Orders:    service.NewOrderService(db, queries, c, nil, logger, time.Minute),
		Content:   service.NewContentService(db, queries, registry, c, logger, time.Minute),
		Lookups:   service.NewLookupService(db, queries, registry, c, logger, time.Minute),
		Languages: service.NewLanguageService(db, queries, registry, c, logger),
		Users:     service.NewUserService(db, queries, logger),
		Media:     service.NewMediaService(db, queries, files, logger),
		Events:    service.NewEventService(queries, logger),
	}

	sm := scs.New()
	h := NewHandler(Config{
		DB:       db,
		Cache:    c,
		Services: services,
		Registry: registry,
		Sessions: sm,
		LoginGuard: middleware.NewLoginGuard(middleware.LoginGuardConfig{
			MaxFailedAttempts: 2,
			LockoutDuration:   time.Minute,
			AttemptWindow:     time.Minute,
		}),
		Version: version.Info{Version: "1.4.0", GitCommit: "abc1234"},
		Logger:  logger,
	})

	srv := httptest.NewServer(sm.LoadAndSave(middleware.Locale(registry, catalog, sm)(h.Routes())))
	t.Cleanup(srv.Close)

	return &testServer{srv: srv, queries: queries, services: services}
}

// client returns a client with its own cookie jar, so each one holds a
// separate session.
func (s *testServer) client(t *testing.T) *apiClient {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &apiClient{t: t, base: s.srv.URL, http: &http.Client{Jar: jar}}
}

// signedIn creates an account with role and returns a client signed in
// as it.
func (s *testServer) signedIn(t *testing.T, email, role string) *apiClient {
	t.Helper()
	ctx := context.Background()
	profile, err := s.services.Users.SignUp(ctx, service.SignUpInput{Email: email, Password: testPassword, FullName: "Staff"})
	require.NoError(t, err)
	if role != model.RoleUser {
		_, err = s.queries.UpdateProfileRole(ctx, profile.ID, role, time.Now().UTC())
		require.NoError(t, err)
	}

	c := s.client(t)
	res := c.do(http.MethodPost, "/auth/signin", map[string]string{"email": email, "password": testPassword})
	require.Equal(t, http.StatusOK, res.status, string(res.body))
	return c
}

type apiClient struct {
	t    *testing.T
	base string
	http *http.Client
}

type result struct {
	status int
	header http.Header
	body   []byte
	env    struct {
		Data  json.RawMessage      `json:"data"`
		Meta  *Meta                `json:"meta"`
		Error *middleware.APIError `json:"error"`
	}
}

// do sends a JSON request. headers are key, value pairs.
func (c *apiClient) do(method, path string, body any, headers ...string) *result {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer func() { _ = resp.Body.Close() }()

	res := &result{status: resp.StatusCode, header: resp.Header}
	res.body, err = io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	if len(res.body) > 0 {
		require.NoError(c.t, json.Unmarshal(res.body, &res.env), string(res.body))
	}
	return res
}

// data decodes the envelope payload into v.
func (r *result) data(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.env.Data, v), string(r.body))
}

func aliHassanOrder() map[string]any {
	return map[string]any{
		"customer_name":      "Ali Hassan",
		"customer_email":     "Ali@Example.com",
		"customer_phone":     "+249 912 345 678",
		"country_id":         "SD",
		"city_id":            "KRT",
		"port_id":            "SDPZU",
		"delivery_method_id": "sea",
		"notes":              "20 tons of wheat",
		"items": []map[string]any{
			{"description": "Wheat", "quantity": 20, "unit": "ton"},
		},
	}
}

// submitOrder places the Ali Hassan order and returns its id.
func submitOrder(t *testing.T, c *apiClient) string {
	t.Helper()
	res := c.do(http.MethodPost, "/orders", aliHassanOrder())
	require.Equal(t, http.StatusCreated, res.status, string(res.body))
	var order OrderResponse
	res.data(t, &order)
	return order.ID
}
