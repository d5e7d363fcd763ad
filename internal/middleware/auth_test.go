package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/detagroup/detaweb/internal/model"
	"github.com/detagroup/detaweb/internal/store"
)

func withProfile(req *http.Request, role string) *http.Request {
	if role == "" {
		return req
	}
	return req.WithContext(WithUser(req.Context(), &store.Profile{ID: "u-1", Role: role}))
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name    string
		minRole string
		role    string
		want    int
	}{
		{"anonymous", model.RoleEditor, "", http.StatusUnauthorized},
		{"user below editor", model.RoleEditor, model.RoleUser, http.StatusForbidden},
		{"editor", model.RoleEditor, model.RoleEditor, http.StatusNoContent},
		{"admin passes editor", model.RoleEditor, model.RoleAdmin, http.StatusNoContent},
		{"editor below admin", model.RoleAdmin, model.RoleEditor, http.StatusForbidden},
		{"unknown role", model.RoleUser, "guest", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withProfile(httptest.NewRequest(http.MethodGet, "/admin", nil), tt.role)
			rec := httptest.NewRecorder()
			RequireRole(tt.minRole)(ok).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRequireAuth(t *testing.T) {
	var seen string
	handler := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUserID(r)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"unauthorized"`)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, withProfile(httptest.NewRequest(http.MethodGet, "/", nil), model.RoleUser))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-1", seen)
}

func TestGetUser_Anonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, GetUser(req))
	assert.Empty(t, GetUserID(req))
}
