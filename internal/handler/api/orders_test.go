// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/detagroup/detaweb/internal/model"
	"github.com/detagroup/detaweb/internal/store"
)

func TestSubmitOrder(t *testing.T) {
	s := newTestServer(t)
	c := s.client(t)

	res := c.do(http.MethodPost, "/orders", aliHassanOrder())
	require.Equal(t, http.StatusCreated, res.status, string(res.body))

	var order OrderResponse
	res.data(t, &order)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, string(model.OrderStatusPending), order.Status)
	assert.Equal(t, "ali@example.com", order.CustomerEmail)
	assert.Equal(t, "SD", order.CountryID)
	assert.Equal(t, "ar", order.LanguageCode)
	assert.Empty(t, order.CustomerCompany)

	require.NotNil(t, res.env.Meta)
	assert.Equal(t, "ar", res.env.Meta.Locale)
	assert.Equal(t, "rtl", res.env.Meta.Direction)
	assert.NotEmpty(t, res.env.Meta.Message)
	assert.NotEqual(t, "order.submitted", res.env.Meta.Message)

	// Nullable columns are flattened.
	assert.NotContains(t, string(res.body), `"Valid"`)
}

func TestSubmitOrder_LanguageFollowsLocale(t *testing.T) {
	s := newTestServer(t)
	c := s.client(t)

	res := c.do(http.MethodPost, "/orders?lang=en", aliHassanOrder())
	require.Equal(t, http.StatusCreated, res.status, string(res.body))

	var order OrderResponse
	res.data(t, &order)
	assert.Equal(t, "en", order.LanguageCode)
}

func TestSubmitOrder_ValidationIsLocalized(t *testing.T) {
	tests := []struct {
		name           string
		acceptLanguage string
		want           string
	}{
		{"english", "en-GB,en;q=0.9", "This field is required"},
		{"arabic by default", "", "هذا الحقل مطلوب"},
	}

	s := newTestServer(t)
	c := s.client(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := aliHassanOrder()
			order["customer_name"] = "   "

			var headers []string
			if tt.acceptLanguage != "" {
				headers = []string{"Accept-Language", tt.acceptLanguage}
			}
			res := c.do(http.MethodPost, "/orders", order, headers...)
			require.Equal(t, http.StatusUnprocessableEntity, res.status, string(res.body))
			require.NotNil(t, res.env.Error)
			assert.Equal(t, "validation_error", res.env.Error.Code)
			assert.Equal(t, tt.want, res.env.Error.Details["customer_name"])
		})
	}
}

func TestSubmitOrder_UnknownReference(t *testing.T) {
	s := newTestServer(t)
	c := s.client(t)

	order := aliHassanOrder()
	order["port_id"] = "XXPRT"
	res := c.do(http.MethodPost, "/orders", order, "Accept-Language", "en")
	require.Equal(t, http.StatusUnprocessableEntity, res.status, string(res.body))
	assert.Contains(t, res.env.Error.Details, "port_id")
}

func TestSubmitOrder_MalformedBody(t *testing.T) {
	s := newTestServer(t)
	c := s.client(t)

	res := c.do(http.MethodPost, "/orders", "not an order")
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "bad_request", res.env.Error.Code)
}

func TestFindOrder(t *testing.T) {
	s := newTestServer(t)
	c := s.client(t)
	id := submitOrder(t, c)

	t.Run("matching email", func(t *testing.T) {
		res := c.do(http.MethodPost, "/orders/find", FindOrderRequest{ID: id, Email: " ALI@example.com "})
		require.Equal(t, http.StatusOK, res.status, string(res.body))

		var detail OrderDetailResponse
		res.data(t, &detail)
		assert.Equal(t, id, detail.Order.ID)
		require.Len(t, detail.Items, 1)
		assert.Equal(t, "Wheat", detail.Items[0].Description)
		require.NotNil(t, detail.Country)
		assert.Equal(t, "SD", detail.Country.ID)
		assert.NotEmpty(t, detail.Country.Name)
		assert.Equal(t, []string{string(model.OrderStatusConfirmed), string(model.OrderStatusCancelled)}, detail.NextStatuses)
	})

	t.Run("other email", func(t *testing.T) {
		res := c.do(http.MethodPost, "/orders/find", FindOrderRequest{ID: id, Email: "someone@example.com"})
		require.Equal(t, http.StatusNotFound, res.status)
		assert.Equal(t, "not_found", res.env.Error.Code)
		assert.Equal(t, "الطلب غير موجود", res.env.Error.Message)
	})

	t.Run("unknown id", func(t *testing.T) {
		res := c.do(http.MethodPost, "/orders/find", FindOrderRequest{ID: "missing", Email: "ali@example.com"})
		assert.Equal(t, http.StatusNotFound, res.status)
	})
}

func TestOrderMessages(t *testing.T) {
	s := newTestServer(t)
	customer := s.client(t)
	admin := s.signedIn(t, "admin@detagroup.sd", model.RoleAdmin)
	id := submitOrder(t, customer)

	res := customer.do(http.MethodPost, "/orders/"+id+"/messages",
		CustomerMessageRequest{Email: "ali@example.com", Message: "When does it ship?"})
	require.Equal(t, http.StatusCreated, res.status, string(res.body))

	res = customer.do(http.MethodPost, "/orders/"+id+"/messages",
		CustomerMessageRequest{Email: "intruder@example.com", Message: "hello"})
	assert.Equal(t, http.StatusNotFound, res.status)

	res = customer.do(http.MethodPost, "/orders/"+id+"/messages",
		CustomerMessageRequest{Email: "ali@example.com", Message: "   "})
	assert.Equal(t, http.StatusUnprocessableEntity, res.status)
	assert.Equal(t, "empty_message", res.env.Error.Code)

	res = admin.do(http.MethodPost, "/admin/orders/"+id+"/messages",
		StaffMessageRequest{Message: "It leaves Port Sudan on Monday."})
	require.Equal(t, http.StatusCreated, res.status, string(res.body))

	res = customer.do(http.MethodGet, "/orders/"+id+"/messages?email=ali@example.com", nil)
	require.Equal(t, http.StatusOK, res.status, string(res.body))
	var thread []store.OrderMessage
	res.data(t, &thread)
	require.Len(t, thread, 2)
	assert.Equal(t, model.SenderCustomer, thread[0].SenderType)
	assert.Equal(t, model.SenderAdmin, thread[1].SenderType)

	res = customer.do(http.MethodGet, "/orders/"+id+"/messages?since=yesterday&email=ali@example.com", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, res.status)
	assert.Contains(t, res.env.Error.Details, "since")

	res = customer.do(http.MethodGet, "/orders/"+id+"/messages", nil)
	assert.Equal(t, http.StatusNotFound, res.status)
}

func TestAdminOrderStatus(t *testing.T) {
	s := newTestServer(t)
	admin := s.signedIn(t, "admin@detagroup.sd", model.RoleAdmin)
	editor := s.signedIn(t, "editor@detagroup.sd", model.RoleEditor)
	id := submitOrder(t, s.client(t))
	path := "/admin/orders/" + id + "/status"

	res := editor.do(http.MethodPut, path, UpdateStatusRequest{Status: "confirmed"})
	require.Equal(t, http.StatusForbidden, res.status, string(res.body))
	res = editor.do(http.MethodGet, "/admin/orders/"+id, nil)
	require.Equal(t, http.StatusOK, res.status)
	var unchanged OrderDetailResponse
	res.data(t, &unchanged)
	assert.Equal(t, "pending", unchanged.Order.Status)

	res = admin.do(http.MethodPut, path, UpdateStatusRequest{Status: "shipped"})
	require.Equal(t, http.StatusConflict, res.status, string(res.body))
	assert.Equal(t, "invalid_transition", res.env.Error.Code)

	res = admin.do(http.MethodPut, path, UpdateStatusRequest{Status: "lost"})
	require.Equal(t, http.StatusUnprocessableEntity, res.status)
	assert.Equal(t, "invalid_status", res.env.Error.Code)

	res = admin.do(http.MethodPut, path, UpdateStatusRequest{Status: "confirmed"})
	require.Equal(t, http.StatusOK, res.status, string(res.body))
	var order OrderResponse
	res.data(t, &order)
	assert.Equal(t, "confirmed", order.Status)

	res = admin.do(http.MethodPut, path, UpdateStatusRequest{Status: "pending", Force: true})
	require.Equal(t, http.StatusOK, res.status, string(res.body))
	res.data(t, &order)
	assert.Equal(t, "pending", order.Status)

	res = admin.do(http.MethodGet, "/admin/orders/counts", nil)
	require.Equal(t, http.StatusOK, res.status)
	var counts map[string]int64
	res.data(t, &counts)
	assert.Equal(t, int64(1), counts["pending"])
}

func TestAdminOrders_ListAndDelete(t *testing.T) {
	s := newTestServer(t)
	admin := s.signedIn(t, "admin@detagroup.sd", model.RoleAdmin)
	editor := s.signedIn(t, "editor@detagroup.sd", model.RoleEditor)
	customer := s.client(t)
	id := submitOrder(t, customer)
	submitOrder(t, customer)

	res := editor.do(http.MethodGet, "/admin/orders?per_page=1", nil)
	require.Equal(t, http.StatusOK, res.status, string(res.body))
	var orders []OrderResponse
	res.data(t, &orders)
	assert.Len(t, orders, 1)
	assert.Equal(t, int64(2), res.env.Meta.Total)
	assert.Equal(t, 2, res.env.Meta.Pages)

	res = editor.do(http.MethodDelete, "/admin/orders/"+id, nil)
	assert.Equal(t, http.StatusForbidden, res.status)

	res = admin.do(http.MethodDelete, "/admin/orders/"+id, nil)
	assert.Equal(t, http.StatusNoContent, res.status)

	res = admin.do(http.MethodGet, "/admin/orders/"+id, nil)
	assert.Equal(t, http.StatusNotFound, res.status)
}

func TestAdminAccess(t *testing.T) {
	s := newTestServer(t)
	anonymous := s.client(t)
	user := s.signedIn(t, "buyer@example.com", model.RoleUser)
	editor := s.signedIn(t, "editor@detagroup.sd", model.RoleEditor)

	tests := []struct {
		name   string
		client *apiClient
		path   string
		want   int
	}{
		{"anonymous orders", anonymous, "/admin/orders", http.StatusUnauthorized},
		{"user orders", user, "/admin/orders", http.StatusForbidden},
		{"editor orders", editor, "/admin/orders", http.StatusOK},
		{"editor users", editor, "/admin/users", http.StatusForbidden},
		{"editor languages", editor, "/admin/languages", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := tt.client.do(http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.want, res.status, string(res.body))
		})
	}
}

func TestOrderMessages_ClosedOrder(t *testing.T) {
	s := newTestServer(t)
	customer := s.client(t)
	admin := s.signedIn(t, "admin@detagroup.sd", model.RoleAdmin)
	id := submitOrder(t, customer)

	res := admin.do(http.MethodPut, "/admin/orders/"+id+"/status", UpdateStatusRequest{Status: "cancelled"})
	require.Equal(t, http.StatusOK, res.status, string(res.body))

	res = customer.do(http.MethodPost, "/orders/"+id+"/messages",
		CustomerMessageRequest{Email: "ali@example.com", Message: "Can I still change it?"}, "Accept-Language", "en")
	require.Equal(t, http.StatusConflict, res.status, string(res.body))
	assert.Equal(t, "order_closed", res.env.Error.Code)
	assert.Equal(t, "This order is closed to new messages", res.env.Error.Message)

	res = admin.do(http.MethodPost, "/admin/orders/"+id+"/messages", StaffMessageRequest{Message: "Refund sent."})
	assert.Equal(t, http.StatusConflict, res.status)

	res = customer.do(http.MethodGet, "/orders/"+id+"/messages?email=ali@example.com", nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.JSONEq(t, `[]`, string(res.env.Data))
}
