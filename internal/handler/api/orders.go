// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/detagroup/detaweb/internal/middleware"
	"github.com/detagroup/detaweb/internal/model"
	"github.com/detagroup/detaweb/internal/service"
)

// FindOrderRequest identifies an order to its customer.
type FindOrderRequest struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// CustomerMessageRequest is a message posted by a customer.
type CustomerMessageRequest struct {
	Email   string `json:"email"`
	Message string `json:"message"`
}

// StaffMessageRequest is a message posted from the back office.
type StaffMessageRequest struct {
	Message    string `json:"message"`
	SenderName string `json:"sender_name,omitempty"`
}

// UpdateStatusRequest moves an order through its lifecycle.
type UpdateStatusRequest struct {
	Status string `json:"status"`
	Force  bool   `json:"force"`
}

// SubmitOrder handles POST /orders.
func (h *Handler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	var in service.OrderInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if in.LanguageCode == "" {
		in.LanguageCode = h.activeLocale(r)
	}

	order, err := h.svc.Orders.SubmitOrder(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, r, orderResponse(*order), &Meta{Message: translator(r)("order.submitted")})
}

// FindOrder handles POST /orders/find. Unknown ids and wrong emails get
// the same 404.
func (h *Handler) FindOrder(w http.ResponseWriter, r *http.Request) {
	var req FindOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	detail, err := h.svc.Orders.FindOrder(r.Context(), req.ID, req.Email, h.activeLocale(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, orderDetailResponse(detail), nil)
}

// ListCustomerMessages handles GET /orders/{id}/messages?email=&since=.
func (h *Handler) ListCustomerMessages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.svc.Orders.FindOrder(r.Context(), id, r.URL.Query().Get("email"), h.activeLocale(r)); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.listMessages(w, r, id)
}

// SendCustomerMessage handles POST /orders/{id}/messages.
func (h *Handler) SendCustomerMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req CustomerMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, err := h.svc.Orders.FindOrder(r.Context(), id, req.Email, h.activeLocale(r)); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	msg, err := h.svc.Orders.SendMessage(r.Context(), service.MessageInput{
		OrderID:    id,
		SenderType: model.SenderCustomer,
		Text:       req.Message,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, r, msg, nil)
}

func (h *Handler) listMessages(w http.ResponseWriter, r *http.Request, orderID string) {
	since, ok := parseSince(r)
	if !ok {
		WriteValidationError(w, r, map[string]string{"since": "validation.invalid"})
		return
	}
	msgs, err := h.svc.Orders.ListMessages(r.Context(), orderID, since)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, msgs, nil)
}

// AdminListOrders handles GET /admin/orders?status=&search=&page=&per_page=.
func (h *Handler) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r)
	list, err := h.svc.Orders.ListOrders(r.Context(), service.ListOrdersInput{
		Status:  r.URL.Query().Get("status"),
		Search:  r.URL.Query().Get("search"),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, orderResponses(list.Orders), pageMeta(list.Total, list.Page, list.PerPage))
}

// AdminOrderCounts handles GET /admin/orders/counts.
func (h *Handler) AdminOrderCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.svc.Orders.StatusCounts(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, counts, nil)
}

// AdminGetOrder handles GET /admin/orders/{id}.
func (h *Handler) AdminGetOrder(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.Orders.GetOrderDetail(r.Context(), chi.URLParam(r, "id"), h.activeLocale(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, orderDetailResponse(detail), nil)
}

// AdminUpdateOrderStatus handles PUT /admin/orders/{id}/status.
func (h *Handler) AdminUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	order, err := h.svc.Orders.UpdateOrderStatus(r.Context(), chi.URLParam(r, "id"), req.Status, service.StatusUpdate{
		Force:   req.Force,
		ActorID: middleware.GetUserID(r),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, r, orderResponse(order), nil)
}

// AdminListMessages handles GET /admin/orders/{id}/messages?since=.
func (h *Handler) AdminListMessages(w http.ResponseWriter, r *http.Request) {
	h.listMessages(w, r, chi.URLParam(r, "id"))
}

// AdminSendMessage handles POST /admin/orders/{id}/messages.
func (h *Handler) AdminSendMessage(w http.ResponseWriter, r *http.Request) {
	var req StaffMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	msg, err := h.svc.Orders.SendMessage(r.Context(), service.MessageInput{
		OrderID:    chi.URLParam(r, "id"),
		SenderType: model.SenderAdmin,
		SenderName: req.SenderName,
		Text:       req.Message,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, r, msg, nil)
}

// AdminDeleteOrder handles DELETE /admin/orders/{id}.
func (h *Handler) AdminDeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Orders.DeleteOrder(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteNoContent(w)
}
