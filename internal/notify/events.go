// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package notify delivers order notifications to the external email
// sender. Every notification is recorded before delivery so a failed POST
// can be retried without touching the order that caused it.
package notify

import (
	"time"
)

// Notification kinds.
const (
	KindOrderSubmitted = "order.submitted"
	KindOrderStatus    = "order.status_changed"
	KindOrderMessage   = "order.message"
)

// Notification statuses.
const (
	StatusPending   = "pending"
	StatusDelivered = "delivered"
	StatusFailed    = "failed" // retry scheduled
	StatusDead      = "dead"
)

// Event is the JSON body posted to the email sender.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// NewEvent creates a new event stamped with the current UTC time.
func NewEvent(kind string, data any) *Event {
	return &Event{
		Type:      kind,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// OrderSubmitted carries what the confirmation email needs. Location and
// delivery names are resolved in the order's language.
type OrderSubmitted struct {
	OrderID         string    `json:"order_id"`
	CustomerName    string    `json:"customer_name"`
	CustomerEmail   string    `json:"customer_email"`
	CustomerPhone   string    `json:"customer_phone"`
	CustomerCompany string    `json:"customer_company,omitempty"`
	LanguageCode    string    `json:"language_code"`
	Country         string    `json:"country,omitempty"`
	City            string    `json:"city,omitempty"`
	Port            string    `json:"port,omitempty"`
	DeliveryMethod  string    `json:"delivery_method,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	SubmittedAt     time.Time `json:"submitted_at"`
}

// OrderStatusChanged is sent when staff move an order to a new status.
type OrderStatusChanged struct {
	OrderID       string `json:"order_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	LanguageCode  string `json:"language_code"`
	From          string `json:"from"`
	To            string `json:"to"`
}

// OrderMessage is sent when staff reply on an order thread.
type OrderMessage struct {
	OrderID       string `json:"order_id"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	LanguageCode  string `json:"language_code"`
	SenderName    string `json:"sender_name"`
	Message       string `json:"message"`
}
