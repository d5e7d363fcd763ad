// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "slices"

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

// Order lifecycle states.
const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// orderTransitions is the allowed forward edge set. Terminal states have no entry.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered, OrderStatusCancelled},
}

// ParseOrderStatus converts s to an OrderStatus, reporting whether it is known.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(s)
	return st, st.Valid()
}

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	return slices.Contains(OrderStatuses, s)
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo reports whether next is an allowed edge from s.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return slices.Contains(orderTransitions[s], next)
}

// NextStatuses returns the statuses reachable from s in one step.
func (s OrderStatus) NextStatuses() []OrderStatus {
	return slices.Clone(orderTransitions[s])
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// Message sender types.
const (
	SenderCustomer = "customer"
	SenderAdmin    = "admin"
)

// IsValidSenderType reports whether t is a known message sender type.
func IsValidSenderType(t string) bool {
	return t == SenderCustomer || t == SenderAdmin
}
