// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestOrderStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{"pending to confirmed", OrderStatusPending, OrderStatusConfirmed, true},
		{"pending to cancelled", OrderStatusPending, OrderStatusCancelled, true},
		{"pending to shipped", OrderStatusPending, OrderStatusShipped, false},
		{"pending to delivered", OrderStatusPending, OrderStatusDelivered, false},
		{"confirmed to shipped", OrderStatusConfirmed, OrderStatusShipped, true},
		{"confirmed to cancelled", OrderStatusConfirmed, OrderStatusCancelled, true},
		{"confirmed to pending", OrderStatusConfirmed, OrderStatusPending, false},
		{"shipped to delivered", OrderStatusShipped, OrderStatusDelivered, true},
		{"shipped to cancelled", OrderStatusShipped, OrderStatusCancelled, true},
		{"delivered to cancelled", OrderStatusDelivered, OrderStatusCancelled, false},
		{"cancelled to pending", OrderStatusCancelled, OrderStatusPending, false},
		{"unknown source", OrderStatus("lost"), OrderStatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("%s.CanTransitionTo(%s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestParseOrderStatus(t *testing.T) {
	for _, s := range OrderStatuses {
		got, ok := ParseOrderStatus(string(s))
		if !ok || got != s {
			t.Errorf("ParseOrderStatus(%q) = %q, %v", s, got, ok)
		}
	}

	if _, ok := ParseOrderStatus("Pending"); ok {
		t.Error("ParseOrderStatus should be case-sensitive")
	}
	if _, ok := ParseOrderStatus(""); ok {
		t.Error("ParseOrderStatus(\"\") should be invalid")
	}
}

func TestNextStatusesIsACopy(t *testing.T) {
	next := OrderStatusPending.NextStatuses()
	next[0] = OrderStatusDelivered

	if OrderStatusPending.CanTransitionTo(OrderStatusDelivered) {
		t.Error("mutating NextStatuses result changed the transition table")
	}
}

func TestOrderTransitionProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	pick := func(i int) OrderStatus { return OrderStatuses[i%len(OrderStatuses)] }

	properties.Property("terminal states have no outgoing edges", prop.ForAll(
		func(i, j int) bool {
			from, to := pick(i), pick(j)
			if from.IsTerminal() {
				return !from.CanTransitionTo(to)
			}
			return true
		},
		gen.IntRange(0, 100),
		gen.IntRange(0, 100),
	))

	properties.Property("no state transitions to itself", prop.ForAll(
		func(i int) bool {
			s := pick(i)
			return !s.CanTransitionTo(s)
		},
		gen.IntRange(0, 100),
	))

	properties.Property("pending is never re-entered", prop.ForAll(
		func(i int) bool {
			return !pick(i).CanTransitionTo(OrderStatusPending)
		},
		gen.IntRange(0, 100),
	))

	properties.Property("every non-terminal state can be cancelled", prop.ForAll(
		func(i int) bool {
			s := pick(i)
			return s.IsTerminal() || s.CanTransitionTo(OrderStatusCancelled)
		},
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}

func TestIsValidSenderType(t *testing.T) {
	if !IsValidSenderType(SenderCustomer) || !IsValidSenderType(SenderAdmin) {
		t.Error("known sender types rejected")
	}
	if IsValidSenderType("system") {
		t.Error("unknown sender type accepted")
	}
}
