// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import "testing"

func TestNullStringFromValue(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		wantValue string
	}{
		{"non-empty", "hello", true, "hello"},
		{"empty", "", false, ""},
		{"whitespace only", "   ", false, ""},
		{"trimmed", "  Deta Co  ", true, "Deta Co"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NullStringFromValue(tt.input)
			if got.Valid != tt.wantValid || got.String != tt.wantValue {
				t.Errorf("NullStringFromValue(%q) = %+v, want {%q %v}", tt.input, got, tt.wantValue, tt.wantValid)
			}
		})
	}
}
