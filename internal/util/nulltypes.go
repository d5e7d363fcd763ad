// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"database/sql"
	"strings"
)

// NullStringFromValue creates a sql.NullString from a string value.
// Returns a valid NullString if the trimmed string is non-empty, otherwise returns an invalid one.
func NullStringFromValue(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
