// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"net/url"
	"strconv"
	"strings"
)

// Key builds a cache key "resource:part:part". Parts are query-escaped so
// a search term containing ':' cannot collide with another key, and an
// empty part is kept as an empty segment.
func Key(resource string, parts ...string) string {
	var b strings.Builder
	b.WriteString(resource)
	for _, p := range parts {
		b.WriteByte(':')
		b.WriteString(url.QueryEscape(p))
	}
	return b.String()
}

// Prefix returns the invalidation prefix covering every Key built for
// resource.
func Prefix(resource string) string {
	return resource + ":"
}

// Int formats an integer key part.
func Int(n int) string {
	return strconv.Itoa(n)
}
