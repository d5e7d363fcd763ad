// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain constants and small value types shared by the
// store, service and handler layers: order lifecycle, roles, event levels,
// languages and media variants.
package model

// User roles.
const (
	RoleUser   = "user"
	RoleEditor = "editor"
	RoleAdmin  = "admin"
)

// roleLevels orders roles by privilege.
var roleLevels = map[string]int{
	RoleUser:   0,
	RoleEditor: 1,
	RoleAdmin:  2,
}

// IsValidRole reports whether role is a known role.
func IsValidRole(role string) bool {
	_, ok := roleLevels[role]
	return ok
}

// RoleLevel returns the privilege level of role, or -1 for unknown roles.
func RoleLevel(role string) int {
	if level, ok := roleLevels[role]; ok {
		return level
	}
	return -1
}

// HasRole reports whether role grants at least the privileges of minRole.
func HasRole(role, minRole string) bool {
	if !IsValidRole(role) || !IsValidRole(minRole) {
		return false
	}
	return roleLevels[role] >= roleLevels[minRole]
}
