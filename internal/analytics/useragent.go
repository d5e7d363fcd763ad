// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package analytics

import (
	"github.com/mileusna/useragent"
)

// Device types recorded with each view.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceBot     = "bot"
)

// Client is what a user agent string says about the visitor.
type Client struct {
	Browser    string
	OS         string
	DeviceType string
}

// ParseUserAgent extracts browser, OS and device type from a user agent string.
func ParseUserAgent(s string) Client {
	ua := useragent.Parse(s)

	c := Client{Browser: ua.Name, OS: ua.OS}
	if c.Browser == "" {
		c.Browser = "Unknown"
	}
	if c.OS == "" {
		c.OS = "Unknown"
	}

	switch {
	case ua.Bot:
		c.DeviceType = DeviceBot
	case ua.Tablet:
		c.DeviceType = DeviceTablet
	case ua.Mobile:
		c.DeviceType = DeviceMobile
	default:
		c.DeviceType = DeviceDesktop
	}
	return c
}
