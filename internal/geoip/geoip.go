// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package geoip resolves client addresses to ISO country codes using a
// MaxMind GeoLite2-Country database.
package geoip

import (
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/oschwald/maxminddb-golang"

	"github.com/detagroup/detaweb/internal/util"
)

// CountryLocal is reported for private and loopback addresses.
const CountryLocal = "LOCAL"

// Lookup resolves IP addresses to countries. The zero value and a Lookup
// opened with an empty path are valid and resolve nothing.
type Lookup struct {
	mu      sync.RWMutex
	db      *maxminddb.Reader
	path    string
	modTime time.Time
}

type countryRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// Open loads the database at path. An empty path disables lookups.
func Open(path string) (*Lookup, error) {
	g := &Lookup{path: path}
	if path == "" {
		return g, nil
	}
	if err := g.load(); err != nil {
		return g, err
	}
	return g, nil
}

// load opens the database unless the file is unchanged. Caller holds mu
// or owns g exclusively.
func (g *Lookup) load() error {
	info, err := os.Stat(g.path)
	if err != nil {
		return fmt.Errorf("stat GeoIP database: %w", err)
	}
	if g.db != nil && info.ModTime().Equal(g.modTime) {
		return nil
	}

	db, err := maxminddb.Open(g.path)
	if err != nil {
		return fmt.Errorf("opening GeoIP database: %w", err)
	}
	if g.db != nil {
		_ = g.db.Close()
	}
	g.db = db
	g.modTime = info.ModTime()
	return nil
}

// Reload reopens the database when the file has changed on disk.
func (g *Lookup) Reload() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.path == "" {
		return nil
	}
	return g.load()
}

// Country returns the ISO code for ip, CountryLocal for private ranges,
// or "" when it cannot be determined.
func (g *Lookup) Country(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	if util.IsPrivateIP(parsed) {
		return CountryLocal
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.db == nil {
		return ""
	}

	var record countryRecord
	if err := g.db.Lookup(parsed, &record); err != nil {
		return ""
	}
	return record.Country.ISOCode
}

// Enabled reports whether a database is loaded.
func (g *Lookup) Enabled() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.db != nil
}

// Close releases the database.
func (g *Lookup) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.db == nil {
		return nil
	}
	err := g.db.Close()
	g.db = nil
	return err
}
