package geoip

import (
	"path/filepath"
	"testing"
)

func TestLookup_Disabled(t *testing.T) {
	g, err := Open("")
	if err != nil {
		t.Fatalf("Open(\"\"): %v", err)
	}
	defer func() { _ = g.Close() }()

	if g.Enabled() {
		t.Error("lookup without a database should be disabled")
	}

	tests := []struct {
		ip   string
		want string
	}{
		{"192.168.1.10", CountryLocal},
		{"127.0.0.1", CountryLocal},
		{"::1", CountryLocal},
		{"41.67.128.1", ""},
		{"not-an-ip", ""},
	}
	for _, tt := range tests {
		if got := g.Country(tt.ip); got != tt.want {
			t.Errorf("Country(%q) = %q, want %q", tt.ip, got, tt.want)
		}
	}

	if err := g.Reload(); err != nil {
		t.Errorf("Reload without a path: %v", err)
	}
}

func TestOpen_MissingFile(t *testing.T) {
	g, err := Open(filepath.Join(t.TempDir(), "GeoLite2-Country.mmdb"))
	if err == nil {
		t.Fatal("expected error for a missing database")
	}
	if g == nil || g.Enabled() {
		t.Error("a failed open should still return a disabled lookup")
	}
}

func TestZeroValue(t *testing.T) {
	var g Lookup
	if got := g.Country("8.8.8.8"); got != "" {
		t.Errorf("zero Lookup resolved %q", got)
	}
}
