// CityStroll - Walking Route Planner for Saint Petersburg
// Copyright 2026 CityStroll contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/citystroll/citystroll

package api

import (
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		realIP     string
		remoteAddr string
		want       string
	}{
		{"forwarded for single", "203.0.113.7", "", "10.0.0.1:1234", "203.0.113.7"},
		{"forwarded for chain uses first", "203.0.113.7, 10.0.0.2, 10.0.0.3", "", "10.0.0.1:1234", "203.0.113.7"},
		{"forwarded for with spaces", "  203.0.113.7 ,10.0.0.2", "", "10.0.0.1:1234", "203.0.113.7"},
		{"real ip fallback", "", "198.51.100.4", "10.0.0.1:1234", "198.51.100.4"},
		{"forwarded for wins over real ip", "203.0.113.7", "198.51.100.4", "10.0.0.1:1234", "203.0.113.7"},
		{"remote addr strips port", "", "", "192.0.2.9:51234", "192.0.2.9"},
		{"remote addr without port", "", "", "192.0.2.9", "192.0.2.9"},
		{"nothing available", "", "", "", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}

			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
