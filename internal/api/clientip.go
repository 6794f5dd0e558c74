// CityStroll - Walking Route Planner for Saint Petersburg
// Copyright 2026 CityStroll contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/citystroll/citystroll

package api

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP derives the client identity used for failed-attempt tracking
// and login rate limiting. Precedence: first X-Forwarded-For entry,
// then X-Real-IP, then the socket address. The headers are spoofable;
// behind a trusted reverse proxy they are the only usable identity.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if first != "" {
			return first
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	if r.RemoteAddr != "" {
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			return host
		}
		return r.RemoteAddr
	}

	return "unknown"
}
