// CityStroll - Walking Route Planner for Saint Petersburg
// Copyright 2026 CityStroll contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/citystroll/citystroll

package api

import (
	"context"
	"net/http"
	"time"
)

// Pinger verifies database connectivity for readiness checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

var startTime = time.Now()

// Health reports liveness. Always 200 while the process serves.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(startTime).String(),
	})
}

// Status reports readiness, including database connectivity.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	overall := "ok"
	dbStatus := "ok"
	status := http.StatusOK

	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.pinger.Ping(ctx); err != nil {
			overall = "degraded"
			dbStatus = "unreachable"
			status = http.StatusServiceUnavailable
		}
	}

	respondJSON(w, status, map[string]any{
		"status":   overall,
		"database": dbStatus,
		"uptime":   time.Since(startTime).String(),
	})
}
