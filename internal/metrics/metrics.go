// CityStroll - Walking Route Planner for Saint Petersburg
// Copyright 2026 CityStroll contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/citystroll/citystroll

// Package metrics exposes Prometheus collectors for the HTTP API and the
// login brute-force protections. Collectors are registered on the default
// registry via promauto and served at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citystroll_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "citystroll_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	// Login gate metrics
	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citystroll_login_attempts_total",
			Help: "Total login attempts by outcome",
		},
		[]string{"outcome"}, // success, invalid_credentials, captcha_required, captcha_failed, rate_limited, error
	)

	CaptchasIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "citystroll_captchas_issued_total",
			Help: "Total captcha challenges issued",
		},
	)

	CaptchasVerifiedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citystroll_captchas_verified_total",
			Help: "Total captcha validation attempts by result",
		},
		[]string{"result"}, // ok, failed
	)

	RateLimitRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citystroll_rate_limit_rejections_total",
			Help: "Total requests rejected by the login rate limiter",
		},
		[]string{"endpoint"},
	)

	FailedAttemptEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "citystroll_failed_attempt_entries",
			Help: "Current number of tracked (client, account) failure counters",
		},
	)
)

// RecordAPIRequest records one handled HTTP request.
func RecordAPIRequest(method, endpoint string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordLoginOutcome records one login attempt outcome.
func RecordLoginOutcome(outcome string) {
	LoginAttemptsTotal.WithLabelValues(outcome).Inc()
}
