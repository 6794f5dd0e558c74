// CityStroll - Walking Route Planner for Saint Petersburg
// Copyright 2026 CityStroll contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/citystroll/citystroll

// Package ratelimit bounds the request rate per client identity on the
// sensitive auth endpoints. It is a fixed-window counter with one twist
// taken from the original deployment's policy: requests that ultimately
// succeed are excluded from the count retroactively, so legitimate repeated
// logins are never throttled while failed probing still is.
package ratelimit

import (
	"sync"
	"time"

	"github.com/citystroll/citystroll/internal/cache"
)

// Defaults for the login endpoints.
const (
	DefaultMaxRequests = 5
	DefaultWindow      = time.Minute
)

type window struct {
	count   int
	started time.Time
}

// Limiter is a fixed-window request limiter keyed by client identity.
// Each admission increments the window counter up front; callers report
// eventual success via Forget, which undoes the increment. Rejected
// requests stay counted.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	max     int
	span    time.Duration
	clock   cache.Clock
}

// New creates a limiter admitting at most max requests per key per window.
// A nil clock selects the system clock.
func New(max int, span time.Duration, clock cache.Clock) *Limiter {
	if max <= 0 {
		max = DefaultMaxRequests
	}
	if span <= 0 {
		span = DefaultWindow
	}
	if clock == nil {
		clock = cache.SystemClock{}
	}
	return &Limiter{
		windows: make(map[string]*window),
		max:     max,
		span:    span,
		clock:   clock,
	}
}

// Allow records a request for key and reports whether it is admitted.
// The window starts at the first request and resets once it elapses.
func (l *Limiter) Allow(key string) bool {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.started) >= l.span {
		w = &window{started: now}
		l.windows[key] = w
	}

	w.count++
	return w.count <= l.max
}

// Forget removes one counted request for key. Call when the request ends
// in success so that successful logins never consume quota.
func (l *Limiter) Forget(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || w.count == 0 {
		return
	}
	w.count--
}

// Remaining reports how many admissions are left for key in the current
// window. Diagnostic use only.
func (l *Limiter) Remaining(key string) int {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.started) >= l.span {
		return l.max
	}
	remaining := l.max - w.count
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Prune drops windows that have fully elapsed. The map otherwise grows with
// one entry per distinct client identity seen within a window.
func (l *Limiter) Prune() {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, w := range l.windows {
		if now.Sub(w.started) >= l.span {
			delete(l.windows, key)
		}
	}
}
