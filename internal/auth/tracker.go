// CityStroll - Walking Route Planner for Saint Petersburg
// Copyright 2026 CityStroll contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/citystroll/citystroll

// Package auth provides the login brute-force protections (failed-attempt
// tracking), password hashing, and JWT token management.
package auth

import (
	"fmt"
	"time"

	"github.com/citystroll/citystroll/internal/cache"
	"github.com/citystroll/citystroll/internal/logging"
)

// Tracker defaults. There is no hard lockout: once the captcha threshold is
// reached the challenge stays required until a successful login or window
// expiry, however high the count climbs.
const (
	// DefaultAttemptTTL is the sliding window for failed attempts; each
	// failure refreshes it.
	DefaultAttemptTTL = 5 * time.Minute

	// DefaultCaptchaThreshold is the failure count at which a captcha
	// becomes required.
	DefaultCaptchaThreshold = 3

	// DefaultMaxAttemptsHint caps the displayed remaining-attempts hint.
	DefaultMaxAttemptsHint = 5
)

// TrackerConfig tunes the failed-attempt tracker.
type TrackerConfig struct {
	// AttemptTTL is the sliding expiry window per (client, account) pair.
	AttemptTTL time.Duration `koanf:"attempt_ttl"`

	// CaptchaThreshold is the count at which RequiresCaptcha turns true.
	CaptchaThreshold int `koanf:"captcha_threshold"`

	// MaxAttemptsHint is the cap used by RemainingAttempts; display only.
	MaxAttemptsHint int `koanf:"max_attempts_hint"`
}

// DefaultTrackerConfig returns the production defaults.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		AttemptTTL:       DefaultAttemptTTL,
		CaptchaThreshold: DefaultCaptchaThreshold,
		MaxAttemptsHint:  DefaultMaxAttemptsHint,
	}
}

// Tracker counts failed login attempts per (client identity, account
// identity) pair over a sliding window, backed by the TTL cache. Increments
// are atomic per key: the cache performs the read-modify-write under a
// single critical section, so concurrent failures are never lost.
type Tracker struct {
	cache  *cache.Cache
	config TrackerConfig
}

// NewTracker creates a tracker on top of the given cache.
func NewTracker(c *cache.Cache, config TrackerConfig) *Tracker {
	if config.AttemptTTL <= 0 {
		config.AttemptTTL = DefaultAttemptTTL
	}
	if config.CaptchaThreshold <= 0 {
		config.CaptchaThreshold = DefaultCaptchaThreshold
	}
	if config.MaxAttemptsHint <= 0 {
		config.MaxAttemptsHint = DefaultMaxAttemptsHint
	}
	return &Tracker{cache: c, config: config}
}

// attemptKey composes the cache key for a (client, account) pair.
func attemptKey(clientID, email string) string {
	return fmt.Sprintf("failed_%s_%s", clientID, email)
}

// RecordFailure increments the failure count for the pair with a fresh TTL
// and returns the new count.
func (t *Tracker) RecordFailure(clientID, email string) int {
	count := t.cache.Increment(attemptKey(clientID, email), t.config.AttemptTTL)

	logging.Warn().
		Str("email", email).
		Str("client_ip", clientID).
		Int("attempt", count).
		Msg("Failed login attempt")

	return count
}

// Reset clears the failure count for the pair. Call on successful login.
func (t *Tracker) Reset(clientID, email string) {
	t.cache.Delete(attemptKey(clientID, email))
}

// count returns the current failure count, zero if absent or expired.
func (t *Tracker) count(clientID, email string) int {
	value, ok := t.cache.Get(attemptKey(clientID, email))
	if !ok {
		return 0
	}
	n, ok := value.(int)
	if !ok {
		return 0
	}
	return n
}

// RequiresCaptcha reports whether the pair has crossed the captcha
// threshold.
func (t *Tracker) RequiresCaptcha(clientID, email string) bool {
	return t.count(clientID, email) >= t.config.CaptchaThreshold
}

// RemainingAttempts returns max(0, hint-cap - count). This is a display
// hint only, not an enforced limit: counts keep growing past the cap and
// the captcha stays required.
func (t *Tracker) RemainingAttempts(clientID, email string) int {
	remaining := t.config.MaxAttemptsHint - t.count(clientID, email)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Keys exposes the unexpired attempt entries with their remaining TTL for
// the diagnostic endpoint.
func (t *Tracker) Keys() []cache.KeyInfo {
	return t.cache.Keys()
}

// Attempts returns the current count for a raw cache key, for diagnostics.
func (t *Tracker) Attempts(key string) int {
	value, ok := t.cache.Get(key)
	if !ok {
		return 0
	}
	n, _ := value.(int)
	return n
}
