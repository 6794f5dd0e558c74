// CityStroll - Walking Route Planner for Saint Petersburg
// Copyright 2026 CityStroll contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/citystroll/citystroll

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/citystroll/citystroll/internal/auth"
	"github.com/citystroll/citystroll/internal/cache"
	"github.com/citystroll/citystroll/internal/ratelimit"
)

func TestLoginRateLimitRejectsAfterBudget(t *testing.T) {
	clock := cache.NewFakeClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	limiter := ratelimit.New(5, time.Minute, clock)

	failing := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	handler := LoginRateLimit(limiter, false)(failing)

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = ip + ":40000"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 5; i++ {
		if code := do("10.0.0.1"); code != http.StatusUnauthorized {
			t.Fatalf("request %d status = %d, want 401", i+1, code)
		}
	}
	if code := do("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("sixth request status = %d, want 429", code)
	}

	// Other clients are unaffected.
	if code := do("10.0.0.2"); code != http.StatusUnauthorized {
		t.Errorf("other client status = %d, want 401", code)
	}

	// A new window clears the budget.
	clock.Advance(61 * time.Second)
	if code := do("10.0.0.1"); code != http.StatusUnauthorized {
		t.Errorf("post-window status = %d, want 401", code)
	}
}

func TestLoginRateLimitRefundsSuccesses(t *testing.T) {
	clock := cache.NewFakeClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	limiter := ratelimit.New(5, time.Minute, clock)

	status := http.StatusOK
	handler := LoginRateLimit(limiter, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	do := func() int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:40000"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	// Successful requests do not consume the budget.
	for i := 0; i < 20; i++ {
		if code := do(); code != http.StatusOK {
			t.Fatalf("success %d status = %d, want 200", i+1, code)
		}
	}

	// Failures still do.
	status = http.StatusUnauthorized
	for i := 0; i < 5; i++ {
		if code := do(); code != http.StatusUnauthorized {
			t.Fatalf("failure %d status = %d, want 401", i+1, code)
		}
	}
	if code := do(); code != http.StatusTooManyRequests {
		t.Fatalf("over-budget status = %d, want 429", code)
	}
}

func TestLoginRateLimitDisabled(t *testing.T) {
	clock := cache.NewFakeClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	limiter := ratelimit.New(1, time.Minute, clock)

	handler := LoginRateLimit(limiter, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:40000"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("disabled limiter blocked request %d: %d", i+1, w.Code)
		}
	}
}

func TestAuthenticate(t *testing.T) {
	tokens, err := auth.NewJWTManager("test-secret-key", time.Hour)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	var gotUserID int64
	handler := Authenticate(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	do := func(header string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	if code := do(""); code != http.StatusUnauthorized {
		t.Errorf("no header status = %d, want 401", code)
	}
	if code := do("Bearer not-a-token"); code != http.StatusUnauthorized {
		t.Errorf("garbage token status = %d, want 401", code)
	}
	if code := do("Basic dXNlcjpwYXNz"); code != http.StatusUnauthorized {
		t.Errorf("non-bearer scheme status = %d, want 401", code)
	}

	token, err := tokens.GenerateToken(42)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if code := do("Bearer " + token); code != http.StatusOK {
		t.Fatalf("valid token status = %d, want 200", code)
	}
	if gotUserID != 42 {
		t.Errorf("user id in context = %d, want 42", gotUserID)
	}

	// Token signed with a different secret is rejected.
	other, _ := auth.NewJWTManager("another-secret!!", time.Hour)
	badToken, _ := other.GenerateToken(42)
	if code := do("Bearer " + badToken); code != http.StatusUnauthorized {
		t.Errorf("foreign token status = %d, want 401", code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := w.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
	if got := w.Header().Get("Strict-Transport-Security"); got != "" {
		t.Errorf("HSTS set on plain HTTP: %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if got := w.Header().Get("Strict-Transport-Security"); got == "" {
		t.Error("HSTS missing behind TLS-terminating proxy")
	}
}

func TestRequestIDWithLogging(t *testing.T) {
	handler := RequestIDWithLogging()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("request id not generated")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "fixed-id" {
		t.Errorf("request id = %q, want incoming id honored", got)
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi"},
		{"bearer abc.def.ghi", "abc.def.ghi"},
		{"Basic abc", ""},
		{"Bearer", ""},
		{"", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		if got := bearerToken(req); got != tt.want {
			t.Errorf("bearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
