// CityStroll - Walking Route Planner for Saint Petersburg
// Copyright 2026 CityStroll contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/citystroll/citystroll

package auth

import (
	"testing"
	"time"
)

const testSecret = "test-secret-at-least-32-characters-long!"

func TestJWTRoundTrip(t *testing.T) {
	m, err := NewJWTManager(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	token, err := m.GenerateToken(42)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("expected user id 42, got %d", claims.UserID)
	}
}

func TestJWTEmptySecret(t *testing.T) {
	if _, err := NewJWTManager("", time.Hour); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestJWTRejectsTamperedToken(t *testing.T) {
	m, _ := NewJWTManager(testSecret, time.Hour)
	token, _ := m.GenerateToken(1)

	if _, err := m.ValidateToken(token + "x"); err == nil {
		t.Error("expected tampered token to be rejected")
	}
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	m1, _ := NewJWTManager(testSecret, time.Hour)
	m2, _ := NewJWTManager("another-secret-also-32-characters!!!", time.Hour)

	token, _ := m1.GenerateToken(1)
	if _, err := m2.ValidateToken(token); err == nil {
		t.Error("expected token signed with different secret to be rejected")
	}
}

func TestJWTRejectsExpiredToken(t *testing.T) {
	m, _ := NewJWTManager(testSecret, -time.Minute)

	token, err := m.GenerateToken(1)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := m.ValidateToken(token); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if !CheckPassword(hash, "correct horse battery staple") {
		t.Error("expected matching password to verify")
	}
	if CheckPassword(hash, "wrong password") {
		t.Error("expected mismatched password to fail")
	}
}

func TestPasswordHashesAreSalted(t *testing.T) {
	h1, _ := HashPassword("password123")
	h2, _ := HashPassword("password123")
	if h1 == h2 {
		t.Error("expected distinct salts to produce distinct hashes")
	}
}
