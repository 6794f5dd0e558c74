// CityStroll - Walking Route Planner for Saint Petersburg
// Copyright 2026 CityStroll contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/citystroll/citystroll

package validation

import (
	"strings"
	"testing"
)

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type registerForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
	FullName string `validate:"required,min=2"`
}

func TestValidateStructValid(t *testing.T) {
	err := ValidateStruct(&loginForm{Email: "a@b.com", Password: "secret"})
	if err != nil {
		t.Errorf("expected valid form, got %v", err)
	}
}

func TestValidateStructBadEmail(t *testing.T) {
	err := ValidateStruct(&loginForm{Email: "not-an-email", Password: "secret"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(err.Fields) != 1 {
		t.Fatalf("expected 1 field error, got %d", len(err.Fields))
	}
	if err.Fields[0].Field != "email" {
		t.Errorf("expected email field, got %q", err.Fields[0].Field)
	}
	if !strings.Contains(err.Fields[0].Message, "valid email") {
		t.Errorf("unexpected message %q", err.Fields[0].Message)
	}
}

func TestValidateStructMultipleErrors(t *testing.T) {
	err := ValidateStruct(&registerForm{Email: "", Password: "abc", FullName: ""})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(err.Fields) != 3 {
		t.Fatalf("expected 3 field errors, got %d: %v", len(err.Fields), err)
	}
	if !strings.Contains(err.Error(), "password must be at least 6 characters") {
		t.Errorf("expected min-length message, got %q", err.Error())
	}
}

func TestValidateStructShortName(t *testing.T) {
	err := ValidateStruct(&registerForm{Email: "a@b.com", Password: "secret", FullName: "x"})
	if err == nil {
		t.Fatal("expected validation error for short full name")
	}
	if err.Fields[0].Field != "fullname" {
		t.Errorf("expected fullname field, got %q", err.Fields[0].Field)
	}
}
