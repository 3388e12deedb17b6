// Cinetrack - Movie Tracking and Recommendations
// Copyright 2026 Jordi N. (jordinodejs)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jordinodejs/cinetrack

package validation

import (
	"strings"
	"testing"
)

type sampleRequest struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
	Rating   int    `validate:"min=1,max=10"`
}

func TestValidateStructPasses(t *testing.T) {
	req := sampleRequest{Email: "alice@example.com", Password: "password123", Rating: 7}
	if err := ValidateStruct(&req); err != nil {
		t.Errorf("expected valid struct, got %v", err)
	}
}

func TestValidateStructReportsAllFields(t *testing.T) {
	req := sampleRequest{Email: "not-an-email", Password: "short", Rating: 11}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected validation failure")
	}
	if len(err.Fields) != 3 {
		t.Fatalf("expected 3 field errors, got %d: %v", len(err.Fields), err)
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		req  sampleRequest
		want string
	}{
		{
			name: "missing email",
			req:  sampleRequest{Password: "password123", Rating: 5},
			want: "Email is required",
		},
		{
			name: "bad email",
			req:  sampleRequest{Email: "nope", Password: "password123", Rating: 5},
			want: "Email must be a valid email address",
		},
		{
			name: "short password",
			req:  sampleRequest{Email: "a@b.com", Password: "short", Rating: 5},
			want: "Password must be at least 8 characters",
		},
		{
			name: "rating too high",
			req:  sampleRequest{Email: "a@b.com", Password: "password123", Rating: 42},
			want: "Rating must be at most 10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.req)
			if err == nil {
				t.Fatal("expected validation failure")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected message containing %q, got %q", tt.want, err.Error())
			}
		})
	}
}

func TestLocaleTag(t *testing.T) {
	type localized struct {
		Locale string `validate:"locale"`
	}

	for _, tag := range []string{"en", "en-US", "pt-BR"} {
		if err := ValidateStruct(&localized{Locale: tag}); err != nil {
			t.Errorf("locale %q rejected: %v", tag, err)
		}
		if !IsValidLocale(tag) {
			t.Errorf("IsValidLocale(%q) = false, want true", tag)
		}
	}

	for _, tag := range []string{"", "EN-US", "en_US", "english", "en-us"} {
		if err := ValidateStruct(&localized{Locale: tag}); err == nil {
			t.Errorf("locale %q accepted, want rejection", tag)
		}
		if IsValidLocale(tag) {
			t.Errorf("IsValidLocale(%q) = true, want false", tag)
		}
	}
}

func TestGetValidatorSingleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator must return the same instance")
	}
}
