// Palate - Menu Recommendation Engine for Cavak's Kitchen
// Copyright 2026 Cavak's Kitchen
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cavaks-kitchen/palate

package validation

import (
	"strings"
	"testing"
)

type loginForm struct {
	Username string `validate:"required"`
	Password string `validate:"required,min=8"`
}

type cartLine struct {
	ItemID   string `validate:"required"`
	Quantity int    `validate:"gte=0"`
}

type cartForm struct {
	Cart []cartLine `validate:"required,min=1,dive"`
}

func TestValidateStructPasses(t *testing.T) {
	form := loginForm{Username: "admin", Password: "correct horse"}
	if err := ValidateStruct(&form); err != nil {
		t.Fatalf("ValidateStruct() = %v, want nil", err)
	}
}

func TestValidateStructRequired(t *testing.T) {
	err := ValidateStruct(&loginForm{Password: "correct horse"})
	if err == nil {
		t.Fatal("expected validation error for missing username")
	}
	if len(err.Errors()) != 1 {
		t.Fatalf("got %d errors, want 1", len(err.Errors()))
	}
	fieldErr := err.Errors()[0]
	if fieldErr.Field() != "Username" || fieldErr.Tag() != "required" {
		t.Fatalf("unexpected field error: field=%s tag=%s", fieldErr.Field(), fieldErr.Tag())
	}
	if !strings.Contains(err.Error(), "Username is required") {
		t.Fatalf("message %q missing required text", err.Error())
	}
}

func TestValidateStructMinString(t *testing.T) {
	err := ValidateStruct(&loginForm{Username: "admin", Password: "short"})
	if err == nil {
		t.Fatal("expected validation error for short password")
	}
	if !strings.Contains(err.Error(), "at least 8 characters") {
		t.Fatalf("message %q should mention character minimum", err.Error())
	}
}

func TestValidateStructDiveIntoSlice(t *testing.T) {
	err := ValidateStruct(&cartForm{Cart: []cartLine{{Quantity: -1}}})
	if err == nil {
		t.Fatal("expected validation error for bad cart line")
	}
	var tags []string
	for _, fe := range err.Errors() {
		tags = append(tags, fe.Tag())
	}
	joined := strings.Join(tags, ",")
	if !strings.Contains(joined, "required") || !strings.Contains(joined, "gte") {
		t.Fatalf("tags = %v, want required and gte", tags)
	}
}

func TestValidateStructEmptyCart(t *testing.T) {
	err := ValidateStruct(&cartForm{})
	if err == nil {
		t.Fatal("expected validation error for empty cart")
	}
}

func TestToAPIError(t *testing.T) {
	err := ValidateStruct(&loginForm{})
	if err == nil {
		t.Fatal("expected validation error")
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Fatalf("code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	if apiErr.Message != "Request validation failed" {
		t.Fatalf("message = %q", apiErr.Message)
	}
	if _, ok := apiErr.Details["Username"]; !ok {
		t.Fatal("details missing Username entry")
	}
	if _, ok := apiErr.Details["Password"]; !ok {
		t.Fatal("details missing Password entry")
	}
}

func TestGetValidatorSingleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Fatal("GetValidator should return the same instance")
	}
}
