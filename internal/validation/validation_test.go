package validation

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{
			name:    "valid email",
			email:   "test@example.com",
			wantErr: false,
		},
		{
			name:    "valid email with subdomain",
			email:   "user@mail.example.com",
			wantErr: false,
		},
		{
			name:    "valid email with plus",
			email:   "user+tag@example.com",
			wantErr: false,
		},
		{
			name:    "missing @",
			email:   "testexample.com",
			wantErr: true,
		},
		{
			name:    "missing domain",
			email:   "test@",
			wantErr: true,
		},
		{
			name:    "empty string",
			email:   "",
			wantErr: true,
		},
		{
			name:    "spaces in email",
			email:   "test @example.com",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestValidateDisplayName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:    "valid name",
			input:   "Sam Rivera",
			wantErr: false,
		},
		{
			name:    "single letter",
			input:   "J",
			wantErr: false,
		},
		{
			name:    "empty name",
			input:   "",
			wantErr: true,
		},
		{
			name:    "whitespace only",
			input:   "   ",
			wantErr: true,
		},
		{
			name:    "name with apostrophe",
			input:   "O'Brien",
			wantErr: false,
		},
		{
			name:    "fifty multibyte runes",
			input:   strings.Repeat("é", MaxDisplayNameLength),
			wantErr: false,
		},
		{
			name:    "too long",
			input:   "abcdefghijklmnopqrstuvwxyzabcdefghijklmnopqrstuvwxyz",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDisplayName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDisplayName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateDateOfBirth(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		dob     string
		wantErr bool
	}{
		{"", false},
		{"2018-04-30", false},
		{"2026-06-01", false},
		{"2026-06-02", true},
		{"30/04/2018", true},
		{"2018-02-30", true},
	}

	for _, tt := range tests {
		t.Run(tt.dob, func(t *testing.T) {
			err := ValidateDateOfBirth(tt.dob, now)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDateOfBirth(%q) error = %v, wantErr %v", tt.dob, err, tt.wantErr)
			}
		})
	}
}

func TestValidateActivity(t *testing.T) {
	tests := []struct {
		name     string
		duration int
		points   int
		rating   int
		wantErr  bool
	}{
		{"typical", 300, 20, 4, false},
		{"zero duration", 0, 0, 1, false},
		{"rating too low", 60, 5, 0, true},
		{"rating too high", 60, 5, 6, true},
		{"negative points", 60, -1, 3, true},
		{"negative duration", -5, 10, 3, true},
		{"marathon", MaxDurationSeconds + 1, 10, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateActivity(tt.duration, tt.points, tt.rating)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateActivity() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidationErrorIsInvalid(t *testing.T) {
	err := ValidateAvatarColor("blue")
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("errors.Is(%v, ErrInvalid) = false", err)
	}

	var verr ValidationError
	if !errors.As(err, &verr) || verr.Field != "avatar_color" {
		t.Errorf("expected avatar_color ValidationError, got %v", err)
	}

	if ValidateAvatarColor("#4A90E2") != nil {
		t.Error("hex color should be valid")
	}
	if ValidateCode("exercise_code", "jumping-jacks") != nil {
		t.Error("code should be valid")
	}
	if ValidateCode("exercise_code", "Jumping Jacks") == nil {
		t.Error("code with spaces should be invalid")
	}
}
