// Package validation checks user-supplied attributes before they reach storage.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/models"
)

// ErrInvalid is matched by every ValidationError through errors.Is
var ErrInvalid = errors.New("validation failed")

const (
	MaxDisplayNameLength = 50
	MaxDurationSeconds   = 4 * 60 * 60
	MaxPointsPerActivity = 1000
	MinRating            = 1
	MaxRating            = 5
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	colorRegex = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
	codeRegex  = regexp.MustCompile(`^[a-z0-9][a-z0-9\-]{0,63}$`)
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is makes errors.Is(err, ErrInvalid) true for any ValidationError
func (e ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidateDisplayName checks if a display name is valid
func ValidateDisplayName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "display_name", Message: "display name is required"}
	}
	if utf8.RuneCountInString(name) > MaxDisplayNameLength {
		return ValidationError{Field: "display_name", Message: fmt.Sprintf("display name must be at most %d characters", MaxDisplayNameLength)}
	}
	return nil
}

// ValidateDateOfBirth accepts an empty value or a YYYY-MM-DD date that is not in the future
func ValidateDateOfBirth(dob string, now time.Time) error {
	if dob == "" {
		return nil
	}
	d, err := time.Parse(models.DateLayout, dob)
	if err != nil {
		return ValidationError{Field: "date_of_birth", Message: "date of birth must be YYYY-MM-DD"}
	}
	if d.After(now) {
		return ValidationError{Field: "date_of_birth", Message: "date of birth cannot be in the future"}
	}
	return nil
}

// ValidateAvatarColor accepts an empty value or a #RRGGBB color
func ValidateAvatarColor(color string) error {
	if color == "" || colorRegex.MatchString(color) {
		return nil
	}
	return ValidationError{Field: "avatar_color", Message: "avatar color must be #RRGGBB"}
}

// ValidateCode checks catalog codes such as exercise and adventure codes
func ValidateCode(field, code string) error {
	if !codeRegex.MatchString(code) {
		return ValidationError{Field: field, Message: "must be lowercase letters, digits or hyphens"}
	}
	return nil
}

// ValidateRating checks the 1..5 effort rating
func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return ValidationError{Field: "rating", Message: fmt.Sprintf("rating must be between %d and %d", MinRating, MaxRating)}
	}
	return nil
}

// ValidateActivity checks the numeric fields of a recorded exercise
func ValidateActivity(durationSeconds, points, rating int) error {
	if durationSeconds < 0 || durationSeconds > MaxDurationSeconds {
		return ValidationError{Field: "duration_seconds", Message: "duration is out of range"}
	}
	if points < 0 || points > MaxPointsPerActivity {
		return ValidationError{Field: "points", Message: "points are out of range"}
	}
	return ValidateRating(rating)
}
