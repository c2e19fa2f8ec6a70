package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/database"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/policy"
	"github.com/timnik82/FitAppKid-Bolt-sub001/internal/validation"
)

var (
	// ErrValidation indicates caller input validation failure.
	ErrValidation = validation.ErrInvalid
	// ErrConflict indicates the write collides with existing state.
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized indicates the policy denied a mutation.
	ErrUnauthorized = errors.New("not authorized")
	// ErrAtomicity indicates a multi-step write was rolled back.
	ErrAtomicity = errors.New("transaction rolled back")
	// ErrNotFound indicates a missing row or one the requester may not see.
	ErrNotFound = errors.New("not found")
)

// ValidationError tags an error as validation failure.
func ValidationError(field, msg string) error {
	return validation.ValidationError{Field: field, Message: strings.TrimSpace(msg)}
}

// ConflictError tags an error as conflict failure.
func ConflictError(msg string) error {
	return errors.Join(ErrConflict, errors.New(strings.TrimSpace(msg)))
}

// AuthorizationError tags a denied mutation.
func AuthorizationError(table policy.Table, op policy.Operation) error {
	return errors.Join(ErrUnauthorized, fmt.Errorf("%s on %s denied", op, table))
}

// AtomicityError tags a failure inside a transaction that was rolled back.
// Validation, conflict and authorization failures keep their own category.
func AtomicityError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrConflict) || errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return errors.Join(ErrAtomicity, fmt.Errorf("%s: %w", op, err))
}

// mapStoreError turns driver unique violations into conflicts
func mapStoreError(err error, conflictMsg string) error {
	if err == nil {
		return nil
	}
	if database.IsUniqueViolation(err) {
		return errors.Join(ConflictError(conflictMsg), err)
	}
	return err
}
