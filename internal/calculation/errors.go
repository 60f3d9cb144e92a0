package calculation

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by write paths when an entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned by write paths when an entity belongs to another user.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidation classifies input that fails a business rule.
	ErrValidation = errors.New("validation failed")
	// ErrRateUnavailable wraps reference rate provider failures. Callers may retry.
	ErrRateUnavailable = errors.New("reference rate unavailable")

	ErrDrawPeriodEnded      = errors.New("draw period ended")
	ErrInsufficientCredit   = errors.New("insufficient credit")
	ErrPaymentBelowInterest = errors.New("payment below interest")
)

// ValidationError carries a user-facing message. Error returns the message verbatim.
type ValidationError struct {
	Field   string
	Message string
	// Kind optionally narrows the failure, e.g. ErrInsufficientCredit.
	Kind error
}

func (e *ValidationError) Error() string { return e.Message }

// Unwrap exposes ErrValidation and the optional Kind to errors.Is.
func (e *ValidationError) Unwrap() []error {
	if e.Kind == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Kind}
}

func newValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func newValidationErrorKind(field string, kind error, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Kind: kind}
}

func notFound(entity, id string) error {
	return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
}

func unauthorized(entity, id string) error {
	return fmt.Errorf("%s %s: %w", entity, id, ErrUnauthorized)
}
