package errors

import (
	"errors"
	"fmt"
)

// Domain error types for business logic

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")
)

// Monitoring pipeline errors

var (
	// ErrNotConfigured indicates no wallet has been configured yet.
	// Monitoring operations require Initialize to run first.
	ErrNotConfigured = errors.New("wallet not configured")

	// ErrNoPositions indicates the wallet has no known positions.
	// Risk operations require discovery or manual position entry first.
	ErrNoPositions = errors.New("no positions tracked")

	// ErrNoHealthFactors indicates threshold evaluation ran before any
	// health factors were computed
	ErrNoHealthFactors = errors.New("no health factors computed yet")
)

// Protocol and price-feed errors

var (
	// ErrProtocolUnavailable indicates a protocol data source failed.
	// The aggregator downgrades this to zero positions for that protocol.
	ErrProtocolUnavailable = errors.New("protocol source unavailable")

	// ErrPriceUnavailable indicates a price oracle lookup failed.
	// Callers downgrade this to a zero USD value for the affected leg.
	ErrPriceUnavailable = errors.New("price unavailable")

	// ErrRateLimitExceeded indicates an upstream API rate limit was hit
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// ValidationError describes a malformed input parameter.
// It is the caller's fault and is never retried automatically.
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// IsValidation reports whether err is or wraps a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
