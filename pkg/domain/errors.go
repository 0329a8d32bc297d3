package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session key cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrNotFound is returned when a catalog path does not resolve at some level.
var ErrNotFound = errors.New("catalog node not found")

// ErrNoActiveCheckout is returned when a checkout step is attempted outside of an active dialogue.
var ErrNoActiveCheckout = errors.New("no active checkout")

// ErrEmptyCart is returned when an order would be placed for an empty cart.
var ErrEmptyCart = errors.New("cart is empty")

// ErrUnknownAction is returned when a selection payload cannot be decoded.
var ErrUnknownAction = errors.New("unknown action")

// ErrEmptyInput is returned when a dialogue step receives blank text.
var ErrEmptyInput = errors.New("empty input")

// ValidationError describes user input that was rejected without mutating state.
// The Message is safe to show to the user as a retry prompt.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// LoadError wraps a failure to read or parse the catalog source.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load catalog from %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
