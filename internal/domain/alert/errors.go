package alert

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed or missing report fields.
	ErrValidation = errors.New("invalid report")
	// ErrBackendInit marks a messaging backend that cannot be constructed or is not configured.
	ErrBackendInit = errors.New("messaging backend unavailable")
	// ErrDelivery marks a failed send to a single recipient.
	ErrDelivery = errors.New("delivery failed")
	// ErrRegistryIO marks a registry file that cannot be read or written.
	ErrRegistryIO = errors.New("registry unavailable")
)

// ValidationError describes which report field was rejected.
type ValidationError struct {
	// Field is the JSON name of the offending field.
	Field string
	// Reason is a short human-readable explanation.
	Reason string
}

// Error implements error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// DeliveryError wraps a backend error for one recipient.
type DeliveryError struct {
	Recipient string
	Err       error
}

// Error implements error.
func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to %s: %v", e.Recipient, e.Err)
}

// Unwrap returns both ErrDelivery and the backend error.
func (e *DeliveryError) Unwrap() []error {
	return []error{ErrDelivery, e.Err}
}
