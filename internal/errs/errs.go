// Package errs holds the sentinel errors shared by the service and
// transport layers so that HTTP status mapping lives in one place.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized means the caller has no valid session.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden means the caller is signed in but does not own the resource.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound means the requested record does not exist, or is not
	// visible to the caller.
	ErrNotFound = errors.New("not found")

	// ErrValidation means the input was rejected before touching the store.
	ErrValidation = errors.New("validation failed")

	// ErrStore wraps failures reported by the persistence layer.
	ErrStore = errors.New("store failure")
)

// ValidationError describes which field was rejected and why.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a ValidationError for field.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Store wraps err so that errors.Is(err, ErrStore) holds while keeping the
// underlying cause in the chain.
func Store(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStore, err)
}
