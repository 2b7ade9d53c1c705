package helper

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the repository and the reasoning services.
// Callers match them with errors.Is, the wrapping Error keeps the chain intact.
var (
	// ErrNotFound is returned when a start, target or looked up element does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation is returned for invalid arguments before any store call is made.
	ErrValidation = errors.New("validation failed")
	// ErrStoreUnavailable is returned when the graph store cannot be reached or timed out.
	ErrStoreUnavailable = errors.New("graph store unavailable")
	// ErrInvalidFilter is returned for malformed filter combinations. It is a programming
	// error and is never downgraded to an empty result.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrPathNotFound is returned when no path connects two existing nodes.
	ErrPathNotFound = errors.New("path not found")
)

// Error wraps an error with the operation that failed.
type Error struct {
	Operation string
	Err       error
}

// NewError creates a new Error for the given operation.
func NewError(operation string, err error) *Error {
	return &Error{
		Operation: operation,
		Err:       err,
	}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("error %s", e.Operation)
	}
	return fmt.Sprintf("error %s: %v", e.Operation, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound builds an ErrNotFound for the given element description.
func NotFound(what string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, what)
}

// Invalid builds an ErrValidation with a reason.
func Invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsStoreUnavailable reports whether err is or wraps ErrStoreUnavailable.
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
