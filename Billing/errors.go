package Billing

import (
	"errors"
	"fmt"
)

// Error kinds. Callers match them with errors.Is.
var (
	// ErrValidation is returned for malformed or out-of-range input.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced document does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when the request clashes with the document's
	// current state, such as paying a cancelled invoice.
	ErrConflict = errors.New("conflict")

	// ErrFailedPrecondition is returned when a dependency of the operation is
	// in the wrong state, such as a contract line naming an inactive product.
	ErrFailedPrecondition = errors.New("failed precondition")
)

// BillingError carries the failing operation and kind alongside any cause.
type BillingError struct {
	// Op is the operation that failed (e.g. "Transition", "RecordPayment").
	Op string

	// Kind is one of the sentinel errors above.
	Kind error

	// Details is the human readable reason.
	Details string

	// Err is the underlying error, if any.
	Err error
}

func (e *BillingError) Error() string {
	msg := fmt.Sprintf("billing: %s: %v", e.Op, e.Kind)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *BillingError) Unwrap() error {
	return e.Err
}

// Is matches the error's kind as well as its cause.
func (e *BillingError) Is(target error) bool {
	return e.Kind == target
}

func newError(kind error, op, format string, args ...interface{}) *BillingError {
	return &BillingError{Op: op, Kind: kind, Details: fmt.Sprintf(format, args...)}
}

// Validation builds an ErrValidation error.
func Validation(op, format string, args ...interface{}) error {
	return newError(ErrValidation, op, format, args...)
}

// NotFound builds an ErrNotFound error.
func NotFound(op, format string, args ...interface{}) error {
	return newError(ErrNotFound, op, format, args...)
}

// Conflict builds an ErrConflict error.
func Conflict(op, format string, args ...interface{}) error {
	return newError(ErrConflict, op, format, args...)
}

// FailedPrecondition builds an ErrFailedPrecondition error.
func FailedPrecondition(op, format string, args ...interface{}) error {
	return newError(ErrFailedPrecondition, op, format, args...)
}

// Details returns the human readable reason of a BillingError, or the error
// text for anything else.
func Details(err error) string {
	var be *BillingError
	if errors.As(err, &be) && be.Details != "" {
		return be.Details
	}
	return err.Error()
}
