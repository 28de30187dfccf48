// Package domainerrors provides coded domain errors shared across services.
// Codes classify failures for callers that need to branch on error class
// without string matching; messages stay human-readable.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// CodeValidation marks rejected input: malformed or inconsistent data.
	CodeValidation Code = "validation"
	// CodeInsufficientData marks a soft failure: not enough data to produce
	// a signal. Callers log and continue; this never crashes a caller's path.
	CodeInsufficientData Code = "insufficient_data"
	// CodeConfiguration marks an invalid tunable or threshold table. Hard
	// failure: reject at load or call time, fail fast.
	CodeConfiguration Code = "configuration"
	// CodeNotFound marks a missing record.
	CodeNotFound Code = "not_found"
	// CodeConflict marks a lost race on a state transition, such as a
	// concurrent activation attempt for the same model family.
	CodeConflict Code = "conflict"
	// CodeRollbackFailed marks an unrecoverable rollback: the previous model
	// could not be reactivated. Fatal; escalate to human operators.
	CodeRollbackFailed Code = "rollback_failed"
	// CodeInvariantViolation marks a broken internal invariant.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeInternal marks an unexpected infrastructure failure.
	CodeInternal Code = "internal"
)

// Error is a domain error carrying a classification code.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a code and message while preserving the chain.
// A nil err returns nil so callers can wrap unconditionally.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is an alias for HasCode kept for call-site readability.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the code of the outermost domain error in the chain, or
// CodeInternal if err is not a domain error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
