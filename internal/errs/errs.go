// Package errs defines the error taxonomy shared by every forecastdb package.
//
// All failures surfaced by the read layer are *Error values carrying one of
// five codes. Callers branch on the code with errors.Is against the exported
// sentinels, or with the Is* helpers:
//
//	if errors.Is(err, errs.ErrNotFound) { ... }
//	if errs.IsStorage(err) { ... }
//
// Nothing in this module retries. Errors are returned to the immediate caller.
package errs

import (
	"errors"
	"fmt"
)

// Code categorizes an Error.
type Code string

const (
	// CodeNotFound indicates an unknown run, table or column.
	CodeNotFound Code = "NOT_FOUND"

	// CodeAmbiguousOrMissing indicates a registry lookup returned zero or
	// several distinct values where exactly one was expected.
	CodeAmbiguousOrMissing Code = "AMBIGUOUS_OR_MISSING"

	// CodeOutOfBounds indicates a grid coordinate outside the raster.
	CodeOutOfBounds Code = "OUT_OF_BOUNDS"

	// CodeNotInitialized indicates an operation invoked before Init.
	CodeNotInitialized Code = "NOT_INITIALIZED"

	// CodeStorageFailure wraps any connectivity or query error.
	CodeStorageFailure Code = "STORAGE_FAILURE"
)

// Error is the concrete error type returned by forecastdb packages.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Sentinels for errors.Is. They match any *Error with the same code.
var (
	ErrNotFound           = &Error{Code: CodeNotFound}
	ErrAmbiguousOrMissing = &Error{Code: CodeAmbiguousOrMissing}
	ErrOutOfBounds        = &Error{Code: CodeOutOfBounds}
	ErrNotInitialized     = &Error{Code: CodeNotInitialized}
	ErrStorageFailure     = &Error{Code: CodeStorageFailure}
)

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Message == "" && e.Err == nil:
		return string(e.Code)
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	case e.Message == "":
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NotFound creates a NOT_FOUND error.
func NotFound(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// AmbiguousOrMissing creates an AMBIGUOUS_OR_MISSING error for a lookup that
// produced n distinct values.
func AmbiguousOrMissing(what string, n int) *Error {
	return &Error{
		Code:    CodeAmbiguousOrMissing,
		Message: fmt.Sprintf("%s: expected exactly one distinct value, got %d", what, n),
	}
}

// OutOfBounds creates an OUT_OF_BOUNDS error.
func OutOfBounds(format string, args ...any) *Error {
	return &Error{Code: CodeOutOfBounds, Message: fmt.Sprintf(format, args...)}
}

// NotInitialized creates a NOT_INITIALIZED error for the named operation.
func NotInitialized(op string) *Error {
	return &Error{Code: CodeNotInitialized, Message: op + " called before Init"}
}

// Storage wraps err as a STORAGE_FAILURE for the named operation.
// Returns nil if err is nil. An err that is already an *Error is returned
// unchanged so codes are never masked.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Code: CodeStorageFailure, Message: op, Err: err}
}

// IsNotFound reports whether err carries CodeNotFound.
func IsNotFound(err error) bool { return hasCode(err, CodeNotFound) }

// IsAmbiguousOrMissing reports whether err carries CodeAmbiguousOrMissing.
func IsAmbiguousOrMissing(err error) bool { return hasCode(err, CodeAmbiguousOrMissing) }

// IsOutOfBounds reports whether err carries CodeOutOfBounds.
func IsOutOfBounds(err error) bool { return hasCode(err, CodeOutOfBounds) }

// IsNotInitialized reports whether err carries CodeNotInitialized.
func IsNotInitialized(err error) bool { return hasCode(err, CodeNotInitialized) }

// IsStorage reports whether err carries CodeStorageFailure.
func IsStorage(err error) bool { return hasCode(err, CodeStorageFailure) }

func hasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
