// Package errors provides structured error types for the tachyview application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the library packages
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - *_NOT_FOUND: Resource or capability not found
//   - SIZE_MISMATCH: Declared dimensions disagree with the data
//   - TOOLKIT_*: Failures reported by the external visualization toolkit
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeSizeMismatch, "expected %d samples, got %d", want, got)
//	if errors.Is(err, errors.ErrCodeSizeMismatch) {
//	    // Handle precondition failure
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeFileNotFound, origErr, "open %s", path)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidDims   Code = "INVALID_DIMENSIONS"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Precondition violations
	ErrCodeSizeMismatch Code = "SIZE_MISMATCH"

	// Resource not found errors
	ErrCodeFileNotFound       Code = "FILE_NOT_FOUND"
	ErrCodeCapabilityNotFound Code = "CAPABILITY_NOT_FOUND"

	// External toolkit errors
	ErrCodeToolkit Code = "TOOLKIT_ERROR"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error: the full
// error text with code prefixes stripped. Causes and any context wrapped
// around an *Error are kept.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	text := e.Message
	if e.Cause != nil {
		text += ": " + UserMessage(e.Cause)
	}
	return strings.Replace(err.Error(), e.Error(), text, 1)
}

// CapabilityError describes an external capability (a toolkit filter, a
// reader) that could not be located under any of the names tried.
type CapabilityError struct {
	Kind       string   // What was looked up, e.g. "filter"
	Considered []string // Names tried, in priority order
	Available  []string // Related names the provider does expose
}

// Error implements the error interface.
func (e *CapabilityError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s not found (tried: %s)", e.Kind, strings.Join(e.Considered, ", "))
	if len(e.Available) > 0 {
		fmt.Fprintf(&b, "; available: %s", strings.Join(e.Available, ", "))
	} else {
		b.WriteString("; no related names available")
	}
	return b.String()
}

// Code returns the error code for this error type.
func (e *CapabilityError) Code() Code {
	return ErrCodeCapabilityNotFound
}

// CapabilityNotFound wraps a CapabilityError in an *Error so callers can
// match it by code and still reach the enumerated names with errors.As.
func CapabilityNotFound(kind string, considered, available []string) *Error {
	ce := &CapabilityError{Kind: kind, Considered: considered, Available: available}
	return Wrap(ErrCodeCapabilityNotFound, ce, "could not locate %s", kind)
}
