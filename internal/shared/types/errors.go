package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for the core taxonomy. Callers classify with errors.Is;
// every one of these is recoverable locally and never terminates the process.
var (
	// ErrValidation marks configuration or binding specs rejected at load.
	ErrValidation = errors.New("validation failed")

	// ErrConflict marks a mutation that would violate a uniqueness invariant.
	ErrConflict = errors.New("conflict")

	// ErrNotFound marks an unknown session or provider id.
	ErrNotFound = errors.New("not found")

	// ErrParse marks a malformed command line.
	ErrParse = errors.New("parse error")

	// ErrProvider marks a network, timeout, or remote failure from a provider.
	ErrProvider = errors.New("provider error")

	// ErrNoProvider is returned when no provider is enabled.
	ErrNoProvider = errors.New("no provider enabled")

	// ErrIndex marks an out-of-range editor cursor operation. Unreachable
	// through the clamping entry points; reaching it is a programming error.
	ErrIndex = errors.New("index out of range")
)

// Validationf wraps ErrValidation with a formatted message.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrValidation}, args...)...)
}

// Conflictf wraps ErrConflict with a formatted message.
func Conflictf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrConflict}, args...)...)
}

// NotFoundf wraps ErrNotFound with a formatted message.
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrNotFound}, args...)...)
}

// Parsef wraps ErrParse with a formatted message.
func Parsef(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrParse}, args...)...)
}

// Providerf wraps ErrProvider with a formatted message.
func Providerf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrProvider}, args...)...)
}
