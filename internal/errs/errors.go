// Package errs provides domain-specific error types for smcrouted.
//
// This package defines structured errors with error codes, making it easier
// to handle and test different error conditions consistently across the
// daemon. The SNAPSHOT and RESOURCE codes mark unrecoverable environment
// failures: callers at the process boundary terminate on them instead of
// attempting degraded continuation.
package errs

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of error that can occur in the daemon.
type ErrorCode string

const (
	// ErrCodeSnapshot indicates the OS interface snapshot could not be
	// obtained. Unrecoverable: without interface data the router cannot
	// function.
	ErrCodeSnapshot ErrorCode = "SNAPSHOT_ERROR"

	// ErrCodeResource indicates an unrecoverable resource-exhaustion
	// failure.
	ErrCodeResource ErrorCode = "RESOURCE_ERROR"

	// ErrCodeInterface indicates an error related to network interfaces.
	ErrCodeInterface ErrorCode = "INTERFACE_ERROR"

	// ErrCodeKernel indicates a kernel multicast-routing operation failed
	// (MRT socket, VIF/MIF registration, MFC install).
	ErrCodeKernel ErrorCode = "KERNEL_ERROR"

	// ErrCodeConfig indicates a configuration-related error.
	ErrCodeConfig ErrorCode = "CONFIG_ERROR"

	// ErrCodeIPC indicates a failure delivering output to a client.
	ErrCodeIPC ErrorCode = "IPC_ERROR"
)

// Error represents a domain-specific error with an error code and optional cause.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error for errors.Is and errors.As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a new domain error with the specified code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new domain error wrapping an existing error.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewSnapshotError creates a new interface-snapshot error.
func NewSnapshotError(message string, cause error) *Error {
	return Wrap(ErrCodeSnapshot, message, cause)
}

// NewKernelError creates a new kernel multicast-routing error.
func NewKernelError(message string, cause error) *Error {
	return Wrap(ErrCodeKernel, message, cause)
}

// NewConfigError creates a new configuration error.
func NewConfigError(message string, cause error) *Error {
	return Wrap(ErrCodeConfig, message, cause)
}

// NewIPCError creates a new client-delivery error.
func NewIPCError(message string, cause error) *Error {
	return Wrap(ErrCodeIPC, message, cause)
}

// IsUnrecoverable reports whether err carries a code that permits no safe
// continuation (snapshot or resource exhaustion).
func IsUnrecoverable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == ErrCodeSnapshot || e.Code == ErrCodeResource
}
