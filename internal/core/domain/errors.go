// Package domain defines the core value types shared by the zkmesh client.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a client error with a structured error code.
type DomainError struct {
	Code    string // Error code (e.g., "ZM-STATE-4090")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Lifecycle Errors (STATE, CLNT)
// ============================================================================

var (
	// ErrInvalidState indicates a lifecycle call was made from the wrong state.
	ErrInvalidState = NewDomainError("ZM-STATE-4090", "invalid client state")

	// ErrClientClosed indicates the client has been closed or is closing.
	ErrClientClosed = NewDomainError("ZM-CLNT-4100", "client closed")
)

// ============================================================================
// Connection Errors (CONN)
// ============================================================================

var (
	// ErrNotConnected indicates there is no usable connection handle.
	ErrNotConnected = NewDomainError("ZM-CONN-5030", "not connected")

	// ErrConnectTimeout indicates the session was not established in time.
	ErrConnectTimeout = NewDomainError("ZM-CONN-5040", "timed out waiting for session")

	// ErrAuthFailed indicates the ensemble rejected the session credentials.
	ErrAuthFailed = NewDomainError("ZM-CONN-4010", "authentication failed")
)

// ============================================================================
// Pool Errors (POOL)
// ============================================================================

var (
	// ErrPoolClosed indicates the callback pool no longer accepts work.
	ErrPoolClosed = NewDomainError("ZM-POOL-5031", "callback pool closed")
)

// ============================================================================
// System Errors (CONF, SYS)
// ============================================================================

var (
	// ErrInvalidConfig indicates the client configuration failed validation.
	ErrInvalidConfig = NewDomainError("ZM-CONF-4000", "invalid configuration")

	// ErrInternal indicates an unexpected internal failure.
	ErrInternal = NewDomainError("ZM-SYS-5000", "internal error")
)
