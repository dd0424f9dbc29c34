// Package errors provides structured error types for the debugpy-mcp server.
// These errors include helpful hints and suggestions that guide the LLM
// to correct course when something goes wrong.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents a category of error for programmatic handling
type ErrorCode string

const (
	// Session errors
	CodeSessionNotFound         ErrorCode = "SESSION_NOT_FOUND"
	CodeSessionNotConnected     ErrorCode = "SESSION_NOT_CONNECTED"
	CodeSessionAlreadyConnected ErrorCode = "SESSION_ALREADY_CONNECTED"
	CodeSessionLimitReached     ErrorCode = "SESSION_LIMIT_REACHED"

	// Connection errors
	CodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	CodeConnectionLost   ErrorCode = "CONNECTION_LOST"

	// DAP protocol errors
	CodeTimeout       ErrorCode = "TIMEOUT"
	CodeProtocolError ErrorCode = "PROTOCOL_ERROR"
	CodeAdapterError  ErrorCode = "ADAPTER_ERROR"

	// Parameter errors
	CodeMissingParameter ErrorCode = "MISSING_PARAMETER"
	CodeInvalidParameter ErrorCode = "INVALID_PARAMETER"
)

// DebugError is a structured error type that includes helpful information
// for the LLM to understand what went wrong and how to fix it.
type DebugError struct {
	// Code is a machine-readable error category
	Code ErrorCode `json:"code"`

	// Message is a human/LLM-readable description of what went wrong
	Message string `json:"message"`

	// Hint provides actionable guidance on how to fix the error
	Hint string `json:"hint,omitempty"`

	// Details contains additional context (e.g., the invalid value, expected format)
	Details map[string]interface{} `json:"details,omitempty"`

	// Cause is the underlying error, if any
	Cause error `json:"-"`
}

// Error implements the error interface
func (e *DebugError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)

	if e.Hint != "" {
		sb.WriteString(" | Hint: ")
		sb.WriteString(e.Hint)
	}

	return sb.String()
}

// Unwrap returns the underlying error for error chaining
func (e *DebugError) Unwrap() error {
	return e.Cause
}

// WithDetails adds details to the error
func (e *DebugError) WithDetails(key string, value interface{}) *DebugError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// CodeOf returns the error code carried by err, or empty if err is not a
// DebugError.
func CodeOf(err error) ErrorCode {
	var de *DebugError
	if stderrors.As(err, &de) {
		return de.Code
	}
	return ""
}

// --- Session Errors ---

// SessionNotFound creates an error for when a session ID doesn't exist
func SessionNotFound(sessionID string) *DebugError {
	return &DebugError{
		Code:    CodeSessionNotFound,
		Message: fmt.Sprintf("session '%s' not found", sessionID),
		Hint:    "Use list_debug_sessions to see active sessions, or start_debug_session to create a new one.",
		Details: map[string]interface{}{
			"sessionId": sessionID,
		},
	}
}

// SessionNotConnected creates an error for operations that need a live connection
func SessionNotConnected(sessionID string) *DebugError {
	return &DebugError{
		Code:    CodeSessionNotConnected,
		Message: fmt.Sprintf("session '%s' is not connected", sessionID),
		Hint:    "The session has no live connection to a debug adapter. Use start_debug_session to connect, or check get_session_status.",
		Details: map[string]interface{}{
			"sessionId": sessionID,
		},
	}
}

// SessionAlreadyConnected creates an error for a second connect on a live session
func SessionAlreadyConnected(sessionID string) *DebugError {
	return &DebugError{
		Code:    CodeSessionAlreadyConnected,
		Message: fmt.Sprintf("session '%s' is already connected", sessionID),
		Hint:    "Reconnecting would leak the existing connection. Use stop_debug_session first if you want a fresh connection.",
		Details: map[string]interface{}{
			"sessionId": sessionID,
		},
	}
}

// SessionLimitReached creates an error when max sessions is reached
func SessionLimitReached(maxSessions int) *DebugError {
	return &DebugError{
		Code:    CodeSessionLimitReached,
		Message: fmt.Sprintf("maximum number of sessions (%d) reached", maxSessions),
		Hint:    "Use stop_debug_session to terminate an existing session before creating a new one.",
		Details: map[string]interface{}{
			"maxSessions": maxSessions,
		},
	}
}

// --- Connection Errors ---

// ConnectionFailed creates an error for connect-time socket or handshake failures
func ConnectionFailed(address string, err error) *DebugError {
	return &DebugError{
		Code:    CodeConnectionFailed,
		Message: fmt.Sprintf("failed to connect to debug adapter at %s: %v", address, err),
		Hint:    "Ensure the target was started with debugpy listening on that host and port (python -m debugpy --listen host:port ...). Use list_debuggable_processes to find candidates.",
		Cause:   err,
		Details: map[string]interface{}{
			"address": address,
		},
	}
}

// ConnectionLost creates an error for requests outstanding when a connection dies
func ConnectionLost(command string) *DebugError {
	return &DebugError{
		Code:    CodeConnectionLost,
		Message: fmt.Sprintf("connection lost while waiting for '%s' response", command),
		Hint:    "The debug adapter closed the connection or the target exited. The session is disconnected; start a new session to continue.",
		Details: map[string]interface{}{
			"command": command,
		},
	}
}

// --- Protocol Errors ---

// Timeout creates an error for requests with no response within the deadline
func Timeout(command string, timeoutSeconds int) *DebugError {
	return &DebugError{
		Code:    CodeTimeout,
		Message: fmt.Sprintf("'%s' timed out after %d seconds", command, timeoutSeconds),
		Hint:    "The adapter did not respond in time. The target may be busy or wedged; retry, or stop the session if it stays unresponsive.",
		Details: map[string]interface{}{
			"command":        command,
			"timeoutSeconds": timeoutSeconds,
		},
	}
}

// ProtocolError creates an error for malformed frames or envelopes
func ProtocolError(detail string, err error) *DebugError {
	return &DebugError{
		Code:    CodeProtocolError,
		Message: fmt.Sprintf("protocol error: %s", detail),
		Hint:    "The byte stream did not contain a valid DAP frame. The adapter may not speak DAP on this port.",
		Cause:   err,
	}
}

// AdapterError creates an error for a response the adapter marked unsuccessful
func AdapterError(command, message string) *DebugError {
	if message == "" {
		message = "no error message provided"
	}
	return &DebugError{
		Code:    CodeAdapterError,
		Message: fmt.Sprintf("'%s' failed: %s", command, message),
		Hint:    "The debug adapter rejected the request. Check the arguments (thread id, frame id, file path) against the current debuggee state.",
		Details: map[string]interface{}{
			"command": command,
		},
	}
}

// --- Parameter Errors ---

// MissingParameter creates an error for missing required parameters
func MissingParameter(paramName, description string) *DebugError {
	return &DebugError{
		Code:    CodeMissingParameter,
		Message: fmt.Sprintf("required parameter '%s' is missing", paramName),
		Hint:    description,
		Details: map[string]interface{}{
			"parameter": paramName,
		},
	}
}

// InvalidParameter creates an error for invalid parameter values
func InvalidParameter(paramName string, value interface{}, expected string) *DebugError {
	return &DebugError{
		Code:    CodeInvalidParameter,
		Message: fmt.Sprintf("invalid value for parameter '%s': %v", paramName, value),
		Hint:    fmt.Sprintf("Expected: %s", expected),
		Details: map[string]interface{}{
			"parameter": paramName,
			"value":     value,
			"expected":  expected,
		},
	}
}

// FromError creates a DebugError from a generic error, preserving any existing structure
func FromError(err error) *DebugError {
	var de *DebugError
	if stderrors.As(err, &de) {
		return de
	}
	return &DebugError{
		Code:    "UNKNOWN_ERROR",
		Message: err.Error(),
		Hint:    "An unexpected error occurred. Please check the error message for details.",
		Cause:   err,
	}
}
