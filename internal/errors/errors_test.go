package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

// TestDebugError_Error verifies the message includes the hint when present.
func TestDebugError_Error(t *testing.T) {
	err := SessionNotFound("abc-123")
	if !strings.Contains(err.Error(), "abc-123") {
		t.Errorf("error message missing session id: %s", err.Error())
	}
	if !strings.Contains(err.Error(), "Hint:") {
		t.Errorf("error message missing hint: %s", err.Error())
	}
}

// TestCodeOf verifies code extraction through wrapping.
func TestCodeOf(t *testing.T) {
	err := Timeout("stackTrace", 10)
	if CodeOf(err) != CodeTimeout {
		t.Errorf("CodeOf = %s, want %s", CodeOf(err), CodeTimeout)
	}

	wrapped := fmt.Errorf("while inspecting: %w", err)
	if CodeOf(wrapped) != CodeTimeout {
		t.Errorf("CodeOf through wrapping = %s, want %s", CodeOf(wrapped), CodeTimeout)
	}

	if CodeOf(stderrors.New("plain")) != "" {
		t.Error("CodeOf of a plain error should be empty")
	}
}

// TestUnwrap verifies the cause chain is preserved.
func TestUnwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := ConnectionFailed("127.0.0.1:5678", cause)

	if !stderrors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
}

// TestFromError verifies structured errors pass through and plain errors are
// wrapped.
func TestFromError(t *testing.T) {
	structured := AdapterError("continue", "thread not found")
	if got := FromError(structured); got != structured {
		t.Error("FromError should return the existing DebugError unchanged")
	}

	plain := stderrors.New("something broke")
	got := FromError(plain)
	if got.Code != "UNKNOWN_ERROR" {
		t.Errorf("code = %s, want UNKNOWN_ERROR", got.Code)
	}
	if got.Message != "something broke" {
		t.Errorf("message = %q", got.Message)
	}
}

// TestAdapterError_EmptyMessage verifies a missing adapter message gets a
// placeholder.
func TestAdapterError_EmptyMessage(t *testing.T) {
	err := AdapterError("evaluate", "")
	if !strings.Contains(err.Message, "no error message provided") {
		t.Errorf("message = %q", err.Message)
	}
}

// TestWithDetails verifies details accumulate.
func TestWithDetails(t *testing.T) {
	err := InvalidParameter("port", -1, "a TCP port").WithDetails("extra", "context")
	if err.Details["parameter"] != "port" {
		t.Errorf("parameter detail = %v", err.Details["parameter"])
	}
	if err.Details["extra"] != "context" {
		t.Errorf("extra detail = %v", err.Details["extra"])
	}
}
