package mcp

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/pydbg/debugpy-mcp/internal/config"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s := NewServer(config.DefaultConfig())
	t.Cleanup(s.Close)
	return s
}

func toolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

// resultText extracts the text payload of a tool result.
func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("tool result has no content")
	}
	text, ok := mcp.AsTextContent(result.Content[0])
	if !ok {
		t.Fatalf("tool result content is not text: %T", result.Content[0])
	}
	return text.Text
}

// closedPort returns a loopback port with nothing listening on it.
func closedPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}

// TestHandleStartDebugSession_InvalidPort verifies out-of-range ports are
// rejected before a session is created.
func TestHandleStartDebugSession_InvalidPort(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleStartDebugSession(context.Background(),
		toolRequest("start_debug_session", map[string]interface{}{"port": float64(70000)}))
	if err != nil {
		t.Fatalf("handler returned a Go error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected an error result for port 70000")
	}
	if !strings.Contains(resultText(t, result), "port") {
		t.Errorf("error text does not name the port parameter: %s", resultText(t, result))
	}
	if sessions := s.registry.ListSessions(); len(sessions) != 0 {
		t.Errorf("invalid port still created %d sessions", len(sessions))
	}
}

// TestHandleStartDebugSession_ConnectFailure verifies a failed connect is a
// structured result, not a tool error, and the session record survives for
// get_session_status.
func TestHandleStartDebugSession_ConnectFailure(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleStartDebugSession(context.Background(),
		toolRequest("start_debug_session", map[string]interface{}{"port": float64(closedPort(t))}))
	if err != nil {
		t.Fatalf("handler returned a Go error: %v", err)
	}
	if result.IsError {
		t.Fatalf("connect failure should be a structured result, got error: %s", resultText(t, result))
	}

	var got struct {
		SessionID string `json:"sessionId"`
		Connected bool   `json:"connected"`
		Error     string `json:"error"`
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), &got); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if got.Connected {
		t.Error("result claims connected after a refused connect")
	}
	if got.SessionID == "" {
		t.Fatal("result carries no session id")
	}
	if got.Error == "" {
		t.Error("result carries no failure description")
	}

	status, err := s.handleGetSessionStatus(context.Background(),
		toolRequest("get_session_status", map[string]interface{}{"session_id": got.SessionID}))
	if err != nil {
		t.Fatalf("get_session_status returned a Go error: %v", err)
	}
	if status.IsError {
		t.Fatalf("session record gone after failed connect: %s", resultText(t, status))
	}
}

// TestHandleStopDebugSession_MissingParam verifies the session_id parameter
// is required.
func TestHandleStopDebugSession_MissingParam(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleStopDebugSession(context.Background(),
		toolRequest("stop_debug_session", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("handler returned a Go error: %v", err)
	}
	if !result.IsError {
		t.Error("expected an error result without session_id")
	}
}

// TestHandleListDebugSessions_Empty verifies the empty listing shape.
func TestHandleListDebugSessions_Empty(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleListDebugSessions(context.Background(),
		toolRequest("list_debug_sessions", nil))
	if err != nil {
		t.Fatalf("handler returned a Go error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, result))
	}

	var got struct {
		Sessions []interface{} `json:"sessions"`
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), &got); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if len(got.Sessions) != 0 {
		t.Errorf("expected no sessions, got %d", len(got.Sessions))
	}
}

// TestHandleInspectVariables_MissingFrameID verifies frame_id is required
// and the error names it.
func TestHandleInspectVariables_MissingFrameID(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleInspectVariables(context.Background(),
		toolRequest("inspect_variables", map[string]interface{}{"session_id": "whatever"}))
	if err != nil {
		t.Fatalf("handler returned a Go error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected an error result without frame_id")
	}
	if !strings.Contains(resultText(t, result), "frame_id") {
		t.Errorf("error text does not name frame_id: %s", resultText(t, result))
	}
}

// TestHandleClearBreakpoint_MissingID verifies breakpoint_id is required.
func TestHandleClearBreakpoint_MissingID(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleClearBreakpoint(context.Background(),
		toolRequest("clear_breakpoint", map[string]interface{}{"session_id": "whatever"}))
	if err != nil {
		t.Fatalf("handler returned a Go error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected an error result without breakpoint_id")
	}
}

// TestHandleGetSourceCode verifies the happy path end to end through the
// handler.
func TestHandleGetSourceCode(t *testing.T) {
	s := newTestServer(t)

	path := filepath.Join(t.TempDir(), "script.py")
	if err := os.WriteFile(path, []byte("a = 1\nb = 2\nc = 3\n"), 0o644); err != nil {
		t.Fatalf("failed to write temp source: %v", err)
	}

	result, err := s.handleGetSourceCode(context.Background(),
		toolRequest("get_source_code", map[string]interface{}{
			"file_path":     path,
			"line_number":   float64(2),
			"context_lines": float64(1),
		}))
	if err != nil {
		t.Fatalf("handler returned a Go error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, result))
	}

	var got struct {
		FilePath string `json:"filePath"`
		Lines    []struct {
			Line    int    `json:"line"`
			Content string `json:"content"`
			Target  bool   `json:"isTarget"`
		} `json:"lines"`
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), &got); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if got.FilePath != path {
		t.Errorf("filePath = %q, want %q", got.FilePath, path)
	}
	if len(got.Lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(got.Lines))
	}
	if !got.Lines[1].Target || got.Lines[1].Content != "b = 2" {
		t.Errorf("target line = %+v, want line 2 flagged", got.Lines[1])
	}
}

// TestHandleGetSessionStatus_Unknown verifies unknown ids are error results.
func TestHandleGetSessionStatus_Unknown(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleGetSessionStatus(context.Background(),
		toolRequest("get_session_status", map[string]interface{}{"session_id": "no-such-session"}))
	if err != nil {
		t.Fatalf("handler returned a Go error: %v", err)
	}
	if !result.IsError {
		t.Error("expected an error result for an unknown session")
	}
	if !strings.Contains(resultText(t, result), "not found") {
		t.Errorf("error text = %s", resultText(t, result))
	}
}
