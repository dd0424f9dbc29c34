// Package types defines shared data types used across the debugpy-mcp server.
//
// This package provides type definitions for:
//   - SessionStatus: debug session states (created, connected, stopped, ...)
//   - SessionInfo: the externally visible view of a debug session
//   - Breakpoint: a source breakpoint tracked per session
//   - StackFrame, Variable, ExpressionResult: inspection snapshots
//   - ProcessInfo, SourceContext: collaborator results
//
// These types are used throughout the codebase to maintain type safety
// and provide clear contracts between components.
package types

// SessionStatus is the free-text status of a debug session. The constants
// below cover the transitions the bridge itself performs; connect failures
// store a descriptive status string instead.
type SessionStatus = string

const (
	SessionStatusCreated      SessionStatus = "created"
	SessionStatusConnecting   SessionStatus = "connecting"
	SessionStatusConnected    SessionStatus = "connected"
	SessionStatusRunning      SessionStatus = "running"
	SessionStatusStopped      SessionStatus = "stopped"
	SessionStatusTerminated   SessionStatus = "terminated"
	SessionStatusDisconnected SessionStatus = "disconnected"
)

// SessionInfo represents information about a debug session
type SessionInfo struct {
	SessionID string        `json:"sessionId"`
	Host      string        `json:"host"`
	Port      int           `json:"port"`
	Connected bool          `json:"connected"`
	Status    SessionStatus `json:"status"`
	PID       int           `json:"pid,omitempty"`
}

// Breakpoint represents a source breakpoint owned by a session. IDs are
// assigned monotonically per session and never reused.
type Breakpoint struct {
	ID        int    `json:"breakpointId"`
	FilePath  string `json:"filePath"`
	Line      int    `json:"line"`
	Condition string `json:"condition,omitempty"`
	Enabled   bool   `json:"enabled"`
	Verified  bool   `json:"verified"`
	HitCount  int    `json:"hitCount"`
}

// StackFrame represents one frame of a stack trace snapshot. Frame IDs are
// only valid for the current stopped state of the debuggee.
type StackFrame struct {
	ID       int    `json:"frameId"`
	Name     string `json:"name"`
	FilePath string `json:"filePath,omitempty"`
	Line     int    `json:"line"`
	Column   int    `json:"column,omitempty"`
}

// Variable represents a variable within one scope of a stack frame
type Variable struct {
	Name       string `json:"name"`
	Value      string `json:"value"`
	Type       string `json:"type,omitempty"`
	Scope      string `json:"scope"`
	Expandable bool   `json:"expandable"`
}

// ExpressionResult represents the outcome of evaluating an expression.
// Adapter-side evaluation failures are reported through IsError rather
// than as a transport error.
type ExpressionResult struct {
	Expression   string `json:"expression"`
	Result       string `json:"result"`
	Type         string `json:"type,omitempty"`
	IsError      bool   `json:"isError"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// ProcessInfo describes a candidate debug target found by process discovery
type ProcessInfo struct {
	PID         int    `json:"pid"`
	Name        string `json:"name"`
	CommandLine string `json:"commandLine,omitempty"`
	Debuggable  bool   `json:"debuggable"`
	DebugPort   int    `json:"debugPort,omitempty"`
}

// SourceLine is one line of source context around a target location
type SourceLine struct {
	Line    int    `json:"line"`
	Content string `json:"content"`
	Target  bool   `json:"isTarget,omitempty"`
}

// SourceContext is a window of source code around a target line
type SourceContext struct {
	FilePath   string       `json:"filePath"`
	TargetLine int          `json:"targetLine"`
	Lines      []SourceLine `json:"lines"`
	TotalLines int          `json:"totalLines"`
}
