package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/pydbg/debugpy-mcp/internal/errors"
	"github.com/pydbg/debugpy-mcp/internal/procscan"
	"github.com/pydbg/debugpy-mcp/internal/source"
)

// defaultThreadID is the Python main thread in debugpy
const defaultThreadID = 1

// Session Management Handlers

func (s *Server) handleStartDebugSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	host := s.config.DefaultHost
	if h, err := request.RequireString("host"); err == nil && h != "" {
		host = h
	}

	port := s.config.DefaultPort
	if p, err := request.RequireFloat("port"); err == nil {
		port = int(p)
	}
	if port < 1 || port > 65535 {
		return mcp.NewToolResultError(errors.InvalidParameter("port", port, "a TCP port between 1 and 65535").Error()), nil
	}

	session, err := s.registry.CreateSession(host, port)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// The session record survives a failed connect so the caller can see
	// what went wrong in get_session_status.
	if err := s.registry.ConnectSession(session.ID); err != nil {
		return jsonResult(map[string]interface{}{
			"sessionId": session.ID,
			"connected": false,
			"error":     errors.FromError(err).Message,
		})
	}

	return jsonResult(map[string]interface{}{
		"sessionId": session.ID,
		"connected": true,
		"host":      host,
		"port":      port,
	})
}

func (s *Server) handleStopDebugSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.registry.DisconnectSession(sessionID); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(map[string]interface{}{
		"sessionId": sessionID,
		"status":    "disconnected",
	})
}

func (s *Server) handleListDebugSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessions := s.registry.ListSessions()

	result := make([]map[string]interface{}, len(sessions))
	for i, info := range sessions {
		result[i] = map[string]interface{}{
			"sessionId": info.SessionID,
			"host":      info.Host,
			"port":      info.Port,
			"connected": info.Connected,
			"status":    info.Status,
		}
		if info.PID > 0 {
			result[i]["pid"] = info.PID
		}
	}

	return jsonResult(map[string]interface{}{
		"sessions": result,
	})
}

func (s *Server) handleGetSessionStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	info, err := s.registry.GetSession(sessionID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := map[string]interface{}{
		"sessionId": info.SessionID,
		"host":      info.Host,
		"port":      info.Port,
		"connected": info.Connected,
		"status":    info.Status,
	}
	if info.PID > 0 {
		result["pid"] = info.PID
	}
	if bps, err := s.registry.ListBreakpoints(sessionID); err == nil {
		result["breakpointCount"] = len(bps)
	}

	return jsonResult(result)
}

// Inspection Handlers

func (s *Server) handleListBreakpoints(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	breakpoints, err := s.registry.ListBreakpoints(sessionID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(map[string]interface{}{
		"breakpoints": breakpoints,
	})
}

func (s *Server) handleInspectStack(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	threadID := defaultThreadID
	if t, err := request.RequireFloat("thread_id"); err == nil {
		threadID = int(t)
	}

	frames, err := s.registry.GetStackTrace(sessionID, threadID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(map[string]interface{}{
		"threadId": threadID,
		"frames":   frames,
	})
}

func (s *Server) handleInspectVariables(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	frameID, err := request.RequireFloat("frame_id")
	if err != nil {
		return mcp.NewToolResultError(errors.MissingParameter("frame_id",
			"Specify a stack frame ID from inspect_stack.").Error()), nil
	}

	variables, err := s.registry.GetVariables(sessionID, int(frameID))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(map[string]interface{}{
		"frameId":   int(frameID),
		"variables": variables,
	})
}

func (s *Server) handleGetSourceCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filePath, err := request.RequireString("file_path")
	if err != nil {
		return mcp.NewToolResultError(errors.MissingParameter("file_path",
			"Specify the path of the source file to read.").Error()), nil
	}

	lineNumber, err := request.RequireFloat("line_number")
	if err != nil {
		return mcp.NewToolResultError(errors.MissingParameter("line_number",
			"Specify the 1-based line number to read around.").Error()), nil
	}

	contextLines := 0
	if c, err := request.RequireFloat("context_lines"); err == nil {
		contextLines = int(c)
	}

	sourceContext, err := source.ReadContext(filePath, int(lineNumber), contextLines)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(sourceContext)
}

func (s *Server) handleListDebuggableProcesses(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	processes, err := procscan.Scan()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to scan processes: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"processes": processes,
	})
}

// Control Handlers

func (s *Server) handleSetBreakpoint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	filePath, err := request.RequireString("file_path")
	if err != nil {
		return mcp.NewToolResultError(errors.MissingParameter("file_path",
			"Specify the source file to break in.").Error()), nil
	}

	lineNumber, err := request.RequireFloat("line_number")
	if err != nil {
		return mcp.NewToolResultError(errors.MissingParameter("line_number",
			"Specify the 1-based line number to break at.").Error()), nil
	}
	if lineNumber < 1 {
		return mcp.NewToolResultError(errors.InvalidParameter("line_number", lineNumber, "a 1-based line number").Error()), nil
	}

	condition, _ := request.RequireString("condition")

	bp, err := s.registry.SetBreakpoint(sessionID, filePath, int(lineNumber), condition)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(bp)
}

func (s *Server) handleClearBreakpoint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	breakpointID, err := request.RequireFloat("breakpoint_id")
	if err != nil {
		return mcp.NewToolResultError(errors.MissingParameter("breakpoint_id",
			"Specify the breakpoint ID from set_breakpoint or list_breakpoints.").Error()), nil
	}

	if err := s.registry.ClearBreakpoint(sessionID, int(breakpointID)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(map[string]interface{}{
		"breakpointId": int(breakpointID),
		"cleared":      true,
	})
}

func (s *Server) handleContinueExecution(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, threadID, result := s.sessionAndThread(request)
	if result != nil {
		return result, nil
	}

	allThreads, err := s.registry.ContinueExecution(sessionID, threadID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(map[string]interface{}{
		"threadId":            threadID,
		"allThreadsContinued": allThreads,
	})
}

func (s *Server) handleStepOver(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.handleStep(request, "over", s.registry.StepOver)
}

func (s *Server) handleStepInto(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.handleStep(request, "into", s.registry.StepInto)
}

func (s *Server) handleStepOut(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.handleStep(request, "out", s.registry.StepOut)
}

func (s *Server) handleStep(request mcp.CallToolRequest, stepType string, step func(string, int) error) (*mcp.CallToolResult, error) {
	sessionID, threadID, result := s.sessionAndThread(request)
	if result != nil {
		return result, nil
	}

	if err := step(sessionID, threadID); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(map[string]interface{}{
		"threadId": threadID,
		"step":     stepType,
	})
}

func (s *Server) handleEvaluateExpression(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	expression, err := request.RequireString("expression")
	if err != nil {
		return mcp.NewToolResultError(errors.MissingParameter("expression",
			"Specify the Python expression to evaluate.").Error()), nil
	}

	frameID := 0
	if f, err := request.RequireFloat("frame_id"); err == nil {
		frameID = int(f)
	}

	evalContext, _ := request.RequireString("context")

	result, err := s.registry.EvaluateExpression(sessionID, expression, frameID, evalContext)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return jsonResult(result)
}

// Helpers

// sessionAndThread extracts session_id and the optional thread_id. A non-nil
// result is the error to return to the caller.
func (s *Server) sessionAndThread(request mcp.CallToolRequest) (string, int, *mcp.CallToolResult) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return "", 0, mcp.NewToolResultError(err.Error())
	}

	threadID := defaultThreadID
	if t, err := request.RequireFloat("thread_id"); err == nil {
		threadID = int(t)
	}

	return sessionID, threadID, nil
}

func jsonResult(data interface{}) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
