// Package mcp provides the Model Context Protocol (MCP) server implementation.
//
// This package exposes Python debugging capabilities through MCP tools that
// can be used by AI assistants and other MCP clients:
//
// Session Management (always available):
//   - start_debug_session: Create a session and connect to a debugpy adapter
//   - stop_debug_session: Disconnect a session
//   - list_debug_sessions: List active sessions
//   - get_session_status: Get one session's current state
//
// Inspection (always available):
//   - list_breakpoints: List a session's breakpoints with hit counts
//   - inspect_stack: Get the call stack of a stopped thread
//   - inspect_variables: Get the variables visible in a stack frame
//   - get_source_code: Read source lines around a location
//   - list_debuggable_processes: Find Python processes running debugpy
//
// Control (full mode only):
//   - set_breakpoint / clear_breakpoint: Manage source breakpoints
//   - continue_execution: Resume a stopped thread
//   - step_over / step_into / step_out: Step a stopped thread
//   - evaluate_expression: Evaluate an expression in the debuggee
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/pydbg/debugpy-mcp/internal/config"
	internaldap "github.com/pydbg/debugpy-mcp/internal/dap"
	"github.com/pydbg/debugpy-mcp/internal/debug"
	"github.com/pydbg/debugpy-mcp/internal/version"
)

// Server wraps the MCP server with debugging capabilities
type Server struct {
	mcpServer *server.MCPServer
	registry  *debug.Registry
	config    *config.Config
}

// NewServer creates a new debugpy-mcp server
func NewServer(cfg *config.Config) *Server {
	mcpServer := server.NewMCPServer(
		"debugpy-mcp",
		version.Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	registry := debug.NewRegistry(cfg.MaxSessions, cfg.SessionTimeout, internaldap.Options{
		ConnectTimeout: cfg.ConnectTimeout,
		RequestTimeout: cfg.RequestTimeout,
		ClientID:       "debugpy-mcp",
		ClientName:     "debugpy MCP Server",
	})

	s := &Server{
		mcpServer: mcpServer,
		registry:  registry,
		config:    cfg,
	}

	s.registerTools()

	return s
}

// ServeStdio starts the server using stdio transport
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server using SSE transport on the given address
func (s *Server) ServeSSE(addr string) error {
	sseServer := server.NewSSEServer(s.mcpServer)
	return sseServer.Start(addr)
}

// Close shuts down the server and disconnects every session
func (s *Server) Close() {
	s.registry.Close()
}

// GetRegistry returns the session registry
func (s *Server) GetRegistry() *debug.Registry {
	return s.registry
}

// GetConfig returns the server configuration
func (s *Server) GetConfig() *config.Config {
	return s.config
}
