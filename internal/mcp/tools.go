package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// registerTools registers the debugging tool API
func (s *Server) registerTools() {
	// Session Management (4 tools - both modes)
	s.registerStartDebugSession()
	s.registerStopDebugSession()
	s.registerListDebugSessions()
	s.registerGetSessionStatus()

	// Inspection (5 tools - both modes)
	s.registerListBreakpoints()
	s.registerInspectStack()
	s.registerInspectVariables()
	s.registerGetSourceCode()
	s.registerListDebuggableProcesses()

	// Control (7 tools - full mode only)
	if s.config.CanUseControlTools() {
		s.registerSetBreakpoint()
		s.registerClearBreakpoint()
		s.registerContinueExecution()
		s.registerStepOver()
		s.registerStepInto()
		s.registerStepOut()
		s.registerEvaluateExpression()
	}
}

// Session Management Tools

func (s *Server) registerStartDebugSession() {
	tool := mcp.NewTool("start_debug_session",
		mcp.WithDescription("Create a debug session and connect to a running debugpy adapter. The target must already be started with debugpy listening (python -m debugpy --listen host:port script.py). Returns sessionId needed for all other tools."),
		mcp.WithString("host",
			mcp.Description("Host address of the debugpy adapter (default: 127.0.0.1)"),
		),
		mcp.WithNumber("port",
			mcp.Description("Port of the debugpy adapter (default: 5678)"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleStartDebugSession)
}

func (s *Server) registerStopDebugSession() {
	tool := mcp.NewTool("stop_debug_session",
		mcp.WithDescription("Disconnect a debug session. The debugged process keeps running; only the debug connection is closed."),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("The session ID to disconnect"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleStopDebugSession)
}

func (s *Server) registerListDebugSessions() {
	tool := mcp.NewTool("list_debug_sessions",
		mcp.WithDescription("List all active debug sessions"),
	)
	s.mcpServer.AddTool(tool, s.handleListDebugSessions)
}

func (s *Server) registerGetSessionStatus() {
	tool := mcp.NewTool("get_session_status",
		mcp.WithDescription("Get the current state of one debug session: connection state, status (running, stopped, terminated), and the debuggee PID when known."),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("The session ID"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleGetSessionStatus)
}

// Inspection Tools

func (s *Server) registerListBreakpoints() {
	tool := mcp.NewTool("list_breakpoints",
		mcp.WithDescription("List all breakpoints of a session with their verified state and hit counts."),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("The session ID"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleListBreakpoints)
}

func (s *Server) registerInspectStack() {
	tool := mcp.NewTool("inspect_stack",
		mcp.WithDescription("Get the call stack of a stopped thread. Frame ids are only valid while the thread stays stopped - do not reuse them after continue or step."),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("The session ID"),
		),
		mcp.WithNumber("thread_id",
			mcp.Description("The thread ID (default: 1, the Python main thread)"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleInspectStack)
}

func (s *Server) registerInspectVariables() {
	tool := mcp.NewTool("inspect_variables",
		mcp.WithDescription("Get the variables visible in a stack frame, all scopes expanded. Use frame ids from inspect_stack."),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("The session ID"),
		),
		mcp.WithNumber("frame_id",
			mcp.Required(),
			mcp.Description("The stack frame ID (from inspect_stack)"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleInspectVariables)
}

func (s *Server) registerGetSourceCode() {
	tool := mcp.NewTool("get_source_code",
		mcp.WithDescription("Read source code lines around a location, e.g. around a breakpoint or a stack frame."),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("The source file path"),
		),
		mcp.WithNumber("line_number",
			mcp.Required(),
			mcp.Description("The 1-based target line number"),
		),
		mcp.WithNumber("context_lines",
			mcp.Description("Lines of context on each side (default: 5, max: 100)"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleGetSourceCode)
}

func (s *Server) registerListDebuggableProcesses() {
	tool := mcp.NewTool("list_debuggable_processes",
		mcp.WithDescription("Find running Python processes. Processes started with debugpy are flagged debuggable, with the --listen port extracted when present."),
	)
	s.mcpServer.AddTool(tool, s.handleListDebuggableProcesses)
}

// Control Tools (Full mode only)

func (s *Server) registerSetBreakpoint() {
	tool := mcp.NewTool("set_breakpoint",
		mcp.WithDescription("Set a breakpoint in a source file, optionally with a condition expression. Other breakpoints in the file are preserved."),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("The session ID"),
		),
		mcp.WithString("file_path",
			mcp.Required(),
			mcp.Description("The source file path"),
		),
		mcp.WithNumber("line_number",
			mcp.Required(),
			mcp.Description("The 1-based line number"),
		),
		mcp.WithString("condition",
			mcp.Description("Optional Python expression; the breakpoint only triggers when it evaluates truthy"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleSetBreakpoint)
}

func (s *Server) registerClearBreakpoint() {
	tool := mcp.NewTool("clear_breakpoint",
		mcp.WithDescription("Remove a single breakpoint. Other breakpoints, including those in the same file, are preserved."),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("The session ID"),
		),
		mcp.WithNumber("breakpoint_id",
			mcp.Required(),
			mcp.Description("The breakpoint ID (from set_breakpoint or list_breakpoints)"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleClearBreakpoint)
}

func (s *Server) registerContinueExecution() {
	tool := mcp.NewTool("continue_execution",
		mcp.WithDescription("Resume execution until the next breakpoint or program end. Returns immediately - use get_session_status to see when the session stops again."),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("The session ID"),
		),
		mcp.WithNumber("thread_id",
			mcp.Description("The thread ID to continue (default: 1)"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleContinueExecution)
}

func (s *Server) registerStepOver() {
	tool := mcp.NewTool("step_over",
		mcp.WithDescription("Execute the current line without entering function calls."),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("The session ID"),
		),
		mcp.WithNumber("thread_id",
			mcp.Description("The thread ID to step (default: 1)"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleStepOver)
}

func (s *Server) registerStepInto() {
	tool := mcp.NewTool("step_into",
		mcp.WithDescription("Step into the function called on the current line."),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("The session ID"),
		),
		mcp.WithNumber("thread_id",
			mcp.Description("The thread ID to step (default: 1)"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleStepInto)
}

func (s *Server) registerStepOut() {
	tool := mcp.NewTool("step_out",
		mcp.WithDescription("Run until the current function returns."),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("The session ID"),
		),
		mcp.WithNumber("thread_id",
			mcp.Description("The thread ID to step (default: 1)"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleStepOut)
}

func (s *Server) registerEvaluateExpression() {
	tool := mcp.NewTool("evaluate_expression",
		mcp.WithDescription("Evaluate a Python expression in the debugging context. Evaluation errors come back in the result, not as a tool error."),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("The session ID"),
		),
		mcp.WithString("expression",
			mcp.Required(),
			mcp.Description("The Python expression to evaluate (e.g., 'len(my_list)', 'x + y')"),
		),
		mcp.WithNumber("frame_id",
			mcp.Description("Stack frame ID for context (default: 0, the adapter's global context)"),
		),
		mcp.WithString("context",
			mcp.Description("Evaluation context: 'repl', 'watch', or 'hover' (default: 'repl')"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleEvaluateExpression)
}
