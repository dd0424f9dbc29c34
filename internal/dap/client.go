package dap

import (
	"encoding/json"
	"fmt"

	"github.com/google/go-dap"
)

// Initialize sends the initialize request and records the adapter's
// capabilities on success.
func (c *Conn) Initialize(clientID, clientName string) (*dap.Capabilities, error) {
	args := dap.InitializeRequestArguments{
		ClientID:                     clientID,
		ClientName:                   clientName,
		AdapterID:                    "debugpy",
		Locale:                       "en-US",
		LinesStartAt1:                true,
		ColumnsStartAt1:              true,
		PathFormat:                   "path",
		SupportsVariableType:         true,
		SupportsVariablePaging:       true,
		SupportsRunInTerminalRequest: false,
	}

	body, err := c.roundTrip("initialize", args)
	if err != nil {
		return nil, err
	}

	var caps dap.Capabilities
	if len(body) > 0 {
		if err := json.Unmarshal(body, &caps); err != nil {
			return nil, fmt.Errorf("failed to parse initialize response body: %w", err)
		}
	}
	c.capabilities = caps

	return &caps, nil
}

// ConfigurationDone signals that configuration is complete
func (c *Conn) ConfigurationDone() error {
	_, err := c.roundTrip("configurationDone", dap.ConfigurationDoneArguments{})
	return err
}

// SetBreakpoints replaces the breakpoint list for one source file. The
// command is declarative per file, not incremental: whatever is sent here is
// the complete set the adapter keeps for that file afterwards.
func (c *Conn) SetBreakpoints(source dap.Source, breakpoints []dap.SourceBreakpoint) ([]dap.Breakpoint, error) {
	args := dap.SetBreakpointsArguments{
		Source:      source,
		Breakpoints: breakpoints,
	}

	body, err := c.roundTrip("setBreakpoints", args)
	if err != nil {
		return nil, err
	}

	var resp dap.SetBreakpointsResponseBody
	if len(body) > 0 {
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("failed to parse setBreakpoints response body: %w", err)
		}
	}
	return resp.Breakpoints, nil
}

// Continue resumes execution of a thread. Returns whether the adapter
// resumed all threads.
func (c *Conn) Continue(threadID int) (bool, error) {
	body, err := c.roundTrip("continue", dap.ContinueArguments{ThreadId: threadID})
	if err != nil {
		return false, err
	}

	var resp dap.ContinueResponseBody
	if len(body) > 0 {
		if err := json.Unmarshal(body, &resp); err != nil {
			return false, fmt.Errorf("failed to parse continue response body: %w", err)
		}
	}
	return resp.AllThreadsContinued, nil
}

// Next steps over the current line
func (c *Conn) Next(threadID int) error {
	_, err := c.roundTrip("next", dap.NextArguments{ThreadId: threadID})
	return err
}

// StepIn steps into the current function call
func (c *Conn) StepIn(threadID int) error {
	_, err := c.roundTrip("stepIn", dap.StepInArguments{ThreadId: threadID})
	return err
}

// StepOut steps out of the current function
func (c *Conn) StepOut(threadID int) error {
	_, err := c.roundTrip("stepOut", dap.StepOutArguments{ThreadId: threadID})
	return err
}

// StackTrace gets the stack trace for a thread
func (c *Conn) StackTrace(threadID, startFrame, levels int) ([]dap.StackFrame, int, error) {
	args := dap.StackTraceArguments{
		ThreadId:   threadID,
		StartFrame: startFrame,
		Levels:     levels,
	}

	body, err := c.roundTrip("stackTrace", args)
	if err != nil {
		return nil, 0, err
	}

	var resp dap.StackTraceResponseBody
	if len(body) > 0 {
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, 0, fmt.Errorf("failed to parse stackTrace response body: %w", err)
		}
	}
	return resp.StackFrames, resp.TotalFrames, nil
}

// Scopes gets the scopes for a stack frame
func (c *Conn) Scopes(frameID int) ([]dap.Scope, error) {
	body, err := c.roundTrip("scopes", dap.ScopesArguments{FrameId: frameID})
	if err != nil {
		return nil, err
	}

	var resp dap.ScopesResponseBody
	if len(body) > 0 {
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("failed to parse scopes response body: %w", err)
		}
	}
	return resp.Scopes, nil
}

// Variables gets variables for a reference
func (c *Conn) Variables(variablesRef int) ([]dap.Variable, error) {
	body, err := c.roundTrip("variables", dap.VariablesArguments{VariablesReference: variablesRef})
	if err != nil {
		return nil, err
	}

	var resp dap.VariablesResponseBody
	if len(body) > 0 {
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("failed to parse variables response body: %w", err)
		}
	}
	return resp.Variables, nil
}

// Evaluate evaluates an expression in the given frame and context.
// Adapter-side failures surface as AdapterError; the caller decides how to
// present them.
func (c *Conn) Evaluate(expression string, frameID int, context string) (*dap.EvaluateResponseBody, error) {
	args := dap.EvaluateArguments{
		Expression: expression,
		FrameId:    frameID,
		Context:    context,
	}

	body, err := c.roundTrip("evaluate", args)
	if err != nil {
		return nil, err
	}

	var resp dap.EvaluateResponseBody
	if len(body) > 0 {
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("failed to parse evaluate response body: %w", err)
		}
	}
	return &resp, nil
}

// Threads gets all threads
func (c *Conn) Threads() ([]dap.Thread, error) {
	body, err := c.roundTrip("threads", nil)
	if err != nil {
		return nil, err
	}

	var resp dap.ThreadsResponseBody
	if len(body) > 0 {
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("failed to parse threads response body: %w", err)
		}
	}
	return resp.Threads, nil
}

// Capabilities returns the capabilities reported by initialize
func (c *Conn) Capabilities() dap.Capabilities {
	return c.capabilities
}
