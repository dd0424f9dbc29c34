package debug

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/google/go-dap"
	"github.com/google/uuid"

	internaldap "github.com/pydbg/debugpy-mcp/internal/dap"
	"github.com/pydbg/debugpy-mcp/internal/errors"
	"github.com/pydbg/debugpy-mcp/pkg/types"
)

// stackTraceLevels bounds how many frames one stack trace request asks for
const stackTraceLevels = 20

// Registry owns every debug session. Sessions run their connections fully
// in parallel; the registry map itself is the only state they share.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	maxSessions    int
	sessionTimeout time.Duration
	dialOpts       internaldap.Options

	ctx    context.Context
	cancel context.CancelFunc
}

// NewRegistry creates a session registry. dialOpts apply to every
// connection the registry opens.
func NewRegistry(maxSessions int, sessionTimeout time.Duration, dialOpts internaldap.Options) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Registry{
		sessions:       make(map[string]*Session),
		maxSessions:    maxSessions,
		sessionTimeout: sessionTimeout,
		dialOpts:       dialOpts,
		ctx:            ctx,
		cancel:         cancel,
	}

	go r.cleanupLoop()

	return r
}

// cleanupLoop periodically removes sessions that outlived the session timeout
func (r *Registry) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.removeExpiredSessions()
		}
	}
}

func (r *Registry) removeExpiredSessions() {
	r.mu.Lock()
	var expired []*Session
	now := time.Now()
	for id, s := range r.sessions {
		if now.Sub(s.CreatedAt) > r.sessionTimeout {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		log.Printf("debug: session %s expired after %v", s.ID, r.sessionTimeout)
		r.teardown(s)
	}
}

// CreateSession allocates a new disconnected session record for a target
// listening at host:port. It does not connect.
func (r *Registry) CreateSession(host string, port int) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.sessions) >= r.maxSessions {
		return nil, errors.SessionLimitReached(r.maxSessions)
	}

	s := &Session{
		ID:        uuid.New().String(),
		Host:      host,
		Port:      port,
		CreatedAt: time.Now(),
		status:    types.SessionStatusCreated,
		hitCounts: make(map[int]int),
	}

	r.sessions[s.ID] = s
	log.Printf("debug: created session %s for %s:%d", s.ID, host, port)
	return s, nil
}

// ConnectSession opens the session's connection and runs the DAP attach
// handshake. Connecting an already connected (or currently connecting)
// session is an error: a second connect would leak the first socket.
func (r *Registry) ConnectSession(id string) error {
	s, err := r.get(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.connected || s.connecting {
		s.mu.Unlock()
		return errors.SessionAlreadyConnected(id)
	}
	s.connecting = true
	s.status = types.SessionStatusConnecting
	s.mu.Unlock()

	addr := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	conn, err := internaldap.Dial(addr, r.dialOpts)

	s.mu.Lock()
	s.connecting = false
	if err != nil {
		s.status = "connect_failed: " + errors.FromError(err).Message
		s.mu.Unlock()
		return err
	}
	s.conn = conn
	s.connected = true
	s.status = types.SessionStatusConnected
	s.mu.Unlock()

	r.wireEvents(s, conn)
	go r.watch(s, conn)

	log.Printf("debug: session %s connected to %s", s.ID, addr)
	return nil
}

// wireEvents registers the session's lifecycle callbacks on its connection
func (r *Registry) wireEvents(s *Session, conn *internaldap.Conn) {
	conn.OnEvent("stopped", func(body json.RawMessage) {
		var ev dap.StoppedEventBody
		if err := json.Unmarshal(body, &ev); err != nil {
			log.Printf("debug: malformed stopped event body: %v", err)
			return
		}
		s.mu.Lock()
		s.status = types.SessionStatusStopped
		for _, adapterID := range ev.HitBreakpointIds {
			if ourID, ok := s.adapterIndex[adapterID]; ok {
				s.hitCounts[ourID]++
			}
		}
		s.mu.Unlock()
	})

	conn.OnEvent("continued", func(json.RawMessage) {
		s.setStatus(types.SessionStatusRunning)
	})

	conn.OnEvent("terminated", func(json.RawMessage) {
		s.setStatus(types.SessionStatusTerminated)
	})

	conn.OnEvent("exited", func(body json.RawMessage) {
		var ev dap.ExitedEventBody
		if err := json.Unmarshal(body, &ev); err == nil {
			log.Printf("debug: session %s target exited with code %d", s.ID, ev.ExitCode)
		}
		s.setStatus(types.SessionStatusTerminated)
	})

	conn.OnEvent("process", func(body json.RawMessage) {
		var ev dap.ProcessEventBody
		if err := json.Unmarshal(body, &ev); err != nil {
			return
		}
		s.mu.Lock()
		s.pid = ev.SystemProcessId
		s.mu.Unlock()
	})
}

// watch marks the session disconnected once its receive loop exits, however
// that happened. Breakpoints do not survive the connection.
func (r *Registry) watch(s *Session, conn *internaldap.Conn) {
	<-conn.Done()

	s.mu.Lock()
	if s.conn == conn {
		s.conn = nil
		if s.connected {
			s.connected = false
			s.status = types.SessionStatusDisconnected
			log.Printf("debug: session %s lost its connection", s.ID)
		}
	}
	s.mu.Unlock()

	s.invalidateBreakpoints()
}

// DisconnectSession tears the session's connection down, best-effort. The
// session record survives, marked disconnected; its breakpoints do not.
func (r *Registry) DisconnectSession(id string) error {
	s, err := r.get(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.connected = false
	s.status = types.SessionStatusDisconnected
	s.mu.Unlock()

	if conn != nil {
		if err := conn.Close(); err != nil {
			log.Printf("debug: closing connection for session %s: %v (continuing)", id, err)
		}
	}
	s.invalidateBreakpoints()

	log.Printf("debug: session %s disconnected", id)
	return nil
}

// GetSession returns the session info for one session
func (r *Registry) GetSession(id string) (types.SessionInfo, error) {
	s, err := r.get(id)
	if err != nil {
		return types.SessionInfo{}, err
	}
	return s.Info(), nil
}

// ListSessions returns info for every session in the registry
func (r *Registry) ListSessions() []types.SessionInfo {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	infos := make([]types.SessionInfo, len(sessions))
	for i, s := range sessions {
		infos[i] = s.Info()
	}
	return infos
}

// SetBreakpoint adds a breakpoint and pushes the file's whole breakpoint set
// to the adapter. setBreakpoints is declarative per file, so the request
// always carries every breakpoint this session holds for that file.
func (r *Registry) SetBreakpoint(id, filePath string, line int, condition string) (*types.Breakpoint, error) {
	s, err := r.get(id)
	if err != nil {
		return nil, err
	}
	conn, err := s.liveConn()
	if err != nil {
		return nil, err
	}

	s.bpMu.Lock()
	defer s.bpMu.Unlock()

	var src []dap.SourceBreakpoint
	var fileIdx []int
	for i, bp := range s.breakpoints {
		if bp.FilePath != filePath || !bp.Enabled {
			continue
		}
		src = append(src, dap.SourceBreakpoint{Line: bp.Line, Condition: bp.Condition})
		fileIdx = append(fileIdx, i)
	}
	src = append(src, dap.SourceBreakpoint{Line: line, Condition: condition})

	verified, err := conn.SetBreakpoints(dap.Source{Path: filePath}, src)
	if err != nil {
		return nil, err
	}

	s.nextBPID++
	record := breakpointRecord{
		Breakpoint: types.Breakpoint{
			ID:        s.nextBPID,
			FilePath:  filePath,
			Line:      line,
			Condition: condition,
			Enabled:   true,
		},
	}
	s.breakpoints = append(s.breakpoints, record)
	fileIdx = append(fileIdx, len(s.breakpoints)-1)

	// Response entries align with the request order; refresh the
	// adapter ids and verified flags for every breakpoint in the file.
	for i, adapterBP := range verified {
		if i >= len(fileIdx) {
			break
		}
		rec := &s.breakpoints[fileIdx[i]]
		rec.adapterID = adapterBP.Id
		rec.Verified = adapterBP.Verified
	}
	s.storeAdapterIndex()

	bp := s.breakpoints[len(s.breakpoints)-1].Breakpoint
	log.Printf("debug: session %s set breakpoint %d at %s:%d", id, bp.ID, filePath, line)
	return &bp, nil
}

// ClearBreakpoint removes one breakpoint. Because setBreakpoints replaces
// the adapter's list for the file, the request resends the remaining
// breakpoints for that file; an empty list would silently drop the siblings.
func (r *Registry) ClearBreakpoint(id string, breakpointID int) error {
	s, err := r.get(id)
	if err != nil {
		return err
	}
	conn, err := s.liveConn()
	if err != nil {
		return err
	}

	s.bpMu.Lock()
	defer s.bpMu.Unlock()

	idx := -1
	for i, bp := range s.breakpoints {
		if bp.Breakpoint.ID == breakpointID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return errors.InvalidParameter("breakpointId", breakpointID,
			"an id returned by set_breakpoint; use list_breakpoints to see current ids")
	}

	target := s.breakpoints[idx]
	var remaining []dap.SourceBreakpoint
	var fileIdx []int
	for i, bp := range s.breakpoints {
		if i == idx || bp.FilePath != target.FilePath || !bp.Enabled {
			continue
		}
		remaining = append(remaining, dap.SourceBreakpoint{Line: bp.Line, Condition: bp.Condition})
		fileIdx = append(fileIdx, i)
	}

	verified, err := conn.SetBreakpoints(dap.Source{Path: target.FilePath}, remaining)
	if err != nil {
		return err
	}

	for i, adapterBP := range verified {
		if i >= len(fileIdx) {
			break
		}
		rec := &s.breakpoints[fileIdx[i]]
		rec.adapterID = adapterBP.Id
		rec.Verified = adapterBP.Verified
	}

	s.breakpoints = append(s.breakpoints[:idx], s.breakpoints[idx+1:]...)
	s.storeAdapterIndex()

	log.Printf("debug: session %s cleared breakpoint %d", id, breakpointID)
	return nil
}

// ListBreakpoints returns the session's breakpoints with current hit counts
func (r *Registry) ListBreakpoints(id string) ([]types.Breakpoint, error) {
	s, err := r.get(id)
	if err != nil {
		return nil, err
	}

	s.bpMu.Lock()
	defer s.bpMu.Unlock()

	s.mu.RLock()
	hits := make(map[int]int, len(s.hitCounts))
	for k, v := range s.hitCounts {
		hits[k] = v
	}
	s.mu.RUnlock()

	out := make([]types.Breakpoint, len(s.breakpoints))
	for i, rec := range s.breakpoints {
		bp := rec.Breakpoint
		bp.HitCount = hits[bp.ID]
		out[i] = bp
	}
	return out, nil
}

// ContinueExecution resumes the given thread. Returns whether the adapter
// resumed all threads.
func (r *Registry) ContinueExecution(id string, threadID int) (bool, error) {
	s, err := r.get(id)
	if err != nil {
		return false, err
	}
	conn, err := s.liveConn()
	if err != nil {
		return false, err
	}

	all, err := conn.Continue(threadID)
	if err != nil {
		return false, err
	}
	s.setStatus(types.SessionStatusRunning)
	return all, nil
}

// StepOver executes the current line without entering calls
func (r *Registry) StepOver(id string, threadID int) error {
	return r.step(id, threadID, func(conn *internaldap.Conn) error { return conn.Next(threadID) })
}

// StepInto enters the function called on the current line
func (r *Registry) StepInto(id string, threadID int) error {
	return r.step(id, threadID, func(conn *internaldap.Conn) error { return conn.StepIn(threadID) })
}

// StepOut runs until the current function returns
func (r *Registry) StepOut(id string, threadID int) error {
	return r.step(id, threadID, func(conn *internaldap.Conn) error { return conn.StepOut(threadID) })
}

func (r *Registry) step(id string, threadID int, op func(*internaldap.Conn) error) error {
	s, err := r.get(id)
	if err != nil {
		return err
	}
	conn, err := s.liveConn()
	if err != nil {
		return err
	}
	return op(conn)
}

// GetStackTrace returns the current call stack for a thread. Frame ids are
// only valid for the current stopped state and must not be cached across a
// continue or step.
func (r *Registry) GetStackTrace(id string, threadID int) ([]types.StackFrame, error) {
	s, err := r.get(id)
	if err != nil {
		return nil, err
	}
	conn, err := s.liveConn()
	if err != nil {
		return nil, err
	}

	frames, _, err := conn.StackTrace(threadID, 0, stackTraceLevels)
	if err != nil {
		return nil, err
	}

	out := make([]types.StackFrame, len(frames))
	for i, f := range frames {
		frame := types.StackFrame{
			ID:     f.Id,
			Name:   f.Name,
			Line:   f.Line,
			Column: f.Column,
		}
		if f.Source != nil {
			frame.FilePath = f.Source.Path
		}
		out[i] = frame
	}
	return out, nil
}

// GetVariables returns the variables visible in a stack frame, every scope
// expanded and aggregated, each variable tagged with its scope name.
func (r *Registry) GetVariables(id string, frameID int) ([]types.Variable, error) {
	s, err := r.get(id)
	if err != nil {
		return nil, err
	}
	conn, err := s.liveConn()
	if err != nil {
		return nil, err
	}

	scopes, err := conn.Scopes(frameID)
	if err != nil {
		return nil, err
	}

	var out []types.Variable
	for _, scope := range scopes {
		if scope.VariablesReference == 0 {
			continue
		}
		vars, err := conn.Variables(scope.VariablesReference)
		if err != nil {
			return nil, err
		}
		for _, v := range vars {
			out = append(out, types.Variable{
				Name:       v.Name,
				Value:      v.Value,
				Type:       v.Type,
				Scope:      scope.Name,
				Expandable: v.VariablesReference > 0,
			})
		}
	}
	return out, nil
}

// EvaluateExpression evaluates an expression in the debugging context.
// Adapter-side evaluation failures come back as an error-flagged result, not
// a Go error; connection-level failures still return an error.
func (r *Registry) EvaluateExpression(id, expression string, frameID int, context string) (*types.ExpressionResult, error) {
	s, err := r.get(id)
	if err != nil {
		return nil, err
	}
	conn, err := s.liveConn()
	if err != nil {
		return nil, err
	}

	if context == "" {
		context = "repl"
	}

	body, err := conn.Evaluate(expression, frameID, context)
	if err != nil {
		if errors.CodeOf(err) == errors.CodeAdapterError {
			return &types.ExpressionResult{
				Expression:   expression,
				Type:         "error",
				IsError:      true,
				ErrorMessage: errors.FromError(err).Message,
			}, nil
		}
		return nil, err
	}

	return &types.ExpressionResult{
		Expression: expression,
		Result:     body.Result,
		Type:       body.Type,
	}, nil
}

func (r *Registry) get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, errors.SessionNotFound(id)
	}
	return s, nil
}

// teardown closes a session's connection outside of any registry lock
func (r *Registry) teardown(s *Session) {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.connected = false
	s.status = types.SessionStatusDisconnected
	s.mu.Unlock()

	if conn != nil {
		if err := conn.Close(); err != nil {
			log.Printf("debug: closing connection for session %s during cleanup: %v", s.ID, err)
		}
	}
	s.invalidateBreakpoints()
}

// Close shuts down the registry and disconnects every session
func (r *Registry) Close() {
	r.cancel()

	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for id, s := range r.sessions {
		sessions = append(sessions, s)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		r.teardown(s)
	}
}
