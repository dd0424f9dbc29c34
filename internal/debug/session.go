// Package debug implements the debugging bridge: a registry of sessions,
// each owning at most one DAP connection, plus the per-session breakpoint
// store and the high-level operations the tool layer calls into.
package debug

import (
	"sync"
	"time"

	internaldap "github.com/pydbg/debugpy-mcp/internal/dap"
	"github.com/pydbg/debugpy-mcp/internal/errors"
	"github.com/pydbg/debugpy-mcp/pkg/types"
)

// Session is one logical debugging connection to a target, independent of
// the underlying socket's lifecycle. A session owns its connection
// exclusively and never shares it.
type Session struct {
	ID        string
	Host      string
	Port      int
	CreatedAt time.Time

	// mu guards the mutable fields below. It is never held across a
	// network round-trip, so event callbacks running on the receive loop
	// can always make progress.
	mu           sync.RWMutex
	conn         *internaldap.Conn
	connected    bool
	connecting   bool
	status       types.SessionStatus
	pid          int
	hitCounts    map[int]int // breakpoint id -> hits
	adapterIndex map[int]int // adapter-assigned breakpoint id -> our id

	// bpMu serializes breakpoint mutations, including the setBreakpoints
	// round-trip. Event callbacks never take it.
	bpMu        sync.Mutex
	breakpoints []breakpointRecord
	nextBPID    int
}

// breakpointRecord pairs the externally visible breakpoint with the id the
// adapter assigned to it in the last setBreakpoints response.
type breakpointRecord struct {
	types.Breakpoint
	adapterID int
}

// Info returns the externally visible view of the session
func (s *Session) Info() types.SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return types.SessionInfo{
		SessionID: s.ID,
		Host:      s.Host,
		Port:      s.Port,
		Connected: s.connected,
		Status:    s.status,
		PID:       s.pid,
	}
}

// liveConn returns the session's connection, or SessionNotConnected
func (s *Session) liveConn() (*internaldap.Conn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.connected || s.conn == nil {
		return nil, errors.SessionNotConnected(s.ID)
	}
	return s.conn, nil
}

func (s *Session) setStatus(status types.SessionStatus) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

// storeAdapterIndex publishes the adapter-id mapping rebuilt after a
// breakpoint mutation so the stopped-event callback can resolve hit ids
// without touching bpMu.
func (s *Session) storeAdapterIndex() {
	index := make(map[int]int, len(s.breakpoints))
	for _, bp := range s.breakpoints {
		if bp.adapterID != 0 {
			index[bp.adapterID] = bp.Breakpoint.ID
		}
	}
	s.mu.Lock()
	s.adapterIndex = index
	s.mu.Unlock()
}

// invalidateBreakpoints drops the session's breakpoint collection. The ids
// are not reused; the counter keeps climbing for the session's lifetime.
func (s *Session) invalidateBreakpoints() {
	s.bpMu.Lock()
	s.breakpoints = nil
	s.bpMu.Unlock()

	s.mu.Lock()
	s.hitCounts = make(map[int]int)
	s.adapterIndex = nil
	s.mu.Unlock()
}
