package dap

import (
	"bufio"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"time"

	"github.com/google/go-dap"

	"github.com/pydbg/debugpy-mcp/internal/errors"
)

// State names one phase of a connection's lifecycle
type State string

const (
	StateDisconnected  State = "disconnected"
	StateConnecting    State = "connecting"
	StateInitialized   State = "initialized"
	StateReady         State = "ready"
	StateDisconnecting State = "disconnecting"
)

const (
	// DefaultRequestTimeout bounds the wait for a correlated response
	DefaultRequestTimeout = 10 * time.Second

	// DefaultConnectTimeout bounds the TCP dial
	DefaultConnectTimeout = 30 * time.Second

	// receiveJoinTimeout bounds the wait for the receive loop on Close
	receiveJoinTimeout = 2 * time.Second

	// maxConsecutiveDecodeErrors stops the receive loop once the stream
	// can no longer be assumed frame-aligned
	maxConsecutiveDecodeErrors = 5
)

// EventHandler receives the body of one DAP event. Handlers run
// synchronously on the receive loop, so a slow handler delays processing
// of subsequent frames on that connection.
type EventHandler func(body json.RawMessage)

// lifecycleEvents are logged whether or not a handler is registered
var lifecycleEvents = map[string]bool{
	"stopped":    true,
	"continued":  true,
	"terminated": true,
	"exited":     true,
}

// Options configure Dial. Zero values fall back to defaults.
type Options struct {
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
	ClientID       string
	ClientName     string
}

// Conn owns one socket speaking DAP to a single debug adapter. The receive
// loop is the sole reader of the socket; writers serialize through writeMu
// so a half-written frame is never observable on the wire.
type Conn struct {
	sock net.Conn

	writeMu sync.Mutex
	w       *bufio.Writer

	mu      sync.Mutex // guards seq and pending
	seq     int
	pending map[int]chan *Envelope

	handlerMu sync.Mutex
	handlers  map[string]EventHandler

	stateMu sync.Mutex
	state   State

	timeout      time.Duration
	capabilities dap.Capabilities

	done chan struct{} // closed when the receive loop exits
}

func newConn(sock net.Conn, timeout time.Duration) *Conn {
	return &Conn{
		sock:     sock,
		w:        bufio.NewWriter(sock),
		seq:      1,
		pending:  make(map[int]chan *Envelope),
		handlers: make(map[string]EventHandler),
		state:    StateConnecting,
		timeout:  timeout,
		done:     make(chan struct{}),
	}
}

// Dial connects to a DAP adapter at address and performs the attach
// handshake: initialize, then configurationDone once initialize has
// succeeded. Handshake failure closes the socket and reports
// ConnectionFailed with the underlying cause.
func Dial(address string, opts Options) (*Conn, error) {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	if opts.ClientID == "" {
		opts.ClientID = "debugpy-mcp"
	}
	if opts.ClientName == "" {
		opts.ClientName = "Debugpy MCP Server"
	}

	sock, err := net.DialTimeout("tcp", address, opts.ConnectTimeout)
	if err != nil {
		return nil, errors.ConnectionFailed(address, err)
	}

	c := newConn(sock, opts.RequestTimeout)
	go c.readLoop()

	if _, err := c.Initialize(opts.ClientID, opts.ClientName); err != nil {
		c.abort()
		return nil, errors.ConnectionFailed(address, err)
	}
	c.setState(StateInitialized)

	// debugpy attaches on its own once initialized; configurationDone
	// completes the handshake.
	if err := c.ConfigurationDone(); err != nil {
		c.abort()
		return nil, errors.ConnectionFailed(address, err)
	}
	c.setState(StateReady)

	return c, nil
}

// readLoop reads and decodes frames until the peer closes the socket or the
// stream becomes unreadable. Every frame is either a response resolved
// through the pending map or an event dispatched to its handler; frames on
// one connection are processed strictly in arrival order.
func (c *Conn) readLoop() {
	defer func() {
		c.mu.Lock()
		inflight := len(c.pending)
		c.pending = make(map[int]chan *Envelope)
		c.mu.Unlock()
		if inflight > 0 {
			log.Printf("dap: connection lost with %d requests in flight", inflight)
		}
		if c.State() != StateDisconnecting {
			c.setState(StateDisconnected)
		}
		close(c.done)
	}()

	dec := NewDecoder(c.sock)
	consecutiveErrors := 0

	for {
		body, err := dec.Next()
		if err != nil {
			if isClosedErr(err) {
				return
			}
			if errors.CodeOf(err) == errors.CodeProtocolError {
				consecutiveErrors++
				log.Printf("dap: dropping malformed frame (%d/%d): %v", consecutiveErrors, maxConsecutiveDecodeErrors, err)
				if consecutiveErrors >= maxConsecutiveDecodeErrors {
					log.Printf("dap: stream no longer frame-aligned, closing connection")
					return
				}
				continue
			}
			log.Printf("dap: read error: %v", err)
			return
		}

		var env Envelope
		if err := json.Unmarshal(body, &env); err != nil {
			// One bad body does not terminate the stream.
			log.Printf("dap: dropping message with malformed JSON body: %v", err)
			continue
		}
		consecutiveErrors = 0
		c.handle(&env)
	}
}

func (c *Conn) handle(env *Envelope) {
	switch env.Type {
	case typeResponse:
		c.mu.Lock()
		ch, ok := c.pending[env.RequestSeq]
		if ok {
			delete(c.pending, env.RequestSeq)
		}
		c.mu.Unlock()
		if !ok {
			// Late response for a request that already timed out.
			log.Printf("dap: discarding response for unknown request_seq %d", env.RequestSeq)
			return
		}
		ch <- env
	case typeEvent:
		c.dispatchEvent(env)
	default:
		log.Printf("dap: ignoring message of type %q", env.Type)
	}
}

func (c *Conn) dispatchEvent(env *Envelope) {
	if lifecycleEvents[env.Event] {
		log.Printf("dap: event %s: %s", env.Event, compactBody(env.Body))
	}
	c.handlerMu.Lock()
	handler := c.handlers[env.Event]
	c.handlerMu.Unlock()
	if handler != nil {
		handler(env.Body)
	}
}

// OnEvent registers the callback for one event name. At most one callback is
// held per name; a later registration replaces the earlier one. Events with
// no handler are ignored apart from lifecycle logging.
func (c *Conn) OnEvent(name string, handler EventHandler) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.handlers[name] = handler
}

// RoundTrip sends one request and blocks until the correlated response
// arrives, the request timeout elapses, or the connection dies. Any number
// of callers may have requests in flight concurrently; responses are matched
// by request_seq alone, so arrival order does not matter.
func (c *Conn) RoundTrip(command string, args interface{}) (*Envelope, error) {
	var raw json.RawMessage
	if args != nil {
		data, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s arguments: %w", command, err)
		}
		raw = data
	}

	c.mu.Lock()
	seq := c.seq
	c.seq++
	ch := make(chan *Envelope, 1)
	c.pending[seq] = ch
	c.mu.Unlock()

	data, err := json.Marshal(requestEnvelope{Seq: seq, Type: typeRequest, Command: command, Arguments: raw})
	if err != nil {
		c.removeWaiter(seq)
		return nil, fmt.Errorf("failed to marshal %s request: %w", command, err)
	}

	c.writeMu.Lock()
	err = WriteMessage(c.w, data)
	if err == nil {
		err = c.w.Flush()
	}
	c.writeMu.Unlock()
	if err != nil {
		c.removeWaiter(seq)
		return nil, fmt.Errorf("failed to send %s request: %w", command, err)
	}

	select {
	case resp := <-ch:
		return resp, nil
	case <-time.After(c.timeout):
		c.removeWaiter(seq)
		return nil, errors.Timeout(command, int(c.timeout/time.Second))
	case <-c.done:
		// The response may already sit in the waiter's buffer when the
		// connection dies; prefer it over reporting a lost connection.
		select {
		case resp := <-ch:
			return resp, nil
		default:
		}
		return nil, errors.ConnectionLost(command)
	}
}

// roundTrip sends command and returns the response body, converting an
// unsuccessful response into an AdapterError.
func (c *Conn) roundTrip(command string, args interface{}) (json.RawMessage, error) {
	env, err := c.RoundTrip(command, args)
	if err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, errors.AdapterError(command, env.Message)
	}
	return env.Body, nil
}

func (c *Conn) removeWaiter(seq int) {
	c.mu.Lock()
	delete(c.pending, seq)
	c.mu.Unlock()
}

// State returns the current lifecycle state
func (c *Conn) State() State {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.state
}

func (c *Conn) setState(s State) {
	c.stateMu.Lock()
	c.state = s
	c.stateMu.Unlock()
}

// Done is closed when the receive loop has exited, i.e. the connection is
// gone for good. Pending requests resolve with ConnectionLost at that point.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Close ends the session: a best-effort disconnect request (failure is
// logged, never propagated), then the socket is closed regardless, then a
// bounded join of the receive loop.
func (c *Conn) Close() error {
	c.setState(StateDisconnecting)

	select {
	case <-c.done:
		// Receive loop already gone; nothing to disconnect politely.
	default:
		if _, err := c.RoundTrip("disconnect", dap.DisconnectArguments{}); err != nil {
			log.Printf("dap: disconnect request failed: %v (closing socket anyway)", err)
		}
	}

	err := c.sock.Close()

	select {
	case <-c.done:
	case <-time.After(receiveJoinTimeout):
		log.Printf("dap: receive loop did not exit within %v", receiveJoinTimeout)
	}

	c.setState(StateDisconnected)
	return err
}

// abort tears down a connection whose handshake failed
func (c *Conn) abort() {
	if err := c.sock.Close(); err != nil {
		log.Printf("dap: closing socket after failed handshake: %v", err)
	}
	select {
	case <-c.done:
	case <-time.After(receiveJoinTimeout):
	}
	c.setState(StateDisconnected)
}

func isClosedErr(err error) bool {
	return err == io.EOF ||
		stderrors.Is(err, io.ErrUnexpectedEOF) ||
		stderrors.Is(err, net.ErrClosed)
}

func compactBody(body json.RawMessage) string {
	if len(body) == 0 {
		return "{}"
	}
	return string(body)
}
