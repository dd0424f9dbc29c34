// Package dap implements a client for the Debug Adapter Protocol (DAP).
//
// DAP is a length-framed JSON request/response/event protocol used to
// control a running debuggee from a debugging client. This package provides:
//   - WriteMessage / Decoder: Content-Length framing over a byte stream
//   - Conn: one adapter connection owning the socket, the background receive
//     loop, the request/response correlator, and per-event-name callbacks
//   - High-level DAP operations (Initialize, SetBreakpoints, StackTrace, ...)
//
// The protocol is described at: https://microsoft.github.io/debug-adapter-protocol/
package dap

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pydbg/debugpy-mcp/internal/errors"
)

const contentLengthHeader = "Content-Length"

// maxContentLength bounds the body size a frame may declare. Real DAP bodies
// top out far below this; a larger declared length means a garbled or
// hostile header, not a message worth allocating for.
const maxContentLength = 8 << 20

// WriteMessage frames body onto w: an ASCII header line declaring the exact
// byte length of body, a blank line, then the body. No trailing delimiter.
func WriteMessage(w io.Writer, body []byte) error {
	if _, err := fmt.Fprintf(w, "%s: %d\r\n\r\n", contentLengthHeader, len(body)); err != nil {
		return fmt.Errorf("failed to write DAP header: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("failed to write DAP body: %w", err)
	}
	return nil
}

// Decoder turns a raw byte stream into discrete message bodies. It buffers
// partial frames across reads, so headers and bodies may arrive split at
// arbitrary points. The decoder does not parse the JSON bodies it returns;
// a malformed body is the caller's to drop, and decoding continues from the
// remaining buffered bytes.
type Decoder struct {
	r *bufio.Reader
}

// NewDecoder creates a decoder reading frames from r
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next blocks until one complete message body is available and returns it.
// Header lines other than Content-Length are skipped. A header block without
// a parseable Content-Length yields a ProtocolError; the stream position is
// then at the start of the undeclared body, so the connection is no longer
// frame-aligned and the caller should treat repeated failures as fatal.
func (d *Decoder) Next() ([]byte, error) {
	length := -1
	for {
		line, err := d.readLine()
		if err != nil {
			return nil, err
		}
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(name), contentLengthHeader) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 {
			return nil, errors.ProtocolError(fmt.Sprintf("unparseable %s %q", contentLengthHeader, strings.TrimSpace(value)), err)
		}
		if n > maxContentLength {
			return nil, errors.ProtocolError(fmt.Sprintf("%s %d exceeds the %d byte limit", contentLengthHeader, n, maxContentLength), nil)
		}
		length = n
	}
	if length < 0 {
		return nil, errors.ProtocolError("header block missing "+contentLengthHeader, nil)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(d.r, body); err != nil {
		return nil, err
	}
	return body, nil
}

// readLine reads one \r\n-terminated header line. bufio carries partial
// lines across reads, so a header split over multiple packets is fine.
func (d *Decoder) readLine() (string, error) {
	line, err := d.r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
