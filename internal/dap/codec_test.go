package dap

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/pydbg/debugpy-mcp/internal/errors"
)

// TestWriteMessage verifies the exact frame layout: header, blank line, body,
// no trailing delimiter.
func TestWriteMessage(t *testing.T) {
	var buf bytes.Buffer
	body := []byte(`{"seq":1,"type":"request","command":"initialize"}`)

	if err := WriteMessage(&buf, body); err != nil {
		t.Fatalf("WriteMessage failed: %v", err)
	}

	want := fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(body), body)
	if buf.String() != want {
		t.Errorf("frame mismatch:\ngot  %q\nwant %q", buf.String(), want)
	}
}

// TestWriteMessage_EmptyBody verifies a zero-length body is framed with
// Content-Length: 0.
func TestWriteMessage_EmptyBody(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMessage(&buf, nil); err != nil {
		t.Fatalf("WriteMessage failed: %v", err)
	}
	if buf.String() != "Content-Length: 0\r\n\r\n" {
		t.Errorf("unexpected frame: %q", buf.String())
	}
}

// TestDecoder_SingleMessage verifies one frame decodes to its body.
func TestDecoder_SingleMessage(t *testing.T) {
	body := `{"seq":1,"type":"event","event":"stopped"}`
	stream := fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(body), body)

	dec := NewDecoder(strings.NewReader(stream))
	got, err := dec.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if string(got) != body {
		t.Errorf("got body %q, want %q", got, body)
	}

	if _, err := dec.Next(); err != io.EOF {
		t.Errorf("expected io.EOF after last frame, got %v", err)
	}
}

// TestDecoder_MultipleMessages verifies back-to-back frames decode in order.
func TestDecoder_MultipleMessages(t *testing.T) {
	bodies := []string{
		`{"seq":1,"type":"response","request_seq":1,"success":true}`,
		`{"seq":2,"type":"event","event":"continued"}`,
		`{"seq":3,"type":"response","request_seq":2,"success":false}`,
	}

	var stream bytes.Buffer
	for _, b := range bodies {
		if err := WriteMessage(&stream, []byte(b)); err != nil {
			t.Fatalf("WriteMessage failed: %v", err)
		}
	}

	dec := NewDecoder(&stream)
	for i, want := range bodies {
		got, err := dec.Next()
		if err != nil {
			t.Fatalf("Next %d failed: %v", i, err)
		}
		if string(got) != want {
			t.Errorf("message %d: got %q, want %q", i, got, want)
		}
	}
}

// chunkReader returns at most one byte per Read call, forcing the decoder to
// reassemble headers and bodies split at every possible point.
type chunkReader struct {
	data []byte
	pos  int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	p[0] = r.data[r.pos]
	r.pos++
	return 1, nil
}

// TestDecoder_FragmentedStream verifies reassembly when bytes trickle in one
// at a time.
func TestDecoder_FragmentedStream(t *testing.T) {
	bodies := []string{
		`{"seq":1,"type":"event","event":"output","body":{"output":"hi"}}`,
		`{"seq":2,"type":"response","request_seq":1,"success":true}`,
	}

	var stream bytes.Buffer
	for _, b := range bodies {
		if err := WriteMessage(&stream, []byte(b)); err != nil {
			t.Fatalf("WriteMessage failed: %v", err)
		}
	}

	dec := NewDecoder(&chunkReader{data: stream.Bytes()})
	for i, want := range bodies {
		got, err := dec.Next()
		if err != nil {
			t.Fatalf("Next %d failed: %v", i, err)
		}
		if string(got) != want {
			t.Errorf("message %d: got %q, want %q", i, got, want)
		}
	}
}

// TestDecoder_SkipsUnknownHeaders verifies extra header lines are ignored.
func TestDecoder_SkipsUnknownHeaders(t *testing.T) {
	body := `{"seq":1,"type":"event","event":"exited"}`
	stream := fmt.Sprintf("Content-Type: application/json\r\nContent-Length: %d\r\n\r\n%s", len(body), body)

	dec := NewDecoder(strings.NewReader(stream))
	got, err := dec.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if string(got) != body {
		t.Errorf("got body %q, want %q", got, body)
	}
}

// TestDecoder_CaseInsensitiveHeader verifies header name matching ignores case.
func TestDecoder_CaseInsensitiveHeader(t *testing.T) {
	body := `{}`
	stream := fmt.Sprintf("content-length: %d\r\n\r\n%s", len(body), body)

	dec := NewDecoder(strings.NewReader(stream))
	got, err := dec.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if string(got) != body {
		t.Errorf("got body %q, want %q", got, body)
	}
}

// TestDecoder_MissingContentLength verifies a header block without
// Content-Length is a protocol error.
func TestDecoder_MissingContentLength(t *testing.T) {
	dec := NewDecoder(strings.NewReader("Content-Type: application/json\r\n\r\n{}"))
	_, err := dec.Next()
	if errors.CodeOf(err) != errors.CodeProtocolError {
		t.Errorf("expected PROTOCOL_ERROR, got %v", err)
	}
}

// TestDecoder_UnparseableContentLength verifies a garbage length value is a
// protocol error.
func TestDecoder_UnparseableContentLength(t *testing.T) {
	dec := NewDecoder(strings.NewReader("Content-Length: banana\r\n\r\n{}"))
	_, err := dec.Next()
	if errors.CodeOf(err) != errors.CodeProtocolError {
		t.Errorf("expected PROTOCOL_ERROR, got %v", err)
	}
}

// TestDecoder_OversizedContentLength verifies an absurd declared length is
// rejected as a protocol error instead of being allocated.
func TestDecoder_OversizedContentLength(t *testing.T) {
	dec := NewDecoder(strings.NewReader("Content-Length: 9999999999\r\n\r\n{}"))
	_, err := dec.Next()
	if errors.CodeOf(err) != errors.CodeProtocolError {
		t.Errorf("expected PROTOCOL_ERROR, got %v", err)
	}
}

// TestDecoder_TruncatedBody verifies a body shorter than declared surfaces as
// a read error, not a short body.
func TestDecoder_TruncatedBody(t *testing.T) {
	dec := NewDecoder(strings.NewReader("Content-Length: 100\r\n\r\n{\"short\":true}"))
	_, err := dec.Next()
	if err != io.ErrUnexpectedEOF {
		t.Errorf("expected io.ErrUnexpectedEOF, got %v", err)
	}
}
