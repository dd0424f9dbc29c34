package dap

import "encoding/json"

// requestEnvelope is the outbound request wire shape. Arguments are
// marshaled by the caller so any go-dap arguments struct (or none) fits.
type requestEnvelope struct {
	Seq       int             `json:"seq"`
	Type      string          `json:"type"`
	Command   string          `json:"command"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Envelope is the demultiplexing view of one inbound message. Type
// discriminates responses from events; responses are matched purely by
// RequestSeq, the command name is not re-checked.
type Envelope struct {
	Seq        int             `json:"seq"`
	Type       string          `json:"type"`
	Command    string          `json:"command,omitempty"`
	RequestSeq int             `json:"request_seq,omitempty"`
	Success    bool            `json:"success,omitempty"`
	Message    string          `json:"message,omitempty"`
	Event      string          `json:"event,omitempty"`
	Body       json.RawMessage `json:"body,omitempty"`
}

const (
	typeRequest  = "request"
	typeResponse = "response"
	typeEvent    = "event"
)
