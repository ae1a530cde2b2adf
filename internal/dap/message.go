// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package dap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/google/go-dap"
)

// MessageType is the value of the "type" field of every protocol message.
type MessageType string

const (
	MessageTypeRequest  MessageType = "request"
	MessageTypeResponse MessageType = "response"
	MessageTypeEvent    MessageType = "event"
)

// Message is implemented by *Request, *Response and *Event.
type Message interface {
	GetSeq() int
	MessageType() MessageType
}

// ProtocolMessage is the part of the envelope shared by all message kinds.
type ProtocolMessage struct {
	Seq  int         `json:"seq"`
	Type MessageType `json:"type"`
}

func (m *ProtocolMessage) GetSeq() int {
	return m.Seq
}

func (m *ProtocolMessage) MessageType() MessageType {
	return m.Type
}

func (m *ProtocolMessage) setSeq(seq int) {
	m.Seq = seq
}

// outboundMessage is a message whose sequence number is assigned when it is queued for write.
type outboundMessage interface {
	Message
	setSeq(seq int)
}

// Request is a command sent by one peer that expects a Response from the other.
type Request struct {
	ProtocolMessage
	Command   string          `json:"command"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Response answers the Request whose seq equals RequestSeq.
type Response struct {
	ProtocolMessage
	RequestSeq int             `json:"request_seq"`
	Success    bool            `json:"success"`
	Command    string          `json:"command"`
	Message    string          `json:"message,omitempty"`
	Body       json.RawMessage `json:"body,omitempty"`

	// Set by DecodeMessage when the peer sent an explicitly empty command.
	commandPresent bool
}

// CommandPresent reports whether the command field was present on the wire.
// Responses built locally always report true.
func (r *Response) CommandPresent() bool {
	return r.commandPresent || r.Command != ""
}

// ErrorResponseBody is the body of a failed Response that carries structured error detail.
type ErrorResponseBody struct {
	Error *dap.ErrorMessage `json:"error,omitempty"`
}

// ErrorDetail extracts the structured error of a failed response, if present.
func (r *Response) ErrorDetail() *dap.ErrorMessage {
	if r.Success || len(r.Body) == 0 {
		return nil
	}

	var body ErrorResponseBody
	if err := json.Unmarshal(r.Body, &body); err != nil {
		return nil
	}
	return body.Error
}

// Event is an unsolicited notification.
type Event struct {
	ProtocolMessage
	Event string          `json:"event"`
	Body  json.RawMessage `json:"body,omitempty"`
}

// wireResponse mirrors Response but keeps the command optional, so a missing field can be told
// apart from an empty one.
type wireResponse struct {
	ProtocolMessage
	RequestSeq int             `json:"request_seq"`
	Success    bool            `json:"success"`
	Command    *string         `json:"command"`
	Message    string          `json:"message,omitempty"`
	Body       json.RawMessage `json:"body,omitempty"`
}

// DecodeMessage decodes a frame body into a *Request, *Response or *Event.
// Payloads stay raw; interpreting them is up to the handler that owns the command or event.
func DecodeMessage(body []byte) (Message, error) {
	var envelope ProtocolMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("malformed protocol message: %w", err)
	}

	switch envelope.Type {
	case MessageTypeRequest:
		var req Request
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, fmt.Errorf("malformed request: %w", err)
		}
		req.Arguments = normalizeRaw(req.Arguments)
		return &req, nil

	case MessageTypeResponse:
		var wr wireResponse
		if err := json.Unmarshal(body, &wr); err != nil {
			return nil, fmt.Errorf("malformed response: %w", err)
		}
		resp := &Response{
			ProtocolMessage: wr.ProtocolMessage,
			RequestSeq:      wr.RequestSeq,
			Success:         wr.Success,
			Message:         wr.Message,
			Body:            normalizeRaw(wr.Body),
			commandPresent:  wr.Command != nil && *wr.Command == "",
		}
		if wr.Command != nil {
			resp.Command = *wr.Command
		}
		return resp, nil

	case MessageTypeEvent:
		var ev Event
		if err := json.Unmarshal(body, &ev); err != nil {
			return nil, fmt.Errorf("malformed event: %w", err)
		}
		ev.Body = normalizeRaw(ev.Body)
		return &ev, nil

	default:
		return nil, fmt.Errorf("unknown protocol message type '%s'", envelope.Type)
	}
}

// normalizeRaw turns an explicit JSON null into an absent payload.
func normalizeRaw(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	return raw
}

// sequenceCounter hands out outbound sequence numbers: 1, 2, 3...
// One counter is shared by every kind of message an endpoint sends.
type sequenceCounter struct {
	seq atomic.Int64
}

func newSequenceCounter() *sequenceCounter {
	return &sequenceCounter{}
}

// Next returns the next sequence number.
func (c *sequenceCounter) Next() int {
	return int(c.seq.Add(1))
}

// Current returns the last sequence number handed out, or 0 if none was.
func (c *sequenceCounter) Current() int {
	return int(c.seq.Load())
}
