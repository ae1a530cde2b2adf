/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package dap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// WildcardName registers a handler for every command or event that has no handler of its own.
// Wildcard registrations must be enabled with EndpointConfig.AllowWildcardRegistrations.
const WildcardName = "*"

// RequestHandler handles one incoming request. It runs on the dispatcher goroutine and
// must call exactly one of Responder.Success or Responder.Fail before returning.
type RequestHandler func(ctx context.Context, req *Request, r *Responder)

// EventHandler handles one incoming event. It runs on the dispatcher goroutine.
type EventHandler func(ctx context.Context, ev *Event)

// Responder collects the outcome of a request handler.
type Responder struct {
	request *Request
	calls   int
	body    json.RawMessage
	err     error
}

func newResponder(req *Request) *Responder {
	return &Responder{request: req}
}

// Request returns the request being handled.
func (r *Responder) Request() *Request {
	return r.request
}

// Success sets the response body. A nil body or NoBody sends a response without a body.
func (r *Responder) Success(body any) {
	r.calls++
	raw, encodeErr := encodePayload(body)
	if encodeErr != nil {
		r.err = fmt.Errorf("failed to serialize '%s' response body: %w", r.request.Command, encodeErr)
		return
	}
	r.body = raw
	r.err = nil
}

// Fail makes the response a failure. Use *HandlerError to control the structured error detail.
func (r *Responder) Fail(err error) {
	r.calls++
	if err == nil {
		err = errors.New("request failed")
	}
	r.err = err
	r.body = nil
}

// response builds the Response to send, or a ProtocolError if the handler did not respond exactly once.
func (r *Responder) response() (*Response, error) {
	if r.calls != 1 {
		reason := "request handler returned without setting a response"
		if r.calls > 1 {
			reason = fmt.Sprintf("request handler set a response %d times", r.calls)
		}
		return nil, &ProtocolError{Reason: reason, Seq: r.request.Seq, Name: r.request.Command}
	}

	if r.err == nil {
		return &Response{
			ProtocolMessage: ProtocolMessage{Type: MessageTypeResponse},
			RequestSeq:      r.request.Seq,
			Success:         true,
			Command:         r.request.Command,
			Body:            r.body,
		}, nil
	}

	return newErrorResponse(r.request, r.err), nil
}

// newErrorResponse builds a failed response to req from a handler error.
func newErrorResponse(req *Request, err error) *Response {
	resp := &Response{
		ProtocolMessage: ProtocolMessage{Type: MessageTypeResponse},
		RequestSeq:      req.Seq,
		Success:         false,
		Command:         req.Command,
		Message:         err.Error(),
	}

	var handlerErr *HandlerError
	if errors.As(err, &handlerErr) {
		if handlerErr.Message != "" {
			resp.Message = handlerErr.Message
		}
		detail := handlerErr.Detail
		if body, marshalErr := marshalJSON(ErrorResponseBody{Error: &detail}); marshalErr == nil {
			resp.Body = body
		}
	}

	return resp
}

// HandleRequest registers a typed request handler. Arguments are decoded into A before fn runs;
// a decoding failure is answered with a failed response and fn is not called.
// The value returned by fn becomes the response body.
func HandleRequest[A any, R any](e *Endpoint, command string, fn func(ctx context.Context, args A) (R, error)) error {
	codec := CodecFor[A]()
	return e.RegisterRequestHandler(command, func(ctx context.Context, req *Request, r *Responder) {
		decoded, decodeErr := codec.Decode(req.Arguments)
		if decodeErr != nil {
			r.Fail(fmt.Errorf("invalid arguments for '%s' request: %w", req.Command, decodeErr))
			return
		}

		body, handlerErr := fn(ctx, decoded.(A))
		if handlerErr != nil {
			r.Fail(handlerErr)
			return
		}
		r.Success(body)
	})
}

// HandleEvent registers a typed event handler. Events whose body cannot be decoded into B
// are logged and dropped.
func HandleEvent[B any](e *Endpoint, event string, fn func(ctx context.Context, body B)) error {
	codec := CodecFor[B]()
	return e.RegisterEventHandler(event, func(ctx context.Context, ev *Event) {
		decoded, decodeErr := codec.Decode(ev.Body)
		if decodeErr != nil {
			e.log.Error(decodeErr, "Dropping event with invalid body", "event", ev.Event, "seq", ev.Seq)
			return
		}
		fn(ctx, decoded.(B))
	})
}
