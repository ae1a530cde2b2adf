/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package dap

import (
	"errors"
	"fmt"

	"github.com/google/go-dap"
)

var (
	// ErrEndpointStopped is returned when sending through an endpoint that is not running.
	ErrEndpointStopped = errors.New("protocol endpoint is stopped")

	// ErrEndpointNotIdle is returned by Start when the endpoint was already started.
	ErrEndpointNotIdle = errors.New("protocol endpoint was already started")

	// ErrRequestCancelled is matched (via errors.Is) by every error delivered to a pending request
	// that was cancelled because its endpoint stopped.
	ErrRequestCancelled = errors.New("request cancelled")

	// ErrDispatcherDeadlock is returned when a blocking send is attempted from the goroutine
	// that dispatches incoming messages; the response could never be read.
	ErrDispatcherDeadlock = errors.New("blocking request cannot be sent from the message dispatcher goroutine")

	// ErrDuplicateRegistration is returned when a handler is already registered for a command or event.
	ErrDuplicateRegistration = errors.New("a handler is already registered")

	// ErrWildcardNotAllowed is returned when registering "*" without AllowWildcardRegistrations.
	ErrWildcardNotAllowed = errors.New("wildcard handler registrations are not enabled")

	// ErrDefaultEnumValue is returned when an enumeration holding its designated default value is serialized.
	ErrDefaultEnumValue = errors.New("enumeration default value must not be serialized")
)

// ProtocolError is a violation of the protocol contract by the peer or by a local handler.
// It is fatal for the endpoint that detects it.
type ProtocolError struct {
	Reason string
	Seq    int
	Name   string
}

func (e *ProtocolError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("protocol error (seq %d, '%s'): %s", e.Seq, e.Name, e.Reason)
	}
	return fmt.Sprintf("protocol error (seq %d): %s", e.Seq, e.Reason)
}

// ResponseError is delivered to the sender of a request that the peer answered with success=false.
type ResponseError struct {
	Command string
	Message string

	// Detail is the structured error from the response body, if the peer sent one.
	Detail *dap.ErrorMessage
}

func (e *ResponseError) Error() string {
	switch {
	case e.Detail != nil && e.Detail.Format != "":
		return fmt.Sprintf("'%s' request failed: %s", e.Command, e.Detail.Format)
	case e.Message != "":
		return fmt.Sprintf("'%s' request failed: %s", e.Command, e.Message)
	default:
		return fmt.Sprintf("'%s' request failed", e.Command)
	}
}

// CancelledError is delivered to a pending request that never got its response.
type CancelledError struct {
	Command string
	Seq     int
	Cause   error
}

func (e *CancelledError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("'%s' request (seq %d) cancelled: %v", e.Command, e.Seq, e.Cause)
	}
	return fmt.Sprintf("'%s' request (seq %d) cancelled", e.Command, e.Seq)
}

func (e *CancelledError) Is(target error) bool {
	return target == ErrRequestCancelled
}

func (e *CancelledError) Unwrap() error {
	return e.Cause
}

// HandlerError lets a request handler choose the structured error detail sent back to the peer.
// Any other error returned by a handler is reported with its Error() text only.
type HandlerError struct {
	Message string
	Detail  dap.ErrorMessage
}

func (e *HandlerError) Error() string {
	if e.Detail.Format != "" {
		return e.Detail.Format
	}
	return e.Message
}

// NewHandlerError creates a HandlerError with an error id and a user-facing message.
func NewHandlerError(id int, format string, showUser bool) *HandlerError {
	return &HandlerError{
		Message: format,
		Detail: dap.ErrorMessage{
			Id:       id,
			Format:   format,
			ShowUser: showUser,
		},
	}
}

// IsCancellation returns true if the error means the request was cancelled rather than failed.
func IsCancellation(err error) bool {
	return errors.Is(err, ErrRequestCancelled)
}

// IsProtocolError returns true if the error is a fatal protocol violation.
func IsProtocolError(err error) bool {
	var protocolErr *ProtocolError
	return errors.As(err, &protocolErr)
}

// IsResponseError returns true if the peer answered the request with a failure.
func IsResponseError(err error) bool {
	var responseErr *ResponseError
	return errors.As(err, &responseErr)
}
