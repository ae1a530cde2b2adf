/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package dap

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/go-dap"
)

// HostHandlers are the request handlers of a back-end. Requests whose handler is nil are not
// registered, and receiving one is a protocol error. Disconnect defaults to a handler that succeeds.
type HostHandlers struct {
	Initialize              func(ctx context.Context, args dap.InitializeRequestArguments) (dap.Capabilities, error)
	Launch                  func(ctx context.Context, args json.RawMessage) error
	Attach                  func(ctx context.Context, args json.RawMessage) error
	Restart                 func(ctx context.Context, args json.RawMessage) error
	Disconnect              func(ctx context.Context, args dap.DisconnectArguments) error
	Terminate               func(ctx context.Context, args dap.TerminateArguments) error
	ConfigurationDone       func(ctx context.Context) error
	SetBreakpoints          func(ctx context.Context, args dap.SetBreakpointsArguments) (dap.SetBreakpointsResponseBody, error)
	SetExceptionBreakpoints func(ctx context.Context, args dap.SetExceptionBreakpointsArguments) error
	Threads                 func(ctx context.Context) (dap.ThreadsResponseBody, error)
	StackTrace              func(ctx context.Context, args dap.StackTraceArguments) (dap.StackTraceResponseBody, error)
	Scopes                  func(ctx context.Context, args dap.ScopesArguments) (dap.ScopesResponseBody, error)
	Variables               func(ctx context.Context, args dap.VariablesArguments) (VariablesResponseBody, error)
	Evaluate                func(ctx context.Context, args dap.EvaluateArguments) (EvaluateResponseBody, error)
	Continue                func(ctx context.Context, args dap.ContinueArguments) (dap.ContinueResponseBody, error)
	Next                    func(ctx context.Context, args StepArguments) error
	StepIn                  func(ctx context.Context, args StepArguments) error
	StepOut                 func(ctx context.Context, args StepArguments) error
	StepBack                func(ctx context.Context, args StepArguments) error
	ReverseContinue         func(ctx context.Context, args dap.ReverseContinueArguments) error
	Pause                   func(ctx context.Context, args dap.PauseArguments) error
}

// Host is the back-end (debugger) side of a debug session. It serves the front-end's requests
// and emits events.
type Host struct {
	endpoint *Endpoint
}

// NewHost registers the handlers on the endpoint. The endpoint should not have been started yet,
// so that no request arrives before its handler is in place.
func NewHost(e *Endpoint, handlers HostHandlers) (*Host, error) {
	disconnect := handlers.Disconnect
	if disconnect == nil {
		disconnect = func(context.Context, dap.DisconnectArguments) error { return nil }
	}

	var configurationDone func(context.Context, NoBody) error
	if handlers.ConfigurationDone != nil {
		configurationDone = func(ctx context.Context, _ NoBody) error { return handlers.ConfigurationDone(ctx) }
	}
	var threads func(context.Context, NoBody) (dap.ThreadsResponseBody, error)
	if handlers.Threads != nil {
		threads = func(ctx context.Context, _ NoBody) (dap.ThreadsResponseBody, error) { return handlers.Threads(ctx) }
	}

	err := errors.Join(
		handleWithBody(e, CommandInitialize, handlers.Initialize),
		handleNoBody(e, CommandLaunch, handlers.Launch),
		handleNoBody(e, CommandAttach, handlers.Attach),
		handleNoBody(e, CommandRestart, handlers.Restart),
		handleNoBody(e, CommandDisconnect, disconnect),
		handleNoBody(e, CommandTerminate, handlers.Terminate),
		handleNoBody(e, CommandConfigurationDone, configurationDone),
		handleWithBody(e, CommandSetBreakpoints, handlers.SetBreakpoints),
		handleNoBody(e, CommandSetExceptionBreakpoints, handlers.SetExceptionBreakpoints),
		handleWithBody(e, CommandThreads, threads),
		handleWithBody(e, CommandStackTrace, handlers.StackTrace),
		handleWithBody(e, CommandScopes, handlers.Scopes),
		handleWithBody(e, CommandVariables, handlers.Variables),
		handleWithBody(e, CommandEvaluate, handlers.Evaluate),
		handleWithBody(e, CommandContinue, handlers.Continue),
		handleNoBody(e, CommandNext, handlers.Next),
		handleNoBody(e, CommandStepIn, handlers.StepIn),
		handleNoBody(e, CommandStepOut, handlers.StepOut),
		handleNoBody(e, CommandStepBack, handlers.StepBack),
		handleNoBody(e, CommandReverseContinue, handlers.ReverseContinue),
		handleNoBody(e, CommandPause, handlers.Pause),
	)
	if err != nil {
		return nil, err
	}

	return &Host{endpoint: e}, nil
}

func handleWithBody[A any, R any](e *Endpoint, command string, fn func(ctx context.Context, args A) (R, error)) error {
	if fn == nil {
		return nil
	}
	return HandleRequest(e, command, fn)
}

func handleNoBody[A any](e *Endpoint, command string, fn func(ctx context.Context, args A) error) error {
	if fn == nil {
		return nil
	}
	return HandleRequest(e, command, func(ctx context.Context, args A) (NoBody, error) {
		return NoBody{}, fn(ctx, args)
	})
}

func (h *Host) Endpoint() *Endpoint {
	return h.endpoint
}

func (h *Host) Start(ctx context.Context) error {
	return h.endpoint.Start(ctx)
}

func (h *Host) Stop() {
	h.endpoint.Stop()
}

func (h *Host) Initialized() error {
	return h.endpoint.SendEvent(EventInitialized, nil)
}

func (h *Host) Stopped(body dap.StoppedEventBody) error {
	return h.endpoint.SendEvent(EventStopped, body)
}

func (h *Host) Continued(body dap.ContinuedEventBody) error {
	return h.endpoint.SendEvent(EventContinued, body)
}

func (h *Host) Exited(body dap.ExitedEventBody) error {
	return h.endpoint.SendEvent(EventExited, body)
}

func (h *Host) Terminated(body dap.TerminatedEventBody) error {
	return h.endpoint.SendEvent(EventTerminated, body)
}

func (h *Host) Thread(body dap.ThreadEventBody) error {
	return h.endpoint.SendEvent(EventThread, body)
}

// Output sends an output event. Output is never held back while a request is being handled.
func (h *Host) Output(body dap.OutputEventBody) error {
	return h.endpoint.SendEvent(EventOutput, body)
}

func (h *Host) Breakpoint(body dap.BreakpointEventBody) error {
	return h.endpoint.SendEvent(EventBreakpoint, body)
}

func (h *Host) Process(body dap.ProcessEventBody) error {
	return h.endpoint.SendEvent(EventProcess, body)
}

// RunInTerminal asks the front-end to run a command in a terminal. It must not be called
// from a request handler of this host; see SendRequestSync.
func (h *Host) RunInTerminal(ctx context.Context, args dap.RunInTerminalRequestArguments) (dap.RunInTerminalResponseBody, error) {
	return Call[dap.RunInTerminalResponseBody](ctx, h.endpoint, CommandRunInTerminal, args)
}
