/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package dap

import (
	"context"
	"encoding/json"

	"github.com/google/go-dap"
)

// Client is the front-end (IDE) side of a debug session. It sends requests to a back-end
// and receives the back-end's events and reverse requests.
type Client struct {
	endpoint *Endpoint
}

// NewClient wraps an endpoint that is connected to a back-end.
func NewClient(e *Endpoint) *Client {
	return &Client{endpoint: e}
}

func (c *Client) Endpoint() *Endpoint {
	return c.endpoint
}

func (c *Client) Start(ctx context.Context) error {
	return c.endpoint.Start(ctx)
}

func (c *Client) Stop() {
	c.endpoint.Stop()
}

func (c *Client) call(ctx context.Context, command string, args any) error {
	_, err := c.endpoint.SendRequestSync(ctx, command, args, nil)
	return err
}

func (c *Client) Initialize(ctx context.Context, args dap.InitializeRequestArguments) (dap.Capabilities, error) {
	return Call[dap.Capabilities](ctx, c.endpoint, CommandInitialize, args)
}

// Launch starts the debuggee. The arguments are specific to the back-end.
func (c *Client) Launch(ctx context.Context, args any) error {
	return c.call(ctx, CommandLaunch, args)
}

// Attach connects to a running debuggee. The arguments are specific to the back-end.
func (c *Client) Attach(ctx context.Context, args any) error {
	return c.call(ctx, CommandAttach, args)
}

func (c *Client) Restart(ctx context.Context, args any) error {
	return c.call(ctx, CommandRestart, args)
}

func (c *Client) ConfigurationDone(ctx context.Context) error {
	return c.call(ctx, CommandConfigurationDone, nil)
}

func (c *Client) SetBreakpoints(ctx context.Context, args dap.SetBreakpointsArguments) (dap.SetBreakpointsResponseBody, error) {
	return Call[dap.SetBreakpointsResponseBody](ctx, c.endpoint, CommandSetBreakpoints, args)
}

func (c *Client) SetExceptionBreakpoints(ctx context.Context, args dap.SetExceptionBreakpointsArguments) error {
	return c.call(ctx, CommandSetExceptionBreakpoints, args)
}

func (c *Client) Threads(ctx context.Context) ([]dap.Thread, error) {
	body, err := Call[dap.ThreadsResponseBody](ctx, c.endpoint, CommandThreads, nil)
	return body.Threads, err
}

func (c *Client) StackTrace(ctx context.Context, args dap.StackTraceArguments) (dap.StackTraceResponseBody, error) {
	return Call[dap.StackTraceResponseBody](ctx, c.endpoint, CommandStackTrace, args)
}

func (c *Client) Scopes(ctx context.Context, args dap.ScopesArguments) ([]dap.Scope, error) {
	body, err := Call[dap.ScopesResponseBody](ctx, c.endpoint, CommandScopes, args)
	return body.Scopes, err
}

func (c *Client) Variables(ctx context.Context, args dap.VariablesArguments) ([]Variable, error) {
	body, err := Call[VariablesResponseBody](ctx, c.endpoint, CommandVariables, args)
	return body.Variables, err
}

func (c *Client) Evaluate(ctx context.Context, args dap.EvaluateArguments) (EvaluateResponseBody, error) {
	return Call[EvaluateResponseBody](ctx, c.endpoint, CommandEvaluate, args)
}

func (c *Client) Continue(ctx context.Context, args dap.ContinueArguments) (dap.ContinueResponseBody, error) {
	return Call[dap.ContinueResponseBody](ctx, c.endpoint, CommandContinue, args)
}

func (c *Client) Next(ctx context.Context, args StepArguments) error {
	return c.call(ctx, CommandNext, args)
}

func (c *Client) StepIn(ctx context.Context, args StepArguments) error {
	return c.call(ctx, CommandStepIn, args)
}

func (c *Client) StepOut(ctx context.Context, args StepArguments) error {
	return c.call(ctx, CommandStepOut, args)
}

func (c *Client) StepBack(ctx context.Context, args StepArguments) error {
	return c.call(ctx, CommandStepBack, args)
}

func (c *Client) ReverseContinue(ctx context.Context, args dap.ReverseContinueArguments) error {
	return c.call(ctx, CommandReverseContinue, args)
}

func (c *Client) Pause(ctx context.Context, args dap.PauseArguments) error {
	return c.call(ctx, CommandPause, args)
}

func (c *Client) Terminate(ctx context.Context, args dap.TerminateArguments) error {
	return c.call(ctx, CommandTerminate, args)
}

// Disconnect ends the session. The back-end stops once it has answered.
func (c *Client) Disconnect(ctx context.Context, args dap.DisconnectArguments) error {
	return c.call(ctx, CommandDisconnect, args)
}

// OnEvent subscribes to an event by name. Bodies of events the protocol defines are decoded
// into their go-dap types; bodies of other events are passed as json.RawMessage.
func (c *Client) OnEvent(event string, fn func(ctx context.Context, body any)) error {
	binding, known := BackEndEvents[event]
	return c.endpoint.RegisterEventHandler(event, func(ctx context.Context, ev *Event) {
		if !known {
			fn(ctx, json.RawMessage(ev.Body))
			return
		}
		body, decodeErr := binding.Body.Decode(ev.Body)
		if decodeErr != nil {
			c.endpoint.log.Error(decodeErr, "Dropping event with invalid body", "Event", ev.Event, "Seq", ev.Seq)
			return
		}
		fn(ctx, body)
	})
}

func (c *Client) OnInitialized(fn func(ctx context.Context)) error {
	return HandleEvent(c.endpoint, EventInitialized, func(ctx context.Context, _ NoBody) { fn(ctx) })
}

func (c *Client) OnStopped(fn func(ctx context.Context, body dap.StoppedEventBody)) error {
	return HandleEvent(c.endpoint, EventStopped, fn)
}

func (c *Client) OnContinued(fn func(ctx context.Context, body dap.ContinuedEventBody)) error {
	return HandleEvent(c.endpoint, EventContinued, fn)
}

func (c *Client) OnExited(fn func(ctx context.Context, body dap.ExitedEventBody)) error {
	return HandleEvent(c.endpoint, EventExited, fn)
}

func (c *Client) OnTerminated(fn func(ctx context.Context, body dap.TerminatedEventBody)) error {
	return HandleEvent(c.endpoint, EventTerminated, fn)
}

func (c *Client) OnThread(fn func(ctx context.Context, body dap.ThreadEventBody)) error {
	return HandleEvent(c.endpoint, EventThread, fn)
}

func (c *Client) OnOutput(fn func(ctx context.Context, body dap.OutputEventBody)) error {
	return HandleEvent(c.endpoint, EventOutput, fn)
}

func (c *Client) OnBreakpoint(fn func(ctx context.Context, body dap.BreakpointEventBody)) error {
	return HandleEvent(c.endpoint, EventBreakpoint, fn)
}

func (c *Client) OnProcess(fn func(ctx context.Context, body dap.ProcessEventBody)) error {
	return HandleEvent(c.endpoint, EventProcess, fn)
}

// HandleRunInTerminal serves the runInTerminal reverse request.
func (c *Client) HandleRunInTerminal(fn func(ctx context.Context, args dap.RunInTerminalRequestArguments) (dap.RunInTerminalResponseBody, error)) error {
	return HandleRequest(c.endpoint, CommandRunInTerminal, fn)
}
