/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package dap

import (
	"encoding/json"
	"sort"

	"github.com/google/go-dap"
)

// Requests sent by the front-end (IDE) to the back-end (debugger).
const (
	CommandInitialize              = "initialize"
	CommandLaunch                  = "launch"
	CommandAttach                  = "attach"
	CommandRestart                 = "restart"
	CommandDisconnect              = "disconnect"
	CommandTerminate               = "terminate"
	CommandConfigurationDone       = "configurationDone"
	CommandSetBreakpoints          = "setBreakpoints"
	CommandSetExceptionBreakpoints = "setExceptionBreakpoints"
	CommandThreads                 = "threads"
	CommandStackTrace              = "stackTrace"
	CommandScopes                  = "scopes"
	CommandVariables               = "variables"
	CommandEvaluate                = "evaluate"
	CommandContinue                = "continue"
	CommandNext                    = "next"
	CommandStepIn                  = "stepIn"
	CommandStepOut                 = "stepOut"
	CommandStepBack                = "stepBack"
	CommandReverseContinue         = "reverseContinue"
	CommandPause                   = "pause"
)

// Reverse requests sent by the back-end to the front-end.
const (
	CommandRunInTerminal = "runInTerminal"
)

// Events sent by the back-end to the front-end.
const (
	EventInitialized = "initialized"
	EventStopped     = "stopped"
	EventContinued   = "continued"
	EventExited      = "exited"
	EventTerminated  = "terminated"
	EventThread      = "thread"
	EventOutput      = "output"
	EventBreakpoint  = "breakpoint"
	EventProcess     = "process"
)

// PayloadBinding names the payload types the protocol defines for one command or event.
type PayloadBinding struct {
	Name      string
	Arguments PayloadCodec
	Body      PayloadCodec
}

func requestBinding[A any, R any](command string) PayloadBinding {
	return PayloadBinding{Name: command, Arguments: CodecFor[A](), Body: CodecFor[R]()}
}

func eventBinding[B any](event string) PayloadBinding {
	return PayloadBinding{Name: event, Body: CodecFor[B]()}
}

// FrontEndRequests lists the requests a back-end serves, with their argument and response body types.
var FrontEndRequests = map[string]PayloadBinding{
	CommandInitialize:              requestBinding[dap.InitializeRequestArguments, dap.Capabilities](CommandInitialize),
	CommandLaunch:                  requestBinding[json.RawMessage, NoBody](CommandLaunch),
	CommandAttach:                  requestBinding[json.RawMessage, NoBody](CommandAttach),
	CommandRestart:                 requestBinding[json.RawMessage, NoBody](CommandRestart),
	CommandDisconnect:              requestBinding[dap.DisconnectArguments, NoBody](CommandDisconnect),
	CommandTerminate:               requestBinding[dap.TerminateArguments, NoBody](CommandTerminate),
	CommandConfigurationDone:       requestBinding[NoBody, NoBody](CommandConfigurationDone),
	CommandSetBreakpoints:          requestBinding[dap.SetBreakpointsArguments, dap.SetBreakpointsResponseBody](CommandSetBreakpoints),
	CommandSetExceptionBreakpoints: requestBinding[dap.SetExceptionBreakpointsArguments, json.RawMessage](CommandSetExceptionBreakpoints),
	CommandThreads:                 requestBinding[NoBody, dap.ThreadsResponseBody](CommandThreads),
	CommandStackTrace:              requestBinding[dap.StackTraceArguments, dap.StackTraceResponseBody](CommandStackTrace),
	CommandScopes:                  requestBinding[dap.ScopesArguments, dap.ScopesResponseBody](CommandScopes),
	CommandVariables:               requestBinding[dap.VariablesArguments, VariablesResponseBody](CommandVariables),
	CommandEvaluate:                requestBinding[dap.EvaluateArguments, EvaluateResponseBody](CommandEvaluate),
	CommandContinue:                requestBinding[dap.ContinueArguments, dap.ContinueResponseBody](CommandContinue),
	CommandNext:                    requestBinding[StepArguments, NoBody](CommandNext),
	CommandStepIn:                  requestBinding[StepArguments, NoBody](CommandStepIn),
	CommandStepOut:                 requestBinding[StepArguments, NoBody](CommandStepOut),
	CommandStepBack:                requestBinding[StepArguments, NoBody](CommandStepBack),
	CommandReverseContinue:         requestBinding[dap.ReverseContinueArguments, NoBody](CommandReverseContinue),
	CommandPause:                   requestBinding[dap.PauseArguments, NoBody](CommandPause),
}

// BackEndRequests lists the reverse requests a front-end serves.
var BackEndRequests = map[string]PayloadBinding{
	CommandRunInTerminal: requestBinding[dap.RunInTerminalRequestArguments, dap.RunInTerminalResponseBody](CommandRunInTerminal),
}

// BackEndEvents lists the events a back-end emits, with their body types.
var BackEndEvents = map[string]PayloadBinding{
	EventInitialized: eventBinding[NoBody](EventInitialized),
	EventStopped:     eventBinding[dap.StoppedEventBody](EventStopped),
	EventContinued:   eventBinding[dap.ContinuedEventBody](EventContinued),
	EventExited:      eventBinding[dap.ExitedEventBody](EventExited),
	EventTerminated:  eventBinding[dap.TerminatedEventBody](EventTerminated),
	EventThread:      eventBinding[dap.ThreadEventBody](EventThread),
	EventOutput:      eventBinding[dap.OutputEventBody](EventOutput),
	EventBreakpoint:  eventBinding[dap.BreakpointEventBody](EventBreakpoint),
	EventProcess:     eventBinding[dap.ProcessEventBody](EventProcess),
}

// FrontEndCommandNames returns the commands of FrontEndRequests in alphabetical order.
func FrontEndCommandNames() []string {
	names := make([]string, 0, len(FrontEndRequests))
	for name := range FrontEndRequests {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
