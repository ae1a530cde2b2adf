/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

/*
Package dap implements the Debug Adapter Protocol (DAP) engine used by the stack-VM debugger,
for both sides of a debug session: the front-end (IDE) that sends requests and the back-end
(debugger) that serves them.

# Architecture Overview

Each connection is handled by an Endpoint. An endpoint owns two goroutines:

  - The dispatcher goroutine reads Content-Length frames from the input stream, decodes
    them and runs the registered handler for every incoming request, response or event,
    one message at a time, in arrival order.
  - The writer goroutine drains a FIFO of framed messages and writes them to the output
    stream. Sequence numbers are assigned as messages enter the FIFO, so they increase
    strictly in wire order.

Handlers run on the dispatcher goroutine and must not block for long. A request handler
answers through a Responder and must answer exactly once.

# Event Ordering

While a request is being handled, events sent by the endpoint are held back and written
right after the response to that request. Output events are the exception: they are written
immediately. As a result the peer always sees a response before the events its handling produced.

# Outgoing Requests

SendRequest registers the request in the pending table and returns a PendingRequest future.
Responses are matched by request_seq and command. A request left unanswered past the slow
request threshold triggers a diagnostic notification, but is never cancelled because of it.
When the endpoint stops, every pending request completes with a *CancelledError.

SendRequestSync and Call block until the response arrives. They refuse to run on the
dispatcher goroutine of the same endpoint, since nothing could read the response.

# Roles

Client and Host bind the typed payloads of the protocol (mostly the types from
github.com/google/go-dap) to command and event names.

# Transports

Any duplex byte stream works: standard I/O of the current or a child process (NewStdioStream,
LaunchAdapter), TCP or Unix sockets (DialTCP, DialUnix) and WebSockets (NewWebSocketStream).
*/
package dap
