/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package dap

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// PendingRequest tracks an outgoing request until its response arrives or the endpoint stops.
// It completes exactly once, with a response, a failure, or a cancellation.
type PendingRequest struct {
	request *Request
	created time.Time

	onSuccess func(*Response)
	onError   func(error)

	completed atomic.Bool
	cancelled atomic.Bool
	abandoned atomic.Bool
	done      chan struct{}

	// Written before done is closed, read after.
	response *Response
	err      error

	slowTimer *time.Timer
}

func newPendingRequest(req *Request, onSuccess func(*Response), onError func(error)) *PendingRequest {
	return &PendingRequest{
		request:   req,
		created:   time.Now(),
		onSuccess: onSuccess,
		onError:   onError,
		done:      make(chan struct{}),
	}
}

// Request returns the request as it was sent, including its sequence number.
func (p *PendingRequest) Request() *Request {
	return p.request
}

// Created returns the time the request was registered.
func (p *PendingRequest) Created() time.Time {
	return p.created
}

// Done returns a channel that is closed when the request completes.
func (p *PendingRequest) Done() <-chan struct{} {
	return p.done
}

// Cancelled reports whether the request was cancelled because the endpoint stopped.
func (p *PendingRequest) Cancelled() bool {
	return p.cancelled.Load()
}

// Result returns the outcome of a completed request. Before Done is closed it returns (nil, nil).
// A failed response yields both the response and a *ResponseError.
func (p *PendingRequest) Result() (*Response, error) {
	select {
	case <-p.done:
		return p.response, p.err
	default:
		return nil, nil
	}
}

// Wait blocks until the request completes or the context is done.
func (p *PendingRequest) Wait(ctx context.Context) (*Response, error) {
	select {
	case <-p.done:
		return p.response, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// abandon marks a request whose caller stopped waiting. It stays in the table until its response
// arrives or the endpoint stops, but it no longer raises the slow request diagnostic.
func (p *PendingRequest) abandon() {
	p.abandoned.Store(true)
	if p.slowTimer != nil {
		p.slowTimer.Stop()
	}
}

// complete records the outcome and runs the matching callback. Only the first call has any effect.
func (p *PendingRequest) complete(resp *Response, err error, cancelled bool) bool {
	if !p.completed.CompareAndSwap(false, true) {
		return false
	}
	if p.slowTimer != nil {
		p.slowTimer.Stop()
	}

	p.response = resp
	p.err = err
	p.cancelled.Store(cancelled)
	defer close(p.done)

	if err != nil {
		if p.onError != nil {
			p.onError(err)
		}
	} else if p.onSuccess != nil {
		p.onSuccess(resp)
	}
	return true
}

// pendingTableConfig holds the settings of the pending request table.
type pendingTableConfig struct {
	caseInsensitiveCommands bool
	allowNullCommand        bool
	slowThreshold           time.Duration

	// onSlow runs (on a timer goroutine) when a request stays unanswered past the threshold.
	onSlow func(p *PendingRequest, elapsed time.Duration)
}

// pendingTable correlates incoming responses with outgoing requests.
// Callbacks always run outside the table lock so they can send new requests.
type pendingTable struct {
	lock    sync.Mutex
	entries map[int]*PendingRequest
	config  pendingTableConfig
}

func newPendingTable(config pendingTableConfig) *pendingTable {
	return &pendingTable{
		entries: make(map[int]*PendingRequest),
		config:  config,
	}
}

// add stores a request whose sequence number is already assigned and arms its slow request timer.
func (t *pendingTable) add(p *PendingRequest) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.entries[p.request.Seq] = p

	if t.config.slowThreshold > 0 && t.config.onSlow != nil {
		onSlow := t.config.onSlow
		p.slowTimer = time.AfterFunc(t.config.slowThreshold, func() {
			if p.completed.Load() || p.abandoned.Load() {
				return
			}
			onSlow(p, time.Since(p.created))
		})
	}
}

// resolve completes the request answered by resp. It returns nil if no pending request matches.
func (t *pendingTable) resolve(resp *Response) *PendingRequest {
	t.lock.Lock()
	p, found := t.entries[resp.RequestSeq]
	if found && !t.commandMatches(p.request.Command, resp) {
		found = false
	}
	if found {
		delete(t.entries, resp.RequestSeq)
	}
	t.lock.Unlock()

	if !found {
		return nil
	}

	if resp.Success {
		p.complete(resp, nil, false)
	} else {
		p.complete(resp, &ResponseError{
			Command: p.request.Command,
			Message: resp.Message,
			Detail:  resp.ErrorDetail(),
		}, false)
	}
	return p
}

func (t *pendingTable) commandMatches(requestCommand string, resp *Response) bool {
	if !resp.CommandPresent() {
		return t.config.allowNullCommand
	}
	if t.config.caseInsensitiveCommands {
		return strings.EqualFold(requestCommand, resp.Command)
	}
	return requestCommand == resp.Command
}

// cancelAll empties the table and fails every removed request with a *CancelledError.
// Requests are cancelled in sequence order. It returns the number of requests cancelled.
func (t *pendingTable) cancelAll(cause error) int {
	t.lock.Lock()
	entries := t.entries
	t.entries = make(map[int]*PendingRequest)
	t.lock.Unlock()

	seqs := make([]int, 0, len(entries))
	for seq := range entries {
		seqs = append(seqs, seq)
	}
	sort.Ints(seqs)

	cancelled := 0
	for _, seq := range seqs {
		p := entries[seq]
		if cancelPending(p, cause) {
			cancelled++
		}
	}
	return cancelled
}

func cancelPending(p *PendingRequest, cause error) bool {
	return p.complete(nil, &CancelledError{
		Command: p.request.Command,
		Seq:     p.request.Seq,
		Cause:   cause,
	}, true)
}

func (t *pendingTable) len() int {
	t.lock.Lock()
	defer t.lock.Unlock()
	return len(t.entries)
}
