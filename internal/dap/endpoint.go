/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package dap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/petermattis/goid"
	"github.com/smallnest/chanx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/neo-project/neo-debugger-sub001/internal/telemetry"
	"github.com/neo-project/neo-debugger-sub001/pkg/resiliency"
)

const (
	DefaultSlowRequestThreshold = time.Second
	DefaultSyncPollInterval     = 100 * time.Millisecond
	DefaultDrainTimeout         = 2 * time.Second

	writeQueueInitialCapacity = 64
)

// EndpointState is the lifecycle state of an Endpoint: Idle, then Running, then Stopped.
type EndpointState int32

const (
	StateIdle EndpointState = iota
	StateRunning
	StateStopped
)

func (s EndpointState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StateStopped:
		return "Stopped"
	default:
		return fmt.Sprintf("EndpointState(%d)", int32(s))
	}
}

// EndpointConfig contains configuration options for a protocol endpoint.
type EndpointConfig struct {
	// Name identifies the endpoint in logs, for example "client" or "host".
	Name string

	// Logger is the logger for the endpoint. If not set, logging is disabled.
	Logger logr.Logger

	// IgnoreUnexpectedResponses makes responses that match no pending request a logged warning
	// instead of a fatal protocol error.
	IgnoreUnexpectedResponses bool

	// AllowWildcardRegistrations permits handlers registered for WildcardName.
	AllowWildcardRegistrations bool

	// ResponseCommandCaseInsensitive compares response and request commands ignoring case.
	ResponseCommandCaseInsensitive bool

	// AllowResponseCommandNull accepts responses that omit the command field.
	AllowResponseCommandNull bool

	// SlowRequestThreshold is how long a request may stay unanswered before OnSlowRequest is called.
	// If zero, DefaultSlowRequestThreshold is used. A negative value disables the diagnostic.
	SlowRequestThreshold time.Duration

	// SyncPollInterval is how often SendRequestSync calls its liveness function.
	// If zero, DefaultSyncPollInterval is used.
	SyncPollInterval time.Duration

	// DrainTimeout bounds how long Stop waits for queued messages to be written.
	// If zero, DefaultDrainTimeout is used.
	DrainTimeout time.Duration

	// OnSlowRequest is called at most once per request that exceeds SlowRequestThreshold.
	// It has no effect on the outcome of the request.
	OnSlowRequest func(req *Request, elapsed time.Duration)

	// OnDispatcherError is called exactly once when the endpoint stops because of a fatal error.
	OnDispatcherError func(err error)

	// Meter and Tracer default to the global OpenTelemetry providers.
	Meter  metric.Meter
	Tracer trace.Tracer
}

type endpointMetrics struct {
	received        metric.Int64Counter
	sent            metric.Int64Counter
	slowRequests    metric.Int64Counter
	errors          metric.Int64Counter
	requestDuration metric.Float64Histogram
}

func newEndpointMetrics(meter metric.Meter) endpointMetrics {
	return endpointMetrics{
		received:        telemetry.NewInt64Counter(meter, "dap.messages.received", "Protocol messages received"),
		sent:            telemetry.NewInt64Counter(meter, "dap.messages.sent", "Protocol messages queued for write"),
		slowRequests:    telemetry.NewInt64Counter(meter, "dap.requests.slow", "Requests that exceeded the slow request threshold"),
		errors:          telemetry.NewInt64Counter(meter, "dap.dispatcher.errors", "Fatal dispatcher errors"),
		requestDuration: telemetry.NewFloat64Histogram(meter, "dap.request.duration", "Time from sending a request to receiving its response"),
	}
}

// Endpoint is one side of a protocol connection. It reads and dispatches incoming messages on a single
// dispatcher goroutine and writes outgoing messages, in sequence order, on a single writer goroutine.
type Endpoint struct {
	id      string
	in      io.Reader
	out     io.Writer
	closers []io.Closer
	config  EndpointConfig
	log     logr.Logger

	state    atomic.Int32
	stopping atomic.Bool

	// dispatcherGoroutine is the id of the goroutine running readLoop, zero before it starts.
	dispatcherGoroutine atomic.Int64
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}

	// err is set before done is closed.
	err error

	handlersLock    sync.RWMutex
	requestHandlers map[string]RequestHandler
	eventHandlers   map[string]EventHandler

	seq     *sequenceCounter
	pending *pendingTable

	// sendLock makes sequence number assignment and queueing atomic, so that wire order
	// equals sequence order. It also guards the fields below.
	sendLock     sync.Mutex
	writeQueue   *chanx.UnboundedChan[[]byte]
	writeClosed  bool
	queueEvents  bool
	queuedEvents []*Event

	writerCancel context.CancelFunc
	writerDone   chan struct{}

	metrics endpointMetrics
	tracer  trace.Tracer
}

// NewEndpoint creates an endpoint that reads messages from in and writes messages to out.
// Streams that implement io.Closer are closed when the endpoint stops.
func NewEndpoint(in io.Reader, out io.Writer, config EndpointConfig) *Endpoint {
	if config.SlowRequestThreshold == 0 {
		config.SlowRequestThreshold = DefaultSlowRequestThreshold
	}
	if config.SyncPollInterval <= 0 {
		config.SyncPollInterval = DefaultSyncPollInterval
	}
	if config.DrainTimeout <= 0 {
		config.DrainTimeout = DefaultDrainTimeout
	}
	if config.Name == "" {
		config.Name = "endpoint"
	}

	log := config.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}

	meter := config.Meter
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(telemetry.InstrumentationName)
	}
	tracer := config.Tracer
	if tracer == nil {
		tracer = otel.GetTracerProvider().Tracer(telemetry.InstrumentationName)
	}

	e := &Endpoint{
		id:              uuid.NewString(),
		in:              in,
		out:             out,
		config:          config,
		done:            make(chan struct{}),
		requestHandlers: make(map[string]RequestHandler),
		eventHandlers:   make(map[string]EventHandler),
		seq:             newSequenceCounter(),
		writerDone:      make(chan struct{}),
		metrics:         newEndpointMetrics(meter),
		tracer:          tracer,
	}
	e.log = log.WithName(config.Name).WithValues("EndpointID", e.id)

	if c, isCloser := in.(io.Closer); isCloser {
		e.closers = append(e.closers, c)
	}
	if c, isCloser := out.(io.Closer); isCloser && !sameStream(in, out) {
		e.closers = append(e.closers, c)
	}

	var slowThreshold time.Duration
	if config.SlowRequestThreshold > 0 {
		slowThreshold = config.SlowRequestThreshold
	}
	e.pending = newPendingTable(pendingTableConfig{
		caseInsensitiveCommands: config.ResponseCommandCaseInsensitive,
		allowNullCommand:        config.AllowResponseCommandNull,
		slowThreshold:           slowThreshold,
		onSlow:                  e.onSlowRequest,
	})

	return e
}

func sameStream(in io.Reader, out io.Writer) bool {
	inType := reflect.TypeOf(in)
	return inType != nil && inType == reflect.TypeOf(out) && inType.Comparable() && any(in) == any(out)
}

// ID returns the unique identifier of the endpoint instance.
func (e *Endpoint) ID() string {
	return e.id
}

func (e *Endpoint) State() EndpointState {
	return EndpointState(e.state.Load())
}

// Done returns a channel that is closed when the endpoint has stopped and released its streams.
func (e *Endpoint) Done() <-chan struct{} {
	return e.done
}

// Err returns the fatal error that stopped the endpoint, or nil if it is running
// or stopped without an error.
func (e *Endpoint) Err() error {
	select {
	case <-e.done:
		return e.err
	default:
		return nil
	}
}

// Wait blocks until the endpoint stops or the context is done, and returns the fatal error, if any.
func (e *Endpoint) Wait(ctx context.Context) error {
	select {
	case <-e.done:
		return e.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start launches the dispatcher and writer goroutines. It does not block.
// Cancelling the context stops the endpoint.
func (e *Endpoint) Start(ctx context.Context) error {
	if !e.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return ErrEndpointNotIdle
	}

	e.ctx, e.cancel = context.WithCancel(ctx)

	// The write queue outlives the endpoint context so that Stop can drain it.
	writerCtx, writerCancel := context.WithCancel(context.Background())
	e.writerCancel = writerCancel
	e.sendLock.Lock()
	e.writeQueue = chanx.NewUnboundedChan[[]byte](writerCtx, writeQueueInitialCapacity)
	e.sendLock.Unlock()

	e.log.Info("Starting protocol endpoint")

	go e.writeLoop(e.writeQueue.Out)
	go e.readLoop()
	go func() {
		<-e.ctx.Done()
		e.Stop()
	}()

	return nil
}

// Stop stops the endpoint. Pending requests are cancelled, and queued messages are given up to
// DrainTimeout to be written before the streams are closed. Stop is idempotent;
// only the first call waits for the shutdown to complete.
func (e *Endpoint) Stop() {
	e.stop(nil)
}

// fail stops the endpoint because of a fatal error. Only the first fatal error is reported.
func (e *Endpoint) fail(err error) {
	if !e.stop(err) {
		e.log.V(1).Info("Ignoring error reported after the endpoint stopped", "Error", err.Error())
	}
}

func (e *Endpoint) stop(cause error) bool {
	if !e.stopping.CompareAndSwap(false, true) {
		return false
	}

	prevState := EndpointState(e.state.Swap(int32(StateStopped)))
	if cause != nil {
		e.err = cause
		e.log.Error(cause, "Protocol endpoint failed")
		e.metrics.errors.Add(context.Background(), 1)
	}

	if prevState == StateIdle {
		close(e.done)
		e.reportFailure(cause)
		return true
	}

	e.log.Info("Stopping protocol endpoint")
	e.cancel()

	e.sendLock.Lock()
	e.writeClosed = true
	droppedEvents := len(e.queuedEvents)
	e.queuedEvents = nil
	e.queueEvents = false
	close(e.writeQueue.In)
	e.sendLock.Unlock()
	if droppedEvents > 0 {
		e.log.Info("Dropping events queued while handling a request", "Count", droppedEvents)
	}

	if cancelled := e.pending.cancelAll(ErrEndpointStopped); cancelled > 0 {
		e.log.V(1).Info("Cancelled pending requests", "Count", cancelled)
	}

	if !resiliency.WaitWithTimeout(e.writerDone, e.config.DrainTimeout) {
		e.log.Info("Timed out waiting for queued messages to be written", "Timeout", e.config.DrainTimeout.String())
	}
	e.writerCancel()

	var closeErrs []error
	for _, c := range e.closers {
		closeErrs = append(closeErrs, c.Close())
	}
	if closeErr := errors.Join(closeErrs...); closeErr != nil {
		e.log.V(1).Info("Error closing protocol streams", "Error", closeErr.Error())
	}

	close(e.done)
	e.reportFailure(cause)
	return true
}

func (e *Endpoint) reportFailure(cause error) {
	if cause != nil && e.config.OnDispatcherError != nil {
		e.config.OnDispatcherError(cause)
	}
}

// RegisterRequestHandler registers the handler for incoming requests with the given command.
// Registrations cannot be removed or replaced.
func (e *Endpoint) RegisterRequestHandler(command string, handler RequestHandler) error {
	if err := e.checkRegistration(command); err != nil {
		return err
	}

	e.handlersLock.Lock()
	defer e.handlersLock.Unlock()

	if _, exists := e.requestHandlers[command]; exists {
		return fmt.Errorf("request '%s': %w", command, ErrDuplicateRegistration)
	}
	e.requestHandlers[command] = handler
	return nil
}

// RegisterEventHandler registers the handler for incoming events with the given name.
// Registrations cannot be removed or replaced.
func (e *Endpoint) RegisterEventHandler(event string, handler EventHandler) error {
	if err := e.checkRegistration(event); err != nil {
		return err
	}

	e.handlersLock.Lock()
	defer e.handlersLock.Unlock()

	if _, exists := e.eventHandlers[event]; exists {
		return fmt.Errorf("event '%s': %w", event, ErrDuplicateRegistration)
	}
	e.eventHandlers[event] = handler
	return nil
}

func (e *Endpoint) checkRegistration(name string) error {
	if name == "" {
		return errors.New("handler registration requires a name")
	}
	if name == WildcardName && !e.config.AllowWildcardRegistrations {
		return ErrWildcardNotAllowed
	}
	return nil
}

func (e *Endpoint) lookupRequestHandler(command string) (RequestHandler, bool) {
	e.handlersLock.RLock()
	defer e.handlersLock.RUnlock()

	if h, found := e.requestHandlers[command]; found {
		return h, true
	}
	h, found := e.requestHandlers[WildcardName]
	return h, found
}

func (e *Endpoint) lookupEventHandler(event string) (EventHandler, bool) {
	e.handlersLock.RLock()
	defer e.handlersLock.RUnlock()

	if h, found := e.eventHandlers[event]; found {
		return h, true
	}
	h, found := e.eventHandlers[WildcardName]
	return h, found
}

var errStopReading = errors.New("endpoint stopped")

// readLoop is the dispatcher goroutine. Every incoming message is handled to completion before the next one is read.
func (e *Endpoint) readLoop() {
	e.dispatcherGoroutine.Store(goid.Get())
	defer e.dispatcherGoroutine.Store(0)

	decoder := NewFrameDecoder()
	decoder.OnNoise(func(noise []byte) {
		e.log.V(1).Info("Discarding bytes outside of a protocol frame", "Bytes", len(noise))
	})

	readErr := readFramesWith(e.in, decoder, func(body []byte) error {
		if e.stopping.Load() {
			return errStopReading
		}

		msg, decodeErr := DecodeMessage(body)
		if decodeErr != nil {
			return decodeErr
		}
		e.metrics.received.Add(e.ctx, 1, metric.WithAttributes(attribute.String("dap.message.type", string(msg.MessageType()))))

		return e.dispatch(e.ctx, msg)
	})

	switch {
	case e.stopping.Load() || errors.Is(readErr, errStopReading):
		return
	case readErr == nil:
		e.log.Info("Input stream ended")
		e.Stop()
	default:
		e.fail(readErr)
	}
}

func (e *Endpoint) dispatch(ctx context.Context, msg Message) error {
	switch m := msg.(type) {
	case *Request:
		e.log.V(1).Info("Received request", "Command", m.Command, "Seq", m.Seq)
		return e.dispatchRequest(ctx, m)
	case *Response:
		e.log.V(1).Info("Received response", "Command", m.Command, "RequestSeq", m.RequestSeq, "Success", m.Success)
		return e.dispatchResponse(m)
	case *Event:
		e.log.V(1).Info("Received event", "Event", m.Event, "Seq", m.Seq)
		e.dispatchEvent(ctx, m)
		return nil
	default:
		return fmt.Errorf("unexpected message type %T", msg)
	}
}

func (e *Endpoint) dispatchRequest(ctx context.Context, req *Request) error {
	handler, found := e.lookupRequestHandler(req.Command)
	if !found {
		return &ProtocolError{Reason: "unknown command", Seq: req.Seq, Name: req.Command}
	}

	isDisconnect := req.Command == CommandDisconnect

	// Events raised while handling disconnect are written right away, since the endpoint
	// stops as soon as the response is queued.
	e.setQueueEvents(!isDisconnect)
	defer e.flushQueuedEvents()

	var resp *Response
	handlerErr := telemetry.CallWithTelemetryNoResult(e.tracer, "dap.request/"+req.Command, ctx, func(spanCtx context.Context) error {
		var invokeErr error
		resp, invokeErr = e.invokeRequestHandler(spanCtx, handler, req)
		if invokeErr == nil && !resp.Success {
			return errors.New(resp.Message)
		}
		return invokeErr
	},
		attribute.String("dap.command", req.Command),
		attribute.Int("dap.seq", req.Seq),
		attribute.String("dap.endpoint", e.config.Name),
	)
	if resp == nil {
		return handlerErr
	}

	if sendErr := e.enqueue(resp); sendErr != nil {
		if e.stopping.Load() {
			return errStopReading
		}
		return sendErr
	}

	if isDisconnect && resp.Success {
		e.log.Info("Disconnect request handled, stopping")
		e.Stop()
		return errStopReading
	}
	return nil
}

func (e *Endpoint) invokeRequestHandler(ctx context.Context, handler RequestHandler, req *Request) (*Response, error) {
	r := newResponder(req)

	panicked := func() (panicked bool) {
		defer func() {
			if panicVal := recover(); panicVal != nil {
				panicked = true
				panicErr := resiliency.MakePanicError(panicVal, e.log.WithValues("Command", req.Command))
				r = newResponder(req)
				r.Fail(fmt.Errorf("request handler failed: %w", errors.Unwrap(panicErr)))
			}
		}()
		handler(ctx, req, r)
		return false
	}()

	resp, respErr := r.response()
	if respErr != nil {
		return nil, respErr
	}
	if !resp.Success && !panicked {
		e.log.V(1).Info("Request handler failed", "Command", req.Command, "Seq", req.Seq, "Message", resp.Message)
	}
	return resp, nil
}

func (e *Endpoint) dispatchResponse(resp *Response) error {
	p := e.pending.resolve(resp)
	if p != nil {
		e.metrics.requestDuration.Record(e.ctx, float64(time.Since(p.Created()).Milliseconds()),
			metric.WithAttributes(attribute.String("dap.command", p.Request().Command)))
		return nil
	}

	e.log.Info("Received a response that matches no pending request", "Command", resp.Command, "RequestSeq", resp.RequestSeq)
	if e.config.IgnoreUnexpectedResponses {
		return nil
	}
	return &ProtocolError{Reason: "response matches no pending request", Seq: resp.RequestSeq, Name: resp.Command}
}

func (e *Endpoint) dispatchEvent(ctx context.Context, ev *Event) {
	handler, found := e.lookupEventHandler(ev.Event)
	if !found {
		e.log.Info("No handler registered for event, dropping it", "Event", ev.Event, "Seq", ev.Seq)
		return
	}

	defer func() {
		if panicVal := recover(); panicVal != nil {
			_ = resiliency.MakePanicError(panicVal, e.log.WithValues("Event", ev.Event))
		}
	}()
	handler(ctx, ev)
}

func (e *Endpoint) setQueueEvents(queue bool) {
	e.sendLock.Lock()
	defer e.sendLock.Unlock()
	e.queueEvents = queue
}

// flushQueuedEvents ends event deferral and writes the deferred events in the order they were sent.
func (e *Endpoint) flushQueuedEvents() {
	e.sendLock.Lock()
	defer e.sendLock.Unlock()

	e.queueEvents = false
	queued := e.queuedEvents
	e.queuedEvents = nil

	for _, ev := range queued {
		if err := e.enqueueLocked(ev); err != nil {
			e.log.Error(err, "Could not write deferred event", "Event", ev.Event)
		}
	}
}

// enqueue assigns the next sequence number to msg and queues it for write.
func (e *Endpoint) enqueue(msg outboundMessage) error {
	e.sendLock.Lock()
	defer e.sendLock.Unlock()
	return e.enqueueLocked(msg)
}

func (e *Endpoint) enqueueLocked(msg outboundMessage) error {
	if e.writeClosed || e.writeQueue == nil {
		return ErrEndpointStopped
	}

	msg.setSeq(e.seq.Next())
	frame, encodeErr := EncodeFrame(msg)
	if encodeErr != nil {
		return encodeErr
	}

	e.writeQueue.In <- frame
	e.metrics.sent.Add(context.Background(), 1, metric.WithAttributes(attribute.String("dap.message.type", string(msg.MessageType()))))
	return nil
}

// writeLoop is the writer goroutine. After a write error it keeps draining the queue without writing.
func (e *Endpoint) writeLoop(frames <-chan []byte) {
	defer close(e.writerDone)

	failed := false
	for frame := range frames {
		if failed {
			continue
		}
		if _, writeErr := e.out.Write(frame); writeErr != nil {
			failed = true
			// Stop waits for this goroutine, so the failure must be reported from another one.
			go e.fail(fmt.Errorf("failed to write protocol message: %w", writeErr))
		}
	}
}

// SendEvent sends an event to the peer. While a request is being handled, events other than
// "output" are held back until the response to that request has been queued.
func (e *Endpoint) SendEvent(event string, body any) error {
	raw, encodeErr := encodePayload(body)
	if encodeErr != nil {
		return fmt.Errorf("failed to serialize '%s' event body: %w", event, encodeErr)
	}

	ev := &Event{
		ProtocolMessage: ProtocolMessage{Type: MessageTypeEvent},
		Event:           event,
		Body:            raw,
	}

	e.sendLock.Lock()
	defer e.sendLock.Unlock()

	if e.writeClosed || e.writeQueue == nil {
		return ErrEndpointStopped
	}
	if e.queueEvents && event != EventOutput {
		e.queuedEvents = append(e.queuedEvents, ev)
		return nil
	}
	return e.enqueueLocked(ev)
}

// SendRequest sends a request to the peer without waiting for the response.
// Exactly one of onSuccess or onError is called when the request completes; either may be nil.
// If the endpoint is not running the returned request is already cancelled.
func (e *Endpoint) SendRequest(command string, args any, onSuccess func(*Response), onError func(error)) (*PendingRequest, error) {
	raw, encodeErr := encodePayload(args)
	if encodeErr != nil {
		return nil, fmt.Errorf("failed to serialize '%s' request arguments: %w", command, encodeErr)
	}

	req := &Request{
		ProtocolMessage: ProtocolMessage{Type: MessageTypeRequest},
		Command:         command,
		Arguments:       raw,
	}
	p := newPendingRequest(req, onSuccess, onError)

	e.sendLock.Lock()
	if e.writeClosed || e.writeQueue == nil {
		e.sendLock.Unlock()
		cancelPending(p, ErrEndpointStopped)
		return p, nil
	}

	req.Seq = e.seq.Next()
	frame, frameErr := EncodeFrame(req)
	if frameErr != nil {
		e.sendLock.Unlock()
		return nil, frameErr
	}
	e.pending.add(p)
	e.writeQueue.In <- frame
	e.sendLock.Unlock()

	e.metrics.sent.Add(context.Background(), 1, metric.WithAttributes(attribute.String("dap.message.type", string(MessageTypeRequest))))
	e.log.V(1).Info("Sent request", "Command", command, "Seq", req.Seq)
	return p, nil
}

// SendRequestSync sends a request and blocks until its response arrives, the context is done,
// or the endpoint stops. The liveness function, if not nil, is called every SyncPollInterval while waiting.
// Calls made on the dispatcher goroutine of the same endpoint fail with ErrDispatcherDeadlock,
// since nothing else could read the response.
// If the context is done first, the request stays registered so that its late response is consumed
// quietly, but it no longer raises the slow request diagnostic.
func (e *Endpoint) SendRequestSync(ctx context.Context, command string, args any, liveness func()) (*Response, error) {
	if e.onDispatcherGoroutine() {
		return nil, ErrDispatcherDeadlock
	}

	p, sendErr := e.SendRequest(command, args, nil, nil)
	if sendErr != nil {
		return nil, sendErr
	}

	ticker := time.NewTicker(e.config.SyncPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.Done():
			return p.Result()
		case <-ctx.Done():
			p.abandon()
			return nil, ctx.Err()
		case <-ticker.C:
			if liveness != nil {
				liveness()
			}
		}
	}
}

func (e *Endpoint) onDispatcherGoroutine() bool {
	id := e.dispatcherGoroutine.Load()
	return id != 0 && id == goid.Get()
}

// Call sends a request, waits for the response and decodes its body into R.
func Call[R any](ctx context.Context, e *Endpoint, command string, args any) (R, error) {
	resp, err := e.SendRequestSync(ctx, command, args, nil)
	if err != nil {
		return *new(R), err
	}

	body, decodeErr := decodePayload[R](resp.Body)
	if decodeErr != nil {
		return body, fmt.Errorf("invalid body in '%s' response: %w", command, decodeErr)
	}
	return body, nil
}

func (e *Endpoint) onSlowRequest(p *PendingRequest, elapsed time.Duration) {
	req := p.Request()
	e.log.Info("Request is taking longer than expected", "Command", req.Command, "Seq", req.Seq, "Elapsed", elapsed.String())
	e.metrics.slowRequests.Add(context.Background(), 1, metric.WithAttributes(attribute.String("dap.command", req.Command)))
	if e.config.OnSlowRequest != nil {
		e.config.OnSlowRequest(req, elapsed)
	}
}
