// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package dap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/neo-project/neo-debugger-sub001/pkg/resiliency"
)

const webSocketCloseTimeout = time.Second

// Stream is a duplex byte stream that carries protocol frames.
// Closing the stream must unblock pending reads and writes.
type Stream interface {
	io.Reader
	io.Writer
	io.Closer
}

// NewEndpointOverStream creates an endpoint that reads from and writes to the same stream.
// The stream is closed when the endpoint stops.
func NewEndpointOverStream(stream Stream, config EndpointConfig) *Endpoint {
	return NewEndpoint(stream, stream, config)
}

// stdioStream implements Stream over a pair of one-way streams, such as the standard input
// and output of the current process or of a child process.
type stdioStream struct {
	stdin  io.ReadCloser
	stdout io.WriteCloser

	closeOnce sync.Once
	closeErr  error
}

// NewStdioStream creates a Stream that reads from stdin and writes to stdout.
func NewStdioStream(stdin io.ReadCloser, stdout io.WriteCloser) Stream {
	return &stdioStream{
		stdin:  stdin,
		stdout: stdout,
	}
}

func (s *stdioStream) Read(p []byte) (int, error) {
	return s.stdin.Read(p)
}

func (s *stdioStream) Write(p []byte) (int, error) {
	return s.stdout.Write(p)
}

func (s *stdioStream) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if closeErr := s.stdin.Close(); closeErr != nil {
			errs = append(errs, fmt.Errorf("failed to close input stream: %w", closeErr))
		}
		if closeErr := s.stdout.Close(); closeErr != nil {
			errs = append(errs, fmt.Errorf("failed to close output stream: %w", closeErr))
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}

// DialTCP connects to a TCP address, retrying with exponential back-off until the connection
// succeeds or the context is done. Callers should bound the context with a deadline.
func DialTCP(ctx context.Context, address string) (Stream, error) {
	conn, dialErr := resiliency.RetryGet(ctx, func() (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, "tcp", address)
	})
	if dialErr != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", address, dialErr)
	}
	return conn, nil
}

// DialUnix connects to a Unix domain socket, retrying like DialTCP.
func DialUnix(ctx context.Context, path string) (Stream, error) {
	conn, dialErr := resiliency.RetryGet(ctx, func() (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, "unix", path)
	})
	if dialErr != nil {
		return nil, fmt.Errorf("failed to connect to socket %s: %w", path, dialErr)
	}
	return conn, nil
}

// DialAddress connects to a debug adapter at an address of the form tcp://host:port, unix:///path/to/socket,
// ws://host:port/path or wss://host:port/path. An address without a scheme is treated as a TCP address.
func DialAddress(ctx context.Context, address string) (Stream, error) {
	u, parseErr := url.Parse(address)
	if parseErr != nil || u.Scheme == "" || u.Opaque != "" {
		// "localhost:4711" parses as scheme "localhost" with opaque "4711".
		return DialTCP(ctx, address)
	}

	switch u.Scheme {
	case "tcp":
		return DialTCP(ctx, u.Host)
	case "unix":
		path := u.Path
		if path == "" {
			path = u.Host
		}
		return DialUnix(ctx, path)
	case "ws", "wss":
		return DialWebSocket(ctx, address, nil)
	default:
		return nil, fmt.Errorf("unsupported debug adapter address scheme '%s'", u.Scheme)
	}
}

// webSocketStream implements Stream over a WebSocket connection.
// Every write is sent as one binary message; reads see the concatenated message payloads.
type webSocketStream struct {
	conn *websocket.Conn

	readLock sync.Mutex
	reader   io.Reader

	writeLock sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

// NewWebSocketStream creates a Stream over an established WebSocket connection.
func NewWebSocketStream(conn *websocket.Conn) Stream {
	return &webSocketStream{conn: conn}
}

// DialWebSocket connects to a WebSocket server, retrying like DialTCP.
func DialWebSocket(ctx context.Context, url string, header http.Header) (Stream, error) {
	conn, dialErr := resiliency.RetryGet(ctx, func() (*websocket.Conn, error) {
		c, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		return c, err
	})
	if dialErr != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, dialErr)
	}
	return NewWebSocketStream(conn), nil
}

func (s *webSocketStream) Read(p []byte) (int, error) {
	s.readLock.Lock()
	defer s.readLock.Unlock()

	for {
		if s.reader == nil {
			_, r, nextErr := s.conn.NextReader()
			if nextErr != nil {
				if websocket.IsCloseError(nextErr, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return 0, io.EOF
				}
				return 0, nextErr
			}
			s.reader = r
		}

		n, readErr := s.reader.Read(p)
		if errors.Is(readErr, io.EOF) {
			s.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, readErr
	}
}

func (s *webSocketStream) Write(p []byte) (int, error) {
	s.writeLock.Lock()
	defer s.writeLock.Unlock()

	if writeErr := s.conn.WriteMessage(websocket.BinaryMessage, p); writeErr != nil {
		return 0, writeErr
	}
	return len(p), nil
}

func (s *webSocketStream) Close() error {
	s.closeOnce.Do(func() {
		s.writeLock.Lock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(webSocketCloseTimeout))
		s.writeLock.Unlock()
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}
