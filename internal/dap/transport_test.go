/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package dap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-dap"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neo-project/neo-debugger-sub001/pkg/testutil"
)

// uniqueSocketPath generates a unique, short socket path for testing.
// macOS has a ~104 character limit for Unix socket paths, so we use
// the system temp directory with a short filename.
func uniqueSocketPath(t *testing.T, suffix string) string {
	t.Helper()
	socketPath := filepath.Join(os.TempDir(), fmt.Sprintf("dap-%s-%d.sock", suffix, time.Now().UnixNano()))
	t.Cleanup(func() { os.Remove(socketPath) })
	return socketPath
}

// readOneMessage reads frames from the stream until a complete message arrives.
func readOneMessage(t *testing.T, r io.Reader) Message {
	t.Helper()

	var msg Message
	errGotMessage := errors.New("got message")
	err := ReadFrames(r, func(body []byte) error {
		var decodeErr error
		msg, decodeErr = DecodeMessage(body)
		if decodeErr != nil {
			return decodeErr
		}
		return errGotMessage
	})
	require.ErrorIs(t, err, errGotMessage)
	return msg
}

// exerciseStreams sends a request in each direction and checks that it arrives intact.
func exerciseStreams(t *testing.T, a, b Stream) {
	t.Helper()

	request := &Request{
		ProtocolMessage: ProtocolMessage{Seq: 1, Type: MessageTypeRequest},
		Command:         CommandInitialize,
		Arguments:       []byte(`{"adapterID":"neo-contract"}`),
	}
	frame, err := EncodeFrame(request)
	require.NoError(t, err)

	// Writes on a synchronous transport block until the peer reads, so write from another goroutine.
	writeErrs := make(chan error, 1)
	go func() {
		_, writeErr := a.Write(frame)
		writeErrs <- writeErr
	}()
	assert.Equal(t, request, readOneMessage(t, b))
	require.NoError(t, <-writeErrs)

	event := &Event{
		ProtocolMessage: ProtocolMessage{Seq: 1, Type: MessageTypeEvent},
		Event:           EventOutput,
		Body:            []byte(`{"category":"stdout","output":"héllo"}`),
	}
	frame, err = EncodeFrame(event)
	require.NoError(t, err)
	go func() {
		_, writeErr := b.Write(frame)
		writeErrs <- writeErr
	}()
	assert.Equal(t, event, readOneMessage(t, a))
	require.NoError(t, <-writeErrs)
}

func TestStdioStream(t *testing.T) {
	t.Parallel()

	aRead, bWrite := io.Pipe()
	bRead, aWrite := io.Pipe()
	a := NewStdioStream(aRead, aWrite)
	b := NewStdioStream(bRead, bWrite)

	exerciseStreams(t, a, b)

	require.NoError(t, a.Close())
	require.NoError(t, a.Close(), "closing twice is harmless")

	_, readErr := b.Read(make([]byte, 1))
	assert.ErrorIs(t, readErr, io.EOF, "the peer sees the end of the stream")
	_, writeErr := b.Write([]byte("x"))
	assert.ErrorIs(t, writeErr, io.ErrClosedPipe)
}

func TestDialTCP(t *testing.T) {
	t.Parallel()

	listener, listenErr := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, listenErr)
	defer listener.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, acceptErr := listener.Accept()
		if acceptErr == nil {
			accepted <- conn
		}
	}()

	ctx, cancel := testutil.GetTestContext(t, defaultEndpointTestTimeout)
	defer cancel()

	client, dialErr := DialTCP(ctx, listener.Addr().String())
	require.NoError(t, dialErr)
	defer client.Close()

	server := <-accepted
	defer server.Close()

	exerciseStreams(t, client, server)
}

func TestDialTCPRetriesUntilListening(t *testing.T) {
	t.Parallel()

	port, portErr := getFreePort()
	require.NoError(t, portErr)
	address := net.JoinHostPort("127.0.0.1", fmt.Sprint(port))

	accepted := make(chan net.Conn, 1)
	go func() {
		time.Sleep(300 * time.Millisecond)
		listener, listenErr := net.Listen("tcp", address)
		if listenErr != nil {
			return
		}
		defer listener.Close()
		conn, acceptErr := listener.Accept()
		if acceptErr == nil {
			accepted <- conn
		}
	}()

	ctx, cancel := testutil.GetTestContext(t, defaultEndpointTestTimeout)
	defer cancel()

	client, dialErr := DialTCP(ctx, address)
	require.NoError(t, dialErr, "the dial should be retried until the listener appears")
	defer client.Close()

	select {
	case server := <-accepted:
		server.Close()
	case <-time.After(defaultEndpointTestTimeout):
		require.Fail(t, "connection was not accepted")
	}
}

func TestDialTCPGivesUpWhenContextExpires(t *testing.T) {
	t.Parallel()

	port, portErr := getFreePort()
	require.NoError(t, portErr)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	_, dialErr := DialTCP(ctx, net.JoinHostPort("127.0.0.1", fmt.Sprint(port)))
	require.Error(t, dialErr)
	assert.ErrorIs(t, dialErr, context.DeadlineExceeded)
}

func TestDialUnix(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("Unix domain sockets are not used on Windows")
	}

	socketPath := uniqueSocketPath(t, "dial")
	listener, listenErr := net.Listen("unix", socketPath)
	require.NoError(t, listenErr)
	defer listener.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, acceptErr := listener.Accept()
		if acceptErr == nil {
			accepted <- conn
		}
	}()

	ctx, cancel := testutil.GetTestContext(t, defaultEndpointTestTimeout)
	defer cancel()

	client, dialErr := DialUnix(ctx, socketPath)
	require.NoError(t, dialErr)
	defer client.Close()

	server := <-accepted
	defer server.Close()

	exerciseStreams(t, client, server)
}

func newWebSocketServer(t *testing.T) (string, <-chan Stream) {
	t.Helper()

	streams := make(chan Stream, 1)
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, upgradeErr := upgrader.Upgrade(w, r, nil)
		if upgradeErr != nil {
			return
		}
		streams <- NewWebSocketStream(conn)
	}))
	t.Cleanup(server.Close)

	return "ws" + strings.TrimPrefix(server.URL, "http"), streams
}

func TestWebSocketStream(t *testing.T) {
	t.Parallel()

	url, serverStreams := newWebSocketServer(t)

	ctx, cancel := testutil.GetTestContext(t, defaultEndpointTestTimeout)
	defer cancel()

	client, dialErr := DialWebSocket(ctx, url, nil)
	require.NoError(t, dialErr)

	server := <-serverStreams
	exerciseStreams(t, client, server)

	require.NoError(t, client.Close())
	_, readErr := server.Read(make([]byte, 16))
	assert.ErrorIs(t, readErr, io.EOF, "a normal closure is the end of the stream")
	_ = server.Close()
}

func TestWebSocketStreamReadsAcrossMessages(t *testing.T) {
	t.Parallel()

	url, serverStreams := newWebSocketServer(t)

	ctx, cancel := testutil.GetTestContext(t, defaultEndpointTestTimeout)
	defer cancel()

	client, dialErr := DialWebSocket(ctx, url, nil)
	require.NoError(t, dialErr)
	defer client.Close()
	server := <-serverStreams
	defer server.Close()

	// A frame split over two messages, followed by a second frame in its own message.
	frame := testFrame([]byte(`{"seq":1,"type":"event","event":"initialized"}`))
	_, err := client.Write(frame[:10])
	require.NoError(t, err)
	_, err = client.Write(frame[10:])
	require.NoError(t, err)
	_, err = client.Write(testFrame([]byte(`{"seq":2,"type":"event","event":"exited"}`)))
	require.NoError(t, err)

	var events []string
	errDone := errors.New("done")
	err = ReadFrames(server, func(body []byte) error {
		msg, decodeErr := DecodeMessage(body)
		if decodeErr != nil {
			return decodeErr
		}
		events = append(events, msg.(*Event).Event)
		if len(events) == 2 {
			return errDone
		}
		return nil
	})
	require.ErrorIs(t, err, errDone)
	assert.Equal(t, []string{EventInitialized, EventExited}, events)
}

func TestEndpointsOverTCP(t *testing.T) {
	t.Parallel()

	listener, listenErr := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, listenErr)
	defer listener.Close()

	ctx, cancel := testutil.GetTestContext(t, defaultEndpointTestTimeout)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	var hostErr error
	var host *Host
	go func() {
		defer wg.Done()
		conn, acceptErr := listener.Accept()
		if acceptErr != nil {
			hostErr = acceptErr
			return
		}
		host, hostErr = NewHost(NewEndpointOverStream(conn, EndpointConfig{
			Name:   "host",
			Logger: testutil.NewLogForTesting(t.Name() + "-host"),
		}), HostHandlers{
			Threads: func(context.Context) (dap.ThreadsResponseBody, error) {
				return dap.ThreadsResponseBody{Threads: []dap.Thread{{Id: 1, Name: "main"}}}, nil
			},
		})
		if hostErr == nil {
			hostErr = host.Start(ctx)
		}
	}()

	stream, dialErr := DialTCP(ctx, listener.Addr().String())
	require.NoError(t, dialErr)
	client := NewClient(NewEndpointOverStream(stream, EndpointConfig{
		Name:   "client",
		Logger: testutil.NewLogForTesting(t.Name() + "-client"),
	}))
	require.NoError(t, client.Start(ctx))
	defer client.Stop()

	wg.Wait()
	require.NoError(t, hostErr)
	defer host.Stop()

	threads, err := client.Threads(ctx)
	require.NoError(t, err)
	assert.Equal(t, []dap.Thread{{Id: 1, Name: "main"}}, threads)

	require.NoError(t, client.Disconnect(ctx, dap.DisconnectArguments{}))
	select {
	case <-client.Endpoint().Done():
	case <-time.After(defaultEndpointTestTimeout):
		require.Fail(t, "client did not stop after the host disconnected")
	}
}

func TestEndpointClosesStreamOnce(t *testing.T) {
	t.Parallel()

	var closes int
	stream := &countingStream{Reader: bytes.NewReader(nil), Writer: io.Discard, onClose: func() { closes++ }}
	e := NewEndpointOverStream(stream, EndpointConfig{Logger: testutil.NewLogForTesting(t.Name())})

	ctx, cancel := testutil.GetTestContext(t, defaultEndpointTestTimeout)
	defer cancel()
	require.NoError(t, e.Start(ctx))

	// The empty reader ends the stream right away.
	require.NoError(t, e.Wait(ctx))
	assert.Equal(t, 1, closes, "a stream used for both directions is closed once")
}

type countingStream struct {
	io.Reader
	io.Writer
	onClose func()
}

func (s *countingStream) Close() error {
	s.onClose()
	return nil
}

func TestDialAddress(t *testing.T) {
	t.Parallel()

	listener, listenErr := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, listenErr)
	defer listener.Close()
	go func() {
		for {
			conn, acceptErr := listener.Accept()
			if acceptErr != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	url, serverStreams := newWebSocketServer(t)

	ctx, cancel := testutil.GetTestContext(t, defaultEndpointTestTimeout)
	defer cancel()

	for _, address := range []string{listener.Addr().String(), "tcp://" + listener.Addr().String(), url} {
		stream, dialErr := DialAddress(ctx, address)
		require.NoError(t, dialErr, "address '%s'", address)
		_ = stream.Close()
	}
	_ = (<-serverStreams).Close()

	_, dialErr := DialAddress(ctx, "http://"+listener.Addr().String())
	assert.ErrorContains(t, dialErr, "unsupported")
}
