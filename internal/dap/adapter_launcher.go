/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package dap

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/go-logr/logr"
)

// PortPlaceholder is the placeholder in adapter args that is replaced with the allocated port.
const PortPlaceholder = "{{port}}"

// Environment variables with these prefixes configure this program and are not passed to adapters.
var suppressedEnvPrefixes = []string{"NEODAP_"}

// ErrInvalidAdapterConfig is returned when the debug adapter configuration is invalid.
var ErrInvalidAdapterConfig = errors.New("invalid debug adapter configuration: Args must have at least one element")

// ErrAdapterConnectionTimeout is returned when no connection with the adapter was established in time.
var ErrAdapterConnectionTimeout = errors.New("debug adapter connection timeout")

// ErrAdapterExited is returned when the adapter process exits before a connection is established.
var ErrAdapterExited = errors.New("debug adapter process exited before a connection was established")

// LaunchedAdapter is a running debug adapter process and the stream connected to it.
type LaunchedAdapter struct {
	// Stream carries protocol frames to and from the adapter.
	Stream Stream

	cmd      *exec.Cmd
	pid      int
	listener net.Listener
	done     chan struct{}

	// mu protects exitCode and exitErr.
	mu       sync.Mutex
	exitCode int
	exitErr  error
}

// Pid returns the process ID of the debug adapter.
func (la *LaunchedAdapter) Pid() int {
	return la.pid
}

// Done returns a channel that is closed when the adapter process exits.
func (la *LaunchedAdapter) Done() <-chan struct{} {
	return la.done
}

// Wait blocks until the adapter process exits and returns its exit error, if any.
func (la *LaunchedAdapter) Wait() error {
	<-la.done
	la.mu.Lock()
	defer la.mu.Unlock()
	return la.exitErr
}

// ExitCode returns the process exit code, or -1 if the process has not exited.
func (la *LaunchedAdapter) ExitCode() int {
	la.mu.Lock()
	defer la.mu.Unlock()
	return la.exitCode
}

// Close closes the stream and the listener, but does not stop the process.
// The process is killed when the context passed to LaunchAdapter is cancelled.
func (la *LaunchedAdapter) Close() error {
	var errs []error
	if la.listener != nil {
		if err := la.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, err)
		}
	}
	if la.Stream != nil {
		if err := la.Stream.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Stop kills the adapter process if it is still running.
func (la *LaunchedAdapter) Stop() error {
	select {
	case <-la.done:
		return nil
	default:
	}
	if err := la.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

func (la *LaunchedAdapter) waitForExit(log logr.Logger) {
	waitErr := la.cmd.Wait()

	la.mu.Lock()
	la.exitCode = la.cmd.ProcessState.ExitCode()
	la.exitErr = waitErr
	la.mu.Unlock()
	close(la.done)

	if waitErr != nil {
		log.V(1).Info("Debug adapter process exited with error", "PID", la.pid, "ExitCode", la.exitCode, "Error", waitErr.Error())
	} else {
		log.V(1).Info("Debug adapter process exited", "PID", la.pid, "ExitCode", la.exitCode)
	}
}

// LaunchAdapter starts a debug adapter process and connects to it.
// The process lifetime is tied to ctx: when ctx is cancelled the process is killed.
// The caller must Close the adapter when done.
func LaunchAdapter(ctx context.Context, config *AdapterConfig, log logr.Logger) (*LaunchedAdapter, error) {
	if config == nil || len(config.Args) == 0 {
		return nil, ErrInvalidAdapterConfig
	}

	switch config.EffectiveMode() {
	case AdapterModeTCPCallback:
		return launchTCPCallbackAdapter(ctx, config, log)
	case AdapterModeTCPConnect:
		return launchTCPConnectAdapter(ctx, config, log)
	default:
		return launchStdioAdapter(ctx, config, log)
	}
}

// startAdapterProcess starts the process with stderr forwarded to the log.
// With withStdio set, the returned adapter's Stream is connected to the process stdin/stdout.
func startAdapterProcess(ctx context.Context, args []string, config *AdapterConfig, withStdio bool, log logr.Logger) (*LaunchedAdapter, error) {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Env = buildFilteredEnv(config)

	var childEnds, parentEnds []io.Closer
	closeAll := func(closers []io.Closer) {
		for _, c := range closers {
			_ = c.Close()
		}
	}

	stderrRead, stderrWrite, pipeErr := os.Pipe()
	if pipeErr != nil {
		return nil, fmt.Errorf("failed to create stderr pipe: %w", pipeErr)
	}
	cmd.Stderr = stderrWrite
	childEnds = append(childEnds, stderrWrite)
	parentEnds = append(parentEnds, stderrRead)

	var stdinWrite, stdoutRead *os.File
	if withStdio {
		stdinRead, w, stdinErr := os.Pipe()
		if stdinErr != nil {
			closeAll(append(childEnds, parentEnds...))
			return nil, fmt.Errorf("failed to create stdin pipe: %w", stdinErr)
		}
		r, stdoutWrite, stdoutErr := os.Pipe()
		if stdoutErr != nil {
			closeAll(append(childEnds, parentEnds...))
			_ = stdinRead.Close()
			_ = w.Close()
			return nil, fmt.Errorf("failed to create stdout pipe: %w", stdoutErr)
		}

		cmd.Stdin = stdinRead
		cmd.Stdout = stdoutWrite
		childEnds = append(childEnds, stdinRead, stdoutWrite)
		parentEnds = append(parentEnds, w, r)
		stdinWrite, stdoutRead = w, r
	}

	if startErr := cmd.Start(); startErr != nil {
		closeAll(append(childEnds, parentEnds...))
		return nil, fmt.Errorf("failed to start debug adapter: %w", startErr)
	}

	// The child has its own copies now.
	closeAll(childEnds)

	adapter := &LaunchedAdapter{
		cmd:      cmd,
		pid:      cmd.Process.Pid,
		done:     make(chan struct{}),
		exitCode: -1,
	}
	go adapter.waitForExit(log)
	go logStderr(stderrRead, log.WithValues("PID", adapter.pid))

	if withStdio {
		adapter.Stream = NewStdioStream(stdoutRead, stdinWrite)
	}
	return adapter, nil
}

func launchStdioAdapter(ctx context.Context, config *AdapterConfig, log logr.Logger) (*LaunchedAdapter, error) {
	adapter, startErr := startAdapterProcess(ctx, config.Args, config, true, log)
	if startErr != nil {
		return nil, startErr
	}

	log.Info("Launched debug adapter process (stdio mode)",
		"Command", config.Args[0],
		"Args", config.Args[1:],
		"PID", adapter.pid)
	return adapter, nil
}

// launchTCPCallbackAdapter listens on a free port and waits for the adapter to connect to it.
func launchTCPCallbackAdapter(ctx context.Context, config *AdapterConfig, log logr.Logger) (*LaunchedAdapter, error) {
	listener, listenErr := net.Listen("tcp", "127.0.0.1:0")
	if listenErr != nil {
		return nil, fmt.Errorf("failed to create listener: %w", listenErr)
	}

	listenerAddr := listener.Addr().String()
	_, portStr, _ := net.SplitHostPort(listenerAddr)
	args := substitutePort(config.Args, portStr)

	adapter, startErr := startAdapterProcess(ctx, args, config, false, log)
	if startErr != nil {
		_ = listener.Close()
		return nil, startErr
	}
	adapter.listener = listener

	log.Info("Launched debug adapter process (tcp-callback mode)",
		"Command", args[0],
		"Args", args[1:],
		"PID", adapter.pid,
		"ListenAddress", listenerAddr)

	type acceptResult struct {
		conn net.Conn
		err  error
	}
	accepted := make(chan acceptResult, 1)
	go func() {
		conn, acceptErr := listener.Accept()
		accepted <- acceptResult{conn, acceptErr}
	}()

	waitCtx, cancel := context.WithTimeout(ctx, config.GetConnectionTimeout())
	defer cancel()

	select {
	case res := <-accepted:
		if res.err != nil {
			_ = adapter.Stop()
			_ = listener.Close()
			return nil, fmt.Errorf("failed to accept adapter connection: %w", res.err)
		}
		log.Info("Debug adapter connected", "RemoteAddress", res.conn.RemoteAddr().String())
		adapter.Stream = res.conn
		return adapter, nil

	case <-adapter.done:
		_ = listener.Close()
		return nil, ErrAdapterExited

	case <-waitCtx.Done():
		_ = adapter.Stop()
		_ = listener.Close()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrAdapterConnectionTimeout
	}
}

// launchTCPConnectAdapter picks a free port for the adapter to listen on and connects to it.
func launchTCPConnectAdapter(ctx context.Context, config *AdapterConfig, log logr.Logger) (*LaunchedAdapter, error) {
	port, portErr := getFreePort()
	if portErr != nil {
		return nil, fmt.Errorf("failed to allocate port: %w", portErr)
	}

	args := substitutePort(config.Args, strconv.Itoa(port))
	adapter, startErr := startAdapterProcess(ctx, args, config, false, log)
	if startErr != nil {
		return nil, startErr
	}

	log.Info("Launched debug adapter process (tcp-connect mode)",
		"Command", args[0],
		"Args", args[1:],
		"PID", adapter.pid,
		"Port", port)

	dialCtx, cancel := context.WithTimeout(ctx, config.GetConnectionTimeout())
	defer cancel()
	go func() {
		select {
		case <-adapter.done:
			cancel()
		case <-dialCtx.Done():
		}
	}()

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	stream, dialErr := DialTCP(dialCtx, addr)
	if dialErr != nil {
		select {
		case <-adapter.done:
			return nil, ErrAdapterExited
		default:
		}
		_ = adapter.Stop()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrAdapterConnectionTimeout, dialErr)
	}

	log.Info("Connected to debug adapter", "Address", addr)
	adapter.Stream = stream
	return adapter, nil
}

func getFreePort() (int, error) {
	l, listenErr := net.Listen("tcp", "127.0.0.1:0")
	if listenErr != nil {
		return 0, listenErr
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// substitutePort replaces the {{port}} placeholder in args with the actual port.
func substitutePort(args []string, port string) []string {
	result := make([]string, len(args))
	for i, arg := range args {
		result[i] = strings.ReplaceAll(arg, PortPlaceholder, port)
	}
	return result
}

// buildFilteredEnv returns the inherited environment without variables that configure this program,
// followed by the variables from the adapter configuration, which take precedence.
func buildFilteredEnv(config *AdapterConfig) []string {
	var env []string
	for _, entry := range os.Environ() {
		if !isSuppressedEnvVar(entry) {
			env = append(env, entry)
		}
	}
	for _, e := range config.Env {
		env = append(env, e.Name+"="+e.Value)
	}
	return env
}

func isSuppressedEnvVar(entry string) bool {
	for _, prefix := range suppressedEnvPrefixes {
		if strings.HasPrefix(entry, prefix) {
			return true
		}
	}
	return false
}

// logStderr logs the adapter's stderr line by line until the pipe is closed.
func logStderr(stderr io.ReadCloser, log logr.Logger) {
	defer stderr.Close()

	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		log.Info("Debug adapter stderr", "Output", scanner.Text())
	}
}
