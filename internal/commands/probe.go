/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/go-dap"
	"github.com/spf13/cobra"

	"github.com/neo-project/neo-debugger-sub001/internal/config"
	ndap "github.com/neo-project/neo-debugger-sub001/internal/dap"
)

const (
	defaultProbeTimeout = 30 * time.Second
	defaultAdapterID    = "neo-contract"
)

var errProbeTimeout = errors.New("timed out waiting for the debug session to end")

type probeOptions struct {
	connect    string
	mode       string
	timeout    time.Duration
	launchArgs string
	adapterID  string
}

func NewProbeCommand(log logr.Logger) *cobra.Command {
	opts := &probeOptions{}

	probeCmd := &cobra.Command{
		Use:   "probe [--connect address] [--mode mode] [--launch-args json] [--timeout duration] [-- adapter-command [args...]]",
		Short: "Runs a short debug session against a debug adapter and prints what it reports",
		Long: `Runs a short debug session against a debug adapter and prints what it reports.

The adapter is either launched from the command given after "--", or reached at the --connect address
(tcp://host:port, unix:///path/to/socket, ws://host:port/path).

The session sends initialize and prints the adapter capabilities. If --launch-args is given, it then sends
launch with those arguments and configurationDone, prints every event until the adapter reports that the
debuggee terminated, and disconnects. Each report is written to standard output as one JSON object per line.`,
		RunE: runProbe(log, opts),
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.connect == "" && len(args) == 0 {
				return errors.New("either --connect or an adapter command must be specified")
			}
			if opts.connect != "" && len(args) > 0 {
				return errors.New("--connect cannot be combined with an adapter command")
			}
			return nil
		},
	}

	probeCmd.Flags().StringVar(&opts.connect, "connect", "", "Address of a running debug adapter. If not specified, the adapter is launched from the command line arguments.")
	probeCmd.Flags().StringVar(&opts.mode, "mode", "", "How to communicate with a launched adapter: stdio, tcp-callback, or tcp-connect. Defaults to NEODAP_ADAPTER_MODE. In TCP modes the {{port}} placeholder in the adapter arguments is replaced with the port.")
	probeCmd.Flags().DurationVar(&opts.timeout, "timeout", defaultProbeTimeout, "How long to wait for the debug session to end.")
	probeCmd.Flags().StringVar(&opts.launchArgs, "launch-args", "", "JSON object with the arguments of the launch request. If not specified, only the capabilities are queried.")
	probeCmd.Flags().StringVar(&opts.adapterID, "adapter-id", defaultAdapterID, "The adapter ID sent in the initialize request.")

	return probeCmd
}

// probeReport is one line of probe output.
type probeReport struct {
	Kind  string `json:"kind"`
	Name  string `json:"name,omitempty"`
	Body  any    `json:"body,omitempty"`
	Error string `json:"error,omitempty"`
}

type reportWriter struct {
	lock sync.Mutex
	enc  *json.Encoder
}

func newReportWriter(w io.Writer) *reportWriter {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &reportWriter{enc: enc}
}

func (rw *reportWriter) write(r probeReport) {
	rw.lock.Lock()
	defer rw.lock.Unlock()
	_ = rw.enc.Encode(r)
}

func runProbe(log logr.Logger, opts *probeOptions) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		log := log.WithName("probe")

		cfg, cfgErr := config.Load()
		if cfgErr != nil {
			return cfgErr
		}
		if opts.mode != "" {
			cfg.AdapterMode = opts.mode
		}
		if validationErr := cfg.Validate(); validationErr != nil {
			log.Error(validationErr, "Invocation parameters are invalid")
			return validationErr
		}

		var launchArgs json.RawMessage
		if opts.launchArgs != "" {
			if !json.Valid([]byte(opts.launchArgs)) {
				return fmt.Errorf("--launch-args is not valid JSON")
			}
			launchArgs = json.RawMessage(opts.launchArgs)
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		stream, closeStream, streamErr := openAdapterStream(ctx, cfg, opts.connect, args, log)
		if streamErr != nil {
			log.Error(streamErr, "Could not connect to the debug adapter")
			return streamErr
		}
		defer closeStream()

		reports := newReportWriter(cmd.OutOrStdout())
		return probeSession(ctx, cfg, stream, launchArgs, opts, reports, log)
	}
}

// openAdapterStream dials the adapter at the given address, or launches it from args.
func openAdapterStream(ctx context.Context, cfg *config.Config, address string, args []string, log logr.Logger) (ndap.Stream, func(), error) {
	if address != "" {
		stream, dialErr := ndap.DialAddress(ctx, address)
		if dialErr != nil {
			return nil, nil, dialErr
		}
		return stream, func() { _ = stream.Close() }, nil
	}

	adapter, launchErr := ndap.LaunchAdapter(ctx, cfg.AdapterConfig(args), log)
	if launchErr != nil {
		return nil, nil, launchErr
	}
	return adapter.Stream, func() {
		_ = adapter.Close()
		_ = adapter.Stop()
	}, nil
}

func probeSession(
	ctx context.Context,
	cfg *config.Config,
	stream ndap.Stream,
	launchArgs json.RawMessage,
	opts *probeOptions,
	reports *reportWriter,
	log logr.Logger,
) error {
	endpointConfig := cfg.EndpointConfig("client", log)
	endpointConfig.OnDispatcherError = func(err error) {
		reports.write(probeReport{Kind: "error", Error: err.Error()})
	}
	client := ndap.NewClient(ndap.NewEndpointOverStream(stream, endpointConfig))

	initialized := make(chan struct{}, 1)
	terminated := make(chan struct{}, 1)
	registrationErr := errors.Join(
		client.OnInitialized(func(context.Context) {
			reports.write(probeReport{Kind: "event", Name: ndap.EventInitialized})
			notify(initialized)
		}),
		client.OnTerminated(func(_ context.Context, body dap.TerminatedEventBody) {
			reports.write(probeReport{Kind: "event", Name: ndap.EventTerminated, Body: body})
			notify(terminated)
		}),
		client.HandleRunInTerminal(func(context.Context, dap.RunInTerminalRequestArguments) (dap.RunInTerminalResponseBody, error) {
			return dap.RunInTerminalResponseBody{}, ndap.NewHandlerError(1, "runInTerminal is not supported by the probe", false)
		}),
	)
	for event := range ndap.BackEndEvents {
		if event == ndap.EventInitialized || event == ndap.EventTerminated {
			continue
		}
		event := event
		registrationErr = errors.Join(registrationErr, client.OnEvent(event, func(_ context.Context, body any) {
			reports.write(probeReport{Kind: "event", Name: event, Body: body})
		}))
	}
	if registrationErr != nil {
		return registrationErr
	}

	if startErr := client.Start(ctx); startErr != nil {
		return startErr
	}
	defer client.Stop()

	sessionCtx, cancelSession := context.WithTimeout(ctx, opts.timeout)
	defer cancelSession()

	caps, initErr := client.Initialize(sessionCtx, dap.InitializeRequestArguments{
		ClientID:        "neodap",
		ClientName:      "neodap probe",
		AdapterID:       opts.adapterID,
		LinesStartAt1:   true,
		ColumnsStartAt1: true,
		PathFormat:      "path",
	})
	if initErr != nil {
		return fmt.Errorf("initialize request failed: %w", initErr)
	}
	reports.write(probeReport{Kind: "capabilities", Body: caps})

	if launchArgs != nil {
		if launchErr := runLaunchedSession(sessionCtx, client, launchArgs, initialized, terminated, reports); launchErr != nil {
			return launchErr
		}
	}

	disconnectErr := client.Disconnect(sessionCtx, dap.DisconnectArguments{TerminateDebuggee: true})
	if disconnectErr != nil && !ndap.IsCancellation(disconnectErr) {
		return fmt.Errorf("disconnect request failed: %w", disconnectErr)
	}

	select {
	case <-client.Endpoint().Done():
	case <-sessionCtx.Done():
	}
	return nil
}

func runLaunchedSession(
	ctx context.Context,
	client *ndap.Client,
	launchArgs json.RawMessage,
	initialized, terminated <-chan struct{},
	reports *reportWriter,
) error {
	if launchErr := client.Launch(ctx, launchArgs); launchErr != nil {
		return fmt.Errorf("launch request failed: %w", launchErr)
	}

	select {
	case <-initialized:
	case <-ctx.Done():
		return fmt.Errorf("the adapter did not report that it is initialized: %w", ctx.Err())
	}

	if doneErr := client.ConfigurationDone(ctx); doneErr != nil {
		return fmt.Errorf("configurationDone request failed: %w", doneErr)
	}

	select {
	case <-terminated:
		return nil
	case <-client.Endpoint().Done():
		return client.Endpoint().Err()
	case <-ctx.Done():
		reports.write(probeReport{Kind: "error", Error: errProbeTimeout.Error()})
		return errProbeTimeout
	}
}

func notify(ch chan<- struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
