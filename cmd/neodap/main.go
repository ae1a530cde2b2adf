/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	cmdutil "github.com/neo-project/neo-debugger-sub001/internal/commands"
	"github.com/neo-project/neo-debugger-sub001/internal/dap"
	"github.com/neo-project/neo-debugger-sub001/internal/telemetry"
	"github.com/neo-project/neo-debugger-sub001/pkg/logger"
	"github.com/neo-project/neo-debugger-sub001/pkg/resiliency"
)

const (
	errCommandError = 1
	errSetup        = 2
	errPanic        = 3
)

func main() {
	log := logger.New("neodap").WithName("neodap")
	defer func() {
		panicErr := resiliency.MakePanicError(recover(), log.Logger)
		if panicErr != nil {
			_, _ = os.Stderr.Write(cmdutil.WithNewline([]byte(panicErr.Error())))
			log.Flush()
			os.Exit(errPanic)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dap.SetSerializationLogger(log.Logger.WithName("serialization"))

	telemetrySystem, err := telemetry.NewTelemetrySystem("neodap")
	if err != nil {
		cmdutil.ErrorExit(log, err, errSetup)
	}

	root, err := cmdutil.NewRootCommand(log)
	if err != nil {
		cmdutil.ErrorExit(log, err, errSetup)
	}

	err = root.ExecuteContext(ctx)
	_ = telemetrySystem.Shutdown(context.Background())
	if err != nil {
		cmdutil.ErrorExit(log, err, errCommandError)
	} else {
		log.Flush()
	}
}
