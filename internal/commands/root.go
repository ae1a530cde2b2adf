/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neo-project/neo-debugger-sub001/pkg/logger"
)

func NewRootCommand(log *logger.Logger) (*cobra.Command, error) {
	rootCmd := &cobra.Command{
		SilenceErrors: true,
		Use:           "neodap",
		Short:         "Talks the debug adapter protocol to Neo smart contract debuggers",
		Long: `Talks the debug adapter protocol to Neo smart contract debuggers.

Protocol engine settings are read from NEODAP_* environment variables; run "neodap info" to see them.`,
		SilenceUsage:     true,
		PersistentPreRun: LogVersion(log.Logger, "Starting neodap..."),
	}

	rootCmd.CompletionOptions.HiddenDefaultCmd = true

	log.AddLevelFlag(rootCmd.PersistentFlags())

	var err error
	var cmd *cobra.Command

	if cmd, err = NewVersionCommand(log.Logger); err != nil {
		return nil, fmt.Errorf("could not set up 'version' command: %w", err)
	} else {
		rootCmd.AddCommand(cmd)
	}

	if cmd, err = NewInfoCommand(log.Logger); err != nil {
		return nil, fmt.Errorf("could not set up 'info' command: %w", err)
	} else {
		rootCmd.AddCommand(cmd)
	}

	rootCmd.AddCommand(NewProbeCommand(log.Logger))

	return rootCmd, nil
}
