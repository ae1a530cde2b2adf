/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package commands

import (
	"encoding/json"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/neo-project/neo-debugger-sub001/internal/config"
	"github.com/neo-project/neo-debugger-sub001/internal/dap"
	"github.com/neo-project/neo-debugger-sub001/internal/version"
)

func NewInfoCommand(log logr.Logger) (*cobra.Command, error) {
	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "Prints version information and the effective protocol engine configuration.",
		Long: `Prints version information and the effective protocol engine configuration.

The configuration is read from NEODAP_* environment variables.`,
		RunE: getInfo(log),
		Args: cobra.NoArgs,
	}

	return infoCmd, nil
}

type engineInfo struct {
	IgnoreUnexpectedResponses      bool   `json:"ignoreUnexpectedResponses"`
	AllowWildcardRegistrations     bool   `json:"allowWildcardRegistrations"`
	ResponseCommandCaseInsensitive bool   `json:"responseCommandCaseInsensitive"`
	AllowResponseCommandNull       bool   `json:"allowResponseCommandNull"`
	SlowRequestThreshold           string `json:"slowRequestThreshold"`
	SyncPollInterval               string `json:"syncPollInterval"`
	DrainTimeout                   string `json:"drainTimeout"`
	AdapterMode                    string `json:"adapterMode"`
	AdapterConnectionTimeout       string `json:"adapterConnectionTimeout"`
}

type information struct {
	Version  version.VersionOutput `json:"version"`
	Engine   engineInfo            `json:"engine"`
	Commands []string              `json:"frontEndCommands"`
}

func getInfo(log logr.Logger) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		log := log.WithName("info")

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err = cfg.Validate(); err != nil {
			return err
		}

		info := information{
			Version: version.Version(),
			Engine: engineInfo{
				IgnoreUnexpectedResponses:      cfg.IgnoreUnexpectedResponses,
				AllowWildcardRegistrations:     cfg.AllowWildcardRegistrations,
				ResponseCommandCaseInsensitive: cfg.ResponseCommandCaseInsensitive,
				AllowResponseCommandNull:       cfg.AllowResponseCommandNull,
				SlowRequestThreshold:           cfg.SlowRequestThreshold.String(),
				SyncPollInterval:               cfg.SyncPollInterval.String(),
				DrainTimeout:                   cfg.DrainTimeout.String(),
				AdapterMode:                    cfg.AdapterMode,
				AdapterConnectionTimeout:       cfg.AdapterConnectionTimeout.String(),
			},
			Commands: dap.FrontEndCommandNames(),
		}

		data, err := json.Marshal(info)
		if err != nil {
			log.Error(err, "Could not serialize application information")
			return err
		}

		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}
}
