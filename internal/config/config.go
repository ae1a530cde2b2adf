/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

// Package config provides the protocol engine configuration loaded from environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/kelseyhightower/envconfig"

	"github.com/neo-project/neo-debugger-sub001/internal/dap"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "NEODAP"

// Config holds the process-level settings of protocol endpoints and debug adapters.
type Config struct {
	// Compatibility switches for peers that do not follow the protocol to the letter.
	IgnoreUnexpectedResponses      bool `envconfig:"IGNORE_UNEXPECTED_RESPONSES" default:"false"`
	AllowWildcardRegistrations     bool `envconfig:"ALLOW_WILDCARD_REGISTRATIONS" default:"false"`
	ResponseCommandCaseInsensitive bool `envconfig:"RESPONSE_COMMAND_CASE_INSENSITIVE" default:"false"`
	AllowResponseCommandNull       bool `envconfig:"ALLOW_RESPONSE_COMMAND_NULL" default:"false"`

	// Timing. A negative slow request threshold turns the slow request diagnostic off.
	SlowRequestThreshold time.Duration `envconfig:"SLOW_REQUEST_THRESHOLD" default:"1s"`
	SyncPollInterval     time.Duration `envconfig:"SYNC_POLL_INTERVAL" default:"100ms"`
	DrainTimeout         time.Duration `envconfig:"DRAIN_TIMEOUT" default:"2s"`

	// Debug adapter processes
	AdapterMode              string        `envconfig:"ADAPTER_MODE" default:"stdio"`
	AdapterConnectionTimeout time.Duration `envconfig:"ADAPTER_CONNECTION_TIMEOUT" default:"10s"`
}

// Load reads the configuration from NEODAP_* environment variables, applying defaults for unset ones.
func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process(EnvPrefix, &c); err != nil {
		return nil, fmt.Errorf("invalid %s_* environment configuration: %w", EnvPrefix, err)
	}
	return &c, nil
}

// Validate checks value ranges that envconfig cannot express.
func (c *Config) Validate() error {
	var errs []error
	if c.SlowRequestThreshold == 0 {
		errs = append(errs, fmt.Errorf("%s_SLOW_REQUEST_THRESHOLD must not be zero (use a negative value to disable it)", EnvPrefix))
	}
	if c.SyncPollInterval <= 0 {
		errs = append(errs, fmt.Errorf("%s_SYNC_POLL_INTERVAL must be positive", EnvPrefix))
	}
	if c.DrainTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s_DRAIN_TIMEOUT must be positive", EnvPrefix))
	}
	if c.AdapterConnectionTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s_ADAPTER_CONNECTION_TIMEOUT must be positive", EnvPrefix))
	}
	if _, modeErr := dap.ParseAdapterMode(c.AdapterMode); modeErr != nil {
		errs = append(errs, fmt.Errorf("%s_ADAPTER_MODE: %w", EnvPrefix, modeErr))
	}
	return errors.Join(errs...)
}

// EndpointConfig converts the settings into the configuration of an endpoint with the given name.
func (c *Config) EndpointConfig(name string, log logr.Logger) dap.EndpointConfig {
	return dap.EndpointConfig{
		Name:                           name,
		Logger:                         log,
		IgnoreUnexpectedResponses:      c.IgnoreUnexpectedResponses,
		AllowWildcardRegistrations:     c.AllowWildcardRegistrations,
		ResponseCommandCaseInsensitive: c.ResponseCommandCaseInsensitive,
		AllowResponseCommandNull:       c.AllowResponseCommandNull,
		SlowRequestThreshold:           c.SlowRequestThreshold,
		SyncPollInterval:               c.SyncPollInterval,
		DrainTimeout:                   c.DrainTimeout,
	}
}

// AdapterConfig builds the launch configuration of a debug adapter started with args.
// The mode must have been checked by Validate.
func (c *Config) AdapterConfig(args []string) *dap.AdapterConfig {
	mode, _ := dap.ParseAdapterMode(c.AdapterMode)
	return &dap.AdapterConfig{
		Args:              args,
		Mode:              mode,
		ConnectionTimeout: c.AdapterConnectionTimeout,
	}
}
