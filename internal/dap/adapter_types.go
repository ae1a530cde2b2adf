/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package dap

import (
	"fmt"
	"time"
)

// DefaultAdapterConnectionTimeout is the default timeout for connecting to a debug adapter.
const DefaultAdapterConnectionTimeout = 10 * time.Second

// AdapterMode specifies how a debug adapter process communicates.
type AdapterMode string

const (
	// AdapterModeStdio indicates the adapter speaks the protocol on its stdin/stdout.
	AdapterModeStdio AdapterMode = "stdio"

	// AdapterModeTCPCallback indicates we listen on a port and the adapter connects to us.
	// The {{port}} placeholder in the args is replaced with the listening port.
	AdapterModeTCPCallback AdapterMode = "tcp-callback"

	// AdapterModeTCPConnect indicates the adapter listens on a port we pick and we connect to it.
	// The {{port}} placeholder in the args is replaced with the allocated port.
	AdapterModeTCPConnect AdapterMode = "tcp-connect"
)

// ParseAdapterMode validates a mode name. An empty name means stdio.
func ParseAdapterMode(s string) (AdapterMode, error) {
	switch AdapterMode(s) {
	case "":
		return AdapterModeStdio, nil
	case AdapterModeStdio, AdapterModeTCPCallback, AdapterModeTCPConnect:
		return AdapterMode(s), nil
	default:
		return "", fmt.Errorf("unknown debug adapter mode '%s' (expected %s, %s or %s)",
			s, AdapterModeStdio, AdapterModeTCPCallback, AdapterModeTCPConnect)
	}
}

// EnvVar is an environment variable set for the adapter process.
type EnvVar struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// AdapterConfig holds the configuration for launching a debug adapter process.
type AdapterConfig struct {
	// Args contains the executable path followed by its arguments.
	// May contain the "{{port}}" placeholder for TCP modes.
	Args []string `json:"args"`

	// Mode specifies how the adapter communicates. An empty mode is treated as stdio.
	Mode AdapterMode `json:"mode,omitempty"`

	// Env contains environment variables to set for the adapter process.
	Env []EnvVar `json:"env,omitempty"`

	// ConnectionTimeout bounds connection establishment in TCP modes.
	// If zero, DefaultAdapterConnectionTimeout is used.
	ConnectionTimeout time.Duration `json:"connectionTimeout,omitempty"`
}

// GetConnectionTimeout returns the connection timeout, falling back to DefaultAdapterConnectionTimeout.
func (c *AdapterConfig) GetConnectionTimeout() time.Duration {
	if c.ConnectionTimeout > 0 {
		return c.ConnectionTimeout
	}
	return DefaultAdapterConnectionTimeout
}

// EffectiveMode returns the adapter mode, defaulting to AdapterModeStdio if Mode is empty or unrecognized.
func (c *AdapterConfig) EffectiveMode() AdapterMode {
	switch c.Mode {
	case AdapterModeStdio, AdapterModeTCPCallback, AdapterModeTCPConnect:
		return c.Mode
	default:
		return AdapterModeStdio
	}
}
