/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package dap

import (
	"errors"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neo-project/neo-debugger-sub001/pkg/testutil"
)

func TestBuildFilteredEnv_SuppressesOwnPrefix(t *testing.T) {
	t.Setenv("NEODAP_TEST_VAR", "should-be-removed")
	t.Setenv("NEODAP_ANOTHER", "also-removed")

	config := &AdapterConfig{}
	env := buildFilteredEnv(config)

	envMap := sliceToEnvMap(env)
	assert.NotContains(t, envMap, "NEODAP_TEST_VAR")
	assert.NotContains(t, envMap, "NEODAP_ANOTHER")
}

func TestBuildFilteredEnv_InheritsNonSuppressedVars(t *testing.T) {
	t.Setenv("MY_APP_VAR", "keep-this")

	config := &AdapterConfig{}
	env := buildFilteredEnv(config)

	envMap := sliceToEnvMap(env)
	assert.Equal(t, "keep-this", envMap["MY_APP_VAR"])
}

func TestBuildFilteredEnv_ConfigEnvVarsAreApplied(t *testing.T) {
	config := &AdapterConfig{
		Env: []EnvVar{
			{Name: "CUSTOM_VAR", Value: "custom-value"},
			{Name: "ANOTHER_VAR", Value: "another-value"},
		},
	}
	env := buildFilteredEnv(config)

	envMap := sliceToEnvMap(env)
	assert.Equal(t, "custom-value", envMap["CUSTOM_VAR"])
	assert.Equal(t, "another-value", envMap["ANOTHER_VAR"])
}

func TestBuildFilteredEnv_ConfigOverridesAmbient(t *testing.T) {
	t.Setenv("OVERRIDE_ME", "original")

	config := &AdapterConfig{
		Env: []EnvVar{
			{Name: "OVERRIDE_ME", Value: "overridden"},
		},
	}
	env := buildFilteredEnv(config)

	envMap := sliceToEnvMap(env)
	assert.Equal(t, "overridden", envMap["OVERRIDE_ME"])
}

func TestBuildFilteredEnv_ConfigCanSetSuppressedPrefixVars(t *testing.T) {
	t.Setenv("NEODAP_AMBIENT", "should-be-removed")

	config := &AdapterConfig{
		Env: []EnvVar{
			{Name: "NEODAP_EXPLICIT", Value: "explicitly-set"},
		},
	}
	env := buildFilteredEnv(config)

	envMap := sliceToEnvMap(env)
	assert.NotContains(t, envMap, "NEODAP_AMBIENT")
	assert.Equal(t, "explicitly-set", envMap["NEODAP_EXPLICIT"])
}

func TestBuildFilteredEnv_InheritsPath(t *testing.T) {
	pathVal := os.Getenv("PATH")
	require.NotEmpty(t, pathVal, "PATH should be set in the test environment")

	config := &AdapterConfig{}
	env := buildFilteredEnv(config)

	envMap := sliceToEnvMap(env)
	assert.Equal(t, pathVal, envMap["PATH"])
}

func TestParseAdapterMode(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		input    string
		expected AdapterMode
		isErr    bool
	}{
		{"", AdapterModeStdio, false},
		{"stdio", AdapterModeStdio, false},
		{"tcp-callback", AdapterModeTCPCallback, false},
		{"tcp-connect", AdapterModeTCPConnect, false},
		{"pipe", "", true},
		{"STDIO", "", true},
	}

	for _, tc := range testcases {
		mode, err := ParseAdapterMode(tc.input)
		if tc.isErr {
			assert.Error(t, err, "input '%s'", tc.input)
			continue
		}
		require.NoError(t, err, "input '%s'", tc.input)
		assert.Equal(t, tc.expected, mode)
	}
}

func TestAdapterConfigDefaults(t *testing.T) {
	t.Parallel()

	config := &AdapterConfig{Mode: "bogus"}
	assert.Equal(t, AdapterModeStdio, config.EffectiveMode())
	assert.Equal(t, DefaultAdapterConnectionTimeout, config.GetConnectionTimeout())

	config = &AdapterConfig{Mode: AdapterModeTCPConnect, ConnectionTimeout: 3 * time.Second}
	assert.Equal(t, AdapterModeTCPConnect, config.EffectiveMode())
	assert.Equal(t, 3*time.Second, config.GetConnectionTimeout())
}

func TestSubstitutePort(t *testing.T) {
	t.Parallel()

	args := []string{"neo-debug-adapter", "--port={{port}}", "--host", "127.0.0.1:{{port}}"}
	result := substitutePort(args, "4711")

	assert.Equal(t, []string{"neo-debug-adapter", "--port=4711", "--host", "127.0.0.1:4711"}, result)
	assert.Equal(t, "--port={{port}}", args[1], "the input args must not be modified")
}

func TestLaunchAdapterRequiresArgs(t *testing.T) {
	t.Parallel()

	ctx, cancel := testutil.GetTestContext(t, defaultEndpointTestTimeout)
	defer cancel()

	_, err := LaunchAdapter(ctx, &AdapterConfig{}, testutil.NewLogForTesting(t.Name()))
	assert.ErrorIs(t, err, ErrInvalidAdapterConfig)

	_, err = LaunchAdapter(ctx, nil, testutil.NewLogForTesting(t.Name()))
	assert.ErrorIs(t, err, ErrInvalidAdapterConfig)
}

func requireUnixTool(t *testing.T, name string) string {
	if runtime.GOOS == "windows" {
		t.Skip("test relies on Unix tools")
	}
	path, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("'%s' is not available: %v", name, err)
	}
	return path
}

func TestLaunchStdioAdapter(t *testing.T) {
	t.Parallel()

	cat := requireUnixTool(t, "cat")
	ctx, cancel := testutil.GetTestContext(t, defaultEndpointTestTimeout)
	defer cancel()

	// cat echoes every frame back, so the adapter answers each request with the request itself.
	adapter, err := LaunchAdapter(ctx, &AdapterConfig{Args: []string{cat}}, testutil.NewLogForTesting(t.Name()))
	require.NoError(t, err)
	assert.Greater(t, adapter.Pid(), 0)
	assert.Equal(t, -1, adapter.ExitCode())

	frame, err := EncodeFrame(&Request{ProtocolMessage: ProtocolMessage{Seq: 1, Type: MessageTypeRequest}, Command: CommandThreads})
	require.NoError(t, err)
	_, err = adapter.Stream.Write(frame)
	require.NoError(t, err)

	errStop := errors.New("stop")
	var echoed Message
	err = ReadFrames(adapter.Stream, func(body []byte) error {
		msg, decodeErr := DecodeMessage(body)
		if decodeErr != nil {
			return decodeErr
		}
		echoed = msg
		return errStop
	})
	require.ErrorIs(t, err, errStop)
	require.IsType(t, &Request{}, echoed)
	assert.Equal(t, CommandThreads, echoed.(*Request).Command)

	// Closing stdin makes cat exit normally.
	require.NoError(t, adapter.Close())
	select {
	case <-adapter.Done():
	case <-time.After(defaultEndpointTestTimeout):
		require.Fail(t, "adapter did not exit")
	}
	assert.Equal(t, 0, adapter.ExitCode())
}

func TestLaunchTCPCallbackAdapterExitsEarly(t *testing.T) {
	t.Parallel()

	trueCmd := requireUnixTool(t, "true")
	ctx, cancel := testutil.GetTestContext(t, defaultEndpointTestTimeout)
	defer cancel()

	_, err := LaunchAdapter(ctx, &AdapterConfig{
		Args: []string{trueCmd, "--port", PortPlaceholder},
		Mode: AdapterModeTCPCallback,
	}, testutil.NewLogForTesting(t.Name()))
	assert.ErrorIs(t, err, ErrAdapterExited)
}

func TestLaunchTCPConnectAdapterTimesOut(t *testing.T) {
	t.Parallel()

	sleep := requireUnixTool(t, "sleep")
	ctx, cancel := testutil.GetTestContext(t, defaultEndpointTestTimeout)
	defer cancel()

	// sleep never listens on the port it was given.
	_, err := LaunchAdapter(ctx, &AdapterConfig{
		Args:              []string{sleep, "30", PortPlaceholder},
		Mode:              AdapterModeTCPConnect,
		ConnectionTimeout: 500 * time.Millisecond,
	}, testutil.NewLogForTesting(t.Name()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAdapterConnectionTimeout) || errors.Is(err, ErrAdapterExited))
}

// sliceToEnvMap converts a []string of "KEY=VALUE" entries to a map.
func sliceToEnvMap(envSlice []string) map[string]string {
	result := make(map[string]string, len(envSlice))
	for _, entry := range envSlice {
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) == 2 {
			result[parts[0]] = parts[1]
		}
	}
	return result
}
