/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package logger

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestStringToLevel(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		value    string
		expected zapcore.Level
		isErr    bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"INFO", zapcore.InfoLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"1", zapcore.Level(-1), false},
		{"2", zapcore.Level(-2), false},
		{"0", zapcore.WarnLevel, true},
		{"-3", zapcore.WarnLevel, true},
		{"loud", zapcore.WarnLevel, true},
	}

	for _, tc := range testcases {
		level, err := StringToLevel(tc.value, zapcore.WarnLevel)
		if tc.isErr {
			assert.Error(t, err, "value '%s'", tc.value)
		} else {
			assert.NoError(t, err, "value '%s'", tc.value)
		}
		assert.Equal(t, tc.expected, level, "value '%s'", tc.value)
	}
}

func TestLevelFlag(t *testing.T) {
	t.Parallel()

	log := New(t.Name())
	fs := pflag.NewFlagSet(t.Name(), pflag.ContinueOnError)
	log.AddLevelFlag(fs)

	require.NoError(t, fs.Parse([]string{"-v", "2"}))
	assert.Equal(t, zapcore.Level(-2), log.Level())
	assert.True(t, log.V(2).Enabled())
	assert.False(t, log.V(3).Enabled())

	require.NoError(t, fs.Parse([]string{"--verbosity=error"}))
	assert.Equal(t, zapcore.ErrorLevel, log.Level())

	assert.Error(t, fs.Parse([]string{"--verbosity=loud"}))
}
