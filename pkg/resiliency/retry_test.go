/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package resiliency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neo-project/neo-debugger-sub001/pkg/testutil"
)

func TestRetryGetSucceedsAfterFailures(t *testing.T) {
	t.Parallel()

	ctx, cancel := testutil.GetTestContext(t, 10*time.Second)
	defer cancel()

	attempts := 0
	val, err := RetryGet(ctx, func() (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("not yet")
		}
		return "connected", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "connected", val)
	assert.Equal(t, 3, attempts)
}

func TestRetryGetStopsOnPermanentError(t *testing.T) {
	t.Parallel()

	ctx, cancel := testutil.GetTestContext(t, 10*time.Second)
	defer cancel()

	fatal := errors.New("address is malformed")
	attempts := 0
	_, err := RetryGet(ctx, func() (int, error) {
		attempts++
		return 0, Permanent(fatal)
	})

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, attempts)
}

func TestRetryGetReportsLastErrorWhenContextExpires(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	refused := errors.New("connection refused")
	_, err := RetryGet(ctx, func() (int, error) {
		return 0, refused
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, refused)
}

func TestWaitWithTimeout(t *testing.T) {
	t.Parallel()

	done := make(chan struct{})
	assert.False(t, WaitWithTimeout(done, 20*time.Millisecond))
	assert.False(t, WaitWithTimeout(done, 0))

	go func() {
		time.Sleep(10 * time.Millisecond)
		close(done)
	}()
	assert.True(t, WaitWithTimeout(done, 5*time.Second))
	assert.True(t, WaitWithTimeout(done, 0), "a closed channel needs no waiting")
}

func TestMakePanicError(t *testing.T) {
	t.Parallel()

	log := testutil.NewLogForTesting(t.Name())
	assert.NoError(t, MakePanicError(nil, log))

	err := MakePanicError("stack underflow", log)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stack underflow")

	cause := errors.New("nil map write")
	err = MakePanicError(cause, log)
	assert.ErrorIs(t, err, cause)
}
