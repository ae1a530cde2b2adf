/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package resiliency

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultInitialRetryInterval = 50 * time.Millisecond
	defaultMaxRetryInterval     = time.Second
)

// RetryGet calls factory with exponential back-off until it succeeds, returns a permanent error,
// or the context is done. When the context expires the last attempt error is joined to the context error.
func RetryGet[T any](ctx context.Context, factory func() (T, error)) (T, error) {
	var lastAttemptErr error

	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(defaultInitialRetryInterval),
		backoff.WithMaxInterval(defaultMaxRetryInterval),
		backoff.WithMaxElapsedTime(0), // Bounded by the context only.
	)

	retval, err := backoff.RetryNotifyWithData(
		factory,
		backoff.WithContext(b, ctx),
		func(err error, _ time.Duration) {
			lastAttemptErr = err
		},
	)

	switch {
	case err != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)):
		return *new(T), errors.Join(lastAttemptErr, err)
	case err != nil:
		return *new(T), err
	default:
		return retval, nil
	}
}
