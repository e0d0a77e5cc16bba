package utils

import (
	"context"
	"time"
)

var sleep = time.Sleep

// WaitFor blocks for d or until ctx is done, whichever comes first.
func WaitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	pause := sleep
	done := make(chan struct{})
	go func() {
		defer close(done)
		pause(d)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Backoff returns the delay before the given retry attempt (1-based), doubling from base.
func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt <= 1 {
		return base
	}
	return base << (attempt - 1)
}

// Retry calls fn up to attempts times while retryable reports true for its error.
// It stops early when ctx is done.
func Retry[T any](ctx context.Context, attempts int, base time.Duration, retryable func(error) bool, fn func() (T, error)) (T, error) {
	if attempts < 1 {
		attempts = 1
	}

	var (
		result T
		err    error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err = fn()
		if err == nil {
			return result, nil
		}
		if attempt == attempts || retryable == nil || !retryable(err) {
			break
		}
		if waitErr := WaitFor(ctx, Backoff(base, attempt)); waitErr != nil {
			return result, err
		}
	}

	return result, err
}
