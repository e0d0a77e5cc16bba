package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func stubSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var waits []time.Duration
	original := sleep
	sleep = func(d time.Duration) { waits = append(waits, d) }
	t.Cleanup(func() { sleep = original })
	return &waits
}

func TestRetryStopsOnSuccess(t *testing.T) {
	waits := stubSleep(t)
	temporary := errors.New("temporary")

	calls := 0
	got, err := Retry(context.Background(), 3, time.Second, func(error) bool { return true }, func() (string, error) {
		calls++
		if calls < 2 {
			return "", temporary
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" || calls != 2 {
		t.Fatalf("expected ok after 2 calls, got %q after %d", got, calls)
	}
	if len(*waits) != 1 || (*waits)[0] != time.Second {
		t.Fatalf("unexpected waits: %v", *waits)
	}
}

func TestRetryDoesNotRetryPermanentErrors(t *testing.T) {
	stubSleep(t)
	permanent := errors.New("bad request")

	calls := 0
	_, err := Retry(context.Background(), 5, time.Millisecond, func(err error) bool { return !errors.Is(err, permanent) }, func() (int, error) {
		calls++
		return 0, permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	waits := stubSleep(t)

	calls := 0
	_, err := Retry(context.Background(), 3, 100*time.Millisecond, func(error) bool { return true }, func() (int, error) {
		calls++
		return 0, errors.New("still failing")
	})
	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
	if len(*waits) != 2 || (*waits)[1] != 200*time.Millisecond {
		t.Fatalf("unexpected backoff: %v", *waits)
	}
}

func TestWaitForHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := WaitFor(ctx, 50*time.Millisecond); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
