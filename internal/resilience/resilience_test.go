package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

var errFlaky = errors.New("flaky")

func TestDoRetriesUntilSuccess(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	got, err := Do(context.Background(), Policy{Name: "test", Attempts: 2}, func(context.Context) (string, error) {
		if calls.Add(1) == 1 {
			return "", errFlaky
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if got != "ok" || calls.Load() != 2 {
		t.Errorf("Do() = %q after %d calls", got, calls.Load())
	}
}

func TestDoReturnsLastError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	_, err := Do(context.Background(), Policy{Attempts: 2}, func(context.Context) (int, error) {
		calls.Add(1)
		return 0, errFlaky
	})
	if !errors.Is(err, errFlaky) {
		t.Fatalf("Do() error = %v, want errFlaky", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestDoStopsOnPermanentError(t *testing.T) {
	t.Parallel()

	permanent := errors.New("bad request")
	var calls atomic.Int32
	_, err := Do(context.Background(), Policy{
		Attempts:  3,
		Retryable: func(err error) bool { return !errors.Is(err, permanent) },
	}, func(context.Context) (int, error) {
		calls.Add(1)
		return 0, permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("Do() error = %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestDoAppliesPerAttemptTimeout(t *testing.T) {
	t.Parallel()

	start := time.Now()
	_, err := Do(context.Background(), Policy{Attempts: 2, Timeout: 20 * time.Millisecond}, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Do() error = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Do() took %v", elapsed)
	}
}

func TestZeroAttemptsMeansOne(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	_, _ = Do(context.Background(), Policy{}, func(context.Context) (int, error) {
		calls.Add(1)
		return 0, errFlaky
	})
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	var transitions []string
	b := NewBreaker(BreakerConfig{
		Name:        "generator",
		MaxFailures: 2,
		OpenTimeout: time.Minute,
		OnStateChange: func(_, from, to string) {
			transitions = append(transitions, from+"->"+to)
		},
	})

	fail := func() (string, error) { return "", errFlaky }
	for range 2 {
		if _, err := Call(b, fail); !errors.Is(err, errFlaky) {
			t.Fatalf("Call() error = %v", err)
		}
	}

	if b.State() != "open" {
		t.Fatalf("State() = %q, want open", b.State())
	}

	_, err := Call(b, func() (string, error) { return "never", nil })
	if !IsOpen(err) {
		t.Errorf("Call() error = %v, want open circuit", err)
	}
	if len(transitions) != 1 || transitions[0] != "closed->open" {
		t.Errorf("transitions = %v", transitions)
	}
}

func TestCallWithNilBreaker(t *testing.T) {
	t.Parallel()

	got, err := Call(nil, func() (int, error) { return 42, nil })
	if err != nil || got != 42 {
		t.Errorf("Call(nil) = %d, %v", got, err)
	}
}
