// Package resilience bounds outbound calls with per-attempt timeouts, a short
// retry loop and circuit breakers.
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/sony/gobreaker"
)

// Policy describes how an operation is attempted.
type Policy struct {
	// Name identifies the operation in logs.
	Name string
	// Attempts is the total number of tries, including the first. Zero means one.
	Attempts uint
	// Delay is the fixed pause between attempts.
	Delay time.Duration
	// Timeout bounds each attempt. Zero leaves the caller's deadline in charge.
	Timeout time.Duration
	// Retryable reports whether an error is worth another attempt. Nil retries every error.
	Retryable func(error) bool
}

// Do runs op under p, returning the first successful value or the last error.
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	attempts := p.Attempts
	if attempts == 0 {
		attempts = 1
	}

	return retry.DoWithData(
		func() (T, error) {
			attemptCtx, cancel := ctx, context.CancelFunc(func() {})
			if p.Timeout > 0 {
				attemptCtx, cancel = context.WithTimeout(ctx, p.Timeout)
			}
			defer cancel()

			v, err := op(attemptCtx)
			if err != nil && p.Retryable != nil && !p.Retryable(err) {
				return v, retry.Unrecoverable(err)
			}
			return v, err
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(p.Delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			slog.DebugContext(ctx, "Retrying operation",
				"component", "resilience",
				"operation", p.Name,
				"attempt", n+2,
				"max_attempts", attempts,
				"error", err)
		}),
	)
}

// BreakerConfig configures a circuit breaker.
type BreakerConfig struct {
	Name string
	// MaxFailures consecutive failures open the breaker. Defaults to 5.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before probing. Defaults to 30s.
	OpenTimeout time.Duration
	// OnStateChange is notified after every transition.
	OnStateChange func(name, from, to string)
}

// Breaker wraps a gobreaker circuit breaker.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// NewBreaker creates a breaker that opens after MaxFailures consecutive failures.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			// A cancelled caller says nothing about the dependency's health.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Info("Circuit breaker state changed",
				"component", "resilience",
				"name", name,
				"from", from.String(),
				"to", to.String())
			if cfg.OnStateChange != nil {
				cfg.OnStateChange(name, from.String(), to.String())
			}
		},
	}

	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

// State returns the breaker state as "closed", "half-open" or "open".
func (b *Breaker) State() string {
	return b.cb.State().String()
}

// Call runs op through b. A nil breaker runs op directly.
func Call[T any](b *Breaker, op func() (T, error)) (T, error) {
	if b == nil {
		return op()
	}

	v, err := b.cb.Execute(func() (any, error) {
		return op()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// IsOpen reports whether err came from a breaker refusing the call.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
