// Package retry provides bounded retries with exponential backoff and jitter
// around unreliable network operations.
package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	"dealwatch/internal/common/errors"
	"dealwatch/internal/common/logger"
)

const (
	maxBackoff = 30 * time.Second
	maxJitter  = 1000 * time.Millisecond
)

// Options controls the retry loop.
type Options struct {
	MaxRetries        int
	Delay             time.Duration
	BackoffMultiplier float64
}

func DefaultOptions() Options {
	return Options{
		MaxRetries:        3,
		Delay:             time.Second,
		BackoffMultiplier: 2,
	}
}

// Retrier runs operations with bounded retries. The sleep and jitter
// functions are injectable so tests can run without waiting.
type Retrier struct {
	logger logger.Logger
	sleep  func(context.Context, time.Duration) error
	jitter func() time.Duration
}

func New(log logger.Logger) *Retrier {
	return &Retrier{
		logger: log,
		sleep:  sleepCtx,
		jitter: func() time.Duration { return time.Duration(rand.Int63n(int64(maxJitter))) },
	}
}

// NewWithClock creates a Retrier with custom sleep and jitter functions.
func NewWithClock(log logger.Logger, sleep func(context.Context, time.Duration) error, jitter func() time.Duration) *Retrier {
	return &Retrier{logger: log, sleep: sleep, jitter: jitter}
}

// Do executes op up to MaxRetries+1 times. Non-retryable errors return
// immediately. After the final attempt fails, the last error is wrapped in a
// retry-exhausted error carrying the attempt count.
func (r *Retrier) Do(ctx context.Context, operationName string, opts Options, op func(context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= opts.MaxRetries+1; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		if !errors.IsRetryable(lastErr) {
			return lastErr
		}

		if attempt == opts.MaxRetries+1 {
			break
		}

		delay := r.backoffDelay(opts, attempt)
		r.logger.Warn("operation failed, retrying", map[string]interface{}{
			"operation":   operationName,
			"attempt":     attempt,
			"maxRetries":  opts.MaxRetries,
			"nextRetryIn": delay.String(),
			"error":       lastErr.Error(),
		})

		if err := r.sleep(ctx, delay); err != nil {
			// Context cancelled mid-backoff.
			return errors.NewTimeoutError(operationName, err)
		}
	}

	return errors.NewRetryExhaustedError(opts.MaxRetries+1, lastErr)
}

// backoffDelay computes delay * multiplier^(attempt-1) + jitter, capped at 30s.
func (r *Retrier) backoffDelay(opts Options, attempt int) time.Duration {
	mult := opts.BackoffMultiplier
	if mult <= 0 {
		mult = 2
	}
	delay := time.Duration(float64(opts.Delay) * math.Pow(mult, float64(attempt-1)))
	if delay > maxBackoff {
		delay = maxBackoff
	}
	return delay + r.jitter()
}

// WithTimeout runs op under a deadline, mapping a deadline expiry to a
// retryable timeout error.
func WithTimeout(ctx context.Context, operationName string, timeout time.Duration, op func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := op(ctx)
	if err != nil && ctx.Err() == context.DeadlineExceeded {
		return errors.NewTimeoutError(operationName, err)
	}
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
