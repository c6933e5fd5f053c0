package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrRetriesExhausted is returned by Poll when the condition never held
var ErrRetriesExhausted = errors.New("exceeded max attempts")

var errNotReady = errors.New("not ready")

// RetryPolicy bounds a polling loop
type RetryPolicy struct {
	MaxAttempts int
	// Backoff returns the wait after the given (1-based) failed attempt
	Backoff func(attempt int) time.Duration
	// Timeout caps the whole loop; zero means no cap beyond MaxAttempts
	Timeout time.Duration
}

// LinearBackoff waits base × attempt after each attempt
func LinearBackoff(base time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return base * time.Duration(attempt)
	}
}

// stepBackOff adapts a per-attempt wait function to backoff.BackOff
type stepBackOff struct {
	step    func(attempt int) time.Duration
	attempt int
}

func (b *stepBackOff) NextBackOff() time.Duration {
	b.attempt++
	if b.step == nil {
		return 0
	}
	return b.step(b.attempt)
}

func (b *stepBackOff) Reset() { b.attempt = 0 }

// Poll calls check until it reports done, returns an error, the attempts run
// out, the timeout elapses or ctx is cancelled.
func (p RetryPolicy) Poll(ctx context.Context, check func(ctx context.Context, attempt int) (bool, error)) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(&stepBackOff{step: p.Backoff}, uint64(attempts-1)),
		ctx,
	)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		done, err := check(ctx, attempt)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !done {
			return errNotReady
		}
		return nil
	}, b)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, errNotReady):
		return fmt.Errorf("%w (%d)", ErrRetriesExhausted, attempts)
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		return fmt.Errorf("polling stopped after %d attempts: %w", attempt, err)
	default:
		return err
	}
}
