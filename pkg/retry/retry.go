// Package retry runs an operation until it succeeds, a permanent error is
// returned, the attempts run out, or the context ends. Hooks that deliver
// events over the network (the webhook) use it for backoff.
//
// Usage:
//
//	err := retry.Do(ctx, retry.Webhook(3, time.Second), func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return err // transient, retried
//	    }
//	    if resp.StatusCode < 500 {
//	        return retry.Stop(errClient) // permanent
//	    }
//	    return errServer
//	})
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// Strategy defines the backoff algorithm.
type Strategy int

const (
	// Exponential doubles the delay each attempt: InitDelay * 2^attempt.
	Exponential Strategy = iota
	// Constant uses the same delay between every attempt.
	Constant
)

// maxDelay caps any single wait when Config.MaxDelay is zero.
const maxDelay = 30 * time.Second

// Config controls retry behaviour.
type Config struct {
	MaxAttempts int           // Total attempts including the first. 0 means no call.
	InitDelay   time.Duration // Wait before the first retry.
	MaxDelay    time.Duration // Upper bound on one wait (default 30s).
	Strategy    Strategy
	Jitter      bool // Spread each wait by up to ±25%.
}

// Webhook returns the event delivery policy: attempts tries with
// exponential backoff from initDelay and no jitter, so delays are
// predictable in delivery logs.
func Webhook(attempts int, initDelay time.Duration) Config {
	return Config{
		MaxAttempts: attempts,
		InitDelay:   initDelay,
		MaxDelay:    maxDelay,
		Strategy:    Exponential,
	}
}

// StopError marks an error as permanent.
type StopError struct {
	Err error
}

func (e *StopError) Error() string { return e.Err.Error() }
func (e *StopError) Unwrap() error { return e.Err }

// Stop wraps err so that Do returns it without further attempts.
func Stop(err error) error {
	return &StopError{Err: err}
}

// sleeper waits between attempts; tests substitute a recorder.
type sleeper interface {
	sleep(ctx context.Context, d time.Duration) error
}

type timerSleeper struct{}

func (timerSleeper) sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do calls fn up to cfg.MaxAttempts times and returns nil on the first
// success, the unwrapped error of a StopError, ctx.Err() when the context
// ends, or the last error.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	return do(ctx, cfg, fn, timerSleeper{})
}

func do(ctx context.Context, cfg Config, fn func() error, s sleeper) error {
	var lastErr error
	for attempt := range cfg.MaxAttempts {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		var stop *StopError
		if errors.As(lastErr, &stop) {
			return stop.Err
		}

		if attempt < cfg.MaxAttempts-1 {
			if err := s.sleep(ctx, Delay(cfg, attempt)); err != nil {
				return err
			}
		}
	}
	return lastErr
}

// Delay returns the wait after the given failed attempt (0-indexed).
func Delay(cfg Config, attempt int) time.Duration {
	limit := cfg.MaxDelay
	if limit <= 0 {
		limit = maxDelay
	}

	delay := cfg.InitDelay
	if cfg.Strategy == Exponential {
		for i := 0; i < attempt && delay < limit; i++ {
			delay *= 2
		}
	}
	if delay > limit {
		delay = limit
	}

	if cfg.Jitter && delay > 0 {
		if quarter := int64(delay) / 4; quarter > 0 {
			j := time.Duration(rand.Int64N(quarter))
			if rand.IntN(2) == 0 {
				delay += j
			} else {
				delay -= j
			}
		}
	}
	return delay
}
