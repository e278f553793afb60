package providers

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// RateLimitError signals the provider rejected the call for rate reasons.
// RetryAfter carries the server's hint when one was given.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string { return "rate limited" }

// AuthError is terminal: retrying with the same credentials cannot succeed.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return "authentication error: " + e.Message
}

// IsRateLimit checks if an error is (or wraps) a rate-limit error.
func IsRateLimit(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// IsAuthError checks if an error is (or wraps) an authentication error.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

const (
	defaultBaseDelay = time.Second
	defaultMaxDelay  = time.Minute
)

// Retrier applies the bounded retry policy around a model call: rate-limit
// errors get exponential backoff with jitter up to MaxRateLimitRetries;
// other transport failures get a smaller bounded retry with a flat short
// delay. Auth errors and context cancellation end the loop immediately.
type Retrier struct {
	MaxRateLimitRetries int
	MaxTransportRetries int
	BaseDelay           time.Duration // 0 means defaultBaseDelay
	MaxDelay            time.Duration // 0 means defaultMaxDelay

	// OnRetry is called before each backoff wait with the total attempt
	// count so far, the chosen delay, and the triggering error.
	OnRetry func(attempt int, delay time.Duration, err error)

	// Sleep replaces the context-aware wait in tests.
	Sleep func(time.Duration)
}

// Do runs fn until it succeeds or the retry budget is spent.
func (r Retrier) Do(ctx context.Context, fn func() error) error {
	var rateAttempts, transportAttempts int
	for {
		err := fn()
		if err == nil {
			return nil
		}
		if IsAuthError(err) {
			return err
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%w (last call error: %v)", ctx.Err(), err)
		}

		var delay time.Duration
		if IsRateLimit(err) {
			rateAttempts++
			if rateAttempts > r.MaxRateLimitRetries {
				return fmt.Errorf("rate limited after %d attempts: %w", rateAttempts, err)
			}
			delay = r.backoff(rateAttempts)
			var rl *RateLimitError
			if errors.As(err, &rl) && rl.RetryAfter > delay {
				delay = rl.RetryAfter
			}
		} else {
			transportAttempts++
			if transportAttempts > r.MaxTransportRetries {
				return fmt.Errorf("transport failure after %d attempts: %w", transportAttempts, err)
			}
			delay = r.baseDelay()
		}

		if r.OnRetry != nil {
			r.OnRetry(rateAttempts+transportAttempts, delay, err)
		}
		if err := r.wait(ctx, delay); err != nil {
			return err
		}
	}
}

func (r Retrier) baseDelay() time.Duration {
	if r.BaseDelay > 0 {
		return r.BaseDelay
	}
	return defaultBaseDelay
}

func (r Retrier) maxDelay() time.Duration {
	if r.MaxDelay > 0 {
		return r.MaxDelay
	}
	return defaultMaxDelay
}

// backoff returns base*2^(attempt-1) plus up to 50% positive jitter, capped
// at MaxDelay. Below the cap, successive delays are strictly increasing:
// the doubling outruns the jitter range. Doubling stops at the cap rather
// than shifting, so large attempt counts cannot overflow the duration.
func (r Retrier) backoff(attempt int) time.Duration {
	d := r.baseDelay()
	for i := 1; i < attempt && d < r.maxDelay(); i++ {
		d *= 2
	}
	if d > r.maxDelay() {
		d = r.maxDelay()
	}
	return d + time.Duration(rand.Int63n(int64(d/2)+1))
}

func (r Retrier) wait(ctx context.Context, delay time.Duration) error {
	if r.Sleep != nil {
		r.Sleep(delay)
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
