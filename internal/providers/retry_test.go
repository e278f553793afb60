package providers

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestRetrier_SuccessFirstTry(t *testing.T) {
	calls := 0
	r := Retrier{MaxRateLimitRetries: 3, MaxTransportRetries: 2, Sleep: func(time.Duration) {}}
	err := r.Do(context.Background(), func() error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Errorf("err=%v calls=%d, want nil/1", err, calls)
	}
}

func TestRetrier_RateLimitBackoffIncreases(t *testing.T) {
	// Rate limited twice, then success: backoff delays strictly increase
	// and exactly one underlying call succeeds.
	var delays []time.Duration
	calls := 0
	r := Retrier{
		MaxRateLimitRetries: 5,
		MaxTransportRetries: 2,
		Sleep:               func(d time.Duration) { delays = append(delays, d) },
	}
	err := r.Do(context.Background(), func() error {
		calls++
		if calls <= 2 {
			return &RateLimitError{}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if len(delays) != 2 {
		t.Fatalf("got %d delays, want 2", len(delays))
	}
	if delays[1] <= delays[0] {
		t.Errorf("delays not strictly increasing: %v", delays)
	}
}

func TestRetrier_RateLimitExhaustion(t *testing.T) {
	calls := 0
	r := Retrier{MaxRateLimitRetries: 2, MaxTransportRetries: 5, Sleep: func(time.Duration) {}}
	err := r.Do(context.Background(), func() error {
		calls++
		return &RateLimitError{}
	})
	if err == nil {
		t.Fatal("want error after exhaustion")
	}
	if !IsRateLimit(err) {
		t.Errorf("exhaustion error should wrap the rate-limit error: %v", err)
	}
	// Initial call + 2 retries.
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetrier_TransportBudgetSeparate(t *testing.T) {
	calls := 0
	r := Retrier{MaxRateLimitRetries: 5, MaxTransportRetries: 1, Sleep: func(time.Duration) {}}
	err := r.Do(context.Background(), func() error {
		calls++
		return fmt.Errorf("connection reset")
	})
	if err == nil {
		t.Fatal("want error after transport exhaustion")
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2 (initial + 1 transport retry)", calls)
	}
}

func TestRetrier_AuthErrorTerminal(t *testing.T) {
	calls := 0
	r := Retrier{MaxRateLimitRetries: 5, MaxTransportRetries: 5, Sleep: func(time.Duration) {}}
	err := r.Do(context.Background(), func() error {
		calls++
		return &AuthError{Message: "bad key"}
	})
	if !IsAuthError(err) {
		t.Errorf("err = %v, want auth error", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on auth)", calls)
	}
}

func TestRetrier_ContextCancelStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	r := Retrier{MaxRateLimitRetries: 10, MaxTransportRetries: 10, Sleep: func(time.Duration) {}}
	err := r.Do(ctx, func() error {
		calls++
		cancel()
		return &RateLimitError{}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetrier_RetryAfterHintHonored(t *testing.T) {
	var delays []time.Duration
	calls := 0
	r := Retrier{
		MaxRateLimitRetries: 2,
		MaxTransportRetries: 1,
		BaseDelay:           time.Millisecond,
		Sleep:               func(d time.Duration) { delays = append(delays, d) },
	}
	err := r.Do(context.Background(), func() error {
		calls++
		if calls == 1 {
			return &RateLimitError{RetryAfter: 10 * time.Second}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(delays) != 1 || delays[0] < 10*time.Second {
		t.Errorf("delays = %v, want at least the server's 10s hint", delays)
	}
}

func TestRetrier_OnRetryObservesAttempts(t *testing.T) {
	var attempts []int
	calls := 0
	r := Retrier{
		MaxRateLimitRetries: 5,
		MaxTransportRetries: 5,
		Sleep:               func(time.Duration) {},
		OnRetry:             func(n int, _ time.Duration, _ error) { attempts = append(attempts, n) },
	}
	_ = r.Do(context.Background(), func() error {
		calls++
		if calls <= 3 {
			return &RateLimitError{}
		}
		return nil
	})
	if len(attempts) != 3 || attempts[0] != 1 || attempts[2] != 3 {
		t.Errorf("attempts = %v, want [1 2 3]", attempts)
	}
}

func TestBackoff_CappedAtMaxDelay(t *testing.T) {
	r := Retrier{BaseDelay: time.Second, MaxDelay: 4 * time.Second}
	d := r.backoff(10)
	if d > 6*time.Second { // cap plus 50% jitter
		t.Errorf("backoff(10) = %v, want <= 6s", d)
	}
}

func TestBackoff_LargeAttemptStaysAtCap(t *testing.T) {
	// A 1s base doubled 34+ times would overflow time.Duration; the cap
	// must hold for any attempt count a user-set retry budget can reach.
	r := Retrier{BaseDelay: time.Second}
	for _, attempt := range []int{35, 40, 100} {
		d := r.backoff(attempt)
		if d < defaultMaxDelay || d > defaultMaxDelay*3/2 {
			t.Errorf("backoff(%d) = %v, want within [%v, %v]",
				attempt, d, defaultMaxDelay, defaultMaxDelay*3/2)
		}
	}
}

func TestErrorPredicates(t *testing.T) {
	wrapped := fmt.Errorf("call failed: %w", &RateLimitError{})
	if !IsRateLimit(wrapped) {
		t.Error("IsRateLimit should see through wrapping")
	}
	if IsRateLimit(fmt.Errorf("plain")) {
		t.Error("plain error is not a rate limit")
	}
	if !IsAuthError(fmt.Errorf("x: %w", &AuthError{Message: "no"})) {
		t.Error("IsAuthError should see through wrapping")
	}
}
