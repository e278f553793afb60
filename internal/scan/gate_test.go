package scan

import (
	"context"
	"testing"
	"time"
)

func TestGate_BoundsConcurrency(t *testing.T) {
	g := newGate(2, time.Millisecond)
	ctx := context.Background()

	if err := g.acquire(ctx); err != nil {
		t.Fatal(err)
	}
	if err := g.acquire(ctx); err != nil {
		t.Fatal(err)
	}

	// Third acquire must block until a release.
	blocked, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := g.acquire(blocked); err == nil {
		t.Fatal("third acquire should block at capacity 2")
	}

	g.release()
	if err := g.acquire(ctx); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
}

func TestGate_ThrottleShrinksEffectiveConcurrency(t *testing.T) {
	cooled := make(chan struct{})
	g := newGate(3, time.Minute)
	g.sleep = func(time.Duration) { <-cooled }

	g.throttle()
	g.throttle()

	// Wait for the penalty goroutines to claim their slots.
	deadline := time.Now().Add(time.Second)
	for len(g.slots) != 1 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if len(g.slots) != 1 {
		t.Fatalf("slots available = %d, want 1 after two throttles", len(g.slots))
	}
	if got := g.effective(); got != 1 {
		t.Errorf("effective = %d, want 1", got)
	}

	// Further signals must not take the last slot.
	g.throttle()
	if got := g.effective(); got != 1 {
		t.Errorf("effective after extra throttle = %d, want floor of 1", got)
	}

	// Recovery: cooldowns elapse, slots return.
	close(cooled)
	deadline = time.Now().Add(time.Second)
	for g.effective() != 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if got := g.effective(); got != 3 {
		t.Errorf("effective after recovery = %d, want 3", got)
	}
}

func TestGate_MinimumCapacityOne(t *testing.T) {
	g := newGate(0, time.Millisecond)
	if err := g.acquire(context.Background()); err != nil {
		t.Fatalf("acquire on capacity-0 gate: %v", err)
	}
}

func TestGate_AcquireHonorsContext(t *testing.T) {
	g := newGate(1, time.Millisecond)
	if err := g.acquire(context.Background()); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := g.acquire(ctx); err == nil {
		t.Error("acquire with canceled context should fail")
	}
}
