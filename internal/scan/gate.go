package scan

import (
	"context"
	"sync"
	"time"
)

// gate bounds in-flight batch dispatches and applies backpressure: each
// rate-limit signal temporarily withdraws one slot, shrinking effective
// concurrency for the whole pool instead of only delaying the one call.
// Capacity never drops below one slot.
type gate struct {
	slots    chan struct{}
	cooldown time.Duration
	sleep    func(time.Duration) // test hook

	mu        sync.Mutex
	capacity  int
	penalties int
}

func newGate(capacity int, cooldown time.Duration) *gate {
	if capacity < 1 {
		capacity = 1
	}
	g := &gate{
		slots:    make(chan struct{}, capacity),
		cooldown: cooldown,
		sleep:    time.Sleep,
		capacity: capacity,
	}
	for i := 0; i < capacity; i++ {
		g.slots <- struct{}{}
	}
	return g
}

func (g *gate) acquire(ctx context.Context) error {
	select {
	case <-g.slots:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *gate) release() {
	g.slots <- struct{}{}
}

// throttle reacts to a rate-limit signal by parking one slot for the
// cooldown period. Signals beyond capacity-1 are ignored so at least one
// dispatch can always proceed.
func (g *gate) throttle() {
	g.mu.Lock()
	if g.penalties >= g.capacity-1 {
		g.mu.Unlock()
		return
	}
	g.penalties++
	g.mu.Unlock()

	go func() {
		<-g.slots
		g.sleep(g.cooldown)
		g.slots <- struct{}{}
		g.mu.Lock()
		g.penalties--
		g.mu.Unlock()
	}()
}

// effective reports the slots currently not withdrawn by penalties.
func (g *gate) effective() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.capacity - g.penalties
}
