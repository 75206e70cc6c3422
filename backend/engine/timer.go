package engine

import (
	"sync"
	"time"
)

// Untimed is reported as the remaining time of a session without a countdown.
const Untimed = -1

// CountdownTimer counts whole seconds down to zero. onTick runs after every
// decrement; onExpire runs once when zero is reached.
type CountdownTimer struct {
	clock     Clock
	onTick    func(remaining int)
	onExpire  func()
	mu        sync.Mutex
	remaining int
	pending   Timer
	stopped   bool
}

func NewCountdownTimer(clock Clock, seconds int, onTick func(int), onExpire func()) *CountdownTimer {
	return &CountdownTimer{
		clock:     clock,
		remaining: seconds,
		onTick:    onTick,
		onExpire:  onExpire,
	}
}

// Start schedules the first tick. A timer created with no time left expires
// on its first tick.
func (t *CountdownTimer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.pending != nil {
		return
	}
	t.scheduleLocked()
}

func (t *CountdownTimer) scheduleLocked() {
	t.pending = t.clock.AfterFunc(time.Second, t.tick)
}

func (t *CountdownTimer) tick() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	if t.remaining > 0 {
		t.remaining--
	}
	remaining := t.remaining
	expired := remaining == 0
	if expired {
		t.stopped = true
		t.pending = nil
	} else {
		t.scheduleLocked()
	}
	t.mu.Unlock()

	if t.onTick != nil {
		t.onTick(remaining)
	}
	if expired && t.onExpire != nil {
		t.onExpire()
	}
}

// Stop cancels the countdown. Safe to call more than once.
func (t *CountdownTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
}

func (t *CountdownTimer) remainingSeconds() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining
}
