package engine

import (
	"sync"
	"time"
)

// CoalescingTask is a single-purpose cancellable timer: at most one pending
// invocation of fn exists at any time. Arm cancels and re-arms the delay,
// so a burst of Arm calls collapses into one firing after the last of them.
// It is the debounce primitive underneath the autosave scheduler, usable
// and testable on its own.
type CoalescingTask struct {
	mu    sync.Mutex
	delay time.Duration
	fn    func()
	timer *time.Timer
}

// NewCoalescingTask creates a task that runs fn once delay elapses after
// the most recent Arm.
func NewCoalescingTask(delay time.Duration, fn func()) *CoalescingTask {
	return &CoalescingTask{delay: delay, fn: fn}
}

// Arm schedules fn to run after the delay, cancelling any pending firing.
func (t *CoalescingTask) Arm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(t.delay, func() {
		t.mu.Lock()
		t.timer = nil
		t.mu.Unlock()
		t.fn()
	})
}

// Cancel stops the pending firing, if any. Reports whether one was pending.
func (t *CoalescingTask) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer == nil {
		return false
	}
	stopped := t.timer.Stop()
	t.timer = nil
	return stopped
}

// Flush cancels the pending firing and runs fn immediately, synchronously.
func (t *CoalescingTask) Flush() {
	t.Cancel()
	t.fn()
}

// Pending reports whether a firing is scheduled.
func (t *CoalescingTask) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}
