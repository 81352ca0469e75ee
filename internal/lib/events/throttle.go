package events

import (
	"sync"
	"time"
)

// Throttler invokes fn at most once per window. The first call in a window
// runs immediately; with trailing enabled, the last call made during the
// window runs when it closes, otherwise such calls are dropped.
type Throttler[T any] struct {
	window   time.Duration
	trailing bool
	fn       func(T)

	mu      sync.Mutex
	open    bool
	timer   *time.Timer
	gen     uint64
	pending bool
	arg     T
}

// NewThrottler creates a throttler around fn
func NewThrottler[T any](window time.Duration, trailing bool, fn func(T)) *Throttler[T] {
	return &Throttler[T]{window: window, trailing: trailing, fn: fn}
}

// Call runs fn now if no window is open, otherwise defers or drops arg
func (t *Throttler[T]) Call(arg T) {
	t.mu.Lock()
	if t.open {
		if t.trailing {
			t.pending = true
			t.arg = arg
		}
		t.mu.Unlock()
		return
	}
	t.openLocked()
	t.mu.Unlock()

	t.fn(arg)
}

// Cancel drops any trailing call and closes the current window
func (t *Throttler[T]) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closeLocked()
	t.pending = false
	var zero T
	t.arg = zero
}

// Flush runs the trailing call, if any, immediately and closes the window.
// It returns false when nothing was pending.
func (t *Throttler[T]) Flush() bool {
	t.mu.Lock()
	t.closeLocked()
	if !t.pending {
		t.mu.Unlock()
		return false
	}
	arg := t.take()
	t.mu.Unlock()

	t.fn(arg)
	return true
}

func (t *Throttler[T]) openLocked() {
	t.open = true
	gen := t.gen
	t.timer = time.AfterFunc(t.window, func() { t.windowClosed(gen) })
}

func (t *Throttler[T]) closeLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gen++
	t.open = false
}

func (t *Throttler[T]) windowClosed(gen uint64) {
	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.closeLocked()
	if !t.pending {
		t.mu.Unlock()
		return
	}

	// The trailing call starts a window of its own
	arg := t.take()
	t.openLocked()
	t.mu.Unlock()

	t.fn(arg)
}

func (t *Throttler[T]) take() T {
	arg := t.arg
	var zero T
	t.arg = zero
	t.pending = false
	return arg
}
