// Package events shapes high-frequency triggers (vertex drags, map idle
// events, GPS ticks) before they reach the geometry code.
package events

import (
	"sync"
	"time"
)

// Debouncer invokes fn once the calls have been quiet for the wait period,
// with the argument of the most recent call.
type Debouncer[T any] struct {
	wait time.Duration
	fn   func(T)

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	pending bool
	arg     T
}

// NewDebouncer creates a debouncer around fn
func NewDebouncer[T any](wait time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{wait: wait, fn: fn}
}

// Call records arg and restarts the quiet period
func (d *Debouncer[T]) Call(arg T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.pending = true
	d.arg = arg

	gen := d.gen
	d.timer = time.AfterFunc(d.wait, func() { d.fire(gen) })
}

// Cancel drops the pending call, if any
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.pending = false
	var zero T
	d.arg = zero
}

// Flush runs the pending call immediately on the calling goroutine. It
// returns false when nothing was pending.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return false
	}
	d.stopLocked()
	arg := d.take()
	d.mu.Unlock()

	d.fn(arg)
	return true
}

// Pending reports whether a call is waiting for the quiet period to elapse
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	// A newer Call, Cancel or Flush superseded this timer
	if gen != d.gen || !d.pending {
		d.mu.Unlock()
		return
	}
	arg := d.take()
	d.mu.Unlock()

	d.fn(arg)
}

// stopLocked invalidates the running timer. Bumping gen covers timers that
// already fired and are waiting on the lock.
func (d *Debouncer[T]) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

func (d *Debouncer[T]) take() T {
	arg := d.arg
	var zero T
	d.arg = zero
	d.pending = false
	return arg
}
