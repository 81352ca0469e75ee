package events

import (
	"sync"
	"time"
)

// Batcher collects items and hands them to fn in a single slice once no new
// item has arrived for the delay period.
type Batcher[T any] struct {
	delay time.Duration
	fn    func([]T)

	mu    sync.Mutex
	items []T
	timer *time.Timer
	gen   uint64
}

// NewBatcher creates a batcher around fn
func NewBatcher[T any](delay time.Duration, fn func([]T)) *Batcher[T] {
	return &Batcher[T]{delay: delay, fn: fn}
}

// Add queues an item and reschedules delivery
func (b *Batcher[T]) Add(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items = append(b.items, item)
	b.stopLocked()
	gen := b.gen
	b.timer = time.AfterFunc(b.delay, func() { b.deliver(gen) })
}

// Len returns the number of queued items
func (b *Batcher[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Flush delivers the queued items immediately. It returns the number delivered.
func (b *Batcher[T]) Flush() int {
	b.mu.Lock()
	b.stopLocked()
	items := b.items
	b.items = nil
	b.mu.Unlock()

	if len(items) == 0 {
		return 0
	}
	b.fn(items)
	return len(items)
}

// Clear drops the queued items without delivering them
func (b *Batcher[T]) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stopLocked()
	b.items = nil
}

func (b *Batcher[T]) deliver(gen uint64) {
	b.mu.Lock()
	if gen != b.gen || len(b.items) == 0 {
		b.mu.Unlock()
		return
	}
	items := b.items
	b.items = nil
	b.mu.Unlock()

	b.fn(items)
}

func (b *Batcher[T]) stopLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.gen++
}
