// Package events carries messages from background goroutines (command
// workers, the file-system monitor) to the single goroutine that owns UI
// state. Publishing never blocks and never drops.
package events

import (
	"context"
	"sync"
)

// Event is any message published on a Bus.
type Event interface{}

// Publisher is the write side of a Bus.
type Publisher interface {
	Publish(Event)
}

// Bus is an append-only, unbounded queue. Publishers append; one consumer
// drains in batches. The zero value is not usable, use NewBus.
type Bus struct {
	mu      sync.Mutex
	pending []Event
	ready   chan struct{}
	closed  bool
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{ready: make(chan struct{}, 1)}
}

// Publish appends ev. It is a no-op after Close.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.pending = append(b.pending, ev)
	// Signal under the lock so Close cannot close ready in between.
	select {
	case b.ready <- struct{}{}:
	default:
	}
	b.mu.Unlock()
}

// Drain removes and returns everything published so far, oldest first.
func (b *Bus) Drain() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.pending
	b.pending = nil
	return out
}

// Next blocks until at least one event is pending, then drains. It returns
// nil when ctx is done or the bus is closed and empty.
func (b *Bus) Next(ctx context.Context) []Event {
	for {
		if batch := b.Drain(); len(batch) > 0 {
			return batch
		}
		b.mu.Lock()
		closed := b.closed
		b.mu.Unlock()
		if closed {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-b.ready:
		}
	}
}

// Close wakes any waiting consumer. Events already queued can still be drained.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()
	close(b.ready)
}
