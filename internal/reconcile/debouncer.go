package reconcile

import (
	"sync"
	"time"
)

// BatchDebouncer collects events during a quiet window and emits them as one
// batch. Rapid successive edits to the same file collapse to a single event.
type BatchDebouncer struct {
	delay  time.Duration
	timer  *time.Timer
	mu     sync.Mutex
	events []Event
	emit   func([]Event)
}

// NewBatchDebouncer creates a batch debouncer with the given quiet window
func NewBatchDebouncer(delay time.Duration, emit func([]Event)) *BatchDebouncer {
	return &BatchDebouncer{
		delay: delay,
		emit:  emit,
	}
}

// Add queues an event and resets the quiet window
func (b *BatchDebouncer) Add(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events = append(b.events, event)

	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.delay, b.flush)
}

// Flush immediately emits any pending events
func (b *BatchDebouncer) Flush() {
	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.mu.Unlock()

	b.flush()
}

// Cancel drops pending events without emitting
func (b *BatchDebouncer) Cancel() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.events = nil
}

// Pending returns the number of queued events
func (b *BatchDebouncer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

func (b *BatchDebouncer) flush() {
	b.mu.Lock()
	events := b.events
	b.events = nil
	b.timer = nil
	b.mu.Unlock()

	if len(events) > 0 && b.emit != nil {
		b.emit(dedupe(events))
	}
}

// dedupe keeps the most recent event per path, preserving first-seen order
func dedupe(events []Event) []Event {
	seen := make(map[string]int, len(events))
	result := make([]Event, 0, len(events))

	for _, e := range events {
		if idx, ok := seen[e.Path]; ok {
			result[idx] = e
		} else {
			seen[e.Path] = len(result)
			result = append(result, e)
		}
	}
	return result
}
