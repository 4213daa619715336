package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncerBatchesRapidEvents(t *testing.T) {
	batches := make(chan []Event, 1)
	d := NewBatchDebouncer(30*time.Millisecond, func(events []Event) {
		batches <- events
	})

	d.Add(Event{Type: EventChange, Path: "/ws/a.py", Timestamp: time.Now()})
	d.Add(Event{Type: EventChange, Path: "/ws/b.py", Timestamp: time.Now()})

	select {
	case got := <-batches:
		require.Len(t, got, 2)
		assert.Equal(t, "/ws/a.py", got[0].Path)
		assert.Equal(t, "/ws/b.py", got[1].Path)
	case <-time.After(2 * time.Second):
		t.Fatal("debouncer never flushed")
	}
}

func TestDebouncerDedupesKeepingLatest(t *testing.T) {
	batches := make(chan []Event, 1)
	d := NewBatchDebouncer(20*time.Millisecond, func(events []Event) {
		batches <- events
	})

	d.Add(Event{Type: EventCreate, Path: "/ws/a.py"})
	d.Add(Event{Type: EventChange, Path: "/ws/b.py"})
	d.Add(Event{Type: EventChange, Path: "/ws/a.py"})

	select {
	case got := <-batches:
		require.Len(t, got, 2)
		// First-seen order, most recent event type
		assert.Equal(t, "/ws/a.py", got[0].Path)
		assert.Equal(t, EventChange, got[0].Type)
		assert.Equal(t, "/ws/b.py", got[1].Path)
	case <-time.After(2 * time.Second):
		t.Fatal("debouncer never flushed")
	}
}

func TestDebouncerFlush(t *testing.T) {
	batches := make(chan []Event, 1)
	d := NewBatchDebouncer(time.Hour, func(events []Event) {
		batches <- events
	})

	d.Add(Event{Type: EventDelete, Path: "/ws/a.py"})
	require.Equal(t, 1, d.Pending())

	d.Flush()

	select {
	case got := <-batches:
		require.Len(t, got, 1)
		assert.Equal(t, EventDelete, got[0].Type)
	default:
		t.Fatal("Flush should emit synchronously")
	}
	assert.Equal(t, 0, d.Pending())
}

func TestDebouncerCancel(t *testing.T) {
	d := NewBatchDebouncer(10*time.Millisecond, func(events []Event) {
		t.Error("cancelled events must not be emitted")
	})

	d.Add(Event{Type: EventChange, Path: "/ws/a.py"})
	d.Cancel()
	assert.Equal(t, 0, d.Pending())

	time.Sleep(50 * time.Millisecond)
}

func TestDebouncerEmptyFlushIsSilent(t *testing.T) {
	d := NewBatchDebouncer(10*time.Millisecond, func(events []Event) {
		t.Error("nothing queued, nothing to emit")
	})
	d.Flush()
}
