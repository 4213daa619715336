package analyzer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"smelt/internal/filters"
	"smelt/internal/logging"
	"smelt/internal/smells"
)

// flakyClient toggles reachability under test control
type flakyClient struct {
	mu          sync.Mutex
	reachable   bool
	detectCalls int
}

func (f *flakyClient) Detect(ctx context.Context, path string, enabled map[string]filters.Selection) ([]smells.Smell, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detectCalls++
	return nil, nil
}

func (f *flakyClient) IsReachable(ctx context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reachable
}

func (f *flakyClient) setReachable(up bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reachable = up
}

func TestHealthPollerReportsTransitions(t *testing.T) {
	client := &flakyClient{reachable: true}

	transitions := make(chan bool, 8)
	poller := NewHealthPoller(client, 20*time.Millisecond, func(up bool) {
		transitions <- up
	}, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go poller.Run(ctx)

	// First probe flips the initial DOWN state to UP
	select {
	case up := <-transitions:
		assert.True(t, up)
	case <-time.After(2 * time.Second):
		t.Fatal("no initial transition")
	}
	assert.True(t, poller.Up())

	client.setReachable(false)
	select {
	case up := <-transitions:
		assert.False(t, up)
	case <-time.After(2 * time.Second):
		t.Fatal("no DOWN transition")
	}
	assert.False(t, poller.Up())
}

func TestPolledClientServesCachedReachability(t *testing.T) {
	inner := &flakyClient{reachable: true}
	poller := NewHealthPoller(inner, time.Second, nil, logging.Discard())
	polled := NewPolledClient(inner, poller)

	// No probe has run yet: the backend may be up, the cached state is not
	assert.False(t, polled.IsReachable(context.Background()))

	poller.probe(context.Background())
	assert.True(t, polled.IsReachable(context.Background()))

	inner.setReachable(false)
	// Stale until the next poll, by design
	assert.True(t, polled.IsReachable(context.Background()))
	poller.probe(context.Background())
	assert.False(t, polled.IsReachable(context.Background()))
}

func TestPolledClientDelegatesDetect(t *testing.T) {
	inner := &flakyClient{reachable: true}
	poller := NewHealthPoller(inner, time.Second, nil, logging.Discard())
	polled := NewPolledClient(inner, poller)

	_, err := polled.Detect(context.Background(), "/ws/a.py", nil)
	assert.NoError(t, err)
	inner.mu.Lock()
	defer inner.mu.Unlock()
	assert.Equal(t, 1, inner.detectCalls)
}

func TestHealthPollerNoCallbackOnSteadyState(t *testing.T) {
	client := &flakyClient{reachable: false}

	var calls int
	poller := NewHealthPoller(client, 10*time.Millisecond, func(bool) {
		calls++
	}, logging.Discard())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	poller.Run(ctx)

	// Down from the start and stays down
	assert.Zero(t, calls)
	assert.False(t, poller.Up())
}
