package analyzer

import (
	"context"
	"sync"
	"time"

	"smelt/internal/filters"
	"smelt/internal/logging"
	"smelt/internal/smells"
)

// HealthPoller periodically probes the analyzer and reports UP/DOWN
// transitions. The cache core only consumes the resulting signal: when the
// backend is down and no cache entry exists, detection fails fast with
// server_down instead of attempting network I/O.
type HealthPoller struct {
	client   Client
	interval time.Duration
	logger   *logging.Logger
	onChange func(up bool)

	mu sync.RWMutex
	up bool
}

// NewHealthPoller creates a poller over the given client. onChange may be
// nil; it is invoked on every UP/DOWN transition.
func NewHealthPoller(client Client, interval time.Duration, onChange func(up bool), logger *logging.Logger) *HealthPoller {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &HealthPoller{
		client:   client,
		interval: interval,
		logger:   logger,
		onChange: onChange,
	}
}

// Up returns the last observed backend state
func (p *HealthPoller) Up() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.up
}

// Run polls until ctx is canceled. The first probe happens immediately.
func (p *HealthPoller) Run(ctx context.Context) {
	p.probe(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.probe(ctx)
		}
	}
}

// PolledClient delegates detection to an inner client but answers
// reachability from a HealthPoller's cached state, so long-running modes do
// not probe the health endpoint on every cache miss.
type PolledClient struct {
	inner  Client
	poller *HealthPoller
}

// NewPolledClient wraps inner with the poller's cached reachability
func NewPolledClient(inner Client, poller *HealthPoller) *PolledClient {
	return &PolledClient{inner: inner, poller: poller}
}

// Detect implements Client by delegating to the inner client
func (c *PolledClient) Detect(ctx context.Context, path string, enabled map[string]filters.Selection) ([]smells.Smell, error) {
	return c.inner.Detect(ctx, path, enabled)
}

// IsReachable implements Client from the poller's last observation
func (c *PolledClient) IsReachable(ctx context.Context) bool {
	return c.poller.Up()
}

func (p *HealthPoller) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, p.interval)
	defer cancel()

	up := p.client.IsReachable(probeCtx)

	p.mu.Lock()
	changed := up != p.up
	p.up = up
	p.mu.Unlock()

	if changed {
		p.logger.Info("Analyzer availability changed", map[string]interface{}{
			"up": up,
		})
		if p.onChange != nil {
			p.onChange(up)
		}
	}
}
