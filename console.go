package waterdesk

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hydrovia/waterdesk/session"
)

// Console is the composition root. It owns the session store, the audit
// dispatcher, and the metrics registry, and mints one [Manager] per
// browser scope. Construct it through [Builder.Build]; all methods are
// safe for concurrent use afterwards.
type Console struct {
	config  Config
	store   *session.Store
	http    *http.Client
	audit   *auditDispatcher
	metrics *Metrics

	mu       sync.Mutex
	managers map[string]*Manager
	closed   atomic.Bool
}

// Session returns the manager for one browser scope, creating it on
// first use. Callers with the same scope share one manager, so an
// in-flight login in one request is visible to the next.
func (c *Console) Session(scope string) (*Manager, error) {
	if c.closed.Load() {
		return nil, ErrConsoleClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok := c.managers[scope]; ok {
		return m, nil
	}

	m, err := newManager(c, scope)
	if err != nil {
		return nil, err
	}
	c.managers[scope] = m
	return m, nil
}

// release drops a closed manager from the scope table.
func (c *Console) release(scope string) {
	c.mu.Lock()
	delete(c.managers, scope)
	c.mu.Unlock()
}

// Ping checks that the session store's Redis backend is reachable.
func (c *Console) Ping(ctx context.Context) error {
	_, err := c.store.Ping(ctx)
	return err
}

// MetricsSnapshot copies the current counters and histograms.
func (c *Console) MetricsSnapshot() MetricsSnapshot {
	return c.metrics.Snapshot()
}

// MetricInc increments one console counter. Used by packages layered on
// top of the console (route guard, gateway) so all counters land in one
// registry.
func (c *Console) MetricInc(id MetricID) {
	c.metrics.Inc(id)
}

// AuditDropped reports audit events lost to dispatcher backpressure.
func (c *Console) AuditDropped() uint64 {
	return c.audit.Dropped()
}

// EmitAudit queues one event on the console's audit dispatcher. Used by
// layers above the console (the gateway's capability checks) so every
// audit trail shares one sink.
func (c *Console) EmitAudit(ctx context.Context, event AuditEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	c.audit.Emit(ctx, event)
}

// Close shuts the console down: every manager is closed and the audit
// dispatcher drains. Idempotent.
func (c *Console) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}

	c.mu.Lock()
	managers := make([]*Manager, 0, len(c.managers))
	for _, m := range c.managers {
		managers = append(managers, m)
	}
	c.managers = map[string]*Manager{}
	c.mu.Unlock()

	for _, m := range managers {
		m.Close()
	}

	c.audit.Close()
}
