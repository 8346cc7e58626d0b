// Package refresh propagates "a tracking event occurred" to every consumer
// of reconciled progress. The contract is a monotonically increasing version
// counter: Bump is the only write, and a notification carries the version and
// nothing else; observers must re-fetch and recompute, never read a payload.
package refresh

import "sync"

// Coordinator is an in-process fanout over a version counter.
type Coordinator struct {
	mu      sync.RWMutex
	version uint64
	subs    map[chan uint64]struct{}
}

// NewCoordinator creates a Coordinator at version zero.
func NewCoordinator() *Coordinator {
	return &Coordinator{subs: make(map[chan uint64]struct{})}
}

// Version returns the current version.
func (c *Coordinator) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Bump increments the version and notifies every subscriber. Subscribers that
// have not drained their previous notification are left with the stale one
// pending; since a notification only means "recompute", coalescing is safe
// and Bump never blocks.
func (c *Coordinator) Bump() uint64 {
	c.mu.Lock()
	c.version++
	v := c.version
	for ch := range c.subs {
		select {
		case ch <- v:
		default:
		}
	}
	c.mu.Unlock()
	return v
}

// Subscribe registers a new observer. The returned channel receives version
// numbers; the caller must invoke cancel on teardown to release it.
func (c *Coordinator) Subscribe() (<-chan uint64, func()) {
	ch := make(chan uint64, 1)
	c.mu.Lock()
	c.subs[ch] = struct{}{}
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		delete(c.subs, ch)
		c.mu.Unlock()
	}
	return ch, cancel
}
