// Package admission bounds how many pipelines may run concurrently for a
// single owner while leaving unrelated owners unaffected.
package admission

import (
	"errors"
	"sync"
)

// DefaultPerOwnerLimit is the number of simultaneous in-flight pipelines
// one owner may hold.
const DefaultPerOwnerLimit = 4

// ErrLimitReached is returned when an owner already holds every permit.
// Overflow rejects rather than queues; the caller surfaces it to the
// requester and the aggregator is never touched.
var ErrLimitReached = errors.New("too many concurrent jobs for this owner")

// Permit is one granted admission slot. Release returns it; releasing
// more than once is a no-op.
type Permit struct {
	once sync.Once
	slot chan struct{}
}

// Release returns the permit to its owner's pool. Safe to call from any
// exit path, including after a failed pipeline run.
func (p *Permit) Release() {
	if p == nil {
		return
	}
	p.once.Do(func() { <-p.slot })
}

// Controller hands out per-owner permits. Semaphores are created lazily
// on an owner's first acquire, mirroring how per-key limiter maps are
// built elsewhere in this codebase.
type Controller struct {
	mu     sync.Mutex
	owners map[string]chan struct{}
	limit  int
}

// NewController creates a controller with the given per-owner limit
// (DefaultPerOwnerLimit when zero or negative).
func NewController(limit int) *Controller {
	if limit <= 0 {
		limit = DefaultPerOwnerLimit
	}
	return &Controller{
		owners: make(map[string]chan struct{}),
		limit:  limit,
	}
}

// TryAcquire grants a permit for the owner or returns ErrLimitReached.
func (c *Controller) TryAcquire(ownerID string) (*Permit, error) {
	slot := c.semaphore(ownerID)
	select {
	case slot <- struct{}{}:
		return &Permit{slot: slot}, nil
	default:
		return nil, ErrLimitReached
	}
}

// InFlight reports how many permits the owner currently holds.
func (c *Controller) InFlight(ownerID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if slot, ok := c.owners[ownerID]; ok {
		return len(slot)
	}
	return 0
}

func (c *Controller) semaphore(ownerID string) chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	slot, ok := c.owners[ownerID]
	if !ok {
		slot = make(chan struct{}, c.limit)
		c.owners[ownerID] = slot
	}
	return slot
}
