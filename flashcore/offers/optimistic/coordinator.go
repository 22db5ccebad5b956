// Package optimistic provides a generic keyed apply/confirm/rollback
// mechanism for mutations that want instant local feedback. A tentative
// value is filed under a logical key while the round trip it guards is in
// flight; the prior value stays addressable by operation id so a failed
// round trip restores exactly what was there before.
package optimistic

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type pendingEntry[T any] struct {
	operationID string
	value       T
	appliedAt   time.Time
}

type snapshot[T any] struct {
	key       string
	prior     T
	appliedAt time.Time
}

// Coordinator holds pending values and rollback snapshots. Pure in-memory
// state, no I/O; absence is reported as a false ok, never an error.
type Coordinator[T any] struct {
	mu        sync.Mutex
	pending   map[string]pendingEntry[T]
	snapshots map[string]snapshot[T]
	now       func() time.Time
}

func NewCoordinator[T any]() *Coordinator[T] {
	return &Coordinator[T]{
		pending:   make(map[string]pendingEntry[T]),
		snapshots: make(map[string]snapshot[T]),
		now:       time.Now,
	}
}

// SetClock overrides the time source. Tests only.
func (c *Coordinator[T]) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Apply records a rollback snapshot of current under a fresh operation id
// and files tentative as the pending value for key. A later Apply to the
// same key overwrites the pending value (last write wins) but every
// operation keeps its own snapshot.
func (c *Coordinator[T]) Apply(key string, current, tentative T) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	operationID := uuid.NewString()
	appliedAt := c.now()

	c.snapshots[operationID] = snapshot[T]{key: key, prior: current, appliedAt: appliedAt}
	c.pending[key] = pendingEntry[T]{operationID: operationID, value: tentative, appliedAt: appliedAt}
	return operationID
}

// Confirm resolves the operation, dropping pending and snapshot state. It is
// a no-op when the pending entry for key no longer matches operationID, so a
// stale confirm cannot clobber a superseding apply.
func (c *Coordinator[T]) Confirm(key, operationID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.pending[key]; ok && entry.operationID == operationID {
		delete(c.pending, key)
	}
	delete(c.snapshots, operationID)
}

// Rollback removes the operation's state and returns the prior value. A
// second call for the same operation id returns ok=false; resolution is
// at-most-once per operation id.
func (c *Coordinator[T]) Rollback(operationID string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap, ok := c.snapshots[operationID]
	if !ok {
		var zero T
		return zero, false
	}
	delete(c.snapshots, operationID)

	if entry, ok := c.pending[snap.key]; ok && entry.operationID == operationID {
		delete(c.pending, snap.key)
	}
	return snap.prior, true
}

// HasPending reports whether key has an unresolved tentative value.
func (c *Coordinator[T]) HasPending(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[key]
	return ok
}

// GetPending returns the tentative value filed under key.
func (c *Coordinator[T]) GetPending(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.pending[key]
	if !ok {
		var zero T
		return zero, false
	}
	return entry.value, true
}

// EvictOlderThan garbage-collects state abandoned by callers that never
// resolved their round trip (e.g. a client that never got a response).
// Returns the number of operations evicted.
func (c *Coordinator[T]) EvictOlderThan(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-maxAge)
	evicted := 0

	for opID, snap := range c.snapshots {
		if snap.appliedAt.Before(cutoff) {
			delete(c.snapshots, opID)
			if entry, ok := c.pending[snap.key]; ok && entry.operationID == opID {
				delete(c.pending, snap.key)
			}
			evicted++
		}
	}
	// Pending entries whose snapshot was already resolved out of band.
	for key, entry := range c.pending {
		if entry.appliedAt.Before(cutoff) {
			delete(c.pending, key)
			evicted++
		}
	}
	return evicted
}
