package optimistic

import (
	"testing"
	"time"
)

func TestCoordinator_ApplyRollbackRestoresPrior(t *testing.T) {
	c := NewCoordinator[int]()

	opID := c.Apply("offer:1", 5, 6)

	got, ok := c.GetPending("offer:1")
	if !ok || got != 6 {
		t.Fatalf("GetPending() = %v, %v, want 6, true", got, ok)
	}

	prior, ok := c.Rollback(opID)
	if !ok {
		t.Fatal("Rollback() ok = false, want true")
	}
	if prior != 5 {
		t.Errorf("Rollback() prior = %v, want 5", prior)
	}
	if c.HasPending("offer:1") {
		t.Error("HasPending() = true after rollback, want false")
	}
}

func TestCoordinator_RollbackIsAtMostOnce(t *testing.T) {
	c := NewCoordinator[string]()

	opID := c.Apply("k", "before", "after")

	if _, ok := c.Rollback(opID); !ok {
		t.Fatal("first Rollback() ok = false, want true")
	}
	if _, ok := c.Rollback(opID); ok {
		t.Error("second Rollback() ok = true, want false")
	}
}

func TestCoordinator_ConfirmDropsState(t *testing.T) {
	c := NewCoordinator[int]()

	opID := c.Apply("k", 1, 2)
	c.Confirm("k", opID)

	if c.HasPending("k") {
		t.Error("HasPending() = true after confirm, want false")
	}
	if _, ok := c.Rollback(opID); ok {
		t.Error("Rollback() after confirm ok = true, want false")
	}
}

func TestCoordinator_StaleConfirmDoesNotClobberNewerApply(t *testing.T) {
	c := NewCoordinator[int]()

	first := c.Apply("k", 1, 2)
	second := c.Apply("k", 2, 3)

	// Resolving the superseded operation must leave the newer pending
	// value in place.
	c.Confirm("k", first)

	got, ok := c.GetPending("k")
	if !ok || got != 3 {
		t.Fatalf("GetPending() = %v, %v, want 3, true", got, ok)
	}
	c.Confirm("k", second)
	if c.HasPending("k") {
		t.Error("HasPending() = true after confirming current op, want false")
	}
}

func TestCoordinator_OverlappingOpsKeepOwnSnapshots(t *testing.T) {
	c := NewCoordinator[int]()

	first := c.Apply("k", 10, 11)
	second := c.Apply("k", 11, 12)

	// The older op rolls back to its own prior but must not disturb the
	// newer pending entry.
	prior, ok := c.Rollback(first)
	if !ok || prior != 10 {
		t.Fatalf("Rollback(first) = %v, %v, want 10, true", prior, ok)
	}
	got, ok := c.GetPending("k")
	if !ok || got != 12 {
		t.Fatalf("GetPending() = %v, %v, want 12, true", got, ok)
	}

	prior, ok = c.Rollback(second)
	if !ok || prior != 11 {
		t.Fatalf("Rollback(second) = %v, %v, want 11, true", prior, ok)
	}
	if c.HasPending("k") {
		t.Error("HasPending() = true after both rollbacks, want false")
	}
}

func TestCoordinator_EvictOlderThan(t *testing.T) {
	c := NewCoordinator[int]()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	current := base
	c.SetClock(func() time.Time { return current })

	old := c.Apply("stale", 1, 2)
	current = base.Add(10 * time.Minute)
	fresh := c.Apply("fresh", 3, 4)

	evicted := c.EvictOlderThan(5 * time.Minute)
	if evicted != 1 {
		t.Fatalf("EvictOlderThan() = %d, want 1", evicted)
	}
	if c.HasPending("stale") {
		t.Error("stale key still pending after eviction")
	}
	if !c.HasPending("fresh") {
		t.Error("fresh key evicted, want kept")
	}
	if _, ok := c.Rollback(old); ok {
		t.Error("Rollback(old) ok = true after eviction, want false")
	}
	if _, ok := c.Rollback(fresh); !ok {
		t.Error("Rollback(fresh) ok = false, want true")
	}
}
