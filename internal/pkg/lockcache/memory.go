package lockcache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type memoryEntry struct {
	lock     SlotLock
	deadline time.Time
}

// Memory is an in-process Cache for single-instance deployments.
// A mutex around the map makes Put a linearizable test-and-set per key.
type Memory struct {
	mu      sync.Mutex
	entries map[uuid.UUID]memoryEntry
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[uuid.UUID]memoryEntry)}
}

func (c *Memory) Put(_ context.Context, slotID uuid.UUID, lock SlotLock, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[slotID]; ok && time.Now().Before(entry.deadline) {
		return ErrAlreadyLocked
	}
	c.entries[slotID] = memoryEntry{lock: lock, deadline: time.Now().Add(ttl)}
	return nil
}

func (c *Memory) Get(_ context.Context, slotID uuid.UUID) (SlotLock, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[slotID]
	if !ok {
		return SlotLock{}, ErrNotFound
	}
	if !time.Now().Before(entry.deadline) {
		delete(c.entries, slotID)
		return SlotLock{}, ErrNotFound
	}
	return entry.lock, nil
}

func (c *Memory) Release(_ context.Context, slotID, userID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[slotID]; ok && entry.lock.UserID == userID {
		delete(c.entries, slotID)
	}
	return nil
}

// Janitor proactively evicts expired entries so the map does not grow
// unbounded between reads. Liveness semantics do not depend on it.
func (c *Memory) Janitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Lock cache janitor stopped")
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *Memory) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for id, entry := range c.entries {
		if !now.Before(entry.deadline) {
			delete(c.entries, id)
		}
	}
}
