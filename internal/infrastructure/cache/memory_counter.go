package cache

import (
	"context"
	"sync"
)

// MemoryCounter is an in-process Counter for cache-less deployments and
// tests. Semantics mirror the Redis implementation: absent keys are misses,
// increments create at 1, and all operations are safe under concurrency.
type MemoryCounter struct {
	mu      sync.Mutex
	entries map[string]int64
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{
		entries: make(map[string]int64),
	}
}

func (c *MemoryCounter) Get(ctx context.Context, roomID, userID string) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	count, ok := c.entries[counterKey(roomID, userID)]
	if !ok {
		return Result{}, nil
	}
	return Result{Count: count, Hit: true}, nil
}

func (c *MemoryCounter) Increment(ctx context.Context, roomID, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[counterKey(roomID, userID)]++
	return nil
}

func (c *MemoryCounter) Set(ctx context.Context, roomID, userID string, count int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[counterKey(roomID, userID)] = count
	return nil
}

func (c *MemoryCounter) Reset(ctx context.Context, roomID, userID string) error {
	return c.Set(ctx, roomID, userID, 0)
}

// Flush drops every entry, forcing the next Get to miss. Used to exercise the
// recompute path.
func (c *MemoryCounter) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]int64)
}
