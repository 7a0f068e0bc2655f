package cache

import (
	"context"
	"fmt"
)

// Result is a tagged counter lookup. Hit distinguishes "entry present with
// value zero" from "no entry": zero is a trusted value once populated, while
// a miss tells the caller to recompute from the durable log.
type Result struct {
	Count int64
	Hit   bool
}

// Counter is a fast per-(room, user) unread counter. Implementations must
// make Increment safe under concurrent callers (monotonic increment at the
// storage layer) and may lose entries at any time; callers treat a miss as a
// recompute trigger, never as zero.
type Counter interface {
	Get(ctx context.Context, roomID, userID string) (Result, error)

	// Increment blindly bumps the entry by one, creating it at 1 if absent.
	Increment(ctx context.Context, roomID, userID string) error

	// Set overwrites the entry, populating it after a recompute.
	Set(ctx context.Context, roomID, userID string, count int64) error

	// Reset sets the entry to zero. Zero is a valid populated value.
	Reset(ctx context.Context, roomID, userID string) error
}

// counterKey matches the key scheme used by the rest of the platform:
// room:{roomId}:unread:{userId}.
func counterKey(roomID, userID string) string {
	return fmt.Sprintf("room:%s:unread:%s", roomID, userID)
}
