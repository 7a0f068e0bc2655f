package cache

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	apperrors "marketchat/pkg/errors"
)

type redisCounter struct {
	client *redis.Client
}

// NewRedisCounter returns a Counter backed by Redis. INCR gives the monotonic
// blind increment; a missing key reads as a miss, not as zero.
func NewRedisCounter(client *redis.Client) Counter {
	return &redisCounter{
		client: client,
	}
}

func (c *redisCounter) Get(ctx context.Context, roomID, userID string) (Result, error) {
	count, err := c.client.Get(ctx, counterKey(roomID, userID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Result{}, nil
		}
		return Result{}, apperrors.Internal("Failed to read unread counter", err)
	}

	return Result{Count: count, Hit: true}, nil
}

func (c *redisCounter) Increment(ctx context.Context, roomID, userID string) error {
	if err := c.client.Incr(ctx, counterKey(roomID, userID)).Err(); err != nil {
		return apperrors.Internal("Failed to increment unread counter", err)
	}
	return nil
}

func (c *redisCounter) Set(ctx context.Context, roomID, userID string, count int64) error {
	if err := c.client.Set(ctx, counterKey(roomID, userID), count, 0).Err(); err != nil {
		return apperrors.Internal("Failed to set unread counter", err)
	}
	return nil
}

func (c *redisCounter) Reset(ctx context.Context, roomID, userID string) error {
	return c.Set(ctx, roomID, userID, 0)
}
