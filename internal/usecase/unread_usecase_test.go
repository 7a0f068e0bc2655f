package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketchat/internal/domain/entity"
	"marketchat/pkg/errors"
)

func TestGetUnreadCount(t *testing.T) {
	ctx := context.Background()

	t.Run("counter hit is served without recompute", func(t *testing.T) {
		e := newEnv()
		roomID := setupRoom(t, e)

		require.NoError(t, e.counter.Set(ctx, roomID, "seller-1", 7))
		before := e.counter.sets

		count, err := e.unread.GetUnreadCount(ctx, roomID, "seller-1")
		require.NoError(t, err)
		assert.Equal(t, int64(7), count)
		assert.Equal(t, before, e.counter.sets, "a hit must not repopulate the counter")
	})

	t.Run("a hit of zero is trusted", func(t *testing.T) {
		e := newEnv()
		roomID := setupRoom(t, e)

		require.NoError(t, e.counter.Set(ctx, roomID, "seller-1", 0))

		count, err := e.unread.GetUnreadCount(ctx, roomID, "seller-1")
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})

	t.Run("miss recomputes from the log and repopulates", func(t *testing.T) {
		e := newEnv()
		roomID := setupRoom(t, e)

		for i := 0; i < 5; i++ {
			_, err := e.messages.Send(ctx, roomID, "buyer-1", "", "msg")
			require.NoError(t, err)
		}

		// Drop every counter entry so the next lookup must recompute.
		e.counter.Flush()

		count, err := e.unread.GetUnreadCount(ctx, roomID, "seller-1")
		require.NoError(t, err)
		assert.Equal(t, int64(5), count)

		// The recompute repopulated the counter; the next lookup hits.
		result, err := e.counter.Get(ctx, roomID, "seller-1")
		require.NoError(t, err)
		assert.True(t, result.Hit)
		assert.Equal(t, int64(5), result.Count)
	})

	t.Run("recompute honors the read cursor", func(t *testing.T) {
		e := newEnv()
		roomID := setupRoom(t, e)

		base := time.Now().Add(-time.Hour)
		for i := 0; i < 4; i++ {
			require.NoError(t, e.messageRepo.Append(ctx, &entity.Message{
				RoomID:   roomID,
				SenderID: "buyer-1",
				Content:  "msg",
				SentAt:   base.Add(time.Duration(i) * time.Minute),
			}))
		}

		// Cursor sits on the second message; only the two after it count.
		require.NoError(t, e.participantRepo.MarkRead(ctx, roomID, "seller-1", base.Add(time.Minute)))
		e.counter.Flush()

		count, err := e.unread.GetUnreadCount(ctx, roomID, "seller-1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("recompute excludes the user's own messages", func(t *testing.T) {
		e := newEnv()
		roomID := setupRoom(t, e)

		_, err := e.messages.Send(ctx, roomID, "seller-1", "", "mine")
		require.NoError(t, err)
		_, err = e.messages.Send(ctx, roomID, "buyer-1", "", "theirs")
		require.NoError(t, err)

		e.counter.Flush()

		count, err := e.unread.GetUnreadCount(ctx, roomID, "seller-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("non-participant on a miss", func(t *testing.T) {
		e := newEnv()
		roomID := setupRoom(t, e)

		_, err := e.unread.GetUnreadCount(ctx, roomID, "stranger")
		assert.True(t, errors.Is(err, "NOT_A_PARTICIPANT"))
	})
}

func TestGetUnreadSummary(t *testing.T) {
	ctx := context.Background()

	e := newEnv()
	e.products.add("prod-1", "seller-1", "Keyboard", 45000)
	e.products.add("prod-2", "seller-2", "Mouse", 15000)
	e.users.add("buyer-1", "buyer one")

	roomA, err := e.rooms.CreateOrGetRoom(ctx, "buyer-1", "prod-1")
	require.NoError(t, err)
	roomB, err := e.rooms.CreateOrGetRoom(ctx, "buyer-1", "prod-2")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := e.messages.Send(ctx, roomA.RoomID, "seller-1", "", "ping")
		require.NoError(t, err)
	}
	_, err = e.messages.Send(ctx, roomB.RoomID, "seller-2", "", "pong")
	require.NoError(t, err)

	summary, err := e.unread.GetUnreadSummary(ctx, "buyer-1")
	require.NoError(t, err)

	assert.Equal(t, int64(3), summary.TotalUnread)
	require.Len(t, summary.Rooms, 2)
	assert.False(t, summary.GeneratedAt.IsZero())

	counts := map[string]int64{}
	for _, r := range summary.Rooms {
		counts[r.RoomID] = r.UnreadCount
	}
	assert.Equal(t, int64(2), counts[roomA.RoomID])
	assert.Equal(t, int64(1), counts[roomB.RoomID])
}
