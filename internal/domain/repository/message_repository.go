package repository

import (
	"context"
	"time"

	"marketchat/internal/domain/entity"
)

// MessageRepository is the append-only, per-room ordered message log.
// Ordering within a room is by (sentAt, id); the id breaks ties between
// messages with equal timestamps.
type MessageRepository interface {
	// Append persists a new message. The append is the only fatal write on
	// the send path; it must be durable before any send side effect runs.
	Append(ctx context.Context, message *entity.Message) error

	// ListByRoom returns a reverse-chronological page of the room's messages
	// together with the total count.
	ListByRoom(ctx context.Context, roomID string, limit, offset int) ([]*entity.Message, int64, error)

	// LatestInRoom returns the most recent message of the room, or a
	// NOT_FOUND AppError for an empty room.
	LatestInRoom(ctx context.Context, roomID string) (*entity.Message, error)

	// CountUnread counts messages in the room sent by someone other than
	// userID with sentAt strictly after the cursor. A nil cursor counts all
	// such messages.
	CountUnread(ctx context.Context, roomID, userID string, after *time.Time) (int64, error)

	// MarkReadUpTo unions userID into the readBy set of every message in the
	// room with senderId != userID and sentAt <= upTo. The union is
	// idempotent; applying it twice is a no-op.
	MarkReadUpTo(ctx context.Context, roomID, userID string, upTo time.Time) error
}
