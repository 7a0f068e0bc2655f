package repository

import (
	"context"
	"time"

	"marketchat/internal/domain/entity"
)

// ParticipantRepository is the durable per-room, per-user ledger of read
// cursors and unread counts. (roomId, userId) is unique.
type ParticipantRepository interface {
	// CreateIfAbsent seeds a participant record, silently succeeding when the
	// record already exists. Two concurrent room creators may both reach the
	// seeding step; the duplicate insert must not surface as an error.
	CreateIfAbsent(ctx context.Context, participant *entity.Participant) error

	// Get returns the participant record or a NOT_FOUND AppError.
	Get(ctx context.Context, roomID, userID string) (*entity.Participant, error)

	ListByRoom(ctx context.Context, roomID string) ([]*entity.Participant, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.Participant, error)

	// IncrementUnread bumps the durable unread counter by delta. The increment
	// is atomic at the storage layer so concurrent sends never lose updates.
	IncrementUnread(ctx context.Context, roomID, userID string, delta int64) error

	// MarkRead advances the read cursor to lastReadAt and zeroes the durable
	// unread counter in one update.
	MarkRead(ctx context.Context, roomID, userID string, lastReadAt time.Time) error
}
