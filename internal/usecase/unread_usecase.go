package usecase

import (
	"context"
	"log"
	"time"

	"marketchat/internal/domain/repository"
	"marketchat/internal/infrastructure/cache"
	"marketchat/pkg/errors"
)

type UnreadUseCase struct {
	participantRepo repository.ParticipantRepository
	messageRepo     repository.MessageRepository
	counter         cache.Counter
}

func NewUnreadUseCase(
	participantRepo repository.ParticipantRepository,
	messageRepo repository.MessageRepository,
	counter cache.Counter,
) *UnreadUseCase {
	return &UnreadUseCase{
		participantRepo: participantRepo,
		messageRepo:     messageRepo,
		counter:         counter,
	}
}

type RoomUnread struct {
	RoomID      string `json:"room_id"`
	UnreadCount int64  `json:"unread_count"`
}

type UnreadSummary struct {
	UserID      string        `json:"user_id"`
	TotalUnread int64         `json:"total_unread"`
	Rooms       []*RoomUnread `json:"rooms"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// GetUnreadCount answers "how many unread messages does userID have in this
// room". The counter is the authority on a hit, including a hit of zero. On a
// miss the count is recomputed from the durable log using the participant's
// read cursor, and the counter is repopulated so the next call hits.
func (uc *UnreadUseCase) GetUnreadCount(ctx context.Context, roomID, userID string) (int64, error) {
	result, err := uc.counter.Get(ctx, roomID, userID)
	if err != nil {
		// A counter backend failure degrades to a miss; the durable log can
		// still answer.
		log.Printf("GetUnreadCount Warning: Counter lookup failed for room %s user %s: %v", roomID, userID, err)
		result = cache.Result{}
	}
	if result.Hit {
		return result.Count, nil
	}

	participant, err := uc.participantRepo.Get(ctx, roomID, userID)
	if err != nil {
		if errors.Is(err, "NOT_FOUND") {
			return 0, errors.NotAParticipant(roomID, userID)
		}
		return 0, err
	}

	count, err := uc.messageRepo.CountUnread(ctx, roomID, userID, participant.LastReadAt)
	if err != nil {
		log.Printf("GetUnreadCount Error: Recompute failed for room %s user %s: %v", roomID, userID, err)
		return 0, err
	}

	if err := uc.counter.Set(ctx, roomID, userID, count); err != nil {
		log.Printf("GetUnreadCount Warning: Failed to repopulate counter for room %s user %s: %v", roomID, userID, err)
	}

	return count, nil
}

// GetUnreadSummary aggregates the caller's unread counts across every room
// they belong to.
func (uc *UnreadUseCase) GetUnreadSummary(ctx context.Context, userID string) (*UnreadSummary, error) {
	participants, err := uc.participantRepo.ListByUser(ctx, userID)
	if err != nil {
		log.Printf("GetUnreadSummary Error: Failed to list rooms for user %s: %v", userID, err)
		return nil, err
	}

	summary := &UnreadSummary{
		UserID:      userID,
		Rooms:       make([]*RoomUnread, 0, len(participants)),
		GeneratedAt: time.Now().UTC(),
	}

	for _, p := range participants {
		count, err := uc.GetUnreadCount(ctx, p.RoomID, userID)
		if err != nil {
			log.Printf("GetUnreadSummary Warning: Count failed for room %s user %s: %v", p.RoomID, userID, err)
			continue
		}
		summary.Rooms = append(summary.Rooms, &RoomUnread{RoomID: p.RoomID, UnreadCount: count})
		summary.TotalUnread += count
	}

	return summary, nil
}
