package usecase

import (
	"context"
	"log"
	"time"

	"marketchat/internal/domain/entity"
	"marketchat/internal/domain/repository"
	"marketchat/internal/infrastructure/cache"
	ws "marketchat/internal/infrastructure/websocket"
	"marketchat/pkg/errors"
)

type MessageUseCase struct {
	roomRepo        repository.RoomRepository
	participantRepo repository.ParticipantRepository
	messageRepo     repository.MessageRepository
	counter         cache.Counter
	userLookup      UserLookup
	broadcaster     Broadcaster
	roomUseCase     *RoomUseCase
}

func NewMessageUseCase(
	roomRepo repository.RoomRepository,
	participantRepo repository.ParticipantRepository,
	messageRepo repository.MessageRepository,
	counter cache.Counter,
	userLookup UserLookup,
	broadcaster Broadcaster,
	roomUseCase *RoomUseCase,
) *MessageUseCase {
	return &MessageUseCase{
		roomRepo:        roomRepo,
		participantRepo: participantRepo,
		messageRepo:     messageRepo,
		counter:         counter,
		userLookup:      userLookup,
		broadcaster:     broadcaster,
		roomUseCase:     roomUseCase,
	}
}

type MessageResponse struct {
	ID         string    `json:"id"`
	RoomID     string    `json:"room_id"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Content    string    `json:"content"`
	SentAt     time.Time `json:"sent_at"`
	Read       bool      `json:"read"`
	ReadState  string    `json:"read_state"`
}

type SendWithRoomResponse struct {
	Room    *RoomResponse    `json:"room"`
	Message *MessageResponse `json:"message"`
}

type ReadReceipt struct {
	RoomID     string    `json:"room_id"`
	UserID     string    `json:"user_id"`
	LastReadAt time.Time `json:"last_read_at"`
}

// Send appends a message to the room's log and runs the send side effects.
// Only the append itself can fail the call: once the message is durable,
// counter bumps and the realtime fan-out are best effort and a failure there
// is logged, never surfaced. Readers recover any lost bump from the log.
//
// The client supplies the display name; the user lookup is only a fallback
// for clients that omit it. The append is durable and never rewritten, so a
// collaborator outage must not decide what gets persisted.
func (uc *MessageUseCase) Send(ctx context.Context, roomID, senderID, senderName, content string) (*MessageResponse, error) {
	room, err := uc.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}

	if _, err := uc.participantRepo.Get(ctx, roomID, senderID); err != nil {
		if errors.Is(err, "NOT_FOUND") {
			return nil, errors.NotAParticipant(roomID, senderID)
		}
		return nil, err
	}

	if senderName == "" {
		if user, err := uc.userLookup.GetUserBasicInfo(ctx, senderID); err == nil {
			senderName = user.Nickname
		} else {
			log.Printf("Send Warning: Sender %s lookup failed: %v", senderID, err)
			senderName = placeholderNickname
		}
	}

	message := &entity.Message{
		RoomID:     roomID,
		SenderID:   senderID,
		SenderName: senderName,
		Content:    content,
		SentAt:     time.Now(),
	}

	if err := uc.messageRepo.Append(ctx, message); err != nil {
		log.Printf("Send Error: Failed to append message in room %s: %v", roomID, err)
		return nil, errors.Internal("Failed to send message", err)
	}

	response := uc.toMessageResponse(message, room.ParticipantIDs())

	for _, userID := range room.ParticipantIDs() {
		if userID == senderID {
			continue
		}
		if err := uc.participantRepo.IncrementUnread(ctx, roomID, userID, 1); err != nil {
			log.Printf("Send Warning: Unread ledger bump failed for room %s user %s: %v", roomID, userID, err)
		}
		if err := uc.counter.Increment(ctx, roomID, userID); err != nil {
			log.Printf("Send Warning: Counter bump failed for room %s user %s: %v", roomID, userID, err)
		}

		// Recipients connected but not subscribed to this room still get a
		// badge update on their personal channel.
		if result, err := uc.counter.Get(ctx, roomID, userID); err == nil && result.Hit {
			uc.broadcaster.SendToUser(userID, ws.MarshalFrame(ws.FrameTypeUnreadUpdate, roomID, map[string]interface{}{
				"room_id":      roomID,
				"unread_count": result.Count,
			}))
		}
	}

	uc.broadcaster.PublishToRoom(roomID, ws.MarshalFrame(ws.FrameTypeNewMessage, roomID, response), senderID)

	return response, nil
}

// SendWithAutoRoom resolves or creates the room for the caller and the
// product's seller, then sends the first message into it.
func (uc *MessageUseCase) SendWithAutoRoom(ctx context.Context, userID, productID, senderName, content string) (*SendWithRoomResponse, error) {
	room, err := uc.roomUseCase.CreateOrGetRoom(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	message, err := uc.Send(ctx, room.RoomID, userID, senderName, content)
	if err != nil {
		return nil, err
	}

	return &SendWithRoomResponse{Room: room, Message: message}, nil
}

// ListMessages returns a reverse-chronological page of the room's messages.
// The caller must be a participant.
func (uc *MessageUseCase) ListMessages(ctx context.Context, roomID, userID string, page, size int) ([]*MessageResponse, int64, error) {
	room, err := uc.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, 0, err
	}
	if !room.HasParticipant(userID) {
		return nil, 0, errors.NotAParticipant(roomID, userID)
	}

	messages, total, err := uc.messageRepo.ListByRoom(ctx, roomID, size, (page-1)*size)
	if err != nil {
		log.Printf("ListMessages Error: Failed to list messages in room %s: %v", roomID, err)
		return nil, 0, err
	}

	responses := make([]*MessageResponse, 0, len(messages))
	for _, m := range messages {
		responses = append(responses, uc.toMessageResponse(m, room.ParticipantIDs()))
	}

	return responses, total, nil
}

// MarkAsRead marks everything in the room sent to userID up to and including
// upTo as read. A zero upTo means "everything so far". The three writes run
// in a fixed order and each is idempotent, so a failed call can simply be
// retried: the ledger cursor advance, the readBy union across the log, then
// the counter reset. Live subscribers get a read receipt once all three
// writes have succeeded.
func (uc *MessageUseCase) MarkAsRead(ctx context.Context, roomID, userID string, upTo time.Time) error {
	if _, err := uc.participantRepo.Get(ctx, roomID, userID); err != nil {
		if errors.Is(err, "NOT_FOUND") {
			return errors.NotAParticipant(roomID, userID)
		}
		return err
	}

	if upTo.IsZero() {
		upTo = time.Now()
	}

	if err := uc.participantRepo.MarkRead(ctx, roomID, userID, upTo); err != nil {
		log.Printf("MarkAsRead Error: Cursor advance failed for room %s user %s: %v", roomID, userID, err)
		return errors.Internal("Failed to mark messages as read", err)
	}

	if err := uc.messageRepo.MarkReadUpTo(ctx, roomID, userID, upTo); err != nil {
		log.Printf("MarkAsRead Error: Read set union failed for room %s user %s: %v", roomID, userID, err)
		return errors.Internal("Failed to mark messages as read", err)
	}

	if err := uc.counter.Reset(ctx, roomID, userID); err != nil {
		log.Printf("MarkAsRead Error: Counter reset failed for room %s user %s: %v", roomID, userID, err)
		return errors.Internal("Failed to mark messages as read", err)
	}

	receipt := &ReadReceipt{RoomID: roomID, UserID: userID, LastReadAt: upTo}
	uc.broadcaster.PublishToRoom(roomID, ws.MarshalFrame(ws.FrameTypeReadReceipt, roomID, receipt), userID)

	return nil
}

func (uc *MessageUseCase) toMessageResponse(message *entity.Message, participantIDs []string) *MessageResponse {
	return &MessageResponse{
		ID:         message.ID,
		RoomID:     message.RoomID,
		SenderID:   message.SenderID,
		SenderName: message.SenderName,
		Content:    message.Content,
		SentAt:     message.SentAt,
		Read:       len(message.ReadBy) > 0,
		ReadState:  message.ReadState(participantIDs),
	}
}
