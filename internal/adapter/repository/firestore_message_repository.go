package repository

import (
	"context"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"marketchat/internal/domain/entity"
	"marketchat/internal/domain/repository"
	"marketchat/pkg/errors"
)

type firestoreMessageRepository struct {
	client *firestore.Client
}

func NewFirestoreMessageRepository(client *firestore.Client) repository.MessageRepository {
	return &firestoreMessageRepository{
		client: client,
	}
}

func (r *firestoreMessageRepository) messages(roomID string) *firestore.CollectionRef {
	return r.client.Collection("chat_rooms").Doc(roomID).Collection("messages")
}

func (r *firestoreMessageRepository) Append(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		// V7 IDs are time-ordered, which keeps the (sentAt, id) tie-break
		// stable for messages appended within the same timestamp.
		id, err := uuid.NewV7()
		if err != nil {
			return errors.Internal("Failed to generate message ID", err)
		}
		message.ID = id.String()
	}

	if message.SentAt.IsZero() {
		message.SentAt = time.Now()
	}
	if message.ReadBy == nil {
		message.ReadBy = []string{}
	}

	_, err := r.messages(message.RoomID).Doc(message.ID).Create(ctx, message)
	if err != nil {
		return errors.Internal("Failed to append message", err)
	}

	return nil
}

func (r *firestoreMessageRepository) ListByRoom(ctx context.Context, roomID string, limit, offset int) ([]*entity.Message, int64, error) {
	query := r.messages(roomID).
		OrderBy("sentAt", firestore.Desc).
		OrderBy(firestore.DocumentID, firestore.Desc)

	countDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		log.Printf("Firestore error while counting messages for room %s: %v", roomID, err)
		return nil, 0, errors.Internal("Failed to count messages for room", err)
	}
	total := int64(len(countDocs))

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	iter := query.Documents(ctx)
	var messages []*entity.Message

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			log.Printf("Firestore error while iterating messages for room %s: %v", roomID, err)
			return nil, 0, errors.Internal("Failed to iterate messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			log.Printf("Error parsing message data for room %s: %v", roomID, err)
			return nil, 0, errors.Internal("Failed to parse message data", err)
		}

		messages = append(messages, &message)
	}

	return messages, total, nil
}

func (r *firestoreMessageRepository) LatestInRoom(ctx context.Context, roomID string) (*entity.Message, error) {
	iter := r.messages(roomID).
		OrderBy("sentAt", firestore.Desc).
		OrderBy(firestore.DocumentID, firestore.Desc).
		Limit(1).
		Documents(ctx)

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, errors.NotFound("Message", nil)
	}
	if err != nil {
		return nil, errors.Internal("Failed to get latest message", err)
	}

	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}

	return &message, nil
}

func (r *firestoreMessageRepository) CountUnread(ctx context.Context, roomID, userID string, after *time.Time) (int64, error) {
	query := r.messages(roomID).Query
	if after != nil {
		query = query.Where("sentAt", ">", *after)
	}

	// The sender filter runs client-side: Firestore cannot combine the sentAt
	// range with an inequality on senderId in one query.
	iter := query.Documents(ctx)
	var count int64
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, errors.Internal("Failed to count unread messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			continue // Skip malformed documents
		}

		if message.SenderID != userID {
			count++
		}
	}

	return count, nil
}

func (r *firestoreMessageRepository) MarkReadUpTo(ctx context.Context, roomID, userID string, upTo time.Time) error {
	iter := r.messages(roomID).Where("sentAt", "<=", upTo).Documents(ctx)

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return errors.Internal("Failed to iterate messages for read marking", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			continue // Skip malformed documents
		}

		if message.SenderID == userID {
			continue
		}

		// ArrayUnion keeps the readBy set monotonic and makes the whole pass
		// idempotent: re-applying the same read receipt changes nothing.
		_, err = doc.Ref.Update(ctx, []firestore.Update{
			{Path: "readBy", Value: firestore.ArrayUnion(userID)},
		})
		if err != nil {
			log.Printf("Failed to union reader %s into message %s of room %s: %v", userID, message.ID, roomID, err)
			return errors.Internal("Failed to update message read set", err)
		}
	}

	return nil
}
