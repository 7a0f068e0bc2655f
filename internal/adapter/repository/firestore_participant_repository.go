package repository

import (
	"context"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"marketchat/internal/domain/entity"
	"marketchat/internal/domain/repository"
	"marketchat/pkg/errors"
)

type firestoreParticipantRepository struct {
	client *firestore.Client
}

func NewFirestoreParticipantRepository(client *firestore.Client) repository.ParticipantRepository {
	return &firestoreParticipantRepository{
		client: client,
	}
}

// Participants live in a sub-collection keyed by user ID, so (roomId, userId)
// is unique by construction and a duplicate seed shows up as AlreadyExists.
func (r *firestoreParticipantRepository) doc(roomID, userID string) *firestore.DocumentRef {
	return r.client.Collection("chat_rooms").Doc(roomID).Collection("participants").Doc(userID)
}

func (r *firestoreParticipantRepository) CreateIfAbsent(ctx context.Context, participant *entity.Participant) error {
	if participant.ID == "" {
		participant.ID = uuid.New().String()
	}

	_, err := r.doc(participant.RoomID, participant.UserID).Create(ctx, participant)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			// Two creators raced on the seeding step; first write wins.
			return nil
		}
		return errors.Internal("Failed to create participant", err)
	}

	return nil
}

func (r *firestoreParticipantRepository) Get(ctx context.Context, roomID, userID string) (*entity.Participant, error) {
	doc, err := r.doc(roomID, userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Participant", err)
		}
		return nil, errors.Internal("Failed to get participant", err)
	}

	var participant entity.Participant
	if err := doc.DataTo(&participant); err != nil {
		return nil, errors.Internal("Failed to parse participant data", err)
	}

	return &participant, nil
}

func (r *firestoreParticipantRepository) ListByRoom(ctx context.Context, roomID string) ([]*entity.Participant, error) {
	iter := r.client.Collection("chat_rooms").Doc(roomID).Collection("participants").Documents(ctx)

	var participants []*entity.Participant
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			log.Printf("Firestore error while iterating participants for room %s: %v", roomID, err)
			return nil, errors.Internal("Failed to iterate participants", err)
		}

		var participant entity.Participant
		if err := doc.DataTo(&participant); err != nil {
			log.Printf("Error parsing participant data for room %s: %v", roomID, err)
			return nil, errors.Internal("Failed to parse participant data", err)
		}

		participants = append(participants, &participant)
	}

	return participants, nil
}

func (r *firestoreParticipantRepository) ListByUser(ctx context.Context, userID string) ([]*entity.Participant, error) {
	iter := r.client.CollectionGroup("participants").Where("userId", "==", userID).Documents(ctx)

	var participants []*entity.Participant
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			log.Printf("Firestore error while iterating participants for user %s: %v", userID, err)
			return nil, errors.Internal("Failed to iterate participants", err)
		}

		var participant entity.Participant
		if err := doc.DataTo(&participant); err != nil {
			continue // Skip malformed documents
		}

		participants = append(participants, &participant)
	}

	return participants, nil
}

func (r *firestoreParticipantRepository) IncrementUnread(ctx context.Context, roomID, userID string, delta int64) error {
	_, err := r.doc(roomID, userID).Update(ctx, []firestore.Update{
		{Path: "unreadCount", Value: firestore.Increment(delta)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Participant", err)
		}
		return errors.Internal("Failed to increment unread count", err)
	}

	return nil
}

func (r *firestoreParticipantRepository) MarkRead(ctx context.Context, roomID, userID string, lastReadAt time.Time) error {
	_, err := r.doc(roomID, userID).Update(ctx, []firestore.Update{
		{Path: "lastReadAt", Value: lastReadAt},
		{Path: "unreadCount", Value: int64(0)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Participant", err)
		}
		return errors.Internal("Failed to mark participant as read", err)
	}

	return nil
}
