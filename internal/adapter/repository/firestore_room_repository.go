package repository

import (
	"context"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"marketchat/internal/domain/entity"
	"marketchat/internal/domain/repository"
	"marketchat/pkg/errors"
)

type firestoreRoomRepository struct {
	client *firestore.Client
}

func NewFirestoreRoomRepository(client *firestore.Client) repository.RoomRepository {
	return &firestoreRoomRepository{
		client: client,
	}
}

// roomKey derives the document ID from the room's uniqueness key. Using the
// key as the document ID makes the Create precondition the uniqueness arbiter
// for concurrent creation races, without a separate index or pre-check lock.
func roomKey(buyerID, sellerID, productID string) string {
	return fmt.Sprintf("%s:%s:%s", buyerID, sellerID, productID)
}

func (r *firestoreRoomRepository) Create(ctx context.Context, room *entity.Room) error {
	room.ID = roomKey(room.BuyerID, room.SellerID, room.ProductID)

	_, err := r.client.Collection("chat_rooms").Doc(room.ID).Create(ctx, room)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return errors.Conflict("Room already exists")
		}
		return errors.Internal("Failed to create room", err)
	}

	return nil
}

func (r *firestoreRoomRepository) GetByID(ctx context.Context, id string) (*entity.Room, error) {
	doc, err := r.client.Collection("chat_rooms").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Room", err)
		}
		return nil, errors.Internal("Failed to get room", err)
	}

	var room entity.Room
	if err := doc.DataTo(&room); err != nil {
		log.Printf("Error parsing room data for %s: %v", id, err)
		return nil, errors.Internal("Failed to parse room data", err)
	}

	return &room, nil
}

func (r *firestoreRoomRepository) GetByKey(ctx context.Context, buyerID, sellerID, productID string) (*entity.Room, error) {
	return r.GetByID(ctx, roomKey(buyerID, sellerID, productID))
}
