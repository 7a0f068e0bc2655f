package repository

import (
	"context"

	"marketchat/internal/domain/entity"
)

// RoomRepository is the room directory. The backing store's uniqueness
// constraint on (buyerId, sellerId, productId) is the only arbiter for
// concurrent create races: Create returns a CONFLICT error when another
// caller already inserted the same key, and callers recover by re-querying.
type RoomRepository interface {
	// Create inserts a new room. Returns a CONFLICT AppError if a room with
	// the same (buyer, seller, product) key already exists.
	Create(ctx context.Context, room *entity.Room) error

	GetByID(ctx context.Context, id string) (*entity.Room, error)

	// GetByKey looks up a room by its (buyer, seller, product) key. Returns a
	// NOT_FOUND AppError when no such room exists.
	GetByKey(ctx context.Context, buyerID, sellerID, productID string) (*entity.Room, error)
}
