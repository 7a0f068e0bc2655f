package usecase

import (
	"context"

	"marketchat/internal/infrastructure/client"
)

// ProductLookup resolves a product to its seller and summary data. Backed by
// the product service; calls carry the configured collaborator timeout.
type ProductLookup interface {
	GetProductSummary(ctx context.Context, productID string) (*client.ProductSummary, error)
}

// UserLookup resolves a user to basic profile data for enrichment.
type UserLookup interface {
	GetUserBasicInfo(ctx context.Context, userID string) (*client.UserBasicInfo, error)
}

// Broadcaster fans a payload out to the live subscribers of a room, or to a
// single connected user. Best effort: implementations must never block the
// caller or report delivery failures as errors.
type Broadcaster interface {
	PublishToRoom(roomID string, payload []byte, excludeUserID string)
	SendToUser(userID string, payload []byte)
}
