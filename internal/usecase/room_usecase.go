package usecase

import (
	"context"
	"log"
	"sort"
	"time"

	"marketchat/internal/domain/entity"
	"marketchat/internal/domain/repository"
	"marketchat/internal/infrastructure/client"
	"marketchat/pkg/errors"
)

// Placeholder values served when a collaborator lookup fails on a read path.
const (
	placeholderProductName = "Unknown product"
	placeholderTradeStatus = "UNKNOWN"
	placeholderNickname    = "Unknown user"
)

type RoomUseCase struct {
	roomRepo        repository.RoomRepository
	participantRepo repository.ParticipantRepository
	messageRepo     repository.MessageRepository
	productLookup   ProductLookup
	userLookup      UserLookup
	unreadUseCase   *UnreadUseCase
}

func NewRoomUseCase(
	roomRepo repository.RoomRepository,
	participantRepo repository.ParticipantRepository,
	messageRepo repository.MessageRepository,
	productLookup ProductLookup,
	userLookup UserLookup,
	unreadUseCase *UnreadUseCase,
) *RoomUseCase {
	return &RoomUseCase{
		roomRepo:        roomRepo,
		participantRepo: participantRepo,
		messageRepo:     messageRepo,
		productLookup:   productLookup,
		userLookup:      userLookup,
		unreadUseCase:   unreadUseCase,
	}
}

type RoomResponse struct {
	RoomID              string    `json:"room_id"`
	ProductID           string    `json:"product_id"`
	ProductName         string    `json:"product_name"`
	ProductPrice        int64     `json:"product_price"`
	ProductThumbnailURL string    `json:"product_thumbnail_url,omitempty"`
	TradeStatus         string    `json:"trade_status"`
	BuyerID             string    `json:"buyer_id"`
	SellerID            string    `json:"seller_id"`
	CreatedAt           time.Time `json:"created_at"`
}

type RoomSummary struct {
	RoomID                   string     `json:"room_id"`
	ProductID                string     `json:"product_id"`
	ProductName              string     `json:"product_name"`
	ProductPrice             int64      `json:"product_price"`
	ProductThumbnailURL      string     `json:"product_thumbnail_url,omitempty"`
	TradeStatus              string     `json:"trade_status"`
	BuyerID                  string     `json:"buyer_id"`
	SellerID                 string     `json:"seller_id"`
	LastMessage              string     `json:"last_message,omitempty"`
	LastSentAt               *time.Time `json:"last_sent_at,omitempty"`
	UnreadCount              int64      `json:"unread_count"`
	OtherUserID              string     `json:"other_user_id"`
	OtherUserNickname        string     `json:"other_user_nickname"`
	OtherUserProfileImageURL string     `json:"other_user_profile_image_url,omitempty"`
}

type ParticipantResponse struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Nickname    string     `json:"nickname"`
	UnreadCount int64      `json:"unread_count"`
	LastReadAt  *time.Time `json:"last_read_at,omitempty"`
}

// CreateOrGetRoom resolves the product's seller and returns the 1:1 room for
// (buyer=userID, seller, product), creating it on first use. Concurrent
// duplicate requests converge on a single room: the store's uniqueness
// constraint arbitrates the race and the loser re-queries the winner's room.
// The product lookup failing here fails the whole call; a room is never
// created with an unresolved seller.
func (uc *RoomUseCase) CreateOrGetRoom(ctx context.Context, userID, productID string) (*RoomResponse, error) {
	product, err := uc.productLookup.GetProductSummary(ctx, productID)
	if err != nil {
		log.Printf("CreateOrGetRoom Error: Product %s lookup failed: %v", productID, err)
		return nil, err
	}

	if userID == product.SellerID {
		return nil, errors.BadRequest("You cannot open a chat for your own product", nil)
	}

	existing, err := uc.roomRepo.GetByKey(ctx, userID, product.SellerID, productID)
	if err == nil {
		return uc.toRoomResponse(existing, product), nil
	}
	if !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}

	room := &entity.Room{
		ProductID: productID,
		BuyerID:   userID,
		SellerID:  product.SellerID,
		CreatedAt: time.Now(),
	}

	if err := uc.roomRepo.Create(ctx, room); err != nil {
		if errors.Is(err, "CONFLICT") {
			// A concurrent caller won the insert race; return the winner's
			// room instead of surfacing the conflict.
			log.Printf("CreateOrGetRoom: Duplicate room creation for buyer=%s seller=%s product=%s, returning existing room", userID, product.SellerID, productID)
			winner, getErr := uc.roomRepo.GetByKey(ctx, userID, product.SellerID, productID)
			if getErr != nil {
				return nil, getErr
			}
			uc.seedParticipants(ctx, winner)
			return uc.toRoomResponse(winner, product), nil
		}
		return nil, err
	}

	uc.seedParticipants(ctx, room)

	return uc.toRoomResponse(room, product), nil
}

// seedParticipants creates both membership records with a zeroed counter and
// a read cursor at now. The underlying insert ignores duplicates, so two
// creators reaching this step concurrently both succeed.
func (uc *RoomUseCase) seedParticipants(ctx context.Context, room *entity.Room) {
	now := time.Now()
	for _, userID := range room.ParticipantIDs() {
		participant := &entity.Participant{
			RoomID:      room.ID,
			UserID:      userID,
			UnreadCount: 0,
			LastReadAt:  &now,
		}
		if err := uc.participantRepo.CreateIfAbsent(ctx, participant); err != nil {
			log.Printf("seedParticipants Error: Failed to seed participant %s in room %s: %v", userID, room.ID, err)
		}
	}
}

// GetRoom returns a single room enriched with product data, degrading to
// placeholders when the product service is unavailable. The caller must be a
// participant.
func (uc *RoomUseCase) GetRoom(ctx context.Context, roomID, userID string) (*RoomResponse, error) {
	room, err := uc.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.HasParticipant(userID) {
		return nil, errors.NotAParticipant(roomID, userID)
	}

	product, err := uc.productLookup.GetProductSummary(ctx, room.ProductID)
	if err != nil {
		log.Printf("GetRoom Warning: Product %s lookup failed for room %s: %v", room.ProductID, roomID, err)
		product = nil
	}

	return uc.toRoomResponse(room, product), nil
}

// ListMyRooms returns the caller's rooms with last-message preview, unread
// count, and collaborator enrichment, most recently active first. Rooms that
// have never seen a message sort last.
func (uc *RoomUseCase) ListMyRooms(ctx context.Context, userID string) ([]*RoomSummary, error) {
	participants, err := uc.participantRepo.ListByUser(ctx, userID)
	if err != nil {
		log.Printf("ListMyRooms Error: Failed to list participants for user %s: %v", userID, err)
		return nil, err
	}

	summaries := make([]*RoomSummary, 0, len(participants))
	for _, p := range participants {
		room, err := uc.roomRepo.GetByID(ctx, p.RoomID)
		if err != nil {
			log.Printf("ListMyRooms Warning: Room %s not found for participant %s: %v", p.RoomID, userID, err)
			continue
		}

		summary := &RoomSummary{
			RoomID:      room.ID,
			ProductID:   room.ProductID,
			BuyerID:     room.BuyerID,
			SellerID:    room.SellerID,
			OtherUserID: room.OtherParticipant(userID),
		}

		if last, err := uc.messageRepo.LatestInRoom(ctx, room.ID); err == nil {
			summary.LastMessage = last.Content
			sentAt := last.SentAt
			summary.LastSentAt = &sentAt
		}

		count, err := uc.unreadUseCase.GetUnreadCount(ctx, room.ID, userID)
		if err != nil {
			log.Printf("ListMyRooms Warning: Unread count failed for room %s user %s: %v", room.ID, userID, err)
		}
		summary.UnreadCount = count

		uc.enrichSummary(ctx, summary)
		summaries = append(summaries, summary)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := summaries[i].LastSentAt, summaries[j].LastSentAt
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.After(*b)
	})

	return summaries, nil
}

func (uc *RoomUseCase) enrichSummary(ctx context.Context, summary *RoomSummary) {
	product, err := uc.productLookup.GetProductSummary(ctx, summary.ProductID)
	if err == nil {
		summary.ProductName = product.Name
		summary.ProductPrice = product.Price
		summary.ProductThumbnailURL = product.ThumbnailURL
		summary.TradeStatus = product.TradeStatus
	} else {
		log.Printf("enrichSummary Warning: Product %s lookup failed: %v", summary.ProductID, err)
		summary.ProductName = placeholderProductName
		summary.TradeStatus = placeholderTradeStatus
	}

	user, err := uc.userLookup.GetUserBasicInfo(ctx, summary.OtherUserID)
	if err == nil {
		summary.OtherUserNickname = user.Nickname
		summary.OtherUserProfileImageURL = user.ProfileImageURL
	} else {
		log.Printf("enrichSummary Warning: User %s lookup failed: %v", summary.OtherUserID, err)
		summary.OtherUserNickname = placeholderNickname
	}
}

// GetParticipants lists the room's membership records, enriched with
// nicknames. The caller must be a participant of the room.
func (uc *RoomUseCase) GetParticipants(ctx context.Context, roomID, userID string) ([]*ParticipantResponse, error) {
	if err := uc.requireParticipant(ctx, roomID, userID); err != nil {
		return nil, err
	}

	participants, err := uc.participantRepo.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	responses := make([]*ParticipantResponse, 0, len(participants))
	for _, p := range participants {
		resp := &ParticipantResponse{
			ID:          p.ID,
			UserID:      p.UserID,
			UnreadCount: p.UnreadCount,
			LastReadAt:  p.LastReadAt,
		}

		if user, err := uc.userLookup.GetUserBasicInfo(ctx, p.UserID); err == nil {
			resp.Nickname = user.Nickname
		} else {
			log.Printf("GetParticipants Warning: User %s lookup failed: %v", p.UserID, err)
			resp.Nickname = placeholderNickname
		}

		responses = append(responses, resp)
	}

	return responses, nil
}

// IsParticipant reports room membership. Backs the membership-verification
// endpoint and the realtime subscribe gate.
func (uc *RoomUseCase) IsParticipant(ctx context.Context, roomID, userID string) (bool, error) {
	_, err := uc.participantRepo.Get(ctx, roomID, userID)
	if err != nil {
		if errors.Is(err, "NOT_FOUND") {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (uc *RoomUseCase) requireParticipant(ctx context.Context, roomID, userID string) error {
	ok, err := uc.IsParticipant(ctx, roomID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return errors.NotAParticipant(roomID, userID)
	}
	return nil
}

func (uc *RoomUseCase) toRoomResponse(room *entity.Room, product *client.ProductSummary) *RoomResponse {
	resp := &RoomResponse{
		RoomID:      room.ID,
		ProductID:   room.ProductID,
		BuyerID:     room.BuyerID,
		SellerID:    room.SellerID,
		CreatedAt:   room.CreatedAt,
		ProductName: placeholderProductName,
		TradeStatus: placeholderTradeStatus,
	}

	if product != nil {
		resp.ProductName = product.Name
		resp.ProductPrice = product.Price
		resp.ProductThumbnailURL = product.ThumbnailURL
		resp.TradeStatus = product.TradeStatus
	}

	return resp
}
