package entity

import "time"

// Room is a 1:1 conversation between the buyer and the seller of one
// product. (BuyerID, SellerID, ProductID) is unique; a second room for the
// same triple never exists.
type Room struct {
	ID        string    `json:"id" firestore:"id"`
	ProductID string    `json:"product_id" firestore:"productId"`
	BuyerID   string    `json:"buyer_id" firestore:"buyerId"`
	SellerID  string    `json:"seller_id" firestore:"sellerId"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

// ParticipantIDs returns the two members of the room, buyer first.
func (r *Room) ParticipantIDs() []string {
	return []string{r.BuyerID, r.SellerID}
}

// OtherParticipant returns the counterparty of userID, or an empty string
// when userID is not a member.
func (r *Room) OtherParticipant(userID string) string {
	switch userID {
	case r.BuyerID:
		return r.SellerID
	case r.SellerID:
		return r.BuyerID
	}
	return ""
}

// HasParticipant reports whether userID is the buyer or the seller.
func (r *Room) HasParticipant(userID string) bool {
	return userID == r.BuyerID || userID == r.SellerID
}
