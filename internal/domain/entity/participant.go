package entity

import "time"

// Participant is the durable per-room, per-user ledger entry. UnreadCount is
// write-side bookkeeping, bumped on every send and zeroed on read; clients
// are served counts from the unread counter and its recompute path instead.
// A nil LastReadAt means the user has never read the room.
type Participant struct {
	ID          string     `json:"id" firestore:"id"`
	RoomID      string     `json:"room_id" firestore:"roomId"`
	UserID      string     `json:"user_id" firestore:"userId"`
	UnreadCount int64      `json:"unread_count" firestore:"unreadCount"`
	LastReadAt  *time.Time `json:"last_read_at" firestore:"lastReadAt"`
}
