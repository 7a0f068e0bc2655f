package entity

import "time"

// Message read states derived from the readBy set. The set only grows, so a
// message never moves backwards through these states.
const (
	MessageStateCreated       = "CREATED"
	MessageStatePartiallyRead = "PARTIALLY_READ"
	MessageStateReadByAll     = "READ_BY_ALL"
)

// Message is one entry in a room's append-only log. Everything except ReadBy
// is immutable after the append; ReadBy is a monotonic set that by convention
// never contains the sender.
type Message struct {
	ID         string    `json:"id" firestore:"id"`
	RoomID     string    `json:"room_id" firestore:"roomId"`
	SenderID   string    `json:"sender_id" firestore:"senderId"`
	SenderName string    `json:"sender_name" firestore:"senderName"`
	Content    string    `json:"content" firestore:"content"`
	SentAt     time.Time `json:"sent_at" firestore:"sentAt"`
	ReadBy     []string  `json:"read_by" firestore:"readBy"`
}

// IsReadBy reports whether userID is in the message's read set.
func (m *Message) IsReadBy(userID string) bool {
	for _, id := range m.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}

// ReadState derives the lifecycle state of the message against the room's
// non-sender participants.
func (m *Message) ReadState(participants []string) string {
	if len(m.ReadBy) == 0 {
		return MessageStateCreated
	}
	for _, id := range participants {
		if id == m.SenderID {
			continue
		}
		if !m.IsReadBy(id) {
			return MessageStatePartiallyRead
		}
	}
	return MessageStateReadByAll
}
