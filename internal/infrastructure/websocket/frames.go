package websocket

import (
	"encoding/json"
	"errors"
	"log"
	"time"
)

// WebSocket frame types
const (
	FrameTypePing         = "ping"
	FrameTypePong         = "pong"
	FrameTypeJoinRoom     = "join_room"
	FrameTypeLeaveRoom    = "leave_room"
	FrameTypeNewMessage   = "new_message"
	FrameTypeReadReceipt  = "read_receipt"
	FrameTypeUnreadUpdate = "unread_update"
	FrameTypeError        = "error"
)

var errNotAMember = errors.New("not a participant of this room")

// Frame is the envelope for every frame in either direction.
type Frame struct {
	Type      string      `json:"type"`
	RoomID    string      `json:"room_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// MarshalFrame builds a wire payload for a server-originated frame; callers
// that cannot do anything useful on a marshal failure get an empty slice.
func MarshalFrame(frameType, roomID string, data interface{}) []byte {
	payload, err := json.Marshal(Frame{
		Type:      frameType,
		RoomID:    roomID,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		log.Printf("Failed to marshal %s frame for room %s: %v", frameType, roomID, err)
		return []byte("{}")
	}
	return payload
}

// HandleClientMessage processes an inbound frame from a connected client.
func (m *Manager) HandleClientMessage(client *Client, payload []byte) {
	var frame Frame
	if err := json.Unmarshal(payload, &frame); err != nil {
		log.Printf("Failed to unmarshal frame from client %s: %v", client.UserID, err)
		m.sendError(client, "Invalid frame format")
		return
	}

	switch frame.Type {
	case FrameTypePing:
		m.sendFrame(client, FrameTypePong, "", nil)

	case FrameTypeJoinRoom:
		if frame.RoomID == "" {
			m.sendError(client, "Missing room_id")
			return
		}
		if err := m.JoinRoom(client, frame.RoomID); err != nil {
			m.sendError(client, "Cannot join room: "+err.Error())
		}

	case FrameTypeLeaveRoom:
		if frame.RoomID == "" {
			m.sendError(client, "Missing room_id")
			return
		}
		m.LeaveRoom(client, frame.RoomID)

	default:
		log.Printf("Unknown frame type '%s' from client %s", frame.Type, client.UserID)
		m.sendError(client, "Unknown frame type: "+frame.Type)
	}
}

func (m *Manager) sendFrame(client *Client, frameType, roomID string, data interface{}) {
	select {
	case client.Send <- MarshalFrame(frameType, roomID, data):
	default:
		log.Printf("Dropping %s frame for slow client %s", frameType, client.UserID)
	}
}

func (m *Manager) sendError(client *Client, message string) {
	m.sendFrame(client, FrameTypeError, "", map[string]string{"message": message})
}
