package websocket

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// MembershipVerifier gates room subscriptions. Implemented outside this
// package, typically over the participant ledger.
type MembershipVerifier interface {
	IsParticipant(ctx context.Context, roomID, userID string) (bool, error)
}

// Client represents a WebSocket connection client
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte

	mu    sync.Mutex
	rooms map[string]bool
}

func NewClient(userID string, conn *websocket.Conn) *Client {
	return &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		rooms:  make(map[string]bool),
	}
}

// Manager fans new-message events out to the live subscribers of a room.
// Delivery is at-most-once and only to clients connected at publish time:
// a full send buffer drops the frame rather than blocking the publisher.
type Manager struct {
	clients    map[string]*Client
	rooms      map[string]map[string]*Client
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex

	verifier      MembershipVerifier
	verifyTimeout time.Duration
}

// NewManager creates a new WebSocket connection manager. verifyTimeout bounds
// the membership check made on every room join; on timeout the join fails
// closed.
func NewManager(verifier MembershipVerifier, verifyTimeout time.Duration) *Manager {
	return &Manager{
		clients:       make(map[string]*Client),
		rooms:         make(map[string]map[string]*Client),
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		verifier:      verifier,
		verifyTimeout: verifyTimeout,
	}
}

// Start runs the manager's main loop in a goroutine
func (m *Manager) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				m.clients[client.UserID] = client
				m.mutex.Unlock()
				log.Printf("Client registered: %s", client.UserID)

			case client := <-m.Unregister:
				m.mutex.Lock()
				// A reconnect replaces the registry entry before the stale
				// connection's tear-down arrives here; only the client that
				// currently owns the entry may evict it.
				if m.clients[client.UserID] == client {
					delete(m.clients, client.UserID)
					for roomID, members := range m.rooms {
						if members[client.UserID] == client {
							delete(members, client.UserID)
							if len(members) == 0 {
								delete(m.rooms, roomID)
							}
						}
					}
				}
				// Each connection is unregistered exactly once, by its own
				// ReadPump tear-down.
				close(client.Send)
				m.mutex.Unlock()
				log.Printf("Client unregistered: %s", client.UserID)

			case <-ctx.Done():
				return
			}
		}
	}()
}

// JoinRoom subscribes the client to a room's channel after verifying
// membership. Non-participants never observe a room's traffic.
func (m *Manager) JoinRoom(client *Client, roomID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), m.verifyTimeout)
	defer cancel()

	ok, err := m.verifier.IsParticipant(ctx, roomID, client.UserID)
	if err != nil {
		log.Printf("Membership check failed for user %s on room %s: %v", client.UserID, roomID, err)
		return err
	}
	if !ok {
		return errNotAMember
	}

	m.mutex.Lock()
	if m.rooms[roomID] == nil {
		m.rooms[roomID] = make(map[string]*Client)
	}
	m.rooms[roomID][client.UserID] = client
	m.mutex.Unlock()

	client.mu.Lock()
	client.rooms[roomID] = true
	client.mu.Unlock()

	log.Printf("Client %s joined room %s", client.UserID, roomID)
	return nil
}

// LeaveRoom unsubscribes the client from a room's channel.
func (m *Manager) LeaveRoom(client *Client, roomID string) {
	m.mutex.Lock()
	if members, ok := m.rooms[roomID]; ok {
		delete(members, client.UserID)
		if len(members) == 0 {
			delete(m.rooms, roomID)
		}
	}
	m.mutex.Unlock()

	client.mu.Lock()
	delete(client.rooms, roomID)
	client.mu.Unlock()

	log.Printf("Client %s left room %s", client.UserID, roomID)
}

// PublishToRoom delivers a payload to every subscriber of the room except
// excludeUserID. Never blocks: a subscriber with a full buffer misses the
// frame and reconciles via the paginated message list on its next fetch.
func (m *Manager) PublishToRoom(roomID string, payload []byte, excludeUserID string) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for userID, client := range m.rooms[roomID] {
		if userID == excludeUserID {
			continue
		}
		select {
		case client.Send <- payload:
		default:
			log.Printf("Dropping frame for slow subscriber %s in room %s", userID, roomID)
		}
	}
}

// SendToUser sends a payload to a specific connected user, if any.
func (m *Manager) SendToUser(userID string, payload []byte) {
	m.mutex.RLock()
	client, ok := m.clients[userID]
	m.mutex.RUnlock()

	if !ok {
		return
	}
	select {
	case client.Send <- payload:
	default:
		log.Printf("Dropping frame for slow client %s", userID)
	}
}

// RoomSubscribers returns the user IDs currently subscribed to a room.
func (m *Manager) RoomSubscribers(roomID string) []string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var userIDs []string
	for userID := range m.rooms[roomID] {
		userIDs = append(userIDs, userID)
	}
	return userIDs
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, payload, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error: %v", err)
			}
			break
		}

		m.HandleClientMessage(c, payload)
	}
}

// WritePump sends messages to the WebSocket connection
func (c *Client) WritePump() {
	defer c.Conn.Close()

	for {
		payload, ok := <-c.Send
		if !ok {
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}

		if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("error: %v", err)
			return
		}
	}
}
