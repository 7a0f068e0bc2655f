package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"marketchat/internal/domain/entity"
	"marketchat/internal/infrastructure/cache"
	"marketchat/internal/infrastructure/client"
	"marketchat/pkg/errors"
)

// In-memory fakes mirroring the persistence semantics of the Firestore
// adapters: the room key is the uniqueness arbiter, participant seeding
// ignores duplicates, readBy unions are idempotent.

type fakeRoomRepo struct {
	mu    sync.Mutex
	rooms map[string]*entity.Room // keyed by buyer:seller:product
	seq   int
}

func newFakeRoomRepo() *fakeRoomRepo {
	return &fakeRoomRepo{rooms: make(map[string]*entity.Room)}
}

func roomKey(buyerID, sellerID, productID string) string {
	return buyerID + ":" + sellerID + ":" + productID
}

func (r *fakeRoomRepo) Create(ctx context.Context, room *entity.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := roomKey(room.BuyerID, room.SellerID, room.ProductID)
	if _, exists := r.rooms[key]; exists {
		return errors.Conflict("Room already exists")
	}

	r.seq++
	room.ID = fmt.Sprintf("room-%d", r.seq)
	stored := *room
	r.rooms[key] = &stored
	return nil
}

func (r *fakeRoomRepo) GetByID(ctx context.Context, id string) (*entity.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, room := range r.rooms {
		if room.ID == id {
			copied := *room
			return &copied, nil
		}
	}
	return nil, errors.NotFound("Room", nil)
}

func (r *fakeRoomRepo) GetByKey(ctx context.Context, buyerID, sellerID, productID string) (*entity.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if room, ok := r.rooms[roomKey(buyerID, sellerID, productID)]; ok {
		copied := *room
		return &copied, nil
	}
	return nil, errors.NotFound("Room", nil)
}

type fakeParticipantRepo struct {
	mu           sync.Mutex
	participants map[string]*entity.Participant // keyed by roomID/userID
}

func newFakeParticipantRepo() *fakeParticipantRepo {
	return &fakeParticipantRepo{participants: make(map[string]*entity.Participant)}
}

func participantKey(roomID, userID string) string {
	return roomID + "/" + userID
}

func (r *fakeParticipantRepo) CreateIfAbsent(ctx context.Context, p *entity.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := participantKey(p.RoomID, p.UserID)
	if _, exists := r.participants[key]; exists {
		return nil
	}

	stored := *p
	stored.ID = key
	r.participants[key] = &stored
	return nil
}

func (r *fakeParticipantRepo) Get(ctx context.Context, roomID, userID string) (*entity.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.participants[participantKey(roomID, userID)]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, errors.NotFound("Participant", nil)
}

func (r *fakeParticipantRepo) ListByRoom(ctx context.Context, roomID string) ([]*entity.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*entity.Participant
	for _, p := range r.participants {
		if p.RoomID == roomID {
			copied := *p
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, nil
}

func (r *fakeParticipantRepo) ListByUser(ctx context.Context, userID string) ([]*entity.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*entity.Participant
	for _, p := range r.participants {
		if p.UserID == userID {
			copied := *p
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RoomID < result[j].RoomID })
	return result, nil
}

func (r *fakeParticipantRepo) IncrementUnread(ctx context.Context, roomID, userID string, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.participants[participantKey(roomID, userID)]
	if !ok {
		return errors.NotFound("Participant", nil)
	}
	p.UnreadCount += delta
	return nil
}

func (r *fakeParticipantRepo) MarkRead(ctx context.Context, roomID, userID string, lastReadAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.participants[participantKey(roomID, userID)]
	if !ok {
		return errors.NotFound("Participant", nil)
	}
	t := lastReadAt
	p.LastReadAt = &t
	p.UnreadCount = 0
	return nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []*entity.Message
	seq      int
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{}
}

func (r *fakeMessageRepo) Append(ctx context.Context, m *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	m.ID = fmt.Sprintf("msg-%04d", r.seq)
	if m.SentAt.IsZero() {
		m.SentAt = time.Now()
	}
	if m.ReadBy == nil {
		m.ReadBy = []string{}
	}

	stored := *m
	stored.ReadBy = append([]string{}, m.ReadBy...)
	r.messages = append(r.messages, &stored)
	return nil
}

func (r *fakeMessageRepo) roomMessages(roomID string) []*entity.Message {
	var result []*entity.Message
	for _, m := range r.messages {
		if m.RoomID == roomID {
			result = append(result, m)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].SentAt.Equal(result[j].SentAt) {
			return result[i].SentAt.After(result[j].SentAt)
		}
		return result[i].ID > result[j].ID
	})
	return result
}

func (r *fakeMessageRepo) ListByRoom(ctx context.Context, roomID string, limit, offset int) ([]*entity.Message, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.roomMessages(roomID)
	total := int64(len(all))

	if offset >= len(all) {
		return []*entity.Message{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}

	page := make([]*entity.Message, 0, end-offset)
	for _, m := range all[offset:end] {
		copied := *m
		copied.ReadBy = append([]string{}, m.ReadBy...)
		page = append(page, &copied)
	}
	return page, total, nil
}

func (r *fakeMessageRepo) LatestInRoom(ctx context.Context, roomID string) (*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.roomMessages(roomID)
	if len(all) == 0 {
		return nil, errors.NotFound("Message", nil)
	}
	copied := *all[0]
	return &copied, nil
}

func (r *fakeMessageRepo) CountUnread(ctx context.Context, roomID, userID string, after *time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, m := range r.messages {
		if m.RoomID != roomID || m.SenderID == userID {
			continue
		}
		if after != nil && !m.SentAt.After(*after) {
			continue
		}
		count++
	}
	return count, nil
}

func (r *fakeMessageRepo) MarkReadUpTo(ctx context.Context, roomID, userID string, upTo time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.messages {
		if m.RoomID != roomID || m.SenderID == userID {
			continue
		}
		if m.SentAt.After(upTo) {
			continue
		}
		if !m.IsReadBy(userID) {
			m.ReadBy = append(m.ReadBy, userID)
		}
	}
	return nil
}

type fakeProductLookup struct {
	mu       sync.Mutex
	products map[string]*client.ProductSummary
	fail     bool
}

func newFakeProductLookup() *fakeProductLookup {
	return &fakeProductLookup{products: make(map[string]*client.ProductSummary)}
}

func (f *fakeProductLookup) add(productID, sellerID, name string, price int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[productID] = &client.ProductSummary{
		ProductID:   productID,
		SellerID:    sellerID,
		Name:        name,
		Price:       price,
		TradeStatus: "ON_SALE",
	}
}

func (f *fakeProductLookup) GetProductSummary(ctx context.Context, productID string) (*client.ProductSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail {
		return nil, errors.Internal("product service unavailable", nil)
	}
	if p, ok := f.products[productID]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, errors.NotFound("Product", nil)
}

type fakeUserLookup struct {
	mu    sync.Mutex
	users map[string]*client.UserBasicInfo
	fail  bool
}

func newFakeUserLookup() *fakeUserLookup {
	return &fakeUserLookup{users: make(map[string]*client.UserBasicInfo)}
}

func (f *fakeUserLookup) add(userID, nickname string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[userID] = &client.UserBasicInfo{UserID: userID, Nickname: nickname}
}

func (f *fakeUserLookup) GetUserBasicInfo(ctx context.Context, userID string) (*client.UserBasicInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fail {
		return nil, errors.Internal("user service unavailable", nil)
	}
	if u, ok := f.users[userID]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, errors.NotFound("User", nil)
}

// countingCounter wraps the in-memory counter and records how many times
// each operation ran, so tests can assert whether a lookup was served from
// the counter or recomputed.
type countingCounter struct {
	*cache.MemoryCounter

	mu         sync.Mutex
	gets       int
	increments int
	sets       int
	resets     int
}

func newCountingCounter() *countingCounter {
	return &countingCounter{MemoryCounter: cache.NewMemoryCounter()}
}

func (c *countingCounter) Get(ctx context.Context, roomID, userID string) (cache.Result, error) {
	c.mu.Lock()
	c.gets++
	c.mu.Unlock()
	return c.MemoryCounter.Get(ctx, roomID, userID)
}

func (c *countingCounter) Increment(ctx context.Context, roomID, userID string) error {
	c.mu.Lock()
	c.increments++
	c.mu.Unlock()
	return c.MemoryCounter.Increment(ctx, roomID, userID)
}

func (c *countingCounter) Set(ctx context.Context, roomID, userID string, count int64) error {
	c.mu.Lock()
	c.sets++
	c.mu.Unlock()
	return c.MemoryCounter.Set(ctx, roomID, userID, count)
}

func (c *countingCounter) Reset(ctx context.Context, roomID, userID string) error {
	c.mu.Lock()
	c.resets++
	c.mu.Unlock()
	return c.MemoryCounter.Reset(ctx, roomID, userID)
}

type publishedFrame struct {
	roomID        string
	payload       []byte
	excludeUserID string
}

type directFrame struct {
	userID  string
	payload []byte
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	frames []publishedFrame
	direct []directFrame
}

func (b *fakeBroadcaster) PublishToRoom(roomID string, payload []byte, excludeUserID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames = append(b.frames, publishedFrame{roomID: roomID, payload: payload, excludeUserID: excludeUserID})
}

func (b *fakeBroadcaster) SendToUser(userID string, payload []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.direct = append(b.direct, directFrame{userID: userID, payload: payload})
}

func (b *fakeBroadcaster) published() []publishedFrame {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]publishedFrame{}, b.frames...)
}

func (b *fakeBroadcaster) sentDirect() []directFrame {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]directFrame{}, b.direct...)
}

// env bundles a fully wired in-memory stack for use case tests.
type env struct {
	roomRepo        *fakeRoomRepo
	participantRepo *fakeParticipantRepo
	messageRepo     *fakeMessageRepo
	counter         *countingCounter
	products        *fakeProductLookup
	users           *fakeUserLookup
	broadcaster     *fakeBroadcaster

	rooms    *RoomUseCase
	messages *MessageUseCase
	unread   *UnreadUseCase
}

func newEnv() *env {
	e := &env{
		roomRepo:        newFakeRoomRepo(),
		participantRepo: newFakeParticipantRepo(),
		messageRepo:     newFakeMessageRepo(),
		counter:         newCountingCounter(),
		products:        newFakeProductLookup(),
		users:           newFakeUserLookup(),
		broadcaster:     &fakeBroadcaster{},
	}

	e.unread = NewUnreadUseCase(e.participantRepo, e.messageRepo, e.counter)
	e.rooms = NewRoomUseCase(e.roomRepo, e.participantRepo, e.messageRepo, e.products, e.users, e.unread)
	e.messages = NewMessageUseCase(e.roomRepo, e.participantRepo, e.messageRepo, e.counter, e.users, e.broadcaster, e.rooms)

	return e
}
