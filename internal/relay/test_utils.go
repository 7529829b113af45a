package relay

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"chat-relay/internal/models"

	"github.com/gorilla/websocket"
)

// errConnClosed is returned when attempting to use a closed mock connection
var errConnClosed = errors.New("connection closed")

// mockConn implements the Conn interface for testing. Inbound frames are
// scripted through queue; everything written by the relay is recorded.
type mockConn struct {
	mu      sync.Mutex
	inbound chan []byte
	writes  [][]byte
	closed  bool

	closeOnce sync.Once
	closeCh   chan struct{}
}

func newMockConn() *mockConn {
	return &mockConn{
		inbound: make(chan []byte, 32),
		closeCh: make(chan struct{}),
	}
}

// queue schedules a frame for the next ReadMessage call.
func (m *mockConn) queue(frame []byte) {
	m.inbound <- frame
}

func (m *mockConn) ReadMessage() (int, []byte, error) {
	select {
	case frame := <-m.inbound:
		return websocket.TextMessage, frame, nil
	case <-m.closeCh:
		return 0, nil, errConnClosed
	}
}

func (m *mockConn) WriteMessage(messageType int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errConnClosed
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	m.writes = append(m.writes, buf)
	return nil
}

func (m *mockConn) SetReadLimit(limit int64) {}

func (m *mockConn) SetWriteDeadline(t time.Time) error { return nil }

func (m *mockConn) Close() error {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		m.mu.Unlock()
		close(m.closeCh)
	})
	return nil
}

func (m *mockConn) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// frames returns the written envelopes, heartbeats excluded.
func (m *mockConn) frames() []Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Envelope
	for _, raw := range m.writes {
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			continue
		}
		if env.Type == EventHeartbeat {
			continue
		}
		out = append(out, env)
	}
	return out
}

// framesOf returns the written envelopes of one event type.
func (m *mockConn) framesOf(t EventType) []Envelope {
	var out []Envelope
	for _, env := range m.frames() {
		if env.Type == t {
			out = append(out, env)
		}
	}
	return out
}

type statusChange struct {
	userID   uint
	isOnline bool
}

// mockStore implements the Store interface against in-memory maps.
type mockStore struct {
	mu       sync.Mutex
	members  map[uint][]uint // chatID -> member user IDs
	messages map[uint]*models.Message
	nextID   uint

	delivered     []uint
	readMarks     []statusChange // userID = reader, reuse of the pair shape
	statusChanges []statusChange
}

func newMockStore() *mockStore {
	return &mockStore{
		members:  make(map[uint][]uint),
		messages: make(map[uint]*models.Message),
	}
}

func (s *mockStore) addChat(chatID uint, memberIDs ...uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[chatID] = memberIDs
}

func (s *mockStore) addMessage(chatID, senderID uint) *models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	m := &models.Message{ChatID: chatID, SenderID: senderID, Reactions: models.ReactionMap{}}
	m.ID = s.nextID
	s.messages[m.ID] = m
	return m
}

func (s *mockStore) IsUserChatMember(ctx context.Context, userID, chatID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.members[chatID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *mockStore) GetChatMembers(ctx context.Context, chatID uint) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var users []*models.User
	for _, id := range s.members[chatID] {
		u := &models.User{}
		u.ID = id
		users = append(users, u)
	}
	return users, nil
}

func (s *mockStore) CreateMessage(ctx context.Context, message *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	message.ID = s.nextID
	message.SentAt = time.Now().UTC()
	if message.Reactions == nil {
		message.Reactions = models.ReactionMap{}
	}
	s.messages[message.ID] = message
	return nil
}

func (s *mockStore) GetMessage(ctx context.Context, id uint) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages[id], nil
}

func (s *mockStore) MarkMessageAsRead(ctx context.Context, messageID, userID uint) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[messageID]
	if !ok {
		return nil, errors.New("message not found")
	}
	m.IsRead = true
	s.readMarks = append(s.readMarks, statusChange{userID: userID})
	return m, nil
}

func (s *mockStore) MarkMessageAsDelivered(ctx context.Context, messageID uint) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[messageID]
	if !ok {
		return nil, errors.New("message not found")
	}
	m.IsDelivered = true
	s.delivered = append(s.delivered, messageID)
	return m, nil
}

func (s *mockStore) AddMessageReaction(ctx context.Context, messageID, userID uint, reaction string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[messageID]
	if !ok {
		return nil, errors.New("message not found")
	}
	if m.Reactions == nil {
		m.Reactions = models.ReactionMap{}
	}
	m.Reactions[userID] = reaction
	return m, nil
}

func (s *mockStore) UpdateUserOnlineStatus(ctx context.Context, userID uint, isOnline bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusChanges = append(s.statusChanges, statusChange{userID: userID, isOnline: isOnline})
	u := &models.User{IsOnline: isOnline}
	u.ID = userID
	return u, nil
}

func (s *mockStore) onlineStatusOf(userID uint) (bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.statusChanges) - 1; i >= 0; i-- {
		if s.statusChanges[i].userID == userID {
			return s.statusChanges[i].isOnline, true
		}
	}
	return false, false
}

func (s *mockStore) deliveredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.delivered)
}

// mockPresenceCache records cache updates.
type mockPresenceCache struct {
	mu      sync.Mutex
	changes []statusChange
}

func (c *mockPresenceCache) SetUserOnline(ctx context.Context, userID uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.changes = append(c.changes, statusChange{userID: userID, isOnline: true})
	return nil
}

func (c *mockPresenceCache) SetUserOffline(ctx context.Context, userID uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.changes = append(c.changes, statusChange{userID: userID, isOnline: false})
	return nil
}

// mockPublisher records every persisted message handed to it.
type mockPublisher struct {
	mu       sync.Mutex
	messages []*models.Message
}

func (p *mockPublisher) PublishMessageCreated(ctx context.Context, message *models.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, message)
	return nil
}

func (p *mockPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages)
}

// encodeInbound builds a client frame for the scripted connection.
func encodeInbound(t EventType, payload interface{}) []byte {
	frame, _ := EncodeOutbound(t, payload)
	return frame
}
