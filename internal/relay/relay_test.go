package relay

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRelay(store *mockStore) (*Relay, *mockPresenceCache, *mockPublisher) {
	cache := &mockPresenceCache{}
	publisher := &mockPublisher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, cache, publisher, logger), cache, publisher
}

// connect opens a scripted connection and authenticates it as userID.
func connect(t *testing.T, r *Relay, userID uint) *mockConn {
	t.Helper()
	conn := newMockConn()
	go r.ServeConn(conn)
	conn.queue(encodeInbound(EventAuthenticate, AuthenticatePayload{UserID: userID}))
	require.Eventually(t, func() bool {
		_, ok := r.Registry().Lookup(userID)
		return ok
	}, time.Second, 5*time.Millisecond)
	return conn
}

func TestMessageFanOut(t *testing.T) {
	store := newMockStore()
	store.addChat(1, 1, 2, 3)
	r, _, publisher := newTestRelay(store)

	sender := connect(t, r, 1)
	recipient := connect(t, r, 2)
	// user 3 is a member but not connected

	content := "hello"
	sender.queue(encodeInbound(EventMessage, MessagePayload{ChatID: 1, Content: &content}))

	require.Eventually(t, func() bool {
		return len(recipient.framesOf(EventNewMessage)) == 1
	}, time.Second, 5*time.Millisecond)

	var payload struct {
		ID      uint    `json:"id"`
		ChatID  uint    `json:"chatId"`
		Sender  uint    `json:"senderId"`
		Content *string `json:"content"`
	}
	env := recipient.framesOf(EventNewMessage)[0]
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, uint(1), payload.ChatID)
	assert.Equal(t, uint(1), payload.Sender)
	require.NotNil(t, payload.Content)
	assert.Equal(t, "hello", *payload.Content)

	// The sender does not receive its own message back.
	assert.Empty(t, sender.framesOf(EventNewMessage))

	// Persisted before fan-out, delivered once for the single online recipient.
	msg, err := store.GetMessage(context.Background(), payload.ID)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.True(t, msg.IsDelivered)
	assert.Equal(t, 1, store.deliveredCount())

	// The audit publisher saw exactly the persisted message.
	assert.Equal(t, 1, publisher.count())
}

func TestMessageFromNonMember(t *testing.T) {
	store := newMockStore()
	store.addChat(1, 1, 2)
	r, _, _ := newTestRelay(store)

	outsider := connect(t, r, 9)
	content := "let me in"
	outsider.queue(encodeInbound(EventMessage, MessagePayload{ChatID: 1, Content: &content}))

	require.Eventually(t, func() bool {
		return len(outsider.framesOf(EventError)) == 1
	}, time.Second, 5*time.Millisecond)

	var payload ErrorPayload
	require.NoError(t, json.Unmarshal(outsider.framesOf(EventError)[0].Payload, &payload))
	assert.Equal(t, "forbidden", payload.Code)

	// Nothing was persisted.
	msg, err := store.GetMessage(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, msg)
}

func TestEventsBeforeAuthenticateAreIgnored(t *testing.T) {
	store := newMockStore()
	store.addChat(1, 1, 2)
	r, _, _ := newTestRelay(store)

	peer := connect(t, r, 2)

	conn := newMockConn()
	go r.ServeConn(conn)
	content := "sneaky"
	conn.queue(encodeInbound(EventMessage, MessagePayload{ChatID: 1, Content: &content}))
	conn.queue(encodeInbound(EventTyping, TypingPayload{ChatID: 1}))

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, peer.frames())
	msg, err := store.GetMessage(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, msg)

	conn.Close()
}

func TestAuthenticateRejectsZeroUserID(t *testing.T) {
	store := newMockStore()
	r, _, _ := newTestRelay(store)

	conn := newMockConn()
	go r.ServeConn(conn)
	conn.queue(encodeInbound(EventAuthenticate, AuthenticatePayload{UserID: 0}))

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, r.Registry().Snapshot())

	conn.Close()
}

func TestMalformedFrameKeepsConnectionOpen(t *testing.T) {
	store := newMockStore()
	store.addChat(1, 1, 2)
	r, _, _ := newTestRelay(store)

	sender := connect(t, r, 1)
	recipient := connect(t, r, 2)

	sender.queue([]byte(`{"type":`))
	sender.queue([]byte(`{"type":"warp","payload":{}}`))
	sender.queue(encodeInbound(EventTyping, TypingPayload{ChatID: 1}))

	// The bad frames are dropped but the typing frame after them still lands.
	require.Eventually(t, func() bool {
		return len(recipient.framesOf(EventTyping)) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestTypingBroadcastExcludesSender(t *testing.T) {
	store := newMockStore()
	store.addChat(1, 1, 2, 3)
	r, _, _ := newTestRelay(store)

	sender := connect(t, r, 1)
	peer := connect(t, r, 2)

	sender.queue(encodeInbound(EventTyping, TypingPayload{ChatID: 1}))

	require.Eventually(t, func() bool {
		return len(peer.framesOf(EventTyping)) == 1
	}, time.Second, 5*time.Millisecond)

	var payload TypingBroadcast
	require.NoError(t, json.Unmarshal(peer.framesOf(EventTyping)[0].Payload, &payload))
	assert.Equal(t, uint(1), payload.ChatID)
	assert.Equal(t, uint(1), payload.UserID)

	assert.Empty(t, sender.framesOf(EventTyping))
}

func TestTypingRequiresMembership(t *testing.T) {
	store := newMockStore()
	store.addChat(1, 1, 2)
	r, _, _ := newTestRelay(store)

	outsider := connect(t, r, 9)
	outsider.queue(encodeInbound(EventTyping, TypingPayload{ChatID: 1}))

	require.Eventually(t, func() bool {
		return len(outsider.framesOf(EventError)) == 1
	}, time.Second, 5*time.Millisecond)

	var payload ErrorPayload
	require.NoError(t, json.Unmarshal(outsider.framesOf(EventError)[0].Payload, &payload))
	assert.Equal(t, "forbidden", payload.Code)
}

func TestReadReceipt(t *testing.T) {
	store := newMockStore()
	store.addChat(1, 1, 2)
	msg := store.addMessage(1, 1)
	r, _, _ := newTestRelay(store)

	sender := connect(t, r, 1)
	reader := connect(t, r, 2)

	reader.queue(encodeInbound(EventRead, ReadPayload{MessageID: msg.ID}))

	require.Eventually(t, func() bool {
		return len(sender.framesOf(EventMessageRead)) == 1
	}, time.Second, 5*time.Millisecond)

	var payload MessageReadPayload
	require.NoError(t, json.Unmarshal(sender.framesOf(EventMessageRead)[0].Payload, &payload))
	assert.Equal(t, msg.ID, payload.MessageID)
	assert.Equal(t, uint(2), payload.ReadBy)

	stored, err := store.GetMessage(context.Background(), msg.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsRead)

	// The reader gets no receipt of their own read.
	assert.Empty(t, reader.framesOf(EventMessageRead))
}

func TestReadOwnMessageIsNoOp(t *testing.T) {
	store := newMockStore()
	store.addChat(1, 1, 2)
	msg := store.addMessage(1, 1)
	r, _, _ := newTestRelay(store)

	sender := connect(t, r, 1)
	sender.queue(encodeInbound(EventRead, ReadPayload{MessageID: msg.ID}))

	time.Sleep(50 * time.Millisecond)
	stored, err := store.GetMessage(context.Background(), msg.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsRead)
	assert.Empty(t, sender.frames())
}

func TestReadUnknownMessage(t *testing.T) {
	store := newMockStore()
	r, _, _ := newTestRelay(store)

	reader := connect(t, r, 2)
	reader.queue(encodeInbound(EventRead, ReadPayload{MessageID: 404}))

	require.Eventually(t, func() bool {
		return len(reader.framesOf(EventError)) == 1
	}, time.Second, 5*time.Millisecond)

	var payload ErrorPayload
	require.NoError(t, json.Unmarshal(reader.framesOf(EventError)[0].Payload, &payload))
	assert.Equal(t, "not_found", payload.Code)
}

func TestReactionFanOutIncludesReactor(t *testing.T) {
	store := newMockStore()
	store.addChat(1, 1, 2)
	msg := store.addMessage(1, 1)
	r, _, _ := newTestRelay(store)

	sender := connect(t, r, 1)
	reactor := connect(t, r, 2)

	reactor.queue(encodeInbound(EventReaction, ReactionPayload{MessageID: msg.ID, Reaction: "❤️"}))

	require.Eventually(t, func() bool {
		return len(sender.framesOf(EventMessageReaction)) == 1 &&
			len(reactor.framesOf(EventMessageReaction)) == 1
	}, time.Second, 5*time.Millisecond)

	var payload MessageReactionPayload
	require.NoError(t, json.Unmarshal(reactor.framesOf(EventMessageReaction)[0].Payload, &payload))
	assert.Equal(t, msg.ID, payload.MessageID)
	assert.Equal(t, uint(2), payload.UserID)
	assert.Equal(t, "❤️", payload.Reaction)

	stored, err := store.GetMessage(context.Background(), msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "❤️", stored.Reactions[2])
}

func TestReactionUnknownMessage(t *testing.T) {
	store := newMockStore()
	r, _, _ := newTestRelay(store)

	reactor := connect(t, r, 2)
	reactor.queue(encodeInbound(EventReaction, ReactionPayload{MessageID: 404, Reaction: "👍"}))

	require.Eventually(t, func() bool {
		return len(reactor.framesOf(EventError)) == 1
	}, time.Second, 5*time.Millisecond)

	var payload ErrorPayload
	require.NoError(t, json.Unmarshal(reactor.framesOf(EventError)[0].Payload, &payload))
	assert.Equal(t, "not_found", payload.Code)
}

func TestPresenceAnnouncements(t *testing.T) {
	store := newMockStore()
	r, cache, _ := newTestRelay(store)

	watcher := connect(t, r, 1)
	peer := connect(t, r, 2)

	// The watcher hears user 2 come online; user 2 does not hear about itself.
	require.Eventually(t, func() bool {
		return len(watcher.framesOf(EventUserStatus)) == 1
	}, time.Second, 5*time.Millisecond)

	var payload UserStatusPayload
	require.NoError(t, json.Unmarshal(watcher.framesOf(EventUserStatus)[0].Payload, &payload))
	assert.Equal(t, uint(2), payload.UserID)
	assert.True(t, payload.IsOnline)
	assert.False(t, payload.Timestamp.IsZero())
	assert.Empty(t, peer.framesOf(EventUserStatus))

	online, ok := store.onlineStatusOf(2)
	require.True(t, ok)
	assert.True(t, online)

	// Disconnecting announces the offline transition.
	peer.Close()
	require.Eventually(t, func() bool {
		return len(watcher.framesOf(EventUserStatus)) == 2
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, json.Unmarshal(watcher.framesOf(EventUserStatus)[1].Payload, &payload))
	assert.Equal(t, uint(2), payload.UserID)
	assert.False(t, payload.IsOnline)

	online, ok = store.onlineStatusOf(2)
	require.True(t, ok)
	assert.False(t, online)

	cache.mu.Lock()
	changes := len(cache.changes)
	cache.mu.Unlock()
	assert.Equal(t, 3, changes) // two logins, one logout
}

func TestReconnectDoesNotAnnounceOffline(t *testing.T) {
	store := newMockStore()
	r, _, _ := newTestRelay(store)

	watcher := connect(t, r, 1)
	first := connect(t, r, 2)

	// A second login for the same identity replaces the first socket.
	second := newMockConn()
	go r.ServeConn(second)
	second.queue(encodeInbound(EventAuthenticate, AuthenticatePayload{UserID: 2}))

	require.Eventually(t, func() bool {
		return first.isClosed()
	}, time.Second, 5*time.Millisecond)

	// Give the replaced socket's close path time to run, then verify the
	// identity is still online and reachable through the new connection.
	time.Sleep(50 * time.Millisecond)

	online, ok := store.onlineStatusOf(2)
	require.True(t, ok)
	assert.True(t, online)

	_, registered := r.Registry().Lookup(2)
	assert.True(t, registered)

	var sawOffline bool
	for _, env := range watcher.framesOf(EventUserStatus) {
		var payload UserStatusPayload
		require.NoError(t, json.Unmarshal(env.Payload, &payload))
		if payload.UserID == 2 && !payload.IsOnline {
			sawOffline = true
		}
	}
	assert.False(t, sawOffline)
}
