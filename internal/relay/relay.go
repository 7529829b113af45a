package relay

import (
	"context"
	"log/slog"

	"chat-relay/internal/models"
)

// Store is the storage collaborator. It owns durability; the relay is only a
// low-latency notification path layered on top, which is why every effect is
// persisted before it is fanned out. GetMessage reports an absent record as
// (nil, nil).
type Store interface {
	IsUserChatMember(ctx context.Context, userID, chatID uint) (bool, error)
	GetChatMembers(ctx context.Context, chatID uint) ([]*models.User, error)
	CreateMessage(ctx context.Context, message *models.Message) error
	GetMessage(ctx context.Context, id uint) (*models.Message, error)
	MarkMessageAsRead(ctx context.Context, messageID, userID uint) (*models.Message, error)
	MarkMessageAsDelivered(ctx context.Context, messageID uint) (*models.Message, error)
	AddMessageReaction(ctx context.Context, messageID, userID uint, reaction string) (*models.Message, error)
	UpdateUserOnlineStatus(ctx context.Context, userID uint, isOnline bool) (*models.User, error)
}

// Publisher feeds persisted messages to a downstream audit/notification topic.
// Best effort; a publish failure never affects delivery.
type Publisher interface {
	PublishMessageCreated(ctx context.Context, message *models.Message) error
}

// Relay fans chat events out to connected clients. One goroutine pair per
// connection; the registry is the single serialization point they share.
type Relay struct {
	registry  *Registry
	store     Store
	presence  *PresenceTracker
	publisher Publisher
	logger    *slog.Logger
}

func New(store Store, cache PresenceCache, publisher Publisher, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	registry := NewRegistry()
	return &Relay{
		registry:  registry,
		store:     store,
		presence:  NewPresenceTracker(registry, store, cache, logger),
		publisher: publisher,
		logger:    logger,
	}
}

func (r *Relay) Registry() *Registry {
	return r.registry
}

// ServeConn runs a connection to completion. It blocks until the transport
// closes, so callers hand it the upgraded connection and return.
func (r *Relay) ServeConn(conn Conn) {
	c := newClient(conn)
	r.logger.Debug("connection accepted", "connID", c.id)

	go c.writePump()
	r.readLoop(context.Background(), c)
}

// readLoop processes inbound frames in arrival order. It terminates on the
// first transport error, which is also the only place deregistration starts.
func (r *Relay) readLoop(ctx context.Context, c *Client) {
	defer func() {
		c.Close()
		r.handleDisconnect(ctx, c)
	}()

	c.conn.SetReadLimit(maxMessageSize)

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			r.logger.Debug("connection closed", "connID", c.id, "userID", c.userID, "error", err)
			return
		}
		r.handleFrame(ctx, c, raw)
	}
}

// handleFrame decodes and dispatches one inbound event. Protocol errors drop
// the frame and keep the connection open; everything before authentication
// except authenticate itself is silently ignored.
func (r *Relay) handleFrame(ctx context.Context, c *Client, raw []byte) {
	ev, err := DecodeInbound(raw)
	if err != nil {
		r.logger.Warn("dropping bad frame", "connID", c.id, "error", err)
		return
	}

	if c.State() != stateAuthenticated && ev.Type != EventAuthenticate {
		return
	}

	switch ev.Type {
	case EventAuthenticate:
		r.handleAuthenticate(ctx, c, ev.Authenticate)
	case EventMessage:
		r.handleMessage(ctx, c, ev.Message)
	case EventTyping:
		r.handleTyping(ctx, c, ev.Typing)
	case EventRead:
		r.handleRead(ctx, c, ev.Read)
	case EventReaction:
		r.handleReaction(ctx, c, ev.Reaction)
	}
}

func (r *Relay) handleAuthenticate(ctx context.Context, c *Client, p *AuthenticatePayload) {
	if c.State() != stateUnauthenticated {
		return
	}
	if p == nil || p.UserID == 0 {
		r.logger.Warn("authenticate without a user id", "connID", c.id)
		return
	}

	c.userID = p.UserID
	r.registry.Register(p.UserID, c)
	c.setState(stateAuthenticated)
	r.logger.Info("client authenticated", "connID", c.id, "userID", p.UserID)

	r.presence.Announce(ctx, p.UserID, true)
}

func (r *Relay) handleMessage(ctx context.Context, c *Client, p *MessagePayload) {
	member, err := r.store.IsUserChatMember(ctx, c.userID, p.ChatID)
	if err != nil {
		r.logger.Error("membership check failed", "userID", c.userID, "chatID", p.ChatID, "error", err)
		return
	}
	if !member {
		r.sendError(c, "forbidden", "not a member of this chat")
		return
	}

	message := &models.Message{
		ChatID:    p.ChatID,
		SenderID:  c.userID,
		Content:   p.Content,
		MediaURL:  p.MediaURL,
		ReplyToID: p.ReplyToID,
	}
	if err := r.store.CreateMessage(ctx, message); err != nil {
		r.logger.Error("failed to persist message", "userID", c.userID, "chatID", p.ChatID, "error", err)
		return
	}

	if r.publisher != nil {
		if err := r.publisher.PublishMessageCreated(ctx, message); err != nil {
			r.logger.Warn("message audit publish failed", "messageID", message.ID, "error", err)
		}
	}

	members, err := r.store.GetChatMembers(ctx, p.ChatID)
	if err != nil {
		r.logger.Error("failed to load chat members", "chatID", p.ChatID, "error", err)
		return
	}

	frame, err := EncodeOutbound(EventNewMessage, message.ToResponse())
	if err != nil {
		r.logger.Error("failed to encode message event", "messageID", message.ID, "error", err)
		return
	}

	for _, m := range members {
		if m.ID == c.userID {
			continue
		}
		peer, ok := r.registry.Lookup(m.ID)
		if !ok {
			continue
		}
		if !peer.TrySend(frame) {
			r.logger.Debug("dropping message push", "recipient", m.ID, "messageID", message.ID)
			continue
		}
		if _, err := r.store.MarkMessageAsDelivered(ctx, message.ID); err != nil {
			r.logger.Error("failed to mark message delivered", "messageID", message.ID, "error", err)
		}
	}
}

func (r *Relay) handleTyping(ctx context.Context, c *Client, p *TypingPayload) {
	// Typing requires membership, same as message.
	member, err := r.store.IsUserChatMember(ctx, c.userID, p.ChatID)
	if err != nil {
		r.logger.Error("membership check failed", "userID", c.userID, "chatID", p.ChatID, "error", err)
		return
	}
	if !member {
		r.sendError(c, "forbidden", "not a member of this chat")
		return
	}

	members, err := r.store.GetChatMembers(ctx, p.ChatID)
	if err != nil {
		r.logger.Error("failed to load chat members", "chatID", p.ChatID, "error", err)
		return
	}

	frame, err := EncodeOutbound(EventTyping, TypingBroadcast{ChatID: p.ChatID, UserID: c.userID})
	if err != nil {
		r.logger.Error("failed to encode typing event", "chatID", p.ChatID, "error", err)
		return
	}

	for _, m := range members {
		if m.ID == c.userID {
			continue
		}
		if peer, ok := r.registry.Lookup(m.ID); ok {
			peer.TrySend(frame)
		}
	}
}

func (r *Relay) handleRead(ctx context.Context, c *Client, p *ReadPayload) {
	message, err := r.store.GetMessage(ctx, p.MessageID)
	if err != nil {
		r.logger.Error("failed to load message", "messageID", p.MessageID, "error", err)
		return
	}
	if message == nil {
		r.sendError(c, "not_found", "message does not exist")
		return
	}

	// A sender cannot read their own message.
	if message.SenderID == c.userID {
		return
	}

	if _, err := r.store.MarkMessageAsRead(ctx, p.MessageID, c.userID); err != nil {
		r.logger.Error("failed to mark message read", "messageID", p.MessageID, "error", err)
		return
	}

	sender, ok := r.registry.Lookup(message.SenderID)
	if !ok {
		return
	}
	frame, err := EncodeOutbound(EventMessageRead, MessageReadPayload{MessageID: p.MessageID, ReadBy: c.userID})
	if err != nil {
		r.logger.Error("failed to encode read event", "messageID", p.MessageID, "error", err)
		return
	}
	sender.TrySend(frame)
}

func (r *Relay) handleReaction(ctx context.Context, c *Client, p *ReactionPayload) {
	message, err := r.store.GetMessage(ctx, p.MessageID)
	if err != nil {
		r.logger.Error("failed to load message", "messageID", p.MessageID, "error", err)
		return
	}
	if message == nil {
		r.sendError(c, "not_found", "message does not exist")
		return
	}

	if _, err := r.store.AddMessageReaction(ctx, p.MessageID, c.userID, p.Reaction); err != nil {
		r.logger.Error("failed to store reaction", "messageID", p.MessageID, "error", err)
		return
	}

	members, err := r.store.GetChatMembers(ctx, message.ChatID)
	if err != nil {
		r.logger.Error("failed to load chat members", "chatID", message.ChatID, "error", err)
		return
	}

	frame, err := EncodeOutbound(EventMessageReaction, MessageReactionPayload{
		MessageID: p.MessageID,
		UserID:    c.userID,
		Reaction:  p.Reaction,
	})
	if err != nil {
		r.logger.Error("failed to encode reaction event", "messageID", p.MessageID, "error", err)
		return
	}

	// Reactions go to every registered member, the reactor included.
	for _, m := range members {
		if peer, ok := r.registry.Lookup(m.ID); ok {
			peer.TrySend(frame)
		}
	}
}

// handleDisconnect runs once per connection, after the read loop ends. Only a
// connection that both authenticated and still owns its registry entry
// announces the user offline; a socket replaced by a newer login does not.
func (r *Relay) handleDisconnect(ctx context.Context, c *Client) {
	wasAuthenticated := c.transition(stateAuthenticated, stateClosed)
	c.setState(stateClosed)

	if !wasAuthenticated {
		return
	}

	if removed := r.registry.Unregister(c.userID, c); removed {
		r.logger.Info("client disconnected", "connID", c.id, "userID", c.userID)
		r.presence.Announce(ctx, c.userID, false)
	}
}

func (r *Relay) sendError(c *Client, code, message string) {
	frame, err := EncodeOutbound(EventError, ErrorPayload{Code: code, Message: message})
	if err != nil {
		return
	}
	c.TrySend(frame)
}
