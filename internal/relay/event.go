package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// EventType identifies a frame on the wire using a custom enum type for better type safety
type EventType string

// Inbound event types
const (
	EventAuthenticate EventType = "authenticate"
	EventMessage      EventType = "message"
	EventTyping       EventType = "typing"
	EventRead         EventType = "read"
	EventReaction     EventType = "reaction"
)

// Outbound event types
const (
	EventNewMessage      EventType = "new_message"
	EventMessageRead     EventType = "message_read"
	EventMessageReaction EventType = "message_reaction"
	EventUserStatus      EventType = "user_status"
	EventHeartbeat       EventType = "heartbeat"
	EventError           EventType = "error"
)

// String returns the string representation of the EventType
func (t EventType) String() string {
	return string(t)
}

var (
	ErrMalformedFrame = errors.New("malformed frame")
	ErrUnknownEvent   = errors.New("unknown event type")
)

// Envelope is the wire shape of every frame: {"type": ..., "payload": ...}.
type Envelope struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound payloads
type AuthenticatePayload struct {
	UserID uint `json:"userId"`
}

type MessagePayload struct {
	ChatID    uint    `json:"chatId"`
	Content   *string `json:"content,omitempty"`
	MediaURL  *string `json:"mediaUrl,omitempty"`
	ReplyToID *uint   `json:"replyToId,omitempty"`
}

type TypingPayload struct {
	ChatID uint `json:"chatId"`
}

type ReadPayload struct {
	MessageID uint `json:"messageId"`
}

type ReactionPayload struct {
	MessageID uint   `json:"messageId"`
	Reaction  string `json:"reaction"`
}

// Outbound payloads
type TypingBroadcast struct {
	ChatID uint `json:"chatId"`
	UserID uint `json:"userId"`
}

type MessageReadPayload struct {
	MessageID uint `json:"messageId"`
	ReadBy    uint `json:"readBy"`
}

type MessageReactionPayload struct {
	MessageID uint   `json:"messageId"`
	UserID    uint   `json:"userId"`
	Reaction  string `json:"reaction"`
}

type UserStatusPayload struct {
	UserID    uint      `json:"userId"`
	IsOnline  bool      `json:"isOnline"`
	Timestamp time.Time `json:"timestamp"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// InboundEvent is the decoded form of a client frame. Exactly one payload
// field is non-nil, matching Type.
type InboundEvent struct {
	Type         EventType
	Authenticate *AuthenticatePayload
	Message      *MessagePayload
	Typing       *TypingPayload
	Read         *ReadPayload
	Reaction     *ReactionPayload
}

// DecodeInbound parses a raw text frame into a typed event. A failure here is
// a protocol error: the caller logs it and drops the frame, the connection
// stays open.
func DecodeInbound(raw []byte) (*InboundEvent, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	ev := &InboundEvent{Type: env.Type}
	var payload interface{}

	switch env.Type {
	case EventAuthenticate:
		ev.Authenticate = &AuthenticatePayload{}
		payload = ev.Authenticate
	case EventMessage:
		ev.Message = &MessagePayload{}
		payload = ev.Message
	case EventTyping:
		ev.Typing = &TypingPayload{}
		payload = ev.Typing
	case EventRead:
		ev.Read = &ReadPayload{}
		payload = ev.Read
	case EventReaction:
		ev.Reaction = &ReactionPayload{}
		payload = ev.Reaction
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
	}

	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, payload); err != nil {
			return nil, fmt.Errorf("%w: %s payload: %v", ErrMalformedFrame, env.Type, err)
		}
	}

	return ev, nil
}

// EncodeOutbound serializes an outbound event into its wire envelope.
func EncodeOutbound(t EventType, payload interface{}) ([]byte, error) {
	env := struct {
		Type    EventType   `json:"type"`
		Payload interface{} `json:"payload,omitempty"`
	}{Type: t, Payload: payload}
	return json.Marshal(env)
}
