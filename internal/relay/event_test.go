package relay

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeInbound(t *testing.T) {
	t.Run("Authenticate", func(t *testing.T) {
		ev, err := DecodeInbound([]byte(`{"type":"authenticate","payload":{"userId":7}}`))
		require.NoError(t, err)
		assert.Equal(t, EventAuthenticate, ev.Type)
		require.NotNil(t, ev.Authenticate)
		assert.Equal(t, uint(7), ev.Authenticate.UserID)
	})

	t.Run("Message", func(t *testing.T) {
		ev, err := DecodeInbound([]byte(`{"type":"message","payload":{"chatId":3,"content":"hello","replyToId":12}}`))
		require.NoError(t, err)
		assert.Equal(t, EventMessage, ev.Type)
		require.NotNil(t, ev.Message)
		assert.Equal(t, uint(3), ev.Message.ChatID)
		require.NotNil(t, ev.Message.Content)
		assert.Equal(t, "hello", *ev.Message.Content)
		require.NotNil(t, ev.Message.ReplyToID)
		assert.Equal(t, uint(12), *ev.Message.ReplyToID)
		assert.Nil(t, ev.Message.MediaURL)
	})

	t.Run("Typing", func(t *testing.T) {
		ev, err := DecodeInbound([]byte(`{"type":"typing","payload":{"chatId":5}}`))
		require.NoError(t, err)
		require.NotNil(t, ev.Typing)
		assert.Equal(t, uint(5), ev.Typing.ChatID)
	})

	t.Run("Read", func(t *testing.T) {
		ev, err := DecodeInbound([]byte(`{"type":"read","payload":{"messageId":42}}`))
		require.NoError(t, err)
		require.NotNil(t, ev.Read)
		assert.Equal(t, uint(42), ev.Read.MessageID)
	})

	t.Run("Reaction", func(t *testing.T) {
		ev, err := DecodeInbound([]byte(`{"type":"reaction","payload":{"messageId":42,"reaction":"👍"}}`))
		require.NoError(t, err)
		require.NotNil(t, ev.Reaction)
		assert.Equal(t, uint(42), ev.Reaction.MessageID)
		assert.Equal(t, "👍", ev.Reaction.Reaction)
	})

	t.Run("MissingPayloadIsZeroValue", func(t *testing.T) {
		ev, err := DecodeInbound([]byte(`{"type":"typing"}`))
		require.NoError(t, err)
		require.NotNil(t, ev.Typing)
		assert.Equal(t, uint(0), ev.Typing.ChatID)
	})
}

func TestDecodeInboundErrors(t *testing.T) {
	t.Run("MalformedJSON", func(t *testing.T) {
		_, err := DecodeInbound([]byte(`{"type":`))
		assert.ErrorIs(t, err, ErrMalformedFrame)
	})

	t.Run("MalformedPayload", func(t *testing.T) {
		_, err := DecodeInbound([]byte(`{"type":"message","payload":{"chatId":"three"}}`))
		assert.ErrorIs(t, err, ErrMalformedFrame)
	})

	t.Run("UnknownType", func(t *testing.T) {
		_, err := DecodeInbound([]byte(`{"type":"presence_poll","payload":{}}`))
		assert.ErrorIs(t, err, ErrUnknownEvent)
	})

	t.Run("OutboundTypeIsNotInbound", func(t *testing.T) {
		_, err := DecodeInbound([]byte(`{"type":"new_message","payload":{}}`))
		assert.ErrorIs(t, err, ErrUnknownEvent)
	})
}

func TestEncodeOutbound(t *testing.T) {
	frame, err := EncodeOutbound(EventTyping, TypingBroadcast{ChatID: 3, UserID: 9})
	require.NoError(t, err)

	var env struct {
		Type    EventType       `json:"type"`
		Payload TypingBroadcast `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(frame, &env))
	assert.Equal(t, EventTyping, env.Type)
	assert.Equal(t, uint(3), env.Payload.ChatID)
	assert.Equal(t, uint(9), env.Payload.UserID)
}

func TestHeartbeatFrame(t *testing.T) {
	var env Envelope
	require.NoError(t, json.Unmarshal(heartbeatFrame, &env))
	assert.Equal(t, EventHeartbeat, env.Type)
	assert.Empty(t, env.Payload)
}
