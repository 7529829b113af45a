package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReactionMapValue(t *testing.T) {
	t.Run("NilMapEncodesAsEmptyObject", func(t *testing.T) {
		var m ReactionMap
		v, err := m.Value()
		require.NoError(t, err)
		assert.JSONEq(t, `{}`, string(v.([]byte)))
	})

	t.Run("EncodesUserKeys", func(t *testing.T) {
		m := ReactionMap{1: "👍", 2: "❤️"}
		v, err := m.Value()
		require.NoError(t, err)
		assert.JSONEq(t, `{"1":"👍","2":"❤️"}`, string(v.([]byte)))
	})
}

func TestReactionMapScan(t *testing.T) {
	t.Run("Bytes", func(t *testing.T) {
		var m ReactionMap
		require.NoError(t, m.Scan([]byte(`{"3":"😀"}`)))
		assert.Equal(t, ReactionMap{3: "😀"}, m)
	})

	t.Run("String", func(t *testing.T) {
		var m ReactionMap
		require.NoError(t, m.Scan(`{"7":"👍"}`))
		assert.Equal(t, ReactionMap{7: "👍"}, m)
	})

	t.Run("NilColumn", func(t *testing.T) {
		var m ReactionMap
		require.NoError(t, m.Scan(nil))
		assert.NotNil(t, m)
		assert.Empty(t, m)
	})

	t.Run("UnsupportedType", func(t *testing.T) {
		var m ReactionMap
		assert.Error(t, m.Scan(42))
	})
}

func TestReactionMapLastWriteWins(t *testing.T) {
	m := ReactionMap{}
	m[1] = "👍"
	m[1] = "❤️"
	assert.Equal(t, "❤️", m[1])
	assert.Len(t, m, 1)
}

func TestMessageToResponse(t *testing.T) {
	content := "hi"
	msg := &Message{
		ChatID:    3,
		SenderID:  1,
		Content:   &content,
		Reactions: ReactionMap{2: "👍"},
	}
	msg.ID = 9

	resp := msg.ToResponse()
	assert.Equal(t, uint(9), resp.ID)
	assert.Equal(t, uint(3), resp.ChatID)
	assert.Equal(t, uint(1), resp.SenderID)
	require.NotNil(t, resp.Content)
	assert.Equal(t, "hi", *resp.Content)
	assert.Equal(t, ReactionMap{2: "👍"}, resp.Reactions)
}
