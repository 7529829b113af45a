package relay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientStateTransitions(t *testing.T) {
	c := newClient(newMockConn())
	assert.Equal(t, stateUnauthenticated, c.State())

	assert.True(t, c.transition(stateUnauthenticated, stateAuthenticated))
	assert.Equal(t, stateAuthenticated, c.State())

	// A transition from the wrong source state does nothing.
	assert.False(t, c.transition(stateUnauthenticated, stateClosed))
	assert.Equal(t, stateAuthenticated, c.State())

	assert.True(t, c.transition(stateAuthenticated, stateClosed))
	assert.Equal(t, stateClosed, c.State())
}

func TestClientCloseIsIdempotent(t *testing.T) {
	conn := newMockConn()
	c := newClient(conn)

	c.Close()
	c.Close()
	assert.True(t, conn.isClosed())
}

func TestClientTrySend(t *testing.T) {
	c := newClient(newMockConn())

	t.Run("EnqueuesWhileOpen", func(t *testing.T) {
		assert.True(t, c.TrySend([]byte("a")))
	})

	t.Run("DropsWhenBufferFull", func(t *testing.T) {
		for i := 0; i < sendBuffer; i++ {
			c.TrySend([]byte("fill"))
		}
		assert.False(t, c.TrySend([]byte("overflow")))
	})

	t.Run("RefusesAfterClose", func(t *testing.T) {
		c.Close()
		assert.False(t, c.TrySend([]byte("late")))
	})
}

func TestWritePumpDrainsQueue(t *testing.T) {
	conn := newMockConn()
	c := newClient(conn)
	go c.writePump()

	frame := encodeInbound(EventTyping, TypingBroadcast{ChatID: 1, UserID: 2})
	require.True(t, c.TrySend(frame))

	assert.Eventually(t, func() bool {
		return len(conn.framesOf(EventTyping)) == 1
	}, time.Second, 5*time.Millisecond)

	c.Close()
}

func TestWritePumpStopsOnWriteError(t *testing.T) {
	conn := newMockConn()
	c := newClient(conn)

	// Closing the transport makes the next write fail, which must end the pump.
	conn.Close()
	done := make(chan struct{})
	go func() {
		c.writePump()
		close(done)
	}()

	c.TrySend([]byte("x"))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("writePump did not stop after a write error")
	}
}
