package relay

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a frame to the peer
	writeWait = 10 * time.Second

	// Interval between keep-alive heartbeat events
	heartbeatPeriod = 30 * time.Second

	// Maximum frame size allowed from peer
	maxMessageSize = 8192

	// Outbound queue per connection; a full queue drops the frame
	sendBuffer = 256
)

// Connection state machine: Unauthenticated is the initial state, Closed is
// terminal and triggers deregistration exactly once.
const (
	stateUnauthenticated int32 = iota
	stateAuthenticated
	stateClosed
)

// heartbeat frames are identical for every connection
var heartbeatFrame, _ = EncodeOutbound(EventHeartbeat, nil)

// Conn is the subset of *websocket.Conn the relay touches. Tests substitute
// an in-memory implementation.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Client is one live connection. The transport handle is owned here
// exclusively; the identity is bound once, on a successful authenticate.
type Client struct {
	id     string
	conn   Conn
	send   chan []byte
	done   chan struct{}
	userID uint
	state  int32

	closeOnce sync.Once
}

func newClient(conn Conn) *Client {
	return &Client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

func (c *Client) State() int32 {
	return atomic.LoadInt32(&c.state)
}

func (c *Client) setState(s int32) {
	atomic.StoreInt32(&c.state, s)
}

// transition moves the state machine forward only if it is still in from.
func (c *Client) transition(from, to int32) bool {
	return atomic.CompareAndSwapInt32(&c.state, from, to)
}

// Close tears down the transport. Safe to call from any goroutine, any number
// of times; the registry uses it to evict a replaced connection.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// TrySend enqueues a frame without blocking. A slow or full peer loses the
// frame rather than stalling the sender's goroutine.
func (c *Client) TrySend(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// writePump owns all writes on the connection. It also acts as the heartbeat
// supervisor: every heartbeatPeriod it sends a heartbeat event, and the first
// failed write ends the pump. Deregistration belongs to the read side's close
// path, not here.
func (c *Client) writePump() {
	ticker := time.NewTicker(heartbeatPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, heartbeatFrame); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}
