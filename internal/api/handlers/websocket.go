package handlers

import (
	"log/slog"
	"net/http"

	"chat-relay/internal/relay"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin is enforced by the CORS middleware; the socket itself
		// stays unauthenticated until the first authenticate event.
		return true
	},
}

type WebSocketHandler struct {
	relay  *relay.Relay
	logger *slog.Logger
}

func NewWebSocketHandler(r *relay.Relay, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{relay: r, logger: logger}
}

// Serve godoc
// @Summary Upgrade to a realtime chat connection
// @Description Clients must send an authenticate event before any other event is honoured
// @Tags websocket
// @Router /ws [get]
func (h *WebSocketHandler) Serve(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	h.relay.ServeConn(conn)
}
