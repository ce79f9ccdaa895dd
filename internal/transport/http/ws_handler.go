package http

import (
	"net"
	"sync"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// WSHandler upgrades HTTP connections and hands them to the hub as line streams.
// Text frames carry raw protocol bytes; frame boundaries have no meaning, so a
// line may span frames and one frame may carry several lines.
type WSHandler struct {
	hub ChatHub
	log *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub ChatHub, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{hub: hub, log: logger}
}

// Handle serves GET /ws.
func (h *WSHandler) Handle(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}

	// The request context bounds the bridged connection, so the handler stays
	// until the hub closes it or the client goes away.
	ctx := c.Request.Context()
	bridged := newTrackedConn(websocket.NetConn(ctx, conn, websocket.MessageText))
	h.hub.Accept(bridged)

	select {
	case <-bridged.closed:
	case <-ctx.Done():
		_ = bridged.Close()
	}
}

// trackedConn reports when the hub has closed the connection.
type trackedConn struct {
	net.Conn
	once   sync.Once
	closed chan struct{}
}

func newTrackedConn(conn net.Conn) *trackedConn {
	return &trackedConn{Conn: conn, closed: make(chan struct{})}
}

func (c *trackedConn) Close() error {
	err := c.Conn.Close()
	c.once.Do(func() { close(c.closed) })
	return err
}
