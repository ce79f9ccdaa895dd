package http

import (
	"context"
	"net"
	stdhttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat-server/internal/core"
	"github.com/vovakirdan/linechat-server/internal/store"
)

const readHeaderTimeout = 5 * time.Second

// ChatHub is the part of core.Hub the HTTP surface needs.
type ChatHub interface {
	Accept(conn net.Conn)
	Snapshot(ctx context.Context) (core.Snapshot, error)
}

// SessionSource lists presence journal entries. It may be nil.
type SessionSource interface {
	Recent(ctx context.Context, limit int) ([]*store.Session, error)
}

// NewServer builds the admin HTTP server with the WebSocket bridge mounted at /ws.
func NewServer(addr string, hub ChatHub, sessions SessionSource, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              addr,
		Handler:           NewRouter(hub, sessions, logger),
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// NewRouter wires the gin routes.
func NewRouter(hub ChatHub, sessions SessionSource, logger *zerolog.Logger) *gin.Engine {
	if gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	api := NewAPIHandlers(hub, sessions, logger)
	router.GET("/health", healthHandler)
	router.GET("/stats", api.Stats)
	router.GET("/sessions", api.Sessions)
	router.GET("/ws", NewWSHandler(hub, logger).Handle)

	return router
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
