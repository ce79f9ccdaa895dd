package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	stdhttp "net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vovakirdan/linechat-server/internal/config"
	"github.com/vovakirdan/linechat-server/internal/core"
	"github.com/vovakirdan/linechat-server/internal/service/presence"
	"github.com/vovakirdan/linechat-server/internal/store"
	"github.com/vovakirdan/linechat-server/internal/store/sqlite"
	"github.com/vovakirdan/linechat-server/internal/transport/tcp"
	transporthttp "github.com/vovakirdan/linechat-server/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	hub             *core.Hub
	listener        *tcp.Server
	httpServer      *stdhttp.Server
	presence        *presence.Service
	store           store.Store
	shutdownTimeout time.Duration
	log             *zerolog.Logger
}

// HubOptions maps configuration onto hub limits.
func HubOptions(cfg *config.Config) core.Options {
	return core.Options{
		MaxClients:   cfg.MaxClients,
		MaxNameLen:   cfg.MaxNameLen,
		MaxLineLen:   cfg.MaxLineLen,
		ReadSize:     cfg.ReadSize,
		OutboxBytes:  cfg.OutboxBytes,
		WriteTimeout: cfg.WriteTimeout,
		Tick:         cfg.Tick,
	}
}

// New constructs the application and binds the chat listener.
// Any error here is a startup failure.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	a := &App{
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             logger,
	}

	var sink core.PresenceSink
	var sessions transporthttp.SessionSource
	if cfg.DatabasePath != "" {
		st, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("init store: %w", err)
		}
		logger.Info().Str("db_path", cfg.DatabasePath).Msg("session journal enabled")

		a.store = st
		a.presence = presence.New(st, cfg.MaxClients, logger)
		sink = a.presence
		sessions = a.presence
	}

	a.hub = core.NewHub(HubOptions(cfg), logger, sink)

	listener, err := tcp.Listen(cfg.Addr, a.hub, logger)
	if err != nil {
		a.cleanup()
		return nil, err
	}
	a.listener = listener

	if cfg.HTTPAddr != "" {
		a.httpServer = transporthttp.NewServer(cfg.HTTPAddr, a.hub, sessions, logger)
	}

	return a, nil
}

// Addr returns the bound chat address.
func (a *App) Addr() net.Addr {
	return a.listener.Addr()
}

// Run serves until ctx is cancelled or the HTTP server fails.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		a.hub.Run(ctx)
	}()

	presenceCtx, stopPresence := context.WithCancel(context.Background())
	defer stopPresence()
	if a.presence != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.presence.Run(presenceCtx)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.listener.Serve(ctx); err != nil {
			a.log.Error().Err(err).Msg("chat listener stopped")
		}
	}()

	serverErr := make(chan error, 1)
	if a.httpServer != nil {
		go func() {
			a.log.Info().Str("addr", a.httpServer.Addr).Msg("http server listening")
			if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
				serverErr <- err
				return
			}
			serverErr <- nil
		}()
	}

	a.log.Info().Str("addr", a.listener.Addr().String()).Msg("chat server listening")

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		runErr = err
	}
	cancel()

	if a.httpServer != nil {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), a.shutdownTimeout)
		a.log.Info().Msg("shutting down http server")
		if err := a.httpServer.Shutdown(shutdownCtx); err != nil && runErr == nil {
			runErr = err
		}
		cancelShutdown()
	}

	select {
	case <-hubDone:
	case <-time.After(a.shutdownTimeout):
		a.log.Warn().Msg("hub did not stop in time")
	}

	// Presence is flushed after the hub so departures recorded at shutdown are kept.
	stopPresence()
	wg.Wait()

	a.cleanup()
	return runErr
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
