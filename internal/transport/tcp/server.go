package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"
)

// Acceptor takes ownership of accepted connections.
type Acceptor interface {
	Accept(conn net.Conn)
}

// Server feeds connections from a TCP listener into an Acceptor.
type Server struct {
	listener net.Listener
	acceptor Acceptor
	log      *zerolog.Logger
}

// Listen binds addr. Bind failures are returned to the caller as startup errors.
func Listen(addr string, acceptor Acceptor, logger *zerolog.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return &Server{listener: ln, acceptor: acceptor, log: logger}, nil
}

// Addr returns the bound address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve accepts until ctx is cancelled. Transient accept errors are logged and retried.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.listener.Close()
	}()

	var backoff time.Duration
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			if backoff == 0 {
				backoff = 5 * time.Millisecond
			} else if backoff < time.Second {
				backoff *= 2
			}
			s.log.Warn().Err(err).Dur("retry_in", backoff).Msg("accept failed")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil
			}
			continue
		}
		backoff = 0
		s.acceptor.Accept(conn)
	}
}
