package presence

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat-server/internal/store"
)

// ErrNoStore is returned by Recent when the journal is disabled.
var ErrNoStore = errors.New("presence journal disabled")

type eventKind int

const (
	eventJoined eventKind = iota
	eventLeft
)

type event struct {
	kind   eventKind
	connID string
	name   string
	at     time.Time
}

// Service records joins and departures in the session store off the Hub goroutine.
// Joined and Left never block: when the queue is full the event is dropped and logged.
type Service struct {
	store        store.SessionStore
	queue        chan event
	log          *zerolog.Logger
	writeTimeout time.Duration
}

// New creates a presence recorder with a queue of the given size.
func New(st store.SessionStore, queueSize int, logger *zerolog.Logger) *Service {
	if queueSize <= 0 {
		queueSize = 256
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Service{
		store:        st,
		queue:        make(chan event, queueSize),
		log:          logger,
		writeTimeout: 2 * time.Second,
	}
}

// Joined queues a session start.
func (s *Service) Joined(id, name string, at time.Time) {
	s.enqueue(event{kind: eventJoined, connID: id, name: name, at: at})
}

// Left queues a session end.
func (s *Service) Left(id, name string, at time.Time) {
	s.enqueue(event{kind: eventLeft, connID: id, name: name, at: at})
}

func (s *Service) enqueue(ev event) {
	select {
	case s.queue <- ev:
	default:
		s.log.Warn().Str("conn_id", ev.connID).Str("name", ev.name).Msg("presence queue full, dropping event")
	}
}

// Run writes queued events until ctx is cancelled, then flushes what is left.
func (s *Service) Run(ctx context.Context) {
	for {
		select {
		case ev := <-s.queue:
			s.write(ev)
		case <-ctx.Done():
			for {
				select {
				case ev := <-s.queue:
					s.write(ev)
				default:
					return
				}
			}
		}
	}
}

func (s *Service) write(ev event) {
	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()

	var err error
	switch ev.kind {
	case eventJoined:
		err = s.store.OpenSession(ctx, ev.connID, ev.name, ev.at)
	case eventLeft:
		err = s.store.CloseSession(ctx, ev.connID, ev.at)
	}
	if err != nil {
		s.log.Error().Err(err).Str("conn_id", ev.connID).Str("name", ev.name).Msg("failed to record presence")
	}
}

// Recent returns the latest sessions from the journal.
func (s *Service) Recent(ctx context.Context, limit int) ([]*store.Session, error) {
	if s == nil || s.store == nil {
		return nil, ErrNoStore
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return s.store.ListSessions(ctx, limit)
}
