package core

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat-server/internal/proto"
	"github.com/vovakirdan/linechat-server/internal/utils"
)

// Options tunes the Hub.
type Options struct {
	MaxClients   int
	MaxNameLen   int
	MaxLineLen   int
	ReadSize     int
	OutboxBytes  int
	WriteTimeout time.Duration
	Tick         time.Duration
}

// DefaultOptions mirrors the protocol limits of the line chat server.
func DefaultOptions() Options {
	return Options{
		MaxClients:   1024,
		MaxNameLen:   32,
		MaxLineLen:   1024,
		ReadSize:     1024,
		OutboxBytes:  256 << 10,
		WriteTimeout: 5 * time.Second,
		Tick:         time.Second,
	}
}

func (o Options) sanitize() Options {
	def := DefaultOptions()
	if o.MaxClients <= 0 {
		o.MaxClients = def.MaxClients
	}
	if o.MaxNameLen <= 0 {
		o.MaxNameLen = def.MaxNameLen
	}
	if o.MaxLineLen <= 0 {
		o.MaxLineLen = def.MaxLineLen
	}
	if o.ReadSize <= 0 {
		o.ReadSize = def.ReadSize
	}
	if o.OutboxBytes <= 0 {
		o.OutboxBytes = def.OutboxBytes
	}
	// The outbox must hold at least one maximal MSG line.
	if floor := o.MaxLineLen + o.MaxNameLen + 16; o.OutboxBytes < floor {
		o.OutboxBytes = floor
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = def.WriteTimeout
	}
	if o.Tick <= 0 {
		o.Tick = def.Tick
	}
	return o
}

// Hub owns the registry and every client. Run is the only goroutine that
// touches them; transports and per-client goroutines talk to it through channels.
type Hub struct {
	opts     Options
	registry *Registry
	log      *zerolog.Logger
	presence PresenceSink
	newID    func() string

	accepts  chan net.Conn
	inbound  chan inbound
	failures chan string
	queries  chan chan Snapshot
	done     chan struct{}

	doomed []string
	wg     sync.WaitGroup
}

// NewHub creates a hub. logger and presence may be nil.
func NewHub(opts Options, logger *zerolog.Logger, presence PresenceSink) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	opts = opts.sanitize()
	return &Hub{
		opts:     opts,
		registry: NewRegistry(opts.MaxClients),
		log:      logger,
		presence: presence,
		newID:    utils.NewID,
		accepts:  make(chan net.Conn),
		inbound:  make(chan inbound),
		failures: make(chan string),
		queries:  make(chan chan Snapshot),
		done:     make(chan struct{}),
	}
}

// Accept hands a freshly accepted transport to the Hub. It blocks until the Hub
// takes it; after Run has returned the transport is closed instead.
func (h *Hub) Accept(conn net.Conn) {
	select {
	case h.accepts <- conn:
	case <-h.done:
		_ = conn.Close()
	}
}

// Snapshot asks the Hub for a view of the registry.
func (h *Hub) Snapshot(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	select {
	case h.queries <- reply:
	case <-h.done:
		return Snapshot{}, ErrStopped
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// Done is closed once Run has stopped accepting work.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Run is the event loop. It returns after ctx is cancelled and every client
// goroutine has finished.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.opts.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case conn := <-h.accepts:
			h.admit(conn)
		case in := <-h.inbound:
			h.handleInbound(in)
		case id := <-h.failures:
			h.schedule(id)
		case reply := <-h.queries:
			reply <- h.snapshot()
		case <-ticker.C:
			h.log.Debug().
				Int("connections", h.registry.Len()).
				Int("registered", h.registry.RegisteredCount()).
				Msg("hub tick")
		}
		h.reap()
	}
}

func (h *Hub) admit(conn net.Conn) {
	c := NewClient(h.newID(), conn, h.opts.MaxLineLen, h.opts.OutboxBytes)
	if err := h.registry.Insert(c); err != nil {
		h.log.Warn().Err(err).Str("remote", c.Remote).Msg("rejecting connection")
		_ = conn.Close()
		return
	}

	h.log.Info().Str("conn_id", c.ID).Str("remote", c.Remote).Msg("new connection")

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		h.readLoop(c.ID, conn)
	}()
	go func() {
		defer h.wg.Done()
		c.writeLoop(h.opts.WriteTimeout, h.reportFailure)
	}()
}

// readLoop performs one bounded read at a time and hands each chunk to Run.
func (h *Hub) readLoop(id string, conn net.Conn) {
	buf := make([]byte, h.opts.ReadSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			if !h.deliver(inbound{id: id, data: data}) {
				return
			}
		}
		if err != nil {
			h.deliver(inbound{id: id, err: err})
			return
		}
	}
}

func (h *Hub) deliver(in inbound) bool {
	select {
	case h.inbound <- in:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) reportFailure(id string) {
	select {
	case h.failures <- id:
	case <-h.done:
	}
}

func (h *Hub) handleInbound(in inbound) {
	c, ok := h.registry.Lookup(in.id)
	if !ok {
		return
	}

	if in.err != nil {
		if errors.Is(in.err, io.EOF) || errors.Is(in.err, net.ErrClosed) {
			h.disconnect(c, "peer closed")
		} else {
			h.log.Debug().Err(in.err).Str("conn_id", c.ID).Msg("read failed")
			h.disconnect(c, "read error")
		}
		return
	}

	c.framer.Append(in.data)
	for !c.closed && !c.doomed {
		line, ok := c.framer.Next()
		if !ok {
			break
		}
		h.interpret(c, line)
	}

	if c.closed || c.doomed {
		return
	}
	if err := c.framer.Check(); err != nil {
		h.log.Warn().Err(err).Str("conn_id", c.ID).Int("pending", c.framer.Pending()).Msg("dropping connection")
		h.disconnect(c, "line too long")
	}
}

func (h *Hub) interpret(c *Client, line string) {
	action := Interpret(c.State, line)

	switch action.Kind {
	case ActionReply:
		h.send(c, action.Arg)
	case ActionRegister:
		h.register(c, action.Arg)
	case ActionChat:
		msg := proto.Msg(c.Name, action.Arg)
		h.broadcast(msg, c.ID)
		h.send(c, msg)
	case ActionQuit:
		h.disconnect(c, "quit")
	}
}

func (h *Hub) register(c *Client, name string) {
	if err := h.validateName(name); err != nil {
		h.log.Debug().Err(err).Str("conn_id", c.ID).Str("name", name).Msg("registration rejected")
		h.send(c, proto.ErrBadOrUsedName)
		return
	}
	if err := h.registry.Register(c.ID, name); err != nil {
		h.send(c, proto.ErrBadOrUsedName)
		return
	}

	h.log.Info().Str("conn_id", c.ID).Str("name", name).Msg("client joined")
	h.send(c, proto.Welcome)
	h.broadcast(proto.Joined(name), c.ID)
	if h.presence != nil {
		h.presence.Joined(c.ID, name, time.Now())
	}
}

// validateName applies the checks in order: empty, too long, taken.
func (h *Hub) validateName(name string) error {
	if name == "" {
		return ErrBadName
	}
	if len(name) >= h.opts.MaxNameLen {
		return ErrBadName
	}
	if h.registry.IsNameTaken(name) {
		return ErrNameTaken
	}
	return nil
}

func (h *Hub) send(c *Client, line string) {
	if !c.enqueue(line) {
		h.overflow(c)
	}
}

// broadcast delivers line to every registered client except the one with handle
// except. Recipients that cannot take the line are scheduled for disconnect.
func (h *Hub) broadcast(line, except string) {
	for _, peer := range h.registry.RegisteredExcept(except) {
		if peer.doomed {
			continue
		}
		if !peer.enqueue(line) {
			h.overflow(peer)
		}
	}
}

func (h *Hub) overflow(c *Client) {
	if c.doomed || c.closed {
		return
	}
	h.log.Warn().Str("conn_id", c.ID).Int("queued", c.queued()).Msg("outbox full, dropping client")
	h.schedule(c.ID)
}

func (h *Hub) schedule(id string) {
	c, ok := h.registry.Lookup(id)
	if !ok || c.doomed {
		return
	}
	c.doomed = true
	h.doomed = append(h.doomed, id)
}

// reap runs the disconnect path for clients scheduled during the last event.
// Departure broadcasts may schedule more clients; the loop drains them too.
func (h *Hub) reap() {
	for len(h.doomed) > 0 {
		id := h.doomed[0]
		h.doomed = h.doomed[1:]
		if c, ok := h.registry.Lookup(id); ok {
			h.disconnect(c, "write failure")
		}
	}
}

func (h *Hub) disconnect(c *Client, reason string) {
	if _, ok := h.registry.Remove(c.ID); !ok {
		return
	}
	if c.doomed {
		c.abort()
	} else {
		c.close()
	}

	logEvent := h.log.Info().Str("conn_id", c.ID).Str("reason", reason)
	if !c.Registered() {
		logEvent.Msg("connection closed")
		return
	}
	logEvent.Str("name", c.Name).Msg("client left")

	h.broadcast(proto.Left(c.Name), c.ID)
	if h.presence != nil {
		h.presence.Left(c.ID, c.Name, time.Now())
	}
}

func (h *Hub) snapshot() Snapshot {
	return Snapshot{
		Connections: h.registry.Len(),
		Registered:  h.registry.RegisteredCount(),
		Capacity:    h.registry.Capacity(),
		Names:       h.registry.Names(),
	}
}

// shutdown closes every client without departure notices and waits for the
// per-client goroutines.
func (h *Hub) shutdown() {
	close(h.done)

	for _, c := range h.registry.All() {
		h.registry.Remove(c.ID)
		c.close()
		if c.Registered() && h.presence != nil {
			h.presence.Left(c.ID, c.Name, time.Now())
		}
	}
	h.doomed = nil
	h.log.Info().Msg("hub stopped")

	h.wg.Wait()
}
