package core

import (
	"net"
	"sync"
	"time"

	"github.com/vovakirdan/linechat-server/internal/proto"
)

// State is the registration state of a connection.
type State int

const (
	// StateUnregistered is the initial state; only HELLO is accepted.
	StateUnregistered State = iota
	// StateRegistered means the connection holds a display name and may chat.
	StateRegistered
)

func (s State) String() string {
	if s == StateRegistered {
		return "registered"
	}
	return "unregistered"
}

// Client is one accepted connection as seen by the core layer.
// All exported fields are owned by the Hub goroutine.
type Client struct {
	ID     string
	Name   string
	State  State
	Remote string

	conn   net.Conn
	framer *proto.Framer
	out    *outbox
	doomed bool
	closed bool
}

// outbox is the pending output of one client, capped in bytes. The Hub appends
// and the writer goroutine takes everything queued in one batch.
type outbox struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    []byte
	limit  int
	closed bool
}

func newOutbox(limit int) *outbox {
	o := &outbox{limit: limit}
	o.cond = sync.NewCond(&o.mu)
	return o
}

// NewClient constructs a client around conn with an empty inbound buffer.
// outboxBytes caps the output queued but not yet written to conn.
func NewClient(id string, conn net.Conn, maxLine, outboxBytes int) *Client {
	if outboxBytes <= 0 {
		outboxBytes = 1
	}
	c := &Client{
		ID:     id,
		conn:   conn,
		framer: proto.NewFramer(maxLine),
		out:    newOutbox(outboxBytes),
	}
	if conn != nil && conn.RemoteAddr() != nil {
		c.Remote = conn.RemoteAddr().String()
	}
	return c
}

// Registered reports whether the client completed HELLO.
func (c *Client) Registered() bool {
	return c.State == StateRegistered
}

// enqueue hands a line to the writer without blocking. It returns false when
// the line does not fit in the outbox or the outbox is closed.
func (c *Client) enqueue(line string) bool {
	if c.closed {
		return false
	}
	o := c.out
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed || len(o.buf)+len(line)+len(proto.Terminator) > o.limit {
		return false
	}
	o.buf = append(o.buf, line...)
	o.buf = append(o.buf, proto.Terminator...)
	o.cond.Signal()
	return true
}

// queued returns the number of bytes waiting for the writer.
func (c *Client) queued() int {
	c.out.mu.Lock()
	defer c.out.mu.Unlock()
	return len(c.out.buf)
}

// close stops accepting output. The writer flushes what is queued and then
// closes the transport.
func (c *Client) close() {
	if c.closed {
		return
	}
	c.closed = true
	c.out.mu.Lock()
	c.out.closed = true
	c.out.cond.Broadcast()
	c.out.mu.Unlock()
}

// abort discards queued output and closes the transport at once, unblocking
// a writer stuck on a peer that stopped reading.
func (c *Client) abort() {
	if c.closed {
		return
	}
	c.closed = true
	c.out.mu.Lock()
	c.out.closed = true
	c.out.buf = nil
	c.out.cond.Broadcast()
	c.out.mu.Unlock()
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// writeLoop drains the outbox onto the transport until it is closed and empty.
// A failed write is reported once through fail unless the client was already
// aborted.
func (c *Client) writeLoop(timeout time.Duration, fail func(id string)) {
	defer c.conn.Close()

	o := c.out
	var batch []byte
	for {
		o.mu.Lock()
		for len(o.buf) == 0 && !o.closed {
			o.cond.Wait()
		}
		if len(o.buf) == 0 {
			o.mu.Unlock()
			return
		}
		batch, o.buf = o.buf, batch[:0]
		o.mu.Unlock()

		if timeout > 0 {
			_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
		}
		if _, err := c.conn.Write(batch); err != nil {
			o.mu.Lock()
			aborted := o.closed
			o.closed = true
			o.buf = nil
			o.mu.Unlock()
			if !aborted {
				fail(c.ID)
			}
			return
		}
	}
}
