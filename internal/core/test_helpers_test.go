package core

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"
)

// peer is the client side of a net.Pipe handed to the hub.
type peer struct {
	conn net.Conn
	r    *bufio.Reader
}

func startHub(t *testing.T, opts Options) *Hub {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(opts, nil, nil)
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-stopped:
		case <-time.After(10 * time.Second):
			t.Error("hub did not stop")
		}
	})
	return hub
}

func connect(t *testing.T, hub *Hub) *peer {
	t.Helper()

	server, client := net.Pipe()
	hub.Accept(server)
	t.Cleanup(func() { _ = client.Close() })
	return &peer{conn: client, r: bufio.NewReader(client)}
}

func (p *peer) send(t *testing.T, raw string) {
	t.Helper()

	_ = p.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	if _, err := p.conn.Write([]byte(raw)); err != nil {
		t.Fatalf("write %q: %v", raw, err)
	}
}

func (p *peer) readLine(timeout time.Duration) (string, error) {
	_ = p.conn.SetReadDeadline(time.Now().Add(timeout))
	line, err := p.r.ReadString('\n')
	if err != nil {
		return line, err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func mustLine(t *testing.T, p *peer, want string) {
	t.Helper()

	got, err := p.readLine(2 * time.Second)
	if err != nil {
		t.Fatalf("expected line %q, got error %v", want, err)
	}
	if got != want {
		t.Fatalf("expected line %q, got %q", want, got)
	}
}

func expectSilence(t *testing.T, p *peer) {
	t.Helper()

	got, err := p.readLine(150 * time.Millisecond)
	if err == nil {
		t.Fatalf("expected no output, got %q", got)
	}
	var netErr net.Error
	if !errors.As(err, &netErr) || !netErr.Timeout() {
		t.Fatalf("expected read timeout, got %v", err)
	}
}

func expectClosed(t *testing.T, p *peer) {
	t.Helper()

	got, err := p.readLine(2 * time.Second)
	if err == nil {
		t.Fatalf("expected closed connection, got line %q", got)
	}
	if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrClosedPipe) {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func register(t *testing.T, p *peer, name string) {
	t.Helper()

	p.send(t, "HELLO "+name+"\n")
	mustLine(t, p, "WELCOME")
}
