package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/vovakirdan/linechat-server/internal/proto"
)

// QuitCommand is the local input that ends the session.
const QuitCommand = "/quit"

// ErrHandshake is returned when the server answers HELLO with anything but WELCOME.
var ErrHandshake = errors.New("handshake failed")

// Client is a connected, registered chat session.
type Client struct {
	conn net.Conn
	r    *bufio.Reader
	name string
}

// Dial connects to addr and registers as name.
func Dial(ctx context.Context, addr, name string, timeout time.Duration) (*Client, error) {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	c := New(conn, name)
	if err := c.Handshake(timeout); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return c, nil
}

// New wraps an established connection. Call Handshake before Run.
func New(conn net.Conn, name string) *Client {
	return &Client{conn: conn, r: bufio.NewReader(conn), name: name}
}

// Name returns the display name the client registered with.
func (c *Client) Name() string {
	return c.name
}

// Handshake sends HELLO and waits for the server verdict.
func (c *Client) Handshake(timeout time.Duration) error {
	if timeout > 0 {
		_ = c.conn.SetDeadline(time.Now().Add(timeout))
		defer c.conn.SetDeadline(time.Time{})
	}

	if _, err := c.conn.Write(proto.Frame(proto.KeywordHello + " " + c.name)); err != nil {
		return fmt.Errorf("send hello: %w", err)
	}

	line, err := c.r.ReadString('\n')
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHandshake, err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line != proto.Welcome {
		return fmt.Errorf("%w: %s", ErrHandshake, line)
	}
	return nil
}

// Run relays lines from in to the server and prints server lines to out until
// the user types /quit, in is exhausted, ctx is cancelled or the server closes.
func (c *Client) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	serverDone := make(chan error, 1)
	go func() {
		defer cancel()
		serverDone <- c.readLoop(out)
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	// finish closes the connection and waits for the reader so nothing is
	// written to out after Run returns.
	finish := func(sendQuit bool) error {
		if sendQuit {
			_, _ = c.conn.Write(proto.Frame(proto.KeywordQuit))
		}
		_ = c.conn.Close()
		return <-serverDone
	}

	for {
		select {
		case err := <-serverDone:
			_ = c.conn.Close()
			return err
		case <-ctx.Done():
			return finish(true)
		case line, ok := <-lines:
			if !ok {
				return finish(true)
			}
			text := strings.TrimRight(line, "\r")
			if text == QuitCommand {
				return finish(true)
			}
			if strings.TrimSpace(text) == "" {
				continue
			}
			if _, err := c.conn.Write(proto.Frame(proto.KeywordSend + " " + text)); err != nil {
				_ = finish(false)
				return fmt.Errorf("send: %w", err)
			}
		}
	}
}

func (c *Client) readLoop(out io.Writer) error {
	scanner := bufio.NewScanner(c.r)
	for scanner.Scan() {
		fmt.Fprintln(out, strings.TrimRight(scanner.Text(), "\r"))
	}
	err := scanner.Err()
	if err == nil || errors.Is(err, net.ErrClosed) {
		fmt.Fprintln(out, "Disconnected.")
		return nil
	}
	return fmt.Errorf("read: %w", err)
}
