package core

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"
)

func TestHubJoinChatLeaveTrace(t *testing.T) {
	hub := startHub(t, DefaultOptions())

	a := connect(t, hub)
	b := connect(t, hub)

	register(t, a, "alice")

	b.send(t, "HELLO alice\n")
	mustLine(t, b, "ERR bad_or_used_name")

	register(t, b, "bob")
	mustLine(t, a, "INFO bob joined")

	a.send(t, "SEND hi\n")
	mustLine(t, a, "MSG alice hi")
	mustLine(t, b, "MSG alice hi")

	a.send(t, "QUIT\n")
	mustLine(t, b, "INFO alice left")
	expectClosed(t, a)
	expectSilence(t, b)
}

func TestHubRequiresHelloFirst(t *testing.T) {
	hub := startHub(t, DefaultOptions())
	a := connect(t, hub)

	for _, line := range []string{"SEND hi", "QUIT", "WHO", "hello alice", "HELLO"} {
		a.send(t, line+"\r\n")
		mustLine(t, a, "ERR expected_HELLO")
	}

	// Still connected and allowed to retry.
	register(t, a, "alice")
}

func TestHubNameValidation(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxNameLen = 8
	hub := startHub(t, opts)

	a := connect(t, hub)
	for _, bad := range []string{"HELLO ", "HELLO " + strings.Repeat("x", 8)} {
		a.send(t, bad+"\n")
		mustLine(t, a, "ERR bad_or_used_name")
	}
	register(t, a, strings.Repeat("x", 7))

	b := connect(t, hub)
	b.send(t, "HELLO "+strings.Repeat("x", 7)+"\n")
	mustLine(t, b, "ERR bad_or_used_name")

	// Comparison is exact; a different case is a different name.
	register(t, b, strings.Repeat("X", 7))
}

func TestHubRegisteredCommands(t *testing.T) {
	hub := startHub(t, DefaultOptions())
	a := connect(t, hub)
	register(t, a, "alice")

	a.send(t, "HELLO again\n")
	mustLine(t, a, "ERR unknown")

	a.send(t, "SEND\nSEND \n")
	expectSilence(t, a)

	a.send(t, "NOPE\n")
	mustLine(t, a, "ERR unknown")

	a.send(t, "HELLO\n")
	mustLine(t, a, "ERR unknown")

	b := connect(t, hub)
	register(t, b, "bob")
	mustLine(t, a, "INFO bob joined")

	a.send(t, "QUIT bye\n")
	mustLine(t, b, "INFO alice left")
	expectClosed(t, a)
}

func TestHubSplitLineAcrossReads(t *testing.T) {
	hub := startHub(t, DefaultOptions())
	a := connect(t, hub)
	b := connect(t, hub)
	register(t, a, "alice")
	register(t, b, "bob")
	mustLine(t, a, "INFO bob joined")

	a.send(t, "SEND he")
	expectSilence(t, b)
	a.send(t, "llo\n")

	mustLine(t, a, "MSG alice hello")
	mustLine(t, b, "MSG alice hello")
	expectSilence(t, b)
}

func TestHubMultipleLinesInOneRead(t *testing.T) {
	hub := startHub(t, DefaultOptions())
	a := connect(t, hub)
	b := connect(t, hub)
	register(t, b, "bob")

	a.send(t, "HELLO alice\r\nSEND one\r\nSEND two\r\n")
	mustLine(t, a, "WELCOME")
	mustLine(t, a, "MSG alice one")
	mustLine(t, a, "MSG alice two")

	mustLine(t, b, "INFO alice joined")
	mustLine(t, b, "MSG alice one")
	mustLine(t, b, "MSG alice two")
}

func TestHubDisconnectBroadcastsOnlyForRegistered(t *testing.T) {
	hub := startHub(t, DefaultOptions())
	watcher := connect(t, hub)
	register(t, watcher, "watcher")

	anon := connect(t, hub)
	_ = anon.conn.Close()
	expectSilence(t, watcher)

	named := connect(t, hub)
	register(t, named, "named")
	mustLine(t, watcher, "INFO named joined")

	_ = named.conn.Close()
	mustLine(t, watcher, "INFO named left")
	expectSilence(t, watcher)

	// The name is free again.
	again := connect(t, hub)
	register(t, again, "named")
}

func TestHubCapacity(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxClients = 2
	hub := startHub(t, opts)

	a := connect(t, hub)
	b := connect(t, hub)
	register(t, a, "alice")
	register(t, b, "bob")
	mustLine(t, a, "INFO bob joined")

	c := connect(t, hub)
	expectClosed(t, c)

	a.send(t, "SEND still here\n")
	mustLine(t, a, "MSG alice still here")
	mustLine(t, b, "MSG alice still here")

	snap, err := hub.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Connections != 2 || snap.Registered != 2 || snap.Capacity != 2 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestHubDropsOversizedPartialLine(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxLineLen = 16
	hub := startHub(t, opts)

	a := connect(t, hub)
	go func() {
		_, _ = a.conn.Write([]byte(strings.Repeat("x", 64)))
	}()
	expectClosed(t, a)
}

func TestHubBurstReachesEveryPeer(t *testing.T) {
	hub := startHub(t, DefaultOptions())
	a := connect(t, hub)
	b := connect(t, hub)
	register(t, a, "alice")
	register(t, b, "bob")
	mustLine(t, a, "INFO bob joined")

	const lines = 140
	a.send(t, strings.Repeat("SEND x\n", lines))

	for _, p := range []*peer{a, b} {
		for i := 0; i < lines; i++ {
			got, err := p.readLine(2 * time.Second)
			if err != nil {
				t.Fatalf("got %d/%d MSG lines then %v", i, lines, err)
			}
			if got != "MSG alice x" {
				t.Fatalf("line %d: expected %q, got %q", i, "MSG alice x", got)
			}
		}
	}

	a.send(t, "SEND still here\n")
	mustLine(t, a, "MSG alice still here")
	mustLine(t, b, "MSG alice still here")
}

func TestHubOutboxOverflowDropsStalledPeer(t *testing.T) {
	opts := DefaultOptions()
	opts.OutboxBytes = 1
	opts.WriteTimeout = 30 * time.Second
	hub := startHub(t, opts)

	fast := connect(t, hub)
	register(t, fast, "fast")

	stalled := connect(t, hub)
	stalled.send(t, "HELLO stalled\n")
	mustLine(t, fast, "INFO stalled joined")

	// stalled never reads; its queue overflows long before the write timeout.
	text := strings.Repeat("y", 300)
	for i := 0; i < 4; i++ {
		fast.send(t, "SEND "+text+"\n")
		mustLine(t, fast, "MSG fast "+text)
	}
	mustLine(t, fast, "INFO stalled left")
	expectClosed(t, stalled)
}

func TestHubZeroMaxClientsUsesDefault(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxClients = 0
	hub := startHub(t, opts)

	snap, err := hub.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Capacity != DefaultOptions().MaxClients {
		t.Fatalf("expected capacity %d, got %d", DefaultOptions().MaxClients, snap.Capacity)
	}
}

func TestHubSlowRecipientIsDisconnected(t *testing.T) {
	opts := DefaultOptions()
	opts.OutboxBytes = 1
	opts.WriteTimeout = 100 * time.Millisecond
	hub := startHub(t, opts)

	fast := connect(t, hub)
	register(t, fast, "fast")

	slow := connect(t, hub)
	slow.send(t, "HELLO slow\n")
	// slow never reads, so its writer times out and the hub drops it.

	mustLine(t, fast, "INFO slow joined")
	got, err := fast.readLine(3 * time.Second)
	if err != nil || got != "INFO slow left" {
		t.Fatalf("expected departure of slow client, got %q err=%v", got, err)
	}
}

func TestHubSnapshotAfterStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(DefaultOptions(), nil, nil)
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	cancel()
	<-stopped

	if _, err := hub.Snapshot(context.Background()); err != ErrStopped {
		t.Fatalf("expected ErrStopped, got %v", err)
	}

	server, client := net.Pipe()
	defer client.Close()
	hub.Accept(server)
	buf := make([]byte, 1)
	_ = client.SetReadDeadline(time.Now().Add(time.Second))
	if _, err := client.Read(buf); err == nil {
		t.Fatal("expected transport to be closed after stop")
	}
}

type recordingSink struct {
	events chan string
}

func (s *recordingSink) Joined(_, name string, _ time.Time) { s.events <- "joined " + name }
func (s *recordingSink) Left(_, name string, _ time.Time)   { s.events <- "left " + name }

func TestHubPresenceSink(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink := &recordingSink{events: make(chan string, 8)}
	hub := NewHub(DefaultOptions(), nil, sink)
	go hub.Run(ctx)

	a := connect(t, hub)
	register(t, a, "alice")
	a.send(t, "QUIT\n")

	for _, want := range []string{"joined alice", "left alice"} {
		select {
		case got := <-sink.events:
			if got != want {
				t.Fatalf("expected %q, got %q", want, got)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("expected presence event %q", want)
		}
	}
}
