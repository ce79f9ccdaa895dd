package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"

	"github.com/vovakirdan/linechat-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket bridge address")
	name := flag.String("name", "tester", "name to register with HELLO")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(line string) error {
		if err := conn.Write(ctx, websocket.MessageText, proto.Frame(line)); err != nil {
			return fmt.Errorf("send %q: %w", line, err)
		}
		return nil
	}

	framer := proto.NewFramer(4096)
	expect := func(want string) error {
		for {
			if line, ok := framer.Next(); ok {
				if line != want {
					return fmt.Errorf("expected %q, got %q", want, line)
				}
				fmt.Printf("<- %s\n", line)
				return nil
			}
			_, data, err := conn.Read(ctx)
			if err != nil {
				return fmt.Errorf("read: %w", err)
			}
			framer.Append(data)
		}
	}

	if err := send(proto.KeywordHello + " " + *name); err != nil {
		return err
	}
	if err := expect(proto.Welcome); err != nil {
		return err
	}

	if err := send(proto.KeywordSend + " " + *text); err != nil {
		return err
	}
	if err := expect(proto.Msg(*name, *text)); err != nil {
		return err
	}

	if err := send(proto.KeywordQuit); err != nil {
		return err
	}
	fmt.Println("smoke test passed")
	return nil
}
