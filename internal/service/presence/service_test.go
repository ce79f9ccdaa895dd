package presence

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/vovakirdan/linechat-server/internal/store/sqlite"
)

func TestServiceRecordsJoinAndLeave(t *testing.T) {
	st, err := sqlite.NewWithSetup(":memory:", func(db *sql.DB) error {
		_, err := db.Exec(sqlite.Schema)
		return err
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	svc := New(st, 8, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	now := time.Now()
	svc.Joined("c1", "alice", now)
	svc.Left("c1", "alice", now.Add(time.Second))

	// Run flushes the queue on cancellation.
	cancel()
	<-done

	sessions, err := svc.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	if sessions[0].Name != "alice" || sessions[0].LeftAt == nil {
		t.Fatalf("unexpected session: %+v", sessions[0])
	}
}

func TestServiceDropsWhenQueueFull(t *testing.T) {
	svc := New(nil, 1, nil)

	svc.Joined("c1", "alice", time.Now())
	svc.Joined("c2", "bob", time.Now()) // must not block

	if len(svc.queue) != 1 {
		t.Fatalf("expected one queued event, got %d", len(svc.queue))
	}
}

func TestRecentWithoutStore(t *testing.T) {
	var svc *Service
	if _, err := svc.Recent(context.Background(), 5); !errors.Is(err, ErrNoStore) {
		t.Fatalf("expected ErrNoStore, got %v", err)
	}
}
