package store

import (
	"context"
	"time"
)

// Session is one registered stay of a display name on the server.
// Only presence is recorded, never chat text.
type Session struct {
	ID       int64
	ConnID   string
	Name     string
	JoinedAt time.Time
	LeftAt   *time.Time // nil while the client is still connected
}

// SessionStore handles presence journal persistence.
type SessionStore interface {
	// OpenSession records that connID registered as name.
	OpenSession(ctx context.Context, connID, name string, at time.Time) error

	// CloseSession stamps the departure time on the open session of connID.
	CloseSession(ctx context.Context, connID string, at time.Time) error

	// ListSessions returns the most recent sessions, newest first.
	ListSessions(ctx context.Context, limit int) ([]*Session, error)
}

// Store is the aggregate persistence interface.
type Store interface {
	SessionStore

	Close() error
}
