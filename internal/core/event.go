package core

import "time"

// inbound carries one bounded read from a client's reader goroutine.
// A non-nil err means the read side is finished (orderly close or failure).
type inbound struct {
	id   string
	data []byte
	err  error
}

// PresenceSink is notified when clients register and when registered clients leave.
// Implementations must not block the Hub.
type PresenceSink interface {
	Joined(id, name string, at time.Time)
	Left(id, name string, at time.Time)
}

// Snapshot is a point-in-time view of the registry.
type Snapshot struct {
	Connections int      `json:"connections"`
	Registered  int      `json:"registered"`
	Capacity    int      `json:"capacity"`
	Names       []string `json:"names"`
}
