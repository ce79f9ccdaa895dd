package core

import "errors"

var (
	// ErrCapacity is returned when the registry already holds the maximum number of clients.
	ErrCapacity = errors.New("registry at capacity")
	// ErrDuplicateClient is returned when a handle is inserted twice.
	ErrDuplicateClient = errors.New("client already present")
	// ErrClientNotFound is returned for handles missing from the registry.
	ErrClientNotFound = errors.New("client not found")
	// ErrAlreadyRegistered is returned when a registered client registers again.
	ErrAlreadyRegistered = errors.New("client already registered")
	// ErrBadName is returned for empty or oversized display names.
	ErrBadName = errors.New("bad name")
	// ErrNameTaken is returned when another registered client holds the name.
	ErrNameTaken = errors.New("name already in use")
	// ErrStopped is returned by hub calls made after Run has returned.
	ErrStopped = errors.New("hub stopped")
)
