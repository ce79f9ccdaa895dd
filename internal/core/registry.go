package core

import "sort"

// Registry is the table of live clients keyed by handle, with a name index
// for registered clients. It is not safe for concurrent use; the Hub owns it.
type Registry struct {
	capacity int
	clients  map[string]*Client
	names    map[string]string
}

// NewRegistry builds a registry holding at most capacity clients.
func NewRegistry(capacity int) *Registry {
	return &Registry{
		capacity: capacity,
		clients:  make(map[string]*Client),
		names:    make(map[string]string),
	}
}

// Insert adds an unregistered client. It fails with ErrCapacity when full.
func (r *Registry) Insert(c *Client) error {
	if _, exists := r.clients[c.ID]; exists {
		return ErrDuplicateClient
	}
	if r.capacity > 0 && len(r.clients) >= r.capacity {
		return ErrCapacity
	}
	r.clients[c.ID] = c
	return nil
}

// Remove deletes the client and releases its name. It returns the removed client.
func (r *Registry) Remove(id string) (*Client, bool) {
	c, exists := r.clients[id]
	if !exists {
		return nil, false
	}
	delete(r.clients, id)
	if c.Registered() && r.names[c.Name] == id {
		delete(r.names, c.Name)
	}
	return c, true
}

// Lookup returns the client with the given handle.
func (r *Registry) Lookup(id string) (*Client, bool) {
	c, ok := r.clients[id]
	return c, ok
}

// IsNameTaken reports whether a registered client holds name. Comparison is exact.
func (r *Registry) IsNameTaken(name string) bool {
	_, taken := r.names[name]
	return taken
}

// Register moves the client to StateRegistered under name.
func (r *Registry) Register(id, name string) error {
	c, ok := r.clients[id]
	if !ok {
		return ErrClientNotFound
	}
	if c.Registered() {
		return ErrAlreadyRegistered
	}
	if r.IsNameTaken(name) {
		return ErrNameTaken
	}
	c.Name = name
	c.State = StateRegistered
	r.names[name] = id
	return nil
}

// RegisteredExcept returns every registered client other than the one with handle except.
// An empty except excludes nobody.
func (r *Registry) RegisteredExcept(except string) []*Client {
	out := make([]*Client, 0, len(r.names))
	for _, id := range r.names {
		if id == except {
			continue
		}
		if c, ok := r.clients[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// All returns every live client, registered or not.
func (r *Registry) All() []*Client {
	out := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}

// Len returns the number of live clients.
func (r *Registry) Len() int {
	return len(r.clients)
}

// RegisteredCount returns the number of registered clients.
func (r *Registry) RegisteredCount() int {
	return len(r.names)
}

// Capacity returns the configured maximum, zero meaning unbounded.
func (r *Registry) Capacity() int {
	return r.capacity
}

// Names returns registered display names in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.names))
	for name := range r.names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
