// Package presence keeps track of which logical users currently hold a live
// connection.
package presence

import (
	"sort"
	"sync"
)

// Handle is a live connection as seen by the registry. Identity is the
// interface value itself; ID is only used for logging and exclusions.
type Handle interface {
	ID() string
	Closed() bool
}

type entry struct {
	handle Handle
	gen    uint64
}

// Registry maps a user id to at most one connection handle. The last
// registration for a user wins.
//
// Every registration is stamped with a generation. A handle may only evict
// entries carrying a generation that was issued to it, so a late close of an
// old connection never removes a newer registration for the same user.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
	issued  map[Handle]map[string]uint64
	nextGen uint64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]entry),
		issued:  make(map[Handle]map[string]uint64),
	}
}

// Register binds userID to h, overwriting any previous binding, and returns
// the generation of the new entry. An empty user id is ignored.
func (r *Registry) Register(userID string, h Handle) uint64 {
	if userID == "" || h == nil {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextGen++
	gen := r.nextGen
	r.entries[userID] = entry{handle: h, gen: gen}

	byUser, ok := r.issued[h]
	if !ok {
		byUser = make(map[string]uint64)
		r.issued[h] = byUser
	}
	byUser[userID] = gen
	return gen
}

// Lookup returns the handle registered for userID.
func (r *Registry) Lookup(userID string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[userID]
	if !ok {
		return nil, false
	}
	return e.handle, true
}

// Unregister drops every entry still owned by h and returns the user ids
// that went offline as a result.
func (r *Registry) Unregister(h Handle) []string {
	if h == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var evicted []string
	for userID, gen := range r.issued[h] {
		e, ok := r.entries[userID]
		if ok && e.handle == h && e.gen == gen {
			delete(r.entries, userID)
			evicted = append(evicted, userID)
		}
	}
	delete(r.issued, h)
	sort.Strings(evicted)
	return evicted
}

// Sweep removes entries whose connection already reports closed. It corrects
// false positives left behind by a close that was never delivered.
func (r *Registry) Sweep() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var evicted []string
	for userID, e := range r.entries {
		if e.handle.Closed() {
			delete(r.entries, userID)
			evicted = append(evicted, userID)
		}
	}
	for h := range r.issued {
		if h.Closed() {
			delete(r.issued, h)
		}
	}
	sort.Strings(evicted)
	return evicted
}

// ListOnline returns a sorted snapshot of the registered user ids.
func (r *Registry) ListOnline() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.entries))
	for userID := range r.entries {
		ids = append(ids, userID)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of online users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
