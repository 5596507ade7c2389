package presence

import (
	"sort"
	"sync"
	"time"

	"github.com/lam0glia/marketplace-relay/domain"
)

// Registry tracks who is connected to one namespace, which conversation each
// identity is viewing, and which connections belong to which conversation room.
// All four indices are guarded by the same lock so that an entry and its
// reverse session mapping are always added and removed together.
type Registry struct {
	mu          sync.RWMutex
	entries     map[string]*domain.PresenceEntry // identity -> entry
	sessions    map[string]string                // connID -> identity
	rooms       map[string]map[string]struct{}   // conversationID -> connIDs
	memberships map[string]map[string]struct{}   // connID -> conversationIDs
	now         func() time.Time
}

type Option func(*Registry)

func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		entries:     make(map[string]*domain.PresenceEntry),
		sessions:    make(map[string]string),
		rooms:       make(map[string]map[string]struct{}),
		memberships: make(map[string]map[string]struct{}),
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register binds connID to identity, last registration wins. If identity was
// bound to another connection, that connection is detached from the identity
// and from its rooms and the superseded entry is returned. If connID was
// registered under another identity, that identity is removed.
func (r *Registry) Register(connID, identity, role string) (superseded domain.PresenceEntry, replaced bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if previous, ok := r.sessions[connID]; ok && previous != identity {
		r.removeLocked(previous)
	}

	if existing, ok := r.entries[identity]; ok && existing.ConnID != connID {
		superseded, replaced = *existing, true
		delete(r.sessions, existing.ConnID)
		r.leaveAllLocked(existing.ConnID)
	}

	r.entries[identity] = &domain.PresenceEntry{
		Identity: identity,
		ConnID:   connID,
		Role:     role,
		LastSeen: r.now(),
	}
	r.sessions[connID] = identity

	return superseded, replaced
}

func (r *Registry) Lookup(identity string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[identity]
	if !ok {
		return "", false
	}

	return entry.ConnID, true
}

func (r *Registry) Entry(identity string) (domain.PresenceEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[identity]
	if !ok {
		return domain.PresenceEntry{}, false
	}

	return *entry, true
}

func (r *Registry) IdentityOf(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	identity, ok := r.sessions[connID]

	return identity, ok
}

// Remove deletes the entry of identity together with its session and room
// memberships. The removed entry is returned so callers can notify the room it
// was viewing.
func (r *Registry) Remove(identity string) (domain.PresenceEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.removeLocked(identity)
}

// RemoveByConnection resolves the identity bound to connID and removes it.
// Room memberships of connID are dropped even when it never registered.
func (r *Registry) RemoveByConnection(connID string) (domain.PresenceEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	identity, ok := r.sessions[connID]
	if !ok {
		r.leaveAllLocked(connID)
		return domain.PresenceEntry{}, false
	}

	return r.removeLocked(identity)
}

// Touch refreshes the last-seen time of the identity bound to connID.
func (r *Registry) Touch(connID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	identity, ok := r.sessions[connID]
	if !ok {
		return "", false
	}

	r.entries[identity].LastSeen = r.now()

	return identity, true
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}

// Snapshot returns the online set with a per-identity status, sorted by identity.
func (r *Registry) Snapshot() domain.OnlineUsersUpdate {
	r.mu.RLock()
	defer r.mu.RUnlock()

	update := domain.OnlineUsersUpdate{
		Users:    make([]string, 0, len(r.entries)),
		Statuses: make(map[string]domain.UserStatus, len(r.entries)),
	}

	for identity, entry := range r.entries {
		update.Users = append(update.Users, identity)
		update.Statuses[identity] = statusOf(entry)
	}

	sort.Strings(update.Users)

	return update
}

func (r *Registry) removeLocked(identity string) (domain.PresenceEntry, bool) {
	entry, ok := r.entries[identity]
	if !ok {
		return domain.PresenceEntry{}, false
	}

	delete(r.entries, identity)

	if current, ok := r.sessions[entry.ConnID]; ok && current == identity {
		delete(r.sessions, entry.ConnID)
	}

	r.leaveAllLocked(entry.ConnID)

	return *entry, true
}

func statusOf(entry *domain.PresenceEntry) domain.UserStatus {
	status := domain.UserStatus{
		IsOnline:      true,
		IsViewingChat: entry.IsViewingChat,
		Role:          entry.Role,
	}

	if entry.ConversationID != "" {
		conversationID := entry.ConversationID
		status.ConversationID = &conversationID
	}

	return status
}
