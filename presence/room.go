package presence

import "sort"

// Join adds connID to the conversation room. Joining twice is a no-op.
func (r *Registry) Join(connID, conversationID string) {
	if connID == "" || conversationID == "" {
		return
	}

	r.mu.Lock()
	r.joinLocked(conversationID, connID)
	r.mu.Unlock()
}

// Leave removes connID from the conversation room. Leaving a room the
// connection is not in is a no-op.
func (r *Registry) Leave(connID, conversationID string) {
	r.mu.Lock()
	r.leaveLocked(conversationID, connID)
	r.mu.Unlock()
}

// Members returns the connection IDs in the conversation room, sorted.
func (r *Registry) Members(conversationID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room := r.rooms[conversationID]
	members := make([]string, 0, len(room))
	for connID := range room {
		members = append(members, connID)
	}

	sort.Strings(members)

	return members
}

// Rooms returns the conversations connID is a member of, sorted.
func (r *Registry) Rooms(connID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	memberships := r.memberships[connID]
	rooms := make([]string, 0, len(memberships))
	for conversationID := range memberships {
		rooms = append(rooms, conversationID)
	}

	sort.Strings(rooms)

	return rooms
}

func (r *Registry) joinLocked(conversationID, connID string) {
	room := r.rooms[conversationID]
	if room == nil {
		room = make(map[string]struct{})
		r.rooms[conversationID] = room
	}
	room[connID] = struct{}{}

	memberships := r.memberships[connID]
	if memberships == nil {
		memberships = make(map[string]struct{})
		r.memberships[connID] = memberships
	}
	memberships[conversationID] = struct{}{}
}

func (r *Registry) leaveLocked(conversationID, connID string) {
	if room := r.rooms[conversationID]; room != nil {
		delete(room, connID)
		if len(room) == 0 {
			delete(r.rooms, conversationID)
		}
	}

	if memberships := r.memberships[connID]; memberships != nil {
		delete(memberships, conversationID)
		if len(memberships) == 0 {
			delete(r.memberships, connID)
		}
	}
}

func (r *Registry) leaveAllLocked(connID string) {
	for conversationID := range r.memberships[connID] {
		r.leaveLocked(conversationID, connID)
	}
}
