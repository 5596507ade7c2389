package presence

import "github.com/lam0glia/marketplace-relay/domain"

func (r *Registry) State(identity string) domain.ViewingState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[identity]
	switch {
	case !ok:
		return domain.ViewingStateOffline
	case entry.IsViewingChat:
		return domain.ViewingStateViewing
	default:
		return domain.ViewingStateConnected
	}
}

// StateIn is State narrowed to one conversation: an identity viewing a
// different conversation is only connected. An empty conversationID falls
// back to State.
func (r *Registry) StateIn(identity, conversationID string) domain.ViewingState {
	if conversationID == "" {
		return r.State(identity)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[identity]
	switch {
	case !ok:
		return domain.ViewingStateOffline
	case entry.IsViewingChat && entry.ConversationID == conversationID:
		return domain.ViewingStateViewing
	default:
		return domain.ViewingStateConnected
	}
}

// StartViewing marks identity as viewing conversationID and joins its
// connection to the conversation room. Switching from another conversation
// leaves that room first; the previous conversation is returned so peers
// there can be told.
func (r *Registry) StartViewing(identity, conversationID string) (connID, previous string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[identity]
	if !ok {
		return "", "", false
	}

	if entry.IsViewingChat && entry.ConversationID != "" && entry.ConversationID != conversationID {
		previous = entry.ConversationID
		r.leaveLocked(previous, entry.ConnID)
	}

	entry.IsViewingChat = true
	entry.ConversationID = conversationID
	entry.LastSeen = r.now()

	r.joinLocked(conversationID, entry.ConnID)

	return entry.ConnID, previous, true
}

// StopViewing clears the viewing flags of identity and removes its connection
// from the conversationID room.
func (r *Registry) StopViewing(identity, conversationID string) (connID string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[identity]
	if !ok {
		return "", false
	}

	entry.IsViewingChat = false
	entry.ConversationID = ""
	entry.LastSeen = r.now()

	if conversationID != "" {
		r.leaveLocked(conversationID, entry.ConnID)
	}

	return entry.ConnID, true
}
