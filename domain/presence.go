package domain

import (
	"context"
	"time"
)

type ViewingState string

const (
	ViewingStateOffline   ViewingState = "offline"
	ViewingStateConnected ViewingState = "connected"
	ViewingStateViewing   ViewingState = "viewing"
)

// Identity prefixes keep sellers and buyers apart even when their numeric IDs collide.
const (
	SellerPrefix = "toko_"
	BuyerPrefix  = "pembeli_"
)

type PresenceEntry struct {
	Identity       string
	ConnID         string
	Role           string
	IsViewingChat  bool
	ConversationID string
	LastSeen       time.Time
}

type UserStatus struct {
	IsOnline       bool    `json:"isOnline"`
	IsViewingChat  bool    `json:"isViewingChat"`
	ConversationID *string `json:"conversationId"`
	Role           string  `json:"role,omitempty"`
}

type OnlineUsersUpdate struct {
	Users    []string              `json:"users"`
	Statuses map[string]UserStatus `json:"statuses"`
}

type PresenceChange struct {
	Namespace string
	Identity  string
	Role      string
	Online    bool
}

// PresenceSink receives presence changes outside the event stream.
// Offer must not block.
type PresenceSink interface {
	Offer(change PresenceChange) bool
}

type PresenceWriter interface {
	SetOnline(ctx context.Context, namespace, identity, role string) error
	SetOffline(ctx context.Context, namespace, identity string) error
	Refresh(ctx context.Context, namespace, identity string) error
}

type UpdatePresenceUseCase interface {
	Execute(ctx context.Context, change PresenceChange) error
}
