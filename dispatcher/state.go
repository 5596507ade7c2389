package dispatcher

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/lam0glia/marketplace-relay/delivery"
	"github.com/lam0glia/marketplace-relay/domain"
	"github.com/lam0glia/marketplace-relay/presence"
)

const isoTimestamp = "2006-01-02T15:04:05.000Z07:00"

// State is everything a handler may read or change.
type State struct {
	Namespace string
	Registry  *presence.Registry
	Ledger    *delivery.Ledger
	Logger    *zap.Logger
	Sink      domain.PresenceSink
	Status    func() domain.ServerStatus
	Now       func() time.Time
}

func NewState(namespace string, logger *zap.Logger) *State {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &State{
		Namespace: namespace,
		Registry:  presence.NewRegistry(),
		Ledger:    delivery.NewLedger(0, 0),
		Logger:    logger.With(zap.String("namespace", namespace)),
		Now:       time.Now,
	}
}

func (s *State) timestamp() string {
	return s.Now().UTC().Format(isoTimestamp)
}

func (s *State) activity(userID, action string, fields ...zap.Field) {
	s.Logger.Info(action, append([]zap.Field{zap.String("user_id", userID)}, fields...)...)
}

// drop logs an event that cannot be handled because its payload is malformed
// or incomplete.
func (s *State) drop(connID, event string, data json.RawMessage, reason string) {
	s.Logger.Warn("event dropped",
		zap.String("conn_id", connID),
		zap.String("event", event),
		zap.String("reason", reason),
		zap.ByteString("payload", data))
}

func (s *State) offer(identity, role string, online bool) {
	if s.Sink == nil {
		return
	}

	change := domain.PresenceChange{
		Namespace: s.Namespace,
		Identity:  identity,
		Role:      role,
		Online:    online,
	}

	if !s.Sink.Offer(change) {
		s.Logger.Warn("presence change dropped",
			zap.String("user_id", identity),
			zap.Bool("online", online))
	}
}

func (s *State) presenceBroadcast() Effect {
	snapshot := s.Registry.Snapshot()

	s.Logger.Debug("BROADCAST_ONLINE_USERS",
		zap.Int("total_online", len(snapshot.Users)),
		zap.Strings("users", snapshot.Users))

	return Broadcast(EventOnlineUsersUpdate, snapshot)
}
