package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lam0glia/marketplace-relay/domain"
	"github.com/lam0glia/marketplace-relay/internal"
)

const (
	DefaultPresenceQueueSize = 1024
	writeTimeout             = 2 * time.Second
)

type presenceKey struct {
	namespace string
	identity  string
}

// presenceMirror copies presence changes to the presence store off the event
// stream and keeps the TTL of online identities alive.
type presenceMirror struct {
	changes        chan domain.PresenceChange
	updatePresence domain.UpdatePresenceUseCase
	presenceWriter domain.PresenceWriter
	refreshEvery   time.Duration
	online         map[presenceKey]struct{}
	logger         *zap.Logger
	done           chan struct{}
}

// Offer queues change and never blocks. It returns false when the queue is full.
func (w *presenceMirror) Offer(change domain.PresenceChange) bool {
	select {
	case w.changes <- change:
		return true
	default:
		return false
	}
}

func (w *presenceMirror) Run(ctx context.Context) {
	defer func() {
		internal.LogGoroutineClosed(w.logger, "PresenceMirror.Run")
		close(w.done)
	}()

	ticker := time.NewTicker(w.refreshEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case change := <-w.changes:
			w.apply(ctx, change)
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *presenceMirror) Done() <-chan struct{} {
	return w.done
}

func (w *presenceMirror) apply(ctx context.Context, change domain.PresenceChange) {
	key := presenceKey{namespace: change.Namespace, identity: change.Identity}
	if change.Online {
		w.online[key] = struct{}{}
	} else {
		delete(w.online, key)
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := w.updatePresence.Execute(ctx, change); err != nil {
		w.logger.Error("failed to mirror presence",
			zap.String("namespace", change.Namespace),
			zap.String("user_id", change.Identity),
			zap.Error(err))
	}
}

func (w *presenceMirror) refresh(ctx context.Context) {
	for key := range w.online {
		rctx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := w.presenceWriter.Refresh(rctx, key.namespace, key.identity)
		cancel()

		if err != nil {
			w.logger.Warn("failed to refresh presence",
				zap.String("namespace", key.namespace),
				zap.String("user_id", key.identity),
				zap.Error(err))
		}
	}
}

func NewPresenceMirror(
	updatePresence domain.UpdatePresenceUseCase,
	presenceWriter domain.PresenceWriter,
	ttl time.Duration,
	queueSize int,
	logger *zap.Logger,
) *presenceMirror {
	if queueSize <= 0 {
		queueSize = DefaultPresenceQueueSize
	}

	refreshEvery := ttl / 3
	if refreshEvery <= 0 {
		refreshEvery = 30 * time.Second
	}

	return &presenceMirror{
		changes:        make(chan domain.PresenceChange, queueSize),
		updatePresence: updatePresence,
		presenceWriter: presenceWriter,
		refreshEvery:   refreshEvery,
		online:         make(map[presenceKey]struct{}),
		logger:         logger,
		done:           make(chan struct{}),
	}
}
