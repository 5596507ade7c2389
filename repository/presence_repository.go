package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultPresenceTTL = 90 * time.Second

// presence mirrors who is online in each namespace so the marketplace
// backend can check a seller without holding a socket.
type presence struct {
	db  redis.Cmdable
	ttl time.Duration
}

func (r *presence) SetOnline(ctx context.Context, namespace, identity, role string) error {
	return r.db.Set(ctx, r.getKey(namespace, identity), role, r.ttl).Err()
}

func (r *presence) SetOffline(ctx context.Context, namespace, identity string) error {
	return r.db.Del(ctx, r.getKey(namespace, identity)).Err()
}

// Refresh extends the TTL of an online identity. A missing key is not an error.
func (r *presence) Refresh(ctx context.Context, namespace, identity string) error {
	return r.db.Expire(ctx, r.getKey(namespace, identity), r.ttl).Err()
}

func (r *presence) getKey(namespace, identity string) string {
	return fmt.Sprintf("presence:%s:%s", namespace, identity)
}

func NewPresence(client redis.Cmdable, ttl time.Duration) *presence {
	if ttl <= 0 {
		ttl = DefaultPresenceTTL
	}

	return &presence{
		db:  client,
		ttl: ttl,
	}
}
