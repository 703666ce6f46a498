package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// Cache key pattern:
// - unread:{user_id} - unread conversation count, short TTL

// DefaultUnreadTTL bounds staleness when an invalidation is lost.
const DefaultUnreadTTL = 30 * time.Second

// UnreadCache caches per-user unread conversation counts. It is a read-side
// accelerator only: a miss or a Redis failure always falls back to the store,
// and every write touching a user's unread view invalidates that user's entry.
type UnreadCache struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewUnreadCache(client *goredis.Client, ttl time.Duration) *UnreadCache {
	if ttl <= 0 {
		ttl = DefaultUnreadTTL
	}
	return &UnreadCache{client: client, ttl: ttl}
}

// GetCount returns the cached count and whether it was present.
func (c *UnreadCache) GetCount(ctx context.Context, userID uuid.UUID) (int64, bool, error) {
	data, err := c.client.Get(ctx, unreadKey(userID)).Result()
	if err == goredis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	count, err := strconv.ParseInt(data, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return count, true, nil
}

// SetCount stores the count with the configured TTL.
func (c *UnreadCache) SetCount(ctx context.Context, userID uuid.UUID, count int64) error {
	return c.client.Set(ctx, unreadKey(userID), count, c.ttl).Err()
}

// Invalidate drops the cached counts for the given users.
func (c *UnreadCache) Invalidate(ctx context.Context, userIDs ...uuid.UUID) error {
	if len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(userIDs))
	for _, userID := range userIDs {
		keys = append(keys, unreadKey(userID))
	}
	return c.client.Del(ctx, keys...).Err()
}

// Ping checks if Redis is available.
func (c *UnreadCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func unreadKey(userID uuid.UUID) string {
	return fmt.Sprintf("unread:%s", userID.String())
}
