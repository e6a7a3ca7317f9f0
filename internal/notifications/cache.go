package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/velamart/velamart-backend/pkg/logger"
	"github.com/velamart/velamart-backend/pkg/redis"
)

// listingCache keeps the hot first-page unread listing per recipient in
// redis. A nil client disables caching entirely, which tests rely on.
type listingCache struct {
	client *redis.Client
	ttl    time.Duration
	logg   *logger.Logger
}

func newListingCache(client *redis.Client, ttl time.Duration, logg *logger.Logger) *listingCache {
	return &listingCache{client: client, ttl: ttl, logg: logg}
}

func (c *listingCache) get(ctx context.Context, recipientID uuid.UUID) (*NotificationListResult, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, c.client.NotificationsKey(recipientID.String()))
	if err != nil {
		if !errors.Is(err, redis.Nil) && c.logg != nil {
			c.logg.Warn(ctx, "notifications cache read failed")
		}
		return nil, false
	}
	var result NotificationListResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, false
	}
	return &result, true
}

func (c *listingCache) put(ctx context.Context, recipientID uuid.UUID, result *NotificationListResult) {
	if c == nil || c.client == nil || result == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.client.NotificationsKey(recipientID.String()), raw, c.ttl); err != nil && c.logg != nil {
		c.logg.Warn(ctx, "notifications cache write failed")
	}
}

// invalidate drops the recipient's cached listing. Every notification write
// goes through here so readers never see a stale unread page past the TTL.
func (c *listingCache) invalidate(ctx context.Context, recipientID uuid.UUID) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, c.client.NotificationsKey(recipientID.String())); err != nil && c.logg != nil {
		c.logg.Warn(ctx, "notifications cache invalidation failed")
	}
}
