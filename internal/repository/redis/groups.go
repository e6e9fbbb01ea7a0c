package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const groupCachePrefix = "group:"

// GroupCache caches group-membership answers from the external directory
// with a short TTL. Caching lives here, in the resolver's store, not in
// the directory service.
type GroupCache struct {
	client *Client
	ttl    time.Duration
}

// NewGroupCache creates a new group membership cache
func NewGroupCache(client *Client, ttl time.Duration) *GroupCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &GroupCache{client: client, ttl: ttl}
}

func groupKey(userID, groupID uuid.UUID) string {
	return fmt.Sprintf("%s%s:%s", groupCachePrefix, groupID, userID)
}

// Get returns (isMember, found). A miss returns found == false.
func (c *GroupCache) Get(ctx context.Context, userID, groupID uuid.UUID) (bool, bool) {
	val, err := c.client.rdb.Get(ctx, groupKey(userID, groupID)).Result()
	if err != nil {
		return false, false
	}
	return val == "1", true
}

// Set caches a membership answer
func (c *GroupCache) Set(ctx context.Context, userID, groupID uuid.UUID, isMember bool) error {
	val := "0"
	if isMember {
		val = "1"
	}
	return c.client.rdb.Set(ctx, groupKey(userID, groupID), val, c.ttl).Err()
}
