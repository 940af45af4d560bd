package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	domain "boards-backend/internal/domain/user"
)

// UserCache caches user records by id. The auth middleware resolves the
// requesting user on every call, which makes this the hottest read in
// the system.
type UserCache interface {
	// Get returns the cached user, or nil on a miss.
	Get(ctx context.Context, id int64) (*domain.User, error)

	// Set stores a user with the configured TTL.
	Set(ctx context.Context, u *domain.User) error

	// Delete removes a user from the cache.
	Delete(ctx context.Context, id int64) error
}

// RedisUserCache implements UserCache on Redis.
type RedisUserCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisUserCache creates a Redis-backed user cache.
func NewRedisUserCache(client *redis.Client, ttl time.Duration, log *zap.Logger) UserCache {
	return &RedisUserCache{client: client, ttl: ttl, log: log}
}

func (c *RedisUserCache) cacheKey(id int64) string {
	return fmt.Sprintf("user:%d", id)
}

// Get retrieves a user from Redis. A miss is (nil, nil).
func (c *RedisUserCache) Get(ctx context.Context, id int64) (*domain.User, error) {
	data, err := c.client.Get(ctx, c.cacheKey(id)).Bytes()
	if err == redis.Nil {
		c.log.Debug("cache miss", zap.Int64("user_id", id))
		return nil, nil
	}
	if err != nil {
		c.log.Error("failed to get from cache", zap.Int64("user_id", id), zap.Error(err))
		return nil, err
	}

	var u domain.User
	if err := json.Unmarshal(data, &u); err != nil {
		c.log.Error("failed to unmarshal cached user", zap.Int64("user_id", id), zap.Error(err))
		return nil, err
	}

	c.log.Debug("cache hit", zap.Int64("user_id", id))
	return &u, nil
}

// Set stores a user in Redis with the TTL.
func (c *RedisUserCache) Set(ctx context.Context, u *domain.User) error {
	if u == nil {
		return fmt.Errorf("cannot cache nil user")
	}

	data, err := json.Marshal(u)
	if err != nil {
		c.log.Error("failed to marshal user for cache", zap.Int64("user_id", u.ID), zap.Error(err))
		return err
	}

	if err := c.client.Set(ctx, c.cacheKey(u.ID), data, c.ttl).Err(); err != nil {
		c.log.Error("failed to set cache", zap.Int64("user_id", u.ID), zap.Error(err))
		return err
	}
	return nil
}

// Delete removes a user from Redis.
func (c *RedisUserCache) Delete(ctx context.Context, id int64) error {
	if err := c.client.Del(ctx, c.cacheKey(id)).Err(); err != nil {
		c.log.Error("failed to delete from cache", zap.Int64("user_id", id), zap.Error(err))
		return err
	}
	return nil
}
