package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domain "boards-backend/internal/domain/user"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client, mr
}

func TestRedisUserCache_SetAndGet(t *testing.T) {
	client, _ := setupTestRedis(t)
	c := NewRedisUserCache(client, 5*time.Minute, zaptest.NewLogger(t))

	u := &domain.User{
		ID:           7,
		Username:     "sam",
		Email:        "sam@example.com",
		TokenVersion: 3,
	}
	require.NoError(t, c.Set(context.Background(), u))

	data, err := client.Get(context.Background(), "user:7").Bytes()
	require.NoError(t, err)
	var stored domain.User
	require.NoError(t, json.Unmarshal(data, &stored))
	assert.Equal(t, int64(3), stored.TokenVersion)

	got, err := c.Get(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "sam", got.Username)
	assert.Equal(t, int64(3), got.TokenVersion)
}

func TestRedisUserCache_SetNil(t *testing.T) {
	client, _ := setupTestRedis(t)
	c := NewRedisUserCache(client, 5*time.Minute, zaptest.NewLogger(t))

	err := c.Set(context.Background(), nil)
	assert.Error(t, err)
}

func TestRedisUserCache_GetMiss(t *testing.T) {
	client, _ := setupTestRedis(t)
	c := NewRedisUserCache(client, 5*time.Minute, zaptest.NewLogger(t))

	got, err := c.Get(context.Background(), 404)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisUserCache_TTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	c := NewRedisUserCache(client, time.Minute, zaptest.NewLogger(t))

	require.NoError(t, c.Set(context.Background(), &domain.User{ID: 1, Username: "sam"}))

	mr.FastForward(2 * time.Minute)

	got, err := c.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisUserCache_Delete(t *testing.T) {
	client, _ := setupTestRedis(t)
	c := NewRedisUserCache(client, time.Minute, zaptest.NewLogger(t))

	require.NoError(t, c.Set(context.Background(), &domain.User{ID: 1, Username: "sam"}))
	require.NoError(t, c.Delete(context.Background(), 1))

	got, err := c.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, got)
}
