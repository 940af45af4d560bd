package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Token bucket in Lua for atomicity. Bucket state is
// {last_refill_time, current_tokens} in a Redis hash.
const tokenBucketScript = `
	local key = KEYS[1]
	local rate = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local requested = tonumber(ARGV[4])

	local bucket = redis.call('HMGET', key, 'last_refill', 'tokens')
	local last_refill = tonumber(bucket[1]) or now
	local tokens = tonumber(bucket[2]) or capacity

	local elapsed = math.max(0, now - last_refill)
	tokens = math.min(capacity, tokens + elapsed * rate)

	if tokens >= requested then
		tokens = tokens - requested
		redis.call('HMSET', key, 'last_refill', now, 'tokens', tokens)
		redis.call('EXPIRE', key, 60)
		return 1
	else
		redis.call('HMSET', key, 'last_refill', now, 'tokens', tokens)
		redis.call('EXPIRE', key, 60)
		return 0
	end
`

// RateLimiter limits requests per client IP with a Redis token bucket.
// Applied to the auth endpoints, where credential stuffing would
// otherwise be free. Fails open: a Redis outage must not lock everyone
// out.
func RateLimiter(client *redis.Client, rps float64, burst int, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || rps <= 0 {
			c.Next()
			return
		}

		key := fmt.Sprintf("ratelimit:tb:%s:%s:%s",
			c.Request.Method, c.Request.URL.Path, c.ClientIP())
		now := float64(time.Now().UnixMilli()) / 1000

		allowed, err := client.Eval(c.Request.Context(), tokenBucketScript,
			[]string{key}, rps, burst, now, 1).Int64()
		if err != nil {
			log.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		if allowed == 0 {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limit_exceeded",
				"message": "too many requests, slow down",
			})
			return
		}
		c.Next()
	}
}
