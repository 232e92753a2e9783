package middlewares

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"coursegen/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Counter is the subset of redis.Cmdable the limiter needs.
type Counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

// RateLimiter is a fixed-window limiter keyed by user (or client IP before
// authentication). Generation endpoints are expensive, so each user gets a
// small budget per window.
type RateLimiter struct {
	counter Counter
	log     *logger.Logger
}

func NewRateLimiter(counter Counter, log *logger.Logger) *RateLimiter {
	if log == nil {
		log = logger.Nop()
	}
	return &RateLimiter{counter: counter, log: log}
}

// Limit allows limit requests per window for the bucket name. A nil counter
// or limit <= 0 disables limiting; Redis errors let the request through.
func (rl *RateLimiter) Limit(name string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl == nil || rl.counter == nil || limit <= 0 {
			c.Next()
			return
		}

		subject := c.GetString(UserIDKey)
		if subject == "" {
			subject = "ip:" + c.ClientIP()
		}
		key := fmt.Sprintf("rate_limit:%s:%s", name, subject)

		count, err := rl.counter.Incr(c.Request.Context(), key).Result()
		if err != nil {
			rl.log.Warn("rate limiter unavailable", "key", key, "error", err)
			c.Next()
			return
		}
		if count == 1 {
			if err := rl.counter.Expire(c.Request.Context(), key, window).Err(); err != nil {
				rl.log.Warn("failed to set rate limit window", "key", key, "error", err)
			}
		}

		if count > int64(limit) {
			ttl, err := rl.counter.TTL(c.Request.Context(), key).Result()
			if err == nil && ttl == -1 {
				// the first Expire was lost; without a TTL the key would block forever
				if err := rl.counter.Expire(c.Request.Context(), key, window).Err(); err != nil {
					rl.log.Warn("failed to set rate limit window", "key", key, "error", err)
				}
			}
			if err != nil || ttl < 0 {
				ttl = window
			}
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(ttl.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests",
				"retry_after": int(math.Ceil(ttl.Seconds())),
			})
			return
		}
		c.Next()
	}
}
