package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/adstudio/api/pkg/response"
)

// RateLimiter keeps fixed-window counters in Redis
type RateLimiter struct {
	redis *redis.Client
	log   *logrus.Logger
}

// NewRateLimiter creates a limiter. With a nil client every request passes.
func NewRateLimiter(redisClient *redis.Client, log *logrus.Logger) *RateLimiter {
	return &RateLimiter{redis: redisClient, log: log}
}

// Limit allows maxRequests per window per user, or per client IP for
// anonymous callers. Redis failures let the request through.
func (rl *RateLimiter) Limit(keyPrefix string, maxRequests int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rl.redis == nil || maxRequests <= 0 {
			return c.Next()
		}

		subject := GetUserID(c)
		if subject == "" {
			subject = "ip:" + c.IP()
		}
		key := fmt.Sprintf("ratelimit:%s:%s", keyPrefix, subject)
		ctx := c.UserContext()

		count, err := rl.redis.Incr(ctx, key).Result()
		if err != nil {
			rl.log.WithError(err).WithField("key", key).Warn("rate limiter unavailable")
			return c.Next()
		}
		if count == 1 {
			rl.expire(ctx, key, window)
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		if count > int64(maxRequests) {
			ttl, _ := rl.redis.TTL(ctx, key).Result()
			if ttl < 0 {
				// the first hit failed to set a window; start one now
				rl.expire(ctx, key, window)
				ttl = window
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(ttl.Seconds())))
			c.Set("X-RateLimit-Remaining", "0")
			return response.RateLimited(c)
		}
		c.Set("X-RateLimit-Remaining", strconv.Itoa(maxRequests-int(count)))

		return c.Next()
	}
}

func (rl *RateLimiter) expire(ctx context.Context, key string, window time.Duration) {
	if err := rl.redis.Expire(ctx, key, window).Err(); err != nil {
		rl.log.WithError(err).WithField("key", key).Warn("failed to set rate limit window")
	}
}

// ScriptLimit limits script generation per minute
func (rl *RateLimiter) ScriptLimit(maxPerMin int) fiber.Handler {
	return rl.Limit("script", maxPerMin, time.Minute)
}

// VideoLimit limits video generation per hour
func (rl *RateLimiter) VideoLimit(maxPerHour int) fiber.Handler {
	return rl.Limit("video", maxPerHour, time.Hour)
}
