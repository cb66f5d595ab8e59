package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"fitquest/internal/logger"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window limiter over Redis INCR/EXPIRE. A nil
// client or a Redis error lets requests through.
type RateLimiter struct {
	client *redis.Client
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// ConnectRedis returns a client for addr, or nil when addr is empty or the
// server does not answer.
func ConnectRedis(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, rate limiting disabled", "addr", addr, "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// PerIP limits requests per client IP.
// key format: rl:<window_seconds>:<ip>
func (l *RateLimiter) PerIP(maxRequests int, window time.Duration) gin.HandlerFunc {
	return l.limit("", maxRequests, window, func(c *gin.Context) (string, bool) {
		return c.ClientIP(), true
	})
}

// PerUser limits requests per authenticated user under scope. It must run
// after JWT.
// key format: rl:<scope>:<window_seconds>:<user_id>
func (l *RateLimiter) PerUser(scope string, maxRequests int, window time.Duration) gin.HandlerFunc {
	return l.limit(scope, maxRequests, window, func(c *gin.Context) (string, bool) {
		v, ok := c.Get("user_id")
		if !ok {
			return "", false
		}
		uid, ok := v.(int64)
		if !ok {
			return "", false
		}
		return strconv.FormatInt(uid, 10), true
	})
}

func (l *RateLimiter) limit(scope string, maxRequests int, window time.Duration, ident func(*gin.Context) (string, bool)) gin.HandlerFunc {
	prefix := "rl:"
	if scope != "" {
		prefix += scope + ":"
	}
	prefix += strconv.FormatInt(int64(window.Seconds()), 10) + ":"

	return func(c *gin.Context) {
		if l == nil || l.client == nil {
			c.Next()
			return
		}

		id, ok := ident(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		key := prefix + id
		ctx := c.Request.Context()

		val, err := l.client.Incr(ctx, key).Result()
		if err != nil {
			c.Header("X-RateLimit-Error", "redis-error")
			c.Next()
			return
		}
		if val == 1 {
			l.client.Expire(ctx, key, window)
		}

		endpoint := c.FullPath()
		if scope != "" {
			endpoint = scope + ":" + endpoint
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(maxRequests)-val), 10))

		if val > int64(maxRequests) {
			RLBlocked.WithLabelValues(endpoint).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": int(window.Seconds()),
			})
			return
		}

		RLRequests.WithLabelValues(endpoint).Inc()
		c.Next()
	}
}
