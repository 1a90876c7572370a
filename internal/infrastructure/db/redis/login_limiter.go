package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginLimiter caps login attempts per key in a fixed window.
// A successful login resets the window.
type LoginLimiter struct {
	client   *redis.Client
	attempts int64
	window   time.Duration
}

// NewLoginLimiter returns a limiter allowing attempts logins per window.
func NewLoginLimiter(client *redis.Client, attempts int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{client: client, attempts: int64(attempts), window: window}
}

// Allow counts one attempt and reports whether it is within the limit.
func (l *LoginLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.attempts <= 0 || l.window <= 0 {
		return true, nil
	}

	redisKey := l.key(key)
	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("login limiter incr: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, fmt.Errorf("login limiter expire: %w", err)
		}
	}
	return count <= l.attempts, nil
}

// Reset clears the attempt counter for key.
func (l *LoginLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, l.key(key)).Err()
}

func (l *LoginLimiter) key(key string) string {
	return "login:" + strings.ReplaceAll(key, ":", "_")
}
