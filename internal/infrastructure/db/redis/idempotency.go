package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultIdempotencyTTL = 24 * time.Hour

// IdempotencyGuard remembers request keys for a TTL so that a replayed bulk
// write is rejected instead of executed twice.
// Key format: idem:<scope>:<caller_id>:<key>
type IdempotencyGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyGuard creates a guard wrapping the given Redis client.
func NewIdempotencyGuard(client *redis.Client, ttl time.Duration) *IdempotencyGuard {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyGuard{client: client, ttl: ttl}
}

// Claim atomically records the key. It returns false when the key was
// already claimed within the TTL.
func (g *IdempotencyGuard) Claim(ctx context.Context, scope string, callerID int64, key string) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.key(scope, callerID, key), time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("idempotency claim: %w", err)
	}
	return ok, nil
}

// Release forgets a claimed key so the request can be retried, used when the
// guarded operation failed.
func (g *IdempotencyGuard) Release(ctx context.Context, scope string, callerID int64, key string) error {
	if err := g.client.Del(ctx, g.key(scope, callerID, key)).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

func (g *IdempotencyGuard) key(scope string, callerID int64, key string) string {
	return fmt.Sprintf("idem:%s:%d:%s", scope, callerID, strings.ReplaceAll(key, ":", "_"))
}
