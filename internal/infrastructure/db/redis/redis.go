package redis

import (
	"cmp"
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultDialTimeout = 5 * time.Second
	defaultClientName  = "coupon-service"
	// commandTimeout keeps a slow Redis from stalling login and bulk requests.
	commandTimeout = time.Second
)

// Config describes the Redis instance backing the request guards
// (idempotency keys and login throttling).
type Config struct {
	Addr     string
	Password string
	DB       int
	// DialTimeout bounds connecting and the startup PING.
	DialTimeout time.Duration
	ClientName  string
}

// Connect returns a client once the server answers PING.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	dial := cmp.Or(cfg.DialTimeout, defaultDialTimeout)

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ClientName:   cmp.Or(cfg.ClientName, defaultClientName),
		DialTimeout:  dial,
		ReadTimeout:  commandTimeout,
		WriteTimeout: commandTimeout,
	})

	ctx, cancel := context.WithTimeout(ctx, dial)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect guard store %s: %w", cfg.Addr, err)
	}
	return client, nil
}
