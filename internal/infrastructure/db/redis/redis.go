// Package redis holds the Redis connection and the rate limit counters
// stored in it.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultTimeout  = 3 * time.Second
	defaultPoolSize = 10
)

// Config holds the connection and pool settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
	// Timeout bounds dialing, each command and the startup ping.
	Timeout time.Duration
}

func (c Config) options() *redis.Options {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	pool := c.PoolSize
	if pool <= 0 {
		pool = defaultPoolSize
	}
	return &redis.Options{
		Addr:         c.Addr,
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     pool,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}
}

// Connect opens a client for the limiter and checks it answers a ping.
// The client is closed again when the ping fails.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	opts := cfg.options()
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// Pinger reports Redis reachability for readiness checks.
type Pinger struct {
	client redis.UniversalClient
}

func NewPinger(client redis.UniversalClient) *Pinger {
	return &Pinger{client: client}
}

func (p *Pinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
