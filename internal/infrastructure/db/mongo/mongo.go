package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultRetries    = 5
	defaultRetryDelay = 2 * time.Second
)

// Config captures the settings required to establish a MongoDB connection.
type Config struct {
	URI        string
	Database   string
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database. Failed attempts are
// retried with a fixed delay until cfg.Retries is exhausted or ctx is done.
func Connect(ctx context.Context, cfg Config, log zerolog.Logger) (*mongo.Client, *mongo.Database, error) {
	retries := cfg.Retries
	if retries <= 0 {
		retries = defaultRetries
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		client, err := connectOnce(ctx, cfg)
		if err == nil {
			log.Info().Str("database", cfg.Database).Int("attempt", attempt).Msg("connected to mongodb")
			return client, client.Database(cfg.Database), nil
		}
		lastErr = err
		log.Warn().Err(err).Int("attempt", attempt).Int("max_attempts", retries).Msg("mongodb connection failed")

		if attempt == retries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, nil, fmt.Errorf("mongo connect after %d attempts: %w", retries, lastErr)
}

func connectOnce(ctx context.Context, cfg Config) (*mongo.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// Pinger reports database reachability for readiness checks.
type Pinger struct {
	client *mongo.Client
}

func NewPinger(client *mongo.Client) *Pinger {
	return &Pinger{client: client}
}

func (p *Pinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx, nil)
}
