package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DialTimeout bounds the connection check done by Open.
const DialTimeout = 5 * time.Second

// Open connects to the Redis instance shared by sessions, the report cache
// and the job queue, and fails when it does not answer a PING.
func Open(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: DialTimeout,
	})

	ctx, cancel := context.WithTimeout(ctx, DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("platform/cache: ping %s: %w", addr, err)
	}
	return client, nil
}

// Probe adapts client to a readiness check.
func Probe(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		if client == nil {
			return fmt.Errorf("platform/cache: redis not configured")
		}
		return client.Ping(ctx).Err()
	}
}
