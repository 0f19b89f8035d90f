package notify

import (
	"context"
	"fmt"
	"time"

	"wagerly/events"

	"github.com/redis/go-redis/v9"
)

// RedisNotifier broadcasts every event on a Redis pub/sub channel
type RedisNotifier struct {
	client  *redis.Client
	channel string
	now     func() time.Time
}

// NewRedisNotifier connects to url and verifies the server answers
func NewRedisNotifier(ctx context.Context, url, channel string) (*RedisNotifier, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisNotifier{client: client, channel: channel, now: time.Now}, nil
}

func (n *RedisNotifier) Name() string { return "redis" }

func (n *RedisNotifier) Notify(ctx context.Context, event events.Event) error {
	payload, err := encode(event, n.now())
	if err != nil {
		return err
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", n.channel, err)
	}
	return nil
}

// Close releases the connection pool
func (n *RedisNotifier) Close() error {
	return n.client.Close()
}
