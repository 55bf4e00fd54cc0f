package mailqueue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher appends messages to a Redis list used as a FIFO queue;
// the relay pops from the head. The client keeps its own connection pool.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Backend() string { return "redis" }

func (p *RedisPublisher) Publish(ctx context.Context, queue string, body []byte) error {
	if err := p.client.RPush(ctx, queue, body).Err(); err != nil {
		return fmt.Errorf("redis rpush %s: %w", queue, err)
	}
	return nil
}

func (p *RedisPublisher) Close() error { return p.client.Close() }
