package notify

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher keeps the last payload of each topic under the topic key and
// publishes it on the channel of the same name
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	pipe := p.client.TxPipeline()
	pipe.Set(ctx, topic, payload, 0)
	pipe.Publish(ctx, topic, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis publish %s: %w", topic, err)
	}
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
