// Package messaging provides the Redis Streams adapters for async side
// effects.
package messaging

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"assist_server/core/domain"
	"assist_server/core/port/out"
)

// Stream names
const (
	StreamDispatch = "assist:dispatch"
	StreamHandoff  = "assist:handoff"
)

// RedisProducer implements out.DispatchProducer using Redis Streams.
type RedisProducer struct {
	client *redis.Client
}

func NewRedisProducer(client *redis.Client) *RedisProducer {
	return &RedisProducer{client: client}
}

var _ out.DispatchProducer = (*RedisProducer)(nil)

// PublishDispatch publishes a committed auto-send for the dispatch worker.
func (p *RedisProducer) PublishDispatch(ctx context.Context, job *out.DispatchJob) error {
	return p.publish(ctx, StreamDispatch, job)
}

// PublishHandoff publishes a cross-module handoff payload.
func (p *RedisProducer) PublishHandoff(ctx context.Context, payload *domain.HandoffPayload) error {
	return p.publish(ctx, StreamHandoff, payload)
}

func (p *RedisProducer) publish(ctx context.Context, stream string, job interface{}) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		ID:     "*",
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", stream, err)
	}
	return nil
}
