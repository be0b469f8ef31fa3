package queue

import (
	"context"
	"encoding/json"

	"github.com/property360-2/richwell-potal-sub001/internal/config"
	"github.com/property360-2/richwell-potal-sub001/internal/model"

	"github.com/go-redis/redis/v8"
)

// Producer pushes sweep jobs for the worker and notification events for
// the downstream notification system. Events are fire-and-forget from the
// caller's perspective.
type Producer struct {
	client *redis.Client
	cfg    *config.Config
}

func NewProducer(redisClient *RedisClient, cfg *config.Config) *Producer {
	return &Producer{
		client: redisClient.Client(),
		cfg:    cfg,
	}
}

func (p *Producer) EnqueueSweepJob(ctx context.Context, job model.SweepJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	return p.client.LPush(ctx, p.cfg.Redis.SweepQueue, data).Err()
}

// Publish implements the notifier used by the grade services.
func (p *Producer) Publish(ctx context.Context, event model.NotificationEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.client.LPush(ctx, p.cfg.Redis.NotificationQueue, data).Err()
}
