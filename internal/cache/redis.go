package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/tradertony/snipe-agent/internal/constants"
	"github.com/tradertony/snipe-agent/internal/models"
)

// RedisCache keeps the rolling recent-alerts list and fans alerts out over
// Pub/Sub for live subscribers.
type RedisCache struct {
	client *redis.Client
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// AddAlert pushes an alert to the head of the recent list, trimmed to the
// retention cap.
func (r *RedisCache) AddAlert(ctx context.Context, alert *models.Alert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.LPush(ctx, constants.RedisKeyRecentAlerts, data)
	pipe.LTrim(ctx, constants.RedisKeyRecentAlerts, 0, constants.MaxRecentAlerts-1)
	_, err = pipe.Exec(ctx)
	return err
}

// GetRecentAlerts returns up to limit alerts, newest first.
func (r *RedisCache) GetRecentAlerts(ctx context.Context, limit int64) ([]*models.Alert, error) {
	if limit <= 0 || limit > constants.MaxRecentAlerts {
		limit = constants.MaxRecentAlerts
	}

	raw, err := r.client.LRange(ctx, constants.RedisKeyRecentAlerts, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read recent alerts: %w", err)
	}

	alerts := make([]*models.Alert, 0, len(raw))
	for _, item := range raw {
		var alert models.Alert
		if err := json.Unmarshal([]byte(item), &alert); err != nil {
			continue
		}
		alerts = append(alerts, &alert)
	}
	return alerts, nil
}

// PublishAlert publishes an alert to the live channel.
func (r *RedisCache) PublishAlert(ctx context.Context, alert *models.Alert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}
	return r.client.Publish(ctx, constants.PubSubChannelAlerts, data).Err()
}

// PublishDiscovery publishes a pool discovery event to the live channel.
func (r *RedisCache) PublishDiscovery(ctx context.Context, ev *models.PoolDiscovery) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal discovery event: %w", err)
	}
	return r.client.Publish(ctx, constants.PubSubChannelDiscovery, data).Err()
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
