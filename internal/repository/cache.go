package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shenikar/fire_risk_grid/internal/models"
	"github.com/shenikar/fire_risk_grid/internal/service"
)

const snapshotCacheKey = "snapshot:latest"

type SnapshotCache struct {
	redisClient *redis.Client
	ttl         time.Duration
}

func NewSnapshotCache(redisClient *redis.Client, ttl time.Duration) service.SnapshotCache {
	return &SnapshotCache{
		redisClient: redisClient,
		ttl:         ttl,
	}
}

// GetSnapshot пытается получить текущий снимок из Redis
func (c *SnapshotCache) GetSnapshot(ctx context.Context) (*models.Snapshot, error) {
	val, err := c.redisClient.Get(ctx, snapshotCacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get snapshot from cache: %w", err)
	}

	snapshot := &models.Snapshot{}
	if err := json.Unmarshal(val, snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot from cache: %w", err)
	}
	return snapshot, nil
}

// SetSnapshot сохраняет снимок в Redis
func (c *SnapshotCache) SetSnapshot(ctx context.Context, snapshot *models.Snapshot) error {
	val, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot for cache: %w", err)
	}
	if err := c.redisClient.Set(ctx, snapshotCacheKey, val, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set snapshot in cache: %w", err)
	}
	return nil
}

// InvalidateSnapshot удаляет снимок из Redis кэша
func (c *SnapshotCache) InvalidateSnapshot(ctx context.Context) error {
	if err := c.redisClient.Del(ctx, snapshotCacheKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate snapshot cache: %w", err)
	}
	return nil
}

// NoopCache используется, когда кеш отключен (CACHE_TTL=0)
type NoopCache struct{}

func (NoopCache) GetSnapshot(context.Context) (*models.Snapshot, error) { return nil, nil }

func (NoopCache) SetSnapshot(context.Context, *models.Snapshot) error { return nil }

func (NoopCache) InvalidateSnapshot(context.Context) error { return nil }
