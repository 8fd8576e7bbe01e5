package webhook

//go:generate mockgen -source=publisher.go -destination=mocks/mock_publisher.go -package=mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/shenikar/fire_risk_grid/internal/models"
)

const (
	webhookQueueKey = "fire_risk_events"
)

// SnapshotEvent - уведомление о новом снимке риска
type SnapshotEvent struct {
	SnapshotID  uuid.UUID             `json:"snapshot_id"`
	GeneratedAt time.Time             `json:"generated_at"`
	PointCount  int                   `json:"point_count"`
	Threshold   float64               `json:"threshold"`
	HighRisk    []models.RiskEstimate `json:"high_risk,omitempty"` // Точки с вероятностью не ниже порога
}

// NewSnapshotEvent собирает событие по снимку и порогу тревоги
func NewSnapshotEvent(snapshot *models.Snapshot, threshold float64) SnapshotEvent {
	return SnapshotEvent{
		SnapshotID:  snapshot.ID,
		GeneratedAt: snapshot.GeneratedAt,
		PointCount:  len(snapshot.Estimates),
		Threshold:   threshold,
		HighRisk:    snapshot.Above(threshold),
	}
}

// WebhookPublisher - интерфейс для публикации вебхуков
type WebhookPublisher interface {
	Publish(ctx context.Context, event SnapshotEvent) error
}

// RedisWebhookPublisher - реализация WebhookPublisher, использующая Redis
type RedisWebhookPublisher struct {
	redisClient *redis.Client
}

// NewRedisWebhookPublisher создает новый RedisWebhookPublisher
func NewRedisWebhookPublisher(client *redis.Client) *RedisWebhookPublisher {
	return &RedisWebhookPublisher{
		redisClient: client,
	}
}

// Publish публикует событие вебхука в очередь Redis
func (p *RedisWebhookPublisher) Publish(ctx context.Context, event SnapshotEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook event: %w", err)
	}

	if err := p.redisClient.LPush(ctx, webhookQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish webhook event to Redis: %w", err)
	}
	return nil
}
