package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/config"
)

const webhookDedupPrefix = "webhook:dedup:"

// RedisDedupStore implements IdempotencyStore on Redis, for deployments where
// webhook deliveries can land on any instance behind a load balancer.
type RedisDedupStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisDedupStore creates a Redis-backed dedup store and verifies the
// connection before returning it
func NewRedisDedupStore(cfg *config.RedisConfig) (*RedisDedupStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisDedupStore{
		client:    client,
		keyPrefix: webhookDedupPrefix,
	}, nil
}

// NewRedisDedupStoreWithClient wraps an existing Redis client. Useful for
// tests and for sharing one client across components.
func NewRedisDedupStoreWithClient(client *redis.Client, keyPrefix string) *RedisDedupStore {
	if keyPrefix == "" {
		keyPrefix = webhookDedupPrefix
	}
	return &RedisDedupStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// MarkProcessed records a delivery id with a TTL. SETNX makes the check and
// the write one atomic operation, so concurrent duplicate deliveries resolve
// to exactly one true result.
func (s *RedisDedupStore) MarkProcessed(ctx context.Context, deliveryID string, ttl time.Duration) (bool, error) {
	key := s.keyPrefix + deliveryID

	result, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark delivery as processed: %w", err)
	}
	return result, nil
}

// IsProcessed checks whether a delivery id has been seen within its TTL
func (s *RedisDedupStore) IsProcessed(ctx context.Context, deliveryID string) (bool, error) {
	key := s.keyPrefix + deliveryID

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check delivery: %w", err)
	}
	return exists > 0, nil
}

// Close closes the Redis client
func (s *RedisDedupStore) Close() error {
	return s.client.Close()
}

var _ shared.IdempotencyStore = (*RedisDedupStore)(nil)
