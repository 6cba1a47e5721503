package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// RedisStatsStore keeps marketplace activity counters in Redis. The
// counters are a disposable read model fed by domain events; the ledger
// tables remain the source of truth.
type RedisStatsStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStatsStore creates a Redis-backed stats store
func NewRedisStatsStore(cfg RedisConfig) (*RedisStatsStore, error) {
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

	return &RedisStatsStore{
		client:    client,
		keyPrefix: "marketplace:stats:",
	}, nil
}

// NewRedisStatsStoreWithClient creates a store sharing an existing client
func NewRedisStatsStoreWithClient(client *redis.Client, keyPrefix string) *RedisStatsStore {
	if keyPrefix == "" {
		keyPrefix = "marketplace:stats:"
	}
	return &RedisStatsStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Increment adds one to a named counter
func (s *RedisStatsStore) Increment(ctx context.Context, counter string) error {
	if err := s.client.Incr(ctx, s.keyPrefix+counter).Err(); err != nil {
		return fmt.Errorf("failed to increment counter %s: %w", counter, err)
	}
	return nil
}

// AddAmount adds a decimal amount to a named counter
func (s *RedisStatsStore) AddAmount(ctx context.Context, counter string, amount decimal.Decimal) error {
	value, _ := amount.Float64()
	if err := s.client.IncrByFloat(ctx, s.keyPrefix+counter, value).Err(); err != nil {
		return fmt.Errorf("failed to add to counter %s: %w", counter, err)
	}
	return nil
}

// GetCounter reads a named counter; missing counters read as zero
func (s *RedisStatsStore) GetCounter(ctx context.Context, counter string) (string, error) {
	value, err := s.client.Get(ctx, s.keyPrefix+counter).Result()
	if err == redis.Nil {
		return "0", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read counter %s: %w", counter, err)
	}
	return value, nil
}

// Close closes the Redis client
func (s *RedisStatsStore) Close() error {
	return s.client.Close()
}
