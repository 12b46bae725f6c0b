// internal/cache/redisstore.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mentionscope/internal/common/config"
	"mentionscope/internal/common/logger"
	"mentionscope/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists the snapshot as a single JSON value under a fixed
// key with the configured TTL.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	logger logger.Logger
}

// NewRedisStore connects a Redis-backed store.
func NewRedisStore(cfg config.RedisConfig, cacheCfg config.CacheConfig, log logger.Logger) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})
	return newRedisStoreWithClient(rdb, cacheCfg, log), nil
}

func newRedisStoreWithClient(client *redis.Client, cacheCfg config.CacheConfig, log logger.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		key:    cacheCfg.Key,
		ttl:    time.Duration(cacheCfg.TTLHours) * time.Hour,
		logger: log,
	}
}

// Ping tests the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// Load reads the snapshot, returning ErrNotFound on a missing key.
func (s *RedisStore) Load(ctx context.Context) (*models.CacheDocument, error) {
	data, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read snapshot key %s: %w", s.key, err)
	}

	var doc models.CacheDocument
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot key %s: %w", s.key, err)
	}
	return &doc, nil
}

// Save overwrites the snapshot key, refreshing its TTL.
func (s *RedisStore) Save(ctx context.Context, doc *models.CacheDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write snapshot key %s: %w", s.key, err)
	}
	return nil
}
