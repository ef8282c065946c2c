// Package redis provides a Redis backed cache repository
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/alchemorsel/nutrition/internal/ports/outbound"
)

// Config holds Redis connection settings
type Config struct {
	Addrs        []string
	Password     string
	Database     int
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	KeyPrefix    string
}

// NewClient creates a universal client; several addresses select cluster mode
func NewClient(cfg Config) redis.UniversalClient {
	addrs := cfg.Addrs
	if len(addrs) == 0 {
		addrs = []string{"localhost:6379"}
	}
	return redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        addrs,
		Password:     cfg.Password,
		DB:           cfg.Database,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
}

// CacheRepository implements outbound.CacheRepository on Redis
type CacheRepository struct {
	client redis.UniversalClient
	prefix string
	logger *zap.Logger
}

var _ outbound.CacheRepository = (*CacheRepository)(nil)

// NewCacheRepository creates a new Redis cache repository
func NewCacheRepository(client redis.UniversalClient, prefix string, logger *zap.Logger) *CacheRepository {
	return &CacheRepository{
		client: client,
		prefix: prefix,
		logger: logger.Named("redis-cache"),
	}
}

func (r *CacheRepository) key(k string) string {
	return r.prefix + k
}

// Get retrieves a value from cache
func (r *CacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, outbound.ErrCacheMiss
	}
	if err != nil {
		r.logger.Debug("Cache get failed", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}

// Set stores a value in cache with TTL
func (r *CacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		r.logger.Warn("Cache set failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes a value from cache
func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		r.logger.Warn("Cache delete failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Exists checks if a key exists in cache
func (r *CacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}
