package multihop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/siherrmann/graphreason/model"
)

// DefaultRedisKeyPrefix namespaces the cache keys in a shared Redis.
const DefaultRedisKeyPrefix = "graphreason:multihop:"

// RedisCache is a Cache backed by Redis. Values are stored as JSON and
// expire through the Redis key ttl.
type RedisCache struct {
	client    *redis.Client
	keyPrefix string
}

// RedisOption configures a RedisCache
type RedisOption func(*RedisCache)

// WithKeyPrefix sets a custom prefix for Redis keys
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *RedisCache) {
		r.keyPrefix = prefix
	}
}

// NewRedisCache creates a new Redis backed cache
func NewRedisCache(client *redis.Client, options ...RedisOption) *RedisCache {
	cache := &RedisCache{
		client:    client,
		keyPrefix: DefaultRedisKeyPrefix,
	}
	for _, option := range options {
		option(cache)
	}
	return cache
}

func (r *RedisCache) Get(ctx context.Context, key string) (*model.MultiHopResult, bool, error) {
	data, err := r.client.Get(ctx, r.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	result := &model.MultiHopResult{}
	if err := json.Unmarshal(data, result); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cache entry: %w", err)
	}
	return result, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, result *model.MultiHopResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := r.client.Set(ctx, r.keyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Clear deletes every key with the cache prefix.
func (r *RedisCache) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.keyPrefix+"*", 100).Iterator()
	keys := []string{}
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache keys: %w", err)
	}
	return nil
}
