package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/thegera4/cool-morning-tables-sub000/internal/config"
	"github.com/thegera4/cool-morning-tables-sub000/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	processedKeyPrefix  = "processed:"
	locationsCatalogKey = "catalog:locations"
	extrasCatalogKey    = "catalog:extras"
)

var errNilClient = errors.New("redis client is nil")

// NewRedisClient builds a client from configuration.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func Ping(ctx context.Context, client *redis.Client) error {
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}

type RedisIdempotencyStore struct {
	client *redis.Client
}

func NewRedisIdempotencyStore(client *redis.Client) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client}
}

func (r *RedisIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if r.client == nil {
		return false, errNilClient
	}
	first, err := r.client.SetNX(ctx, processedKeyPrefix+key, time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark %s processed: %w", key, err)
	}
	return first, nil
}

func (r *RedisIdempotencyStore) Forget(ctx context.Context, key string) error {
	if r.client == nil {
		return errNilClient
	}
	if err := r.client.Del(ctx, processedKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to forget %s: %w", key, err)
	}
	return nil
}

// RedisCatalogCache keeps the public catalog listings as JSON blobs.
type RedisCatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCatalogCache(client *redis.Client, ttl time.Duration) *RedisCatalogCache {
	return &RedisCatalogCache{client: client, ttl: ttl}
}

func (r *RedisCatalogCache) GetLocations(ctx context.Context) ([]*models.Location, bool, error) {
	var out []*models.Location
	ok, err := r.get(ctx, locationsCatalogKey, &out)
	return out, ok, err
}

func (r *RedisCatalogCache) SetLocations(ctx context.Context, locations []*models.Location) error {
	return r.set(ctx, locationsCatalogKey, locations)
}

func (r *RedisCatalogCache) GetExtras(ctx context.Context) ([]*models.Extra, bool, error) {
	var out []*models.Extra
	ok, err := r.get(ctx, extrasCatalogKey, &out)
	return out, ok, err
}

func (r *RedisCatalogCache) SetExtras(ctx context.Context, extras []*models.Extra) error {
	return r.set(ctx, extrasCatalogKey, extras)
}

func (r *RedisCatalogCache) Invalidate(ctx context.Context) error {
	if r.client == nil {
		return errNilClient
	}
	if err := r.client.Del(ctx, locationsCatalogKey, extrasCatalogKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate catalog cache: %w", err)
	}
	return nil
}

func (r *RedisCatalogCache) get(ctx context.Context, key string, dest any) (bool, error) {
	if r.client == nil {
		return false, errNilClient
	}
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get %s from redis: %w", key, err)
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (r *RedisCatalogCache) set(ctx context.Context, key string, value any) error {
	if r.client == nil {
		return errNilClient
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s in redis: %w", key, err)
	}
	return nil
}
