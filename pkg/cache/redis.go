package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type redisCache struct {
	client *redis.Client
}

// NewRedis creates a Redis-backed cache from an already connected client
func NewRedis(client *redis.Client) Cache {
	return &redisCache{client: client}
}

func (c *redisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		return "", fmt.Errorf("cache get %s: %w", key, err)
	}
	return val, nil
}

func (c *redisCache) Set(ctx context.Context, key, value string) error {
	if err := c.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (c *redisCache) Del(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cache del %s: %w", key, err)
	}
	return nil
}

func (c *redisCache) GetAndUpdate(ctx context.Context, key string, compute ComputeFn) (string, error) {
	val, err := c.Get(ctx, key)
	if err == nil {
		return val, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		return "", err
	}

	computed, err := compute(ctx)
	if err != nil {
		return "", fmt.Errorf("cache compute %s: %w", key, err)
	}
	if err := c.Set(ctx, key, computed); err != nil {
		return "", err
	}
	return computed, nil
}

func (c *redisCache) HGet(ctx context.Context, key, field string) (string, error) {
	val, err := c.client.HGet(ctx, key, field).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		return "", fmt.Errorf("cache hget %s %s: %w", key, field, err)
	}
	return val, nil
}

func (c *redisCache) HSet(ctx context.Context, key, field, value string) error {
	if err := c.client.HSet(ctx, key, field, value).Err(); err != nil {
		return fmt.Errorf("cache hset %s %s: %w", key, field, err)
	}
	return nil
}

func (c *redisCache) HDel(ctx context.Context, key, field string) error {
	if err := c.client.HDel(ctx, key, field).Err(); err != nil {
		return fmt.Errorf("cache hdel %s %s: %w", key, field, err)
	}
	return nil
}

func (c *redisCache) HGetAndUpdate(ctx context.Context, key, field string, compute ComputeFn, forceReload bool) (string, error) {
	if !forceReload {
		val, err := c.HGet(ctx, key, field)
		if err == nil {
			return val, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			return "", err
		}
	}

	computed, err := compute(ctx)
	if err != nil {
		return "", fmt.Errorf("cache compute %s %s: %w", key, field, err)
	}
	if err := c.HSet(ctx, key, field, computed); err != nil {
		return "", err
	}
	return computed, nil
}
