package cache

import (
	"context"
	"fmt"
	"sync"
)

// memoryCache is an in-process Cache used by tests and local development
type memoryCache struct {
	mu     sync.RWMutex
	values map[string]string
	hashes map[string]map[string]string
}

// NewMemory creates an in-memory cache with the same semantics as the
// Redis implementation
func NewMemory() Cache {
	return &memoryCache{
		values: make(map[string]string),
		hashes: make(map[string]map[string]string),
	}
}

func (c *memoryCache) Get(_ context.Context, key string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.values[key]
	if !ok {
		return "", ErrCacheMiss
	}
	return val, nil
}

func (c *memoryCache) Set(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *memoryCache) Del(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	delete(c.hashes, key)
	return nil
}

func (c *memoryCache) GetAndUpdate(ctx context.Context, key string, compute ComputeFn) (string, error) {
	if val, err := c.Get(ctx, key); err == nil {
		return val, nil
	}
	computed, err := compute(ctx)
	if err != nil {
		return "", fmt.Errorf("cache compute %s: %w", key, err)
	}
	return computed, c.Set(ctx, key, computed)
}

func (c *memoryCache) HGet(_ context.Context, key, field string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	hash, ok := c.hashes[key]
	if !ok {
		return "", ErrCacheMiss
	}
	val, ok := hash[field]
	if !ok {
		return "", ErrCacheMiss
	}
	return val, nil
}

func (c *memoryCache) HSet(_ context.Context, key, field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	hash, ok := c.hashes[key]
	if !ok {
		hash = make(map[string]string)
		c.hashes[key] = hash
	}
	hash[field] = value
	return nil
}

func (c *memoryCache) HDel(_ context.Context, key, field string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if hash, ok := c.hashes[key]; ok {
		delete(hash, field)
	}
	return nil
}

func (c *memoryCache) HGetAndUpdate(ctx context.Context, key, field string, compute ComputeFn, forceReload bool) (string, error) {
	if !forceReload {
		if val, err := c.HGet(ctx, key, field); err == nil {
			return val, nil
		}
	}
	computed, err := compute(ctx)
	if err != nil {
		return "", fmt.Errorf("cache compute %s %s: %w", key, field, err)
	}
	return computed, c.HSet(ctx, key, field, computed)
}
