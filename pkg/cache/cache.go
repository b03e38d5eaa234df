// Package cache provides the Redis-backed key/value and hash cache the
// reconciliation flows invalidate after state changes.
package cache

import (
	"context"
	"errors"
	"fmt"
)

// ErrCacheMiss is returned by Get/HGet when the entry is absent
var ErrCacheMiss = errors.New("cache miss")

// ComputeFn produces the JSON-serialized value to store on a cache miss
type ComputeFn func(ctx context.Context) (string, error)

// Cache is the narrow caching contract consumed by the reconciliation
// services. Values are JSON-serialized strings.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Del(ctx context.Context, key string) error
	// GetAndUpdate returns the cached value, computing and storing it on miss
	GetAndUpdate(ctx context.Context, key string, compute ComputeFn) (string, error)
	HGet(ctx context.Context, key, field string) (string, error)
	HSet(ctx context.Context, key, field, value string) error
	HDel(ctx context.Context, key, field string) error
	// HGetAndUpdate returns the cached hash field, computing and storing it
	// on miss or when forceReload is set
	HGetAndUpdate(ctx context.Context, key, field string, compute ComputeFn, forceReload bool) (string, error)
}

// Key builders for the entries the reconciliation flows invalidate.
// All three must be invalidated together after any holdings-affecting
// success; missing one causes stale reads elsewhere.

// NftsKey is the hash of per-(wallet, dao) NFT lists
func NftsKey() string {
	return "nfts"
}

// NftsField addresses one wallet's NFT list for one DAO collection
func NftsField(walletAddress, daoAddress string) string {
	return fmt.Sprintf("%s:%s", walletAddress, daoAddress)
}

// CollectionTiersKey is the hash of per-(dao, tier) collection tier data
func CollectionTiersKey() string {
	return "collection:tiers"
}

// CollectionTierField addresses one tier of one DAO collection
func CollectionTierField(daoAddress, tier string) string {
	return fmt.Sprintf("%s:%s", daoAddress, tier)
}

// CollectionKey is the whole-collection entry for a DAO
func CollectionKey(daoAddress string) string {
	return fmt.Sprintf("collection:%s", daoAddress)
}
