package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultStoreDomainTTL is how long a shop's public domain is cached
const DefaultStoreDomainTTL = 24 * time.Hour

// CacheStoreDomain stores a shop -> public domain resolution in cache
func (s *Store) CacheStoreDomain(ctx context.Context, shop, storeDomain string, ttl time.Duration) error {
	if err := s.client.Set(ctx, StoreDomainKey(shop), storeDomain, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache store domain: %w", err)
	}
	return nil
}

// GetCachedStoreDomain retrieves a cached store domain ("" on miss)
func (s *Store) GetCachedStoreDomain(ctx context.Context, shop string) (string, error) {
	v, err := s.client.Get(ctx, StoreDomainKey(shop)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil // Cache miss
		}
		return "", fmt.Errorf("failed to get cached store domain: %w", err)
	}
	return v, nil
}

// InvalidateStoreDomain removes a cached store domain
func (s *Store) InvalidateStoreDomain(ctx context.Context, shop string) error {
	if err := s.client.Del(ctx, StoreDomainKey(shop)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}
	return nil
}

// FlushCache removes all cached entries
func (s *Store) FlushCache(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, KeyPrefixCache+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete cache key: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to flush cache: %w", err)
	}
	return nil
}
