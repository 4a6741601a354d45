// Package cache stores assembled profiles in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/duynhne/portfolio-service/config"
	"github.com/duynhne/portfolio-service/internal/core/domain"
)

const profileKeyPrefix = "profile:"

// ProfileCache wraps the Redis client
type ProfileCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProfileCache connects to Redis and verifies the connection
func NewProfileCache(ctx context.Context, cfg config.CacheConfig) (*ProfileCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &ProfileCache{client: client, ttl: cfg.TTL}, nil
}

// profileKey generates the cache key for a user's profile
func profileKey(userID string) string {
	return profileKeyPrefix + userID
}

// Get returns the cached profile. A miss is reported as found=false with no error.
func (c *ProfileCache) Get(ctx context.Context, userID string) (*domain.Profile, bool, error) {
	data, err := c.client.Get(ctx, profileKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached profile: %w", err)
	}

	var profile domain.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, false, fmt.Errorf("decode cached profile: %w", err)
	}
	return &profile, true, nil
}

// Set stores a profile with the configured TTL
func (c *ProfileCache) Set(ctx context.Context, userID string, profile *domain.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := c.client.Set(ctx, profileKey(userID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set cached profile: %w", err)
	}
	return nil
}

// Invalidate drops the cached profile of a user
func (c *ProfileCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, profileKey(userID)).Err(); err != nil {
		return fmt.Errorf("invalidate cached profile: %w", err)
	}
	return nil
}

// Ping checks if Redis is reachable
func (c *ProfileCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *ProfileCache) Close() error {
	return c.client.Close()
}
