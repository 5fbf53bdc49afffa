// Package cache stores read-model results keyed by logical query and lets
// services drop them after mutations.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ecodeclub/ecache"
	"github.com/ecodeclub/ecache/memory/lru"
	eredis "github.com/ecodeclub/ecache/redis"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrMiss = errors.New("cache miss")

type QueryCache interface {
	GetJSON(ctx context.Context, key string, dst any) error
	SetJSON(ctx context.Context, key string, v any) error
	SetJSONFor(ctx context.Context, key string, v any, ttl time.Duration) error
	// Take reads and removes key. Only one concurrent caller succeeds.
	Take(ctx context.Context, key string, dst any) error
	Invalidate(ctx context.Context, keys ...string) error
}

func PhasesKey(projectID uuid.UUID) string {
	return fmt.Sprintf("phases:%s", projectID)
}

func UnreadCountKey(userID uuid.UUID) string {
	return fmt.Sprintf("notifications:unread:%s", userID)
}

func ReviewSummaryKey(userID uuid.UUID) string {
	return fmt.Sprintf("reviews:summary:%s", userID)
}

func OAuthStateKey(state string) string {
	return "oauth:state:" + state
}

func AuthCodeKey(code string) string {
	return "oauth:code:" + code
}

type ECache struct {
	ec  ecache.Cache
	ttl time.Duration
}

func NewECache(ec ecache.Cache, ttl time.Duration) *ECache {
	return &ECache{
		ec: &ecache.NamespaceCache{
			C:         ec,
			Namespace: "collabdoor:",
		},
		ttl: ttl,
	}
}

// NewMemory is the process-local cache used when no Redis address is
// configured. Expired keys are swept in the background and the least recently
// used key is evicted once capacity is reached.
func NewMemory(capacity int, ttl time.Duration) *ECache {
	return NewECache(lru.NewCache(capacity), ttl)
}

// NewRedis connects to addr and verifies the connection.
func NewRedis(ctx context.Context, addr, password string, db int, ttl time.Duration) (*ECache, *redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return NewECache(eredis.NewCache(client), ttl), client, nil
}

func (c *ECache) GetJSON(ctx context.Context, key string, dst any) error {
	val := c.ec.Get(ctx, key)
	if val.KeyNotFound() {
		return ErrMiss
	}
	if val.Err != nil {
		return fmt.Errorf("failed to read cache: %w", val.Err)
	}
	raw, ok := val.Val.(string)
	if !ok {
		return ErrMiss
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("failed to decode cached value: %w", err)
	}
	return nil
}

func (c *ECache) SetJSON(ctx context.Context, key string, v any) error {
	return c.SetJSONFor(ctx, key, v, c.ttl)
}

// SetJSONFor stores v for ttl. A non-positive ttl falls back to the default.
func (c *ECache) SetJSONFor(ctx context.Context, key string, v any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}
	return c.ec.Set(ctx, key, string(data), ttl)
}

func (c *ECache) Take(ctx context.Context, key string, dst any) error {
	if err := c.GetJSON(ctx, key, dst); err != nil {
		return err
	}
	n, err := c.ec.Delete(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to delete cache key: %w", err)
	}
	if n == 0 {
		return ErrMiss
	}
	return nil
}

func (c *ECache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := c.ec.Delete(ctx, keys...)
	return err
}

// Noop never stores anything.
type Noop struct{}

func (Noop) GetJSON(context.Context, string, any) error                  { return ErrMiss }
func (Noop) SetJSON(context.Context, string, any) error                  { return nil }
func (Noop) SetJSONFor(context.Context, string, any, time.Duration) error { return nil }
func (Noop) Take(context.Context, string, any) error                     { return ErrMiss }
func (Noop) Invalidate(context.Context, ...string) error                 { return nil }
