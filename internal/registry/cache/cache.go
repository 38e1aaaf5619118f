// Package cache provides the session-scoped registry result cache. Entries
// are short-lived: registry data can change and re-resolution at submission
// time is cheap and authoritative, so the TTL only spans a single
// onboarding session.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"vitrina/internal/registry/models"
	"vitrina/pkg/platform/sentinel"
	"vitrina/pkg/requestcontext"
)

const redisKeyPrefix = "registry:company:"

// Memory is an in-memory TTL cache for tests and single-node dev.
type Memory struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

type memoryEntry struct {
	record   *models.Record
	cachedAt time.Time
}

// NewMemory constructs an empty in-memory registry cache.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
	}
}

func (c *Memory) Find(ctx context.Context, identityNumber string) (*models.Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[identityNumber]
	if !ok {
		return nil, fmt.Errorf("registry cache entry not found: %w", sentinel.ErrNotFound)
	}
	if requestcontext.Now(ctx).Sub(entry.cachedAt) > c.ttl {
		return nil, fmt.Errorf("registry cache entry expired: %w", sentinel.ErrNotFound)
	}
	return entry.record, nil
}

func (c *Memory) Save(ctx context.Context, identityNumber string, record *models.Record) error {
	if record == nil {
		return fmt.Errorf("registry record is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[identityNumber] = memoryEntry{record: record, cachedAt: requestcontext.Now(ctx)}
	return nil
}

// Redis caches registry records in Redis with a server-side TTL, for
// deployments where wizard steps can land on different instances.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis constructs a Redis-backed registry cache.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (c *Redis) Find(ctx context.Context, identityNumber string) (*models.Record, error) {
	raw, err := c.client.Get(ctx, redisKeyPrefix+identityNumber).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("registry cache entry not found: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find registry cache entry: %w", err)
	}
	var record models.Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode registry cache entry: %w", err)
	}
	return &record, nil
}

func (c *Redis) Save(ctx context.Context, identityNumber string, record *models.Record) error {
	if record == nil {
		return fmt.Errorf("registry record is required")
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode registry cache entry: %w", err)
	}
	if err := c.client.Set(ctx, redisKeyPrefix+identityNumber, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("save registry cache entry: %w", err)
	}
	return nil
}
