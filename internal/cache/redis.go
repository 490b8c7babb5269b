package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"task-manager/internal/models"
	"task-manager/pkg/logger"
)

// NewClient parses a redis:// URL, applies the pool size and pings the server.
func NewClient(ctx context.Context, url string, poolSize int) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if poolSize > 0 {
		opts.PoolSize = poolSize
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	logger.Info(ctx, "Redis client initialized", "pool_size", opts.PoolSize)
	return client, nil
}

// TaskCache keeps each owner's task list in Redis.
// A nil *TaskCache, or one without a client, is a no-op cache: reads miss, writes are dropped.
// Redis failures are logged and never surfaced, the store stays the source of truth.
type TaskCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTaskCache wraps client. ttl <= 0 keeps entries until invalidated.
func NewTaskCache(client *redis.Client, ttl time.Duration) *TaskCache {
	return &TaskCache{client: client, ttl: ttl}
}

// OwnerKey is the cache key of an owner's task list.
func OwnerKey(owner uuid.UUID) string {
	return fmt.Sprintf("tasks:owner:%s", owner)
}

// GetTasks returns the cached list. Returns (nil, false) on miss or error.
func (c *TaskCache) GetTasks(ctx context.Context, owner uuid.UUID) ([]models.Task, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	b, err := c.client.Get(ctx, OwnerKey(owner)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		logger.Debug(ctx, "Redis get tasks failed", "error", err, "owner", owner)
		return nil, false
	}
	var tasks []models.Task
	if err := json.Unmarshal(b, &tasks); err != nil {
		logger.Debug(ctx, "Redis unmarshal tasks failed", "error", err, "owner", owner)
		return nil, false
	}
	return tasks, true
}

// SetTasks stores the owner's list with the configured TTL.
func (c *TaskCache) SetTasks(ctx context.Context, owner uuid.UUID, tasks []models.Task) {
	if c == nil || c.client == nil {
		return
	}
	b, err := json.Marshal(tasks)
	if err != nil {
		logger.Debug(ctx, "Marshal tasks for cache failed", "error", err)
		return
	}
	if err := c.client.Set(ctx, OwnerKey(owner), b, c.ttl).Err(); err != nil {
		logger.Debug(ctx, "Redis set tasks failed", "error", err, "owner", owner)
	}
}

// Invalidate drops the owner's list so the next read goes to the store.
func (c *TaskCache) Invalidate(ctx context.Context, owner uuid.UUID) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, OwnerKey(owner)).Err(); err != nil {
		logger.Debug(ctx, "Redis invalidate tasks failed", "error", err, "owner", owner)
	}
}
