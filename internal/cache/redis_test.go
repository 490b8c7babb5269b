package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"task-manager/internal/models"
)

func newTestCache(t *testing.T, ttl time.Duration) (*TaskCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewTaskCache(client, ttl), mr
}

func TestTaskCache_RoundTrip(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()
	owner := uuid.New()

	_, ok := c.GetTasks(ctx, owner)
	require.False(t, ok)

	tasks := []models.Task{{ID: uuid.New(), OwnerID: owner, Description: "buy milk", Status: models.StatusPending}}
	c.SetTasks(ctx, owner, tasks)
	require.True(t, mr.Exists(OwnerKey(owner)))
	require.Equal(t, time.Minute, mr.TTL(OwnerKey(owner)))

	got, ok := c.GetTasks(ctx, owner)
	require.True(t, ok)
	require.Len(t, got, 1)
	require.Equal(t, "buy milk", got[0].Description)

	c.Invalidate(ctx, owner)
	_, ok = c.GetTasks(ctx, owner)
	require.False(t, ok)
}

func TestTaskCache_OwnersAreIsolated(t *testing.T) {
	c, _ := newTestCache(t, 0)
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	c.SetTasks(ctx, a, []models.Task{{Description: "a"}})
	c.SetTasks(ctx, b, []models.Task{{Description: "b"}})
	c.Invalidate(ctx, a)

	_, ok := c.GetTasks(ctx, a)
	require.False(t, ok)
	got, ok := c.GetTasks(ctx, b)
	require.True(t, ok)
	require.Equal(t, "b", got[0].Description)
}

func TestTaskCache_CorruptEntryIsMiss(t *testing.T) {
	c, mr := newTestCache(t, 0)
	owner := uuid.New()
	require.NoError(t, mr.Set(OwnerKey(owner), "not json"))

	_, ok := c.GetTasks(context.Background(), owner)
	require.False(t, ok)
}

func TestTaskCache_NilIsNoop(t *testing.T) {
	var c *TaskCache
	ctx := context.Background()
	owner := uuid.New()

	c.SetTasks(ctx, owner, nil)
	c.Invalidate(ctx, owner)
	_, ok := c.GetTasks(ctx, owner)
	require.False(t, ok)
}

func TestTaskCache_ServerDownIsMiss(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })
	c := NewTaskCache(client, time.Minute)
	ctx := context.Background()

	c.SetTasks(ctx, uuid.New(), nil)
	_, ok := c.GetTasks(ctx, uuid.New())
	require.False(t, ok)
}
