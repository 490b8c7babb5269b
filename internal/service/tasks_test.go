package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-manager/internal/errs"
	"task-manager/internal/models"
)

func ptr[T any](v T) *T { return &v }

func TestTasks_CreateNormalizesAndRejectsDuplicates(t *testing.T) {
	store, cache := newFakeTasks(), newFakeCache()
	svc := NewTaskService(store, cache)
	ctx := context.Background()
	owner := uuid.New()

	task, err := svc.Create(ctx, owner, "Buy Milk ", nil)
	require.NoError(t, err)
	require.Equal(t, "buy milk", task.Description)
	require.Equal(t, models.StatusPending, task.Status)
	require.Contains(t, cache.invalidated, owner)

	_, err = svc.Create(ctx, owner, "buy milk", nil)
	require.ErrorIs(t, err, errs.ErrConflict)

	// another owner may reuse the description
	_, err = svc.Create(ctx, uuid.New(), "buy milk", nil)
	require.NoError(t, err)

	_, err = svc.Create(ctx, owner, "   ", nil)
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestTasks_GetEnforcesOwnership(t *testing.T) {
	store := newFakeTasks()
	svc := NewTaskService(store, nil)
	ctx := context.Background()
	owner := uuid.New()
	task, err := svc.Create(ctx, owner, "pay rent", nil)
	require.NoError(t, err)

	got, err := svc.Get(ctx, owner, task.ID)
	require.NoError(t, err)
	require.Equal(t, task.ID, got.ID)

	_, err = svc.Get(ctx, uuid.New(), task.ID)
	require.ErrorIs(t, err, errs.ErrForbidden)

	_, err = svc.Get(ctx, owner, uuid.New())
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestTasks_PatchStatus(t *testing.T) {
	store := newFakeTasks()
	svc := NewTaskService(store, nil)
	ctx := context.Background()
	owner := uuid.New()
	task, err := svc.Create(ctx, owner, "pay rent", nil)
	require.NoError(t, err)

	for _, s := range []string{"inProgress", "completed", "pending", "cancelled"} {
		got, err := svc.PatchStatus(ctx, owner, task.ID, s)
		require.NoError(t, err)
		require.Equal(t, models.Status(s), got.Status)
	}

	updates := store.updates
	_, err = svc.PatchStatus(ctx, owner, task.ID, "inprogress")
	require.ErrorIs(t, err, errs.ErrValidation)
	require.Equal(t, updates, store.updates)
	require.Equal(t, models.StatusCancelled, store.get(task.ID).Status)

	// invalid status is reported before existence
	_, err = svc.PatchStatus(ctx, owner, uuid.New(), "done")
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = svc.PatchStatus(ctx, uuid.New(), task.ID, "completed")
	require.ErrorIs(t, err, errs.ErrForbidden)
	require.Equal(t, models.StatusCancelled, store.get(task.ID).Status)
}

func TestTasks_Update(t *testing.T) {
	store := newFakeTasks()
	svc := NewTaskService(store, nil)
	ctx := context.Background()
	owner := uuid.New()
	a, err := svc.Create(ctx, owner, "pay rent", nil)
	require.NoError(t, err)
	_, err = svc.Create(ctx, owner, "buy milk", nil)
	require.NoError(t, err)

	_, err = svc.Update(ctx, owner, a.ID, models.TaskUpdate{})
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = svc.Update(ctx, owner, a.ID, models.TaskUpdate{Status: ptr("Completed")})
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = svc.Update(ctx, owner, a.ID, models.TaskUpdate{Description: ptr(" ")})
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = svc.Update(ctx, owner, a.ID, models.TaskUpdate{Description: ptr("Buy Milk")})
	require.ErrorIs(t, err, errs.ErrConflict)

	due := time.Date(2026, 11, 1, 9, 0, 0, 0, time.UTC)
	got, err := svc.Update(ctx, owner, a.ID, models.TaskUpdate{Description: ptr("Pay Rent "), DueAt: &due})
	require.NoError(t, err)
	assert.Equal(t, "pay rent", got.Description)
	assert.Equal(t, models.StatusPending, got.Status)
	require.NotNil(t, got.DueAt)
	assert.True(t, due.Equal(*got.DueAt))

	got, err = svc.Update(ctx, owner, a.ID, models.TaskUpdate{Status: ptr("inProgress")})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, got.Status)
	assert.Equal(t, "pay rent", got.Description)

	_, err = svc.Update(ctx, uuid.New(), a.ID, models.TaskUpdate{Status: ptr("completed")})
	require.ErrorIs(t, err, errs.ErrForbidden)
}

func TestTasks_Delete(t *testing.T) {
	store, cache := newFakeTasks(), newFakeCache()
	svc := NewTaskService(store, cache)
	ctx := context.Background()
	owner := uuid.New()
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

	future := now.Add(time.Hour)
	open, err := svc.Create(ctx, owner, "future", &future)
	require.NoError(t, err)
	require.ErrorIs(t, svc.Delete(ctx, owner, open.ID, now), errs.ErrValidation)

	past := now.Add(-time.Minute)
	overdue, err := svc.Create(ctx, owner, "overdue", &past)
	require.NoError(t, err)
	require.ErrorIs(t, svc.Delete(ctx, uuid.New(), overdue.ID, now), errs.ErrForbidden)
	_, err = store.GetByID(ctx, overdue.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, owner, overdue.ID, now))
	require.ErrorIs(t, svc.Delete(ctx, owner, overdue.ID, now), errs.ErrNotFound)

	_, err = svc.PatchStatus(ctx, owner, open.ID, "cancelled")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, owner, open.ID, now))
}

func TestTasks_ListUsesCache(t *testing.T) {
	store, cache := newFakeTasks(), newFakeCache()
	svc := NewTaskService(store, cache)
	ctx := context.Background()
	owner := uuid.New()

	got, err := svc.List(ctx, owner)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)

	_, err = svc.Create(ctx, owner, "pay rent", nil)
	require.NoError(t, err)

	got, err = svc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 2, store.listCalls)

	_, err = svc.List(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, 2, store.listCalls)
}

func TestTasks_ListCoalescesMisses(t *testing.T) {
	store := newFakeTasks()
	store.listDelay = 50 * time.Millisecond
	svc := NewTaskService(store, nil)
	owner := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.List(context.Background(), owner)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	require.Less(t, store.listCalls, 8)
}

func TestTasks_ListDoesNotCacheStaleSnapshot(t *testing.T) {
	store, cache := newFakeTasks(), newFakeCache()
	svc := NewTaskService(store, cache)
	ctx := context.Background()
	owner := uuid.New()

	snapshotTaken := make(chan struct{})
	release := make(chan struct{})
	store.afterSnapshot = func() {
		close(snapshotTaken)
		<-release
	}

	done := make(chan []models.Task)
	go func() {
		tasks, err := svc.List(ctx, owner)
		assert.NoError(t, err)
		done <- tasks
	}()

	<-snapshotTaken
	store.mu.Lock()
	store.afterSnapshot = nil
	store.mu.Unlock()
	_, err := svc.Create(ctx, owner, "pay rent", nil)
	require.NoError(t, err)
	close(release)
	require.Empty(t, <-done)

	got, err := svc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "pay rent", got[0].Description)
}

func TestTasks_InvalidateBlocksInFlightFill(t *testing.T) {
	cache := newFakeCache()
	svc := NewTaskService(newFakeTasks(), cache)
	ctx := context.Background()
	owner := uuid.New()

	gen := svc.generation(owner)
	svc.Invalidate(ctx, owner)
	svc.fill(ctx, owner, gen, []models.Task{{Description: "stale"}})
	_, ok := cache.GetTasks(ctx, owner)
	require.False(t, ok)

	svc.fill(ctx, owner, svc.generation(owner), []models.Task{{Description: "fresh"}})
	got, ok := cache.GetTasks(ctx, owner)
	require.True(t, ok)
	require.Equal(t, "fresh", got[0].Description)
}
