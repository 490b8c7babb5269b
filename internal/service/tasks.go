package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"task-manager/internal/errs"
	"task-manager/internal/models"
	"task-manager/internal/repository"
	"task-manager/pkg/logger"
)

// TaskCache is the per-owner list cache used by TaskService.
type TaskCache interface {
	GetTasks(ctx context.Context, owner uuid.UUID) ([]models.Task, bool)
	SetTasks(ctx context.Context, owner uuid.UUID, tasks []models.Task)
	Invalidate(ctx context.Context, owner uuid.UUID)
}

// TaskService enforces ownership, uniqueness and deletion rules on tasks.
type TaskService struct {
	tasks repository.TaskStore
	cache TaskCache
	group singleflight.Group

	// gen counts invalidations per owner. A list read is cached only if
	// no invalidation happened while it was in flight.
	genMu sync.Mutex
	gen   map[uuid.UUID]uint64
}

// NewTaskService constructs TaskService. cache may be nil.
func NewTaskService(tasks repository.TaskStore, cache TaskCache) *TaskService {
	return &TaskService{tasks: tasks, cache: cache, gen: map[uuid.UUID]uint64{}}
}

// Create normalizes the description and stores a pending task.
func (s *TaskService) Create(ctx context.Context, owner uuid.UUID, description string, dueAt *time.Time) (*models.Task, error) {
	desc := models.NormalizeDescription(description)
	if desc == "" {
		return nil, fmt.Errorf("%w: description is required", errs.ErrValidation)
	}
	exists, err := s.tasks.DescriptionExists(ctx, owner, desc, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: task with this description already exists", errs.ErrConflict)
	}

	t := &models.Task{
		OwnerID:     owner,
		Description: desc,
		DueAt:       utc(dueAt),
		Status:      models.StatusPending,
	}
	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, err
	}
	s.invalidate(ctx, owner)
	logger.Debug(ctx, "Task created", "task_id", t.ID, "owner", owner)
	return t, nil
}

// Get returns a task owned by actor.
func (s *TaskService) Get(ctx context.Context, actor, id uuid.UUID) (*models.Task, error) {
	return s.loadOwned(ctx, actor, id)
}

// List returns actor's tasks, newest first. Concurrent cache misses for one owner share a single query.
func (s *TaskService) List(ctx context.Context, actor uuid.UUID) ([]models.Task, error) {
	if s.cache != nil {
		if tasks, ok := s.cache.GetTasks(ctx, actor); ok {
			return tasks, nil
		}
	}
	v, err, _ := s.group.Do(actor.String(), func() (any, error) {
		// Detached so one caller's cancellation does not fail the others.
		dctx := context.WithoutCancel(ctx)
		gen := s.generation(actor)
		tasks, err := s.tasks.ListByOwner(dctx, actor)
		if err != nil {
			return nil, err
		}
		s.fill(dctx, actor, gen, tasks)
		return tasks, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Task), nil
}

// PatchStatus replaces the status. The value is checked before the store is touched.
func (s *TaskService) PatchStatus(ctx context.Context, actor, id uuid.UUID, status string) (*models.Task, error) {
	st, err := models.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	t, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	t.Status = st
	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, err
	}
	s.invalidate(ctx, actor)
	return t, nil
}

// Update merges the supplied fields into the task.
func (s *TaskService) Update(ctx context.Context, actor, id uuid.UUID, upd models.TaskUpdate) (*models.Task, error) {
	if upd.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", errs.ErrValidation)
	}
	var st models.Status
	if upd.Status != nil {
		var err error
		if st, err = models.ParseStatus(*upd.Status); err != nil {
			return nil, err
		}
	}
	var desc string
	if upd.Description != nil {
		desc = models.NormalizeDescription(*upd.Description)
		if desc == "" {
			return nil, fmt.Errorf("%w: description must not be empty", errs.ErrValidation)
		}
	}

	t, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if upd.Description != nil && desc != t.Description {
		exists, err := s.tasks.DescriptionExists(ctx, actor, desc, t.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("%w: task with this description already exists", errs.ErrConflict)
		}
		t.Description = desc
	}
	if upd.DueAt != nil {
		t.DueAt = utc(upd.DueAt)
	}
	if upd.Status != nil {
		t.Status = st
	}
	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, err
	}
	s.invalidate(ctx, actor)
	return t, nil
}

// Delete removes a task that is completed, cancelled or past due at now.
func (s *TaskService) Delete(ctx context.Context, actor, id uuid.UUID, now time.Time) error {
	t, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return err
	}
	if !t.Deletable(now) {
		return fmt.Errorf("%w: only completed, cancelled or past-due tasks can be deleted", errs.ErrValidation)
	}
	if err := s.tasks.Delete(ctx, id, actor); err != nil {
		return err
	}
	s.invalidate(ctx, actor)
	return nil
}

// loadOwned re-reads the row so the ownership check never runs on stale data.
func (s *TaskService) loadOwned(ctx context.Context, actor, id uuid.UUID) (*models.Task, error) {
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.OwnerID != actor {
		return nil, fmt.Errorf("%w: task belongs to another user", errs.ErrForbidden)
	}
	return t, nil
}

// Invalidate drops the owner's cached list. The due-task sweep calls it after deleting.
func (s *TaskService) Invalidate(ctx context.Context, owner uuid.UUID) {
	s.invalidate(ctx, owner)
}

func (s *TaskService) invalidate(ctx context.Context, owner uuid.UUID) {
	if s.cache == nil {
		return
	}
	s.genMu.Lock()
	s.gen[owner]++
	s.genMu.Unlock()
	s.cache.Invalidate(ctx, owner)
}

func (s *TaskService) generation(owner uuid.UUID) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.gen[owner]
}

// fill caches tasks unless the owner was invalidated after gen was taken.
// The check and the write share the lock, so a later invalidation always deletes what was written.
func (s *TaskService) fill(ctx context.Context, owner uuid.UUID, gen uint64, tasks []models.Task) {
	if s.cache == nil {
		return
	}
	s.genMu.Lock()
	defer s.genMu.Unlock()
	if s.gen[owner] != gen {
		logger.Debug(ctx, "Skip caching stale task list", "owner", owner)
		return
	}
	s.cache.SetTasks(ctx, owner, tasks)
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
