package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"task-manager/internal/errs"
	"task-manager/internal/models"
	"task-manager/internal/repository"
)

type fakeAccounts struct {
	mu      sync.Mutex
	byEmail map[string]*models.Account
	getErr  error
}

var _ repository.AccountStore = (*fakeAccounts)(nil)

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{byEmail: map[string]*models.Account{}}
}

func (f *fakeAccounts) Create(_ context.Context, a *models.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byEmail[a.Email]; ok {
		return errs.ErrConflict
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	cpy := *a
	f.byEmail[a.Email] = &cpy
	return nil
}

func (f *fakeAccounts) GetByID(_ context.Context, id uuid.UUID) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byEmail {
		if a.ID == id {
			c := *a
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeAccounts) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	a, ok := f.byEmail[models.NormalizeEmail(email)]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *a
	return &c, nil
}

type fakeTasks struct {
	mu        sync.Mutex
	rows      map[uuid.UUID]models.Task
	listCalls int
	listDelay time.Duration
	updates   int
	// afterSnapshot runs once ListByOwner has read its rows, before it returns.
	afterSnapshot func()
}

var _ repository.TaskStore = (*fakeTasks)(nil)

func newFakeTasks() *fakeTasks {
	return &fakeTasks{rows: map[uuid.UUID]models.Task{}}
}

func (f *fakeTasks) Create(_ context.Context, t *models.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.OwnerID == t.OwnerID && r.Description == t.Description {
			return errs.ErrConflict
		}
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	f.rows[t.ID] = *t
	return nil
}

func (f *fakeTasks) GetByID(_ context.Context, id uuid.UUID) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.rows[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &t, nil
}

func (f *fakeTasks) DescriptionExists(_ context.Context, owner uuid.UUID, description string, exclude uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.OwnerID == owner && r.Description == description && r.ID != exclude {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTasks) ListByOwner(_ context.Context, owner uuid.UUID) ([]models.Task, error) {
	if f.listDelay > 0 {
		time.Sleep(f.listDelay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	out := []models.Task{}
	for _, r := range f.rows {
		if r.OwnerID == owner {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	hook := f.afterSnapshot
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	f.mu.Lock()
	return out, nil
}

func (f *fakeTasks) Update(_ context.Context, t *models.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[t.ID]
	if !ok || r.OwnerID != t.OwnerID {
		return errs.ErrNotFound
	}
	f.updates++
	f.rows[t.ID] = *t
	return nil
}

func (f *fakeTasks) Delete(_ context.Context, id, owner uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok || r.OwnerID != owner {
		return errs.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeTasks) DeleteByID(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return errs.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeTasks) ListDueBetween(context.Context, time.Time, time.Time) ([]models.DueTask, error) {
	return nil, nil
}

func (f *fakeTasks) get(id uuid.UUID) models.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[id]
}

type fakeCache struct {
	mu          sync.Mutex
	lists       map[uuid.UUID][]models.Task
	invalidated []uuid.UUID
}

func newFakeCache() *fakeCache {
	return &fakeCache{lists: map[uuid.UUID][]models.Task{}}
}

func (c *fakeCache) GetTasks(_ context.Context, owner uuid.UUID) ([]models.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.lists[owner]
	return t, ok
}

func (c *fakeCache) SetTasks(_ context.Context, owner uuid.UUID, tasks []models.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lists[owner] = tasks
}

func (c *fakeCache) Invalidate(_ context.Context, owner uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.lists, owner)
	c.invalidated = append(c.invalidated, owner)
}
