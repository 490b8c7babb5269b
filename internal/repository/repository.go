// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"task-manager/internal/models"
)

// AccountStore provides access to registered accounts.
type AccountStore interface {
	// Create inserts a new account; a duplicate email yields errs.ErrConflict.
	Create(ctx context.Context, a *models.Account) error
	// GetByID loads an account by ID or returns errs.ErrNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	// GetByEmail loads an account by normalized email or returns errs.ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
}

// TaskStore provides row-level access to tasks.
type TaskStore interface {
	// Create inserts a task; a duplicate (owner, description) yields errs.ErrConflict.
	Create(ctx context.Context, t *models.Task) error
	// GetByID loads a task regardless of owner or returns errs.ErrNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	// DescriptionExists reports whether owner has another task with description.
	// exclude is ignored when uuid.Nil.
	DescriptionExists(ctx context.Context, owner uuid.UUID, description string, exclude uuid.UUID) (bool, error)
	// ListByOwner returns the owner's tasks, newest first.
	ListByOwner(ctx context.Context, owner uuid.UUID) ([]models.Task, error)
	// Update overwrites description, due time and status of a task still owned by t.OwnerID.
	Update(ctx context.Context, t *models.Task) error
	// Delete removes a task still owned by owner; errs.ErrNotFound when nothing matched.
	Delete(ctx context.Context, id, owner uuid.UUID) error
	// DeleteByID removes a task regardless of owner; errs.ErrNotFound when nothing matched.
	DeleteByID(ctx context.Context, id uuid.UUID) error
	// ListDueBetween returns non-completed tasks with due time in [from, to], joined with owner email.
	ListDueBetween(ctx context.Context, from, to time.Time) ([]models.DueTask, error)
}
