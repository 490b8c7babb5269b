package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"task-manager/internal/errs"
	"task-manager/internal/models"
)

const taskColumns = `id, owner_id, description, due_at, status, created_at, updated_at`

// TaskRepo implements repository.TaskStore using PostgreSQL.
type TaskRepo struct{ db *sql.DB }

// NewTaskRepo constructs a task repository.
func NewTaskRepo(db *sql.DB) *TaskRepo { return &TaskRepo{db: db} }

// Create inserts a new task, filling ID, status and timestamps when unset.
func (r *TaskRepo) Create(ctx context.Context, t *models.Task) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = models.StatusPending
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	const q = `
INSERT INTO tasks (id, owner_id, description, due_at, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, q,
		t.ID, t.OwnerID, t.Description, nullTime(t.DueAt), string(t.Status), t.CreatedAt, t.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: task with this description already exists", errs.ErrConflict)
	}
	if err != nil {
		return storeErr("create task", err)
	}
	return nil
}

// GetByID selects a task by ID.
func (r *TaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	q := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	t, err := scanTask(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: task %s", errs.ErrNotFound, id)
	}
	if err != nil {
		return nil, storeErr("get task", err)
	}
	return &t, nil
}

// DescriptionExists checks the per-owner uniqueness of a normalized description.
func (r *TaskRepo) DescriptionExists(ctx context.Context, owner uuid.UUID, description string, exclude uuid.UUID) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM tasks WHERE owner_id = $1 AND description = $2 AND id <> $3)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, owner, description, exclude).Scan(&exists); err != nil {
		return false, storeErr("check description", err)
	}
	return exists, nil
}

// ListByOwner returns all tasks of an owner, newest first.
func (r *TaskRepo) ListByOwner(ctx context.Context, owner uuid.UUID) ([]models.Task, error) {
	q := `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, owner)
	if err != nil {
		return nil, storeErr("list tasks", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, storeErr("scan task", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list tasks", err)
	}
	return tasks, nil
}

// Update writes the mutable fields. The owner_id predicate keeps a stale owner from acting.
func (r *TaskRepo) Update(ctx context.Context, t *models.Task) error {
	t.UpdatedAt = time.Now().UTC()
	const q = `
UPDATE tasks SET description = $1, due_at = $2, status = $3, updated_at = $4
WHERE id = $5 AND owner_id = $6`
	res, err := r.db.ExecContext(ctx, q,
		t.Description, nullTime(t.DueAt), string(t.Status), t.UpdatedAt, t.ID, t.OwnerID)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: task with this description already exists", errs.ErrConflict)
	}
	if err != nil {
		return storeErr("update task", err)
	}
	return affectedOne(res, "task "+t.ID.String())
}

// Delete removes a task owned by owner.
func (r *TaskRepo) Delete(ctx context.Context, id, owner uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND owner_id = $2`, id, owner)
	if err != nil {
		return storeErr("delete task", err)
	}
	return affectedOne(res, "task "+id.String())
}

// DeleteByID removes a task regardless of owner. Used by the due-task sweep.
func (r *TaskRepo) DeleteByID(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return storeErr("delete task", err)
	}
	return affectedOne(res, "task "+id.String())
}

// ListDueBetween selects sweep candidates. BETWEEN is inclusive on both ends.
func (r *TaskRepo) ListDueBetween(ctx context.Context, from, to time.Time) ([]models.DueTask, error) {
	const q = `
SELECT t.id, t.owner_id, t.description, t.due_at, t.status, t.created_at, t.updated_at, COALESCE(a.email, '')
FROM tasks t
LEFT JOIN accounts a ON a.id = t.owner_id
WHERE t.due_at BETWEEN $1 AND $2 AND t.status <> $3
ORDER BY t.due_at ASC`
	rows, err := r.db.QueryContext(ctx, q, from, to, string(models.StatusCompleted))
	if err != nil {
		return nil, storeErr("list due tasks", err)
	}
	defer rows.Close()

	var out []models.DueTask
	for rows.Next() {
		var (
			dt     models.DueTask
			due    sql.NullTime
			status string
		)
		if err := rows.Scan(&dt.ID, &dt.OwnerID, &dt.Description, &due, &status,
			&dt.CreatedAt, &dt.UpdatedAt, &dt.OwnerEmail); err != nil {
			return nil, storeErr("scan due task", err)
		}
		dt.DueAt = timePtr(due)
		dt.Status = models.Status(status)
		out = append(out, dt)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list due tasks", err)
	}
	return out, nil
}

func scanTask(s scanner) (models.Task, error) {
	var (
		t      models.Task
		due    sql.NullTime
		status string
	)
	if err := s.Scan(&t.ID, &t.OwnerID, &t.Description, &due, &status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return models.Task{}, err
	}
	t.DueAt = timePtr(due)
	t.Status = models.Status(status)
	return t, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	v := nt.Time
	return &v
}
