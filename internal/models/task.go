package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"task-manager/internal/errs"
)

// Status is the lifecycle state of a task. Values are persisted verbatim.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "inProgress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every accepted status in canonical spelling.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}

// Valid reports whether s is one of the canonical statuses.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// ParseStatus accepts only the exact canonical spelling ("inprogress" is rejected).
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: invalid status value %q", errs.ErrValidation, raw)
	}
	return s, nil
}

// Task represents a to-do item owned by a single account.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	OwnerID     uuid.UUID  `json:"userId"`
	Description string     `json:"description"`
	DueAt       *time.Time `json:"dueDate"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TaskUpdate carries the fields of a full update. Nil means "keep the current value".
type TaskUpdate struct {
	Description *string
	DueAt       *time.Time
	Status      *string
}

// Empty reports whether no field was supplied.
func (u TaskUpdate) Empty() bool {
	return u.Description == nil && u.DueAt == nil && u.Status == nil
}

// DueTask is a sweep candidate joined with its owner's notification address.
type DueTask struct {
	Task
	OwnerEmail string
}

// NormalizeDescription trims and lower-cases so "Buy Milk " and "buy milk" collide.
func NormalizeDescription(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsPastDue reports whether dueAt is set and strictly before now.
func IsPastDue(dueAt *time.Time, now time.Time) bool {
	return dueAt != nil && dueAt.Before(now)
}

// Deletable reports whether the owner may delete the task at now:
// completed, cancelled, or past its due time.
func (t *Task) Deletable(now time.Time) bool {
	return t.Status == StatusCompleted || t.Status == StatusCancelled || IsPastDue(t.DueAt, now)
}

// InSweepWindow reports whether t is a sweep candidate for the inclusive window [from, to].
func InSweepWindow(t *Task, from, to time.Time) bool {
	if t.DueAt == nil || t.Status == StatusCompleted {
		return false
	}
	return !t.DueAt.Before(from) && !t.DueAt.After(to)
}
