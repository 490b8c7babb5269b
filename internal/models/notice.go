package models

import (
	"time"

	"github.com/google/uuid"
)

// DueNotice is the payload handed to a notifier when a task's deadline has passed.
// It is also the JSON message on the notification topic.
type DueNotice struct {
	TaskID      uuid.UUID  `json:"task_id"`
	OwnerID     uuid.UUID  `json:"owner_id"`
	Address     string     `json:"address"`
	Description string     `json:"description"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	EnqueuedAt  time.Time  `json:"enqueued_at"`
}

// NewDueNotice builds the notice for a sweep candidate.
func NewDueNotice(t DueTask, now time.Time) DueNotice {
	return DueNotice{
		TaskID:      t.ID,
		OwnerID:     t.OwnerID,
		Address:     t.OwnerEmail,
		Description: t.Description,
		DueAt:       t.DueAt,
		EnqueuedAt:  now,
	}
}
