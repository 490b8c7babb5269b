// Package notify delivers due-task notices to task owners.
package notify

import (
	"context"
	"fmt"

	"task-manager/internal/errs"
	"task-manager/internal/metrics"
	"task-manager/internal/models"
	"task-manager/pkg/logger"
)

// Notifier hands a due notice to some delivery channel.
// Implementations wrap every failure with errs.ErrDelivery.
type Notifier interface {
	Notify(ctx context.Context, n models.DueNotice) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n models.DueNotice) error

func (f NotifierFunc) Notify(ctx context.Context, n models.DueNotice) error { return f(ctx, n) }

// LogNotifier only logs notices. Used when no transport is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, n models.DueNotice) error {
	if n.Address == "" {
		return fmt.Errorf("%w: empty address", errs.ErrDelivery)
	}
	logger.Info(ctx, "Task due notice",
		"task_id", n.TaskID, "address", n.Address, "description", n.Description, "due_at", n.DueAt)
	metrics.Notifications.WithLabelValues("log", "ok").Inc()
	return nil
}
