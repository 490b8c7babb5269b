// Package sweep notifies owners of tasks whose due time just passed and removes those tasks.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"task-manager/internal/errs"
	"task-manager/internal/metrics"
	"task-manager/internal/models"
	"task-manager/internal/notify"
	"task-manager/pkg/logger"
)

// DefaultWindow is how far back a cycle looks for due tasks.
const DefaultWindow = time.Hour

// Store is the subset of repository.TaskStore the sweep needs.
type Store interface {
	ListDueBetween(ctx context.Context, from, to time.Time) ([]models.DueTask, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

// Invalidator drops an owner's cached task list.
type Invalidator interface {
	Invalidate(ctx context.Context, owner uuid.UUID)
}

// Report summarizes one cycle.
type Report struct {
	Selected     int
	Notified     int
	NotifyFailed int
	Skipped      int
	Deleted      int
	DeleteFailed int
}

// Sweeper runs due-task cycles.
type Sweeper struct {
	store    Store
	notifier notify.Notifier
	cache    Invalidator
	now      func() time.Time
	window   time.Duration
}

// Option customizes a Sweeper.
type Option func(*Sweeper)

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) { s.now = now }
}

// WithWindow sets the look-back window. Non-positive values keep the default.
func WithWindow(d time.Duration) Option {
	return func(s *Sweeper) {
		if d > 0 {
			s.window = d
		}
	}
}

// WithCache invalidates owners' cached lists after deletions.
func WithCache(c Invalidator) Option {
	return func(s *Sweeper) { s.cache = c }
}

// New constructs a Sweeper.
func New(store Store, notifier notify.Notifier, opts ...Option) *Sweeper {
	s := &Sweeper{
		store:    store,
		notifier: notifier,
		now:      time.Now,
		window:   DefaultWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunOnce executes a single cycle over [now-window, now].
// Only a selection failure is returned; per-task failures are logged and counted.
func (s *Sweeper) RunOnce(ctx context.Context) (Report, error) {
	var rep Report
	now := s.now()
	from := now.Add(-s.window)

	logger.Info(ctx, "Checking for due tasks", "from", from, "to", now)
	due, err := s.store.ListDueBetween(ctx, from, now)
	if err != nil {
		metrics.SweepRuns.WithLabelValues("failed").Inc()
		logger.Error(ctx, "Sweep selection failed", "error", err)
		return rep, fmt.Errorf("select due tasks: %w", err)
	}

	for _, t := range due {
		if ctx.Err() != nil {
			break
		}
		// The store query is the primary filter; this keeps a misbehaving store from widening it.
		if !models.InSweepWindow(&t.Task, from, now) {
			continue
		}
		rep.Selected++
		s.process(ctx, t, now, &rep)
	}

	metrics.SweepRuns.WithLabelValues("ok").Inc()
	if rep.Selected == 0 {
		logger.Info(ctx, "No due tasks in this interval")
	} else {
		logger.Info(ctx, "Sweep finished",
			"selected", rep.Selected, "notified", rep.Notified, "notify_failed", rep.NotifyFailed,
			"skipped", rep.Skipped, "deleted", rep.Deleted, "delete_failed", rep.DeleteFailed)
	}
	return rep, ctx.Err()
}

func (s *Sweeper) process(ctx context.Context, t models.DueTask, now time.Time, rep *Report) {
	l := logger.FromContext(ctx).With("task_id", t.ID, "description", t.Description)

	if strings.TrimSpace(t.OwnerEmail) == "" {
		rep.Skipped++
		metrics.SweepTasks.WithLabelValues("skipped").Inc()
		l.Warn("No email found for owner of due task")
		return
	}

	if err := s.notifier.Notify(ctx, models.NewDueNotice(t, now)); err != nil {
		rep.NotifyFailed++
		metrics.SweepTasks.WithLabelValues("notify_failed").Inc()
		l.Error("Due notice failed", "error", err)
	} else {
		rep.Notified++
		metrics.SweepTasks.WithLabelValues("notified").Inc()
	}

	// Deletion does not depend on the notice outcome.
	err := s.store.DeleteByID(ctx, t.ID)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		l.Debug("Due task already gone")
		return
	case err != nil:
		rep.DeleteFailed++
		metrics.SweepTasks.WithLabelValues("delete_failed").Inc()
		l.Error("Delete due task failed", "error", err)
		return
	}
	rep.Deleted++
	metrics.SweepTasks.WithLabelValues("deleted").Inc()
	l.Info("Deleted due task")

	if s.cache != nil {
		s.cache.Invalidate(ctx, t.OwnerID)
	}
}
