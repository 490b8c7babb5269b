package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"task-manager/pkg/logger"
)

// DefaultSchedule fires at the top of every hour.
const DefaultSchedule = "0 * * * *"

// Scheduler runs the sweeper on a cron schedule. At most one cycle runs at a time,
// whether started by a tick or by Trigger.
type Scheduler struct {
	sweeper  *Sweeper
	schedule cron.Schedule
	cron     *cron.Cron
	group    singleflight.Group
	ctx      context.Context
	cancel   context.CancelFunc

	mu       sync.Mutex
	inflight chan struct{} // closed when the latest cycle finishes; nil before the first
}

// NewScheduler parses a standard five-field cron expression.
func NewScheduler(sweeper *Sweeper, spec string) (*Scheduler, error) {
	if spec == "" {
		spec = DefaultSchedule
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse sweep schedule %q: %w", spec, err)
	}
	s := &Scheduler{sweeper: sweeper, schedule: schedule}
	return s, nil
}

// Start begins ticking. Cycles run with ctx's values and stop when ctx is cancelled.
// Calling Start on a started scheduler does nothing.
func (s *Scheduler) Start(ctx context.Context) {
	if s.cron != nil {
		return
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	l := cronLogger{l: logger.FromContext(ctx)}
	s.cron = cron.New(
		cron.WithLogger(l),
		cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
	)
	s.cron.Schedule(s.schedule, cron.FuncJob(func() {
		_, _ = s.Trigger(s.ctx)
	}))
	s.cron.Start()
	logger.Info(ctx, "Sweep scheduler started", "next_run", s.NextRun(time.Now()))
}

// Stop halts ticking and waits for an in-flight cycle, ticked or triggered.
// If ctx ends first, scheduled cycles are cancelled and ctx.Err() is returned.
func (s *Scheduler) Stop(ctx context.Context) error {
	var jobs <-chan struct{}
	if s.cron != nil {
		jobs = s.cron.Stop().Done()
	}
	if err := waitFor(ctx, jobs); err != nil {
		s.cancelCycles()
		return err
	}
	if err := waitFor(ctx, s.current()); err != nil {
		s.cancelCycles()
		return err
	}
	s.cancelCycles()
	return nil
}

// Trigger runs a cycle now, or joins the one already running.
func (s *Scheduler) Trigger(ctx context.Context) (Report, error) {
	v, err, _ := s.group.Do("sweep", func() (any, error) {
		done := s.begin()
		defer close(done)
		return s.sweeper.RunOnce(ctx)
	})
	rep, _ := v.(Report)
	return rep, err
}

func (s *Scheduler) begin() chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight = make(chan struct{})
	return s.inflight
}

func (s *Scheduler) current() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight
}

func (s *Scheduler) cancelCycles() {
	if s.cancel != nil {
		s.cancel()
	}
}

// waitFor blocks until ch is closed or ctx ends. A nil ch is already done.
func waitFor(ctx context.Context, ch <-chan struct{}) error {
	if ch == nil {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NextRun reports the first activation after t.
func (s *Scheduler) NextRun(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// cronLogger routes cron's logs to slog.
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
