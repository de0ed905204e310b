// Package scheduler runs the briefing on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	appLog "dailybrief/internal/log"
)

// Job is one scheduled run. It receives the scheduler's context.
type Job func(ctx context.Context)

// Scheduler wraps a cron instance bound to one timezone.
type Scheduler struct {
	expr string
	loc  *time.Location
	c    *cron.Cron
}

// New validates expr (standard 5-field cron, or descriptors like @daily)
// and prepares a scheduler in loc.
func New(expr string, loc *time.Location) (*Scheduler, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, errors.New("empty schedule")
	}
	if loc == nil {
		loc = time.Local
	}
	if _, err := cron.ParseStandard(expr); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", expr, err)
	}
	return &Scheduler{
		expr: expr,
		loc:  loc,
		c:    cron.New(cron.WithLocation(loc)),
	}, nil
}

// Next returns the first run time after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	sched, err := cron.ParseStandard(s.expr)
	if err != nil {
		return time.Time{}
	}
	return sched.Next(t.In(s.loc))
}

// Run registers job and blocks until ctx is cancelled. Overlapping ticks
// are skipped while a previous run is still going. A running job is
// waited for before Run returns.
func (s *Scheduler) Run(ctx context.Context, job Job) error {
	wrapped := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(func() {
		if ctx.Err() != nil {
			return
		}
		appLog.Info("scheduled briefing started", "schedule", s.expr)
		job(ctx)
	}))

	if _, err := s.c.AddJob(s.expr, wrapped); err != nil {
		return fmt.Errorf("add schedule %q: %w", s.expr, err)
	}

	s.c.Start()
	appLog.Info("scheduler started",
		"schedule", s.expr,
		"timezone", s.loc.String(),
		"next_run", s.Next(time.Now()).Format(time.RFC3339),
	)

	<-ctx.Done()
	appLog.Info("scheduler stopping")
	<-s.c.Stop().Done()
	return nil
}
