// Package sched drives scheduled and timer triggers. It owns no cron
// parsing: on every tick it hands each registered workflow to the engine,
// which locates the schedulable triggers and walks them. Workflows whose
// firing should depend on the time of day express that with time_range and
// weekday_in condition nodes rather than scheduler configuration.
package sched

import (
	"context"
	"log/slog"
	"time"

	"github.com/raikhel/botflow/internal/engine"
	"github.com/raikhel/botflow/internal/flow"
	"github.com/raikhel/botflow/internal/reply"
)

// DefaultInterval is the tick period. One minute matches the granularity
// of the time_range and weekday_in conditions.
const DefaultInterval = time.Minute

// Scheduler periodically fires the scheduled triggers of its workflows.
type Scheduler struct {
	engine    *engine.Engine
	workflows []*flow.Workflow
	surface   reply.Surface
	interval  time.Duration
	log       *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithInterval overrides the tick period (tests).
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithLogger replaces the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// New creates a Scheduler over the given workflows. Ticks deliver to the
// given reply surface with an empty event: scheduled walks have no inbound
// user, group, or message.
func New(eng *engine.Engine, workflows []*flow.Workflow, surface reply.Surface, opts ...Option) *Scheduler {
	s := &Scheduler{
		engine:    eng,
		workflows: workflows,
		surface:   surface,
		interval:  DefaultInterval,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run ticks until ctx is cancelled. The first tick happens one interval
// after start, not immediately, so restarts do not double-fire.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("scheduler started", "interval", s.interval, "workflows", len(s.workflows))
	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick fires the scheduled triggers of every registered workflow once and
// returns how many workflows ran. Exported so the serve command and tests
// can drive ticks directly.
func (s *Scheduler) Tick(ctx context.Context) int {
	ran := 0
	for _, wf := range s.workflows {
		if s.engine.ExecuteFromTrigger(ctx, wf, flow.Event{}, s.surface) {
			ran++
		}
	}
	if ran > 0 {
		s.log.Debug("tick complete", "fired", ran)
	}
	return ran
}
