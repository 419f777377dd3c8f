package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"tariff-compare/internal/logging"
)

// SweepFunc is invoked on every interval.
type SweepFunc func(ctx context.Context) error

// Options tune sweep cadence.
type Options struct {
	Interval   time.Duration
	RunOnStart bool
}

// Scheduler drives periodic maintenance jobs, currently the
// calculation-log retention sweep.
type Scheduler struct {
	opts   Options
	logger zerolog.Logger
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		panic("scheduler interval must be positive")
	}
	return &Scheduler{opts: opts, logger: logging.Component(logger, "scheduler")}
}

// Run blocks, invoking sweep every interval until ctx is cancelled. A
// failing sweep is logged and retried on the next tick.
func (s *Scheduler) Run(ctx context.Context, sweep SweepFunc) error {
	if s.opts.RunOnStart {
		s.execute(ctx, sweep)
	}

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.execute(ctx, sweep)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, sweep SweepFunc) {
	started := time.Now()
	if err := sweep(ctx); err != nil {
		s.logger.Error().Err(err).Msg("sweep failed")
		return
	}
	s.logger.Debug().Dur("elapsed", time.Since(started)).Msg("sweep complete")
}
