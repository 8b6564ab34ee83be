package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// TickFunc executes one poll cycle. It reports idle=true when there was
// nothing to watch, which selects the short backoff instead of the full
// poll interval.
type TickFunc func(ctx context.Context) (idle bool, err error)

// Options tune scheduler behaviour.
type Options struct {
	Interval     time.Duration
	IdleBackoff  time.Duration
	StartupDelay time.Duration
}

// Scheduler drives the two-state poll cadence: a short backoff while no
// rules are active, the configured interval otherwise. Cycles never overlap;
// the next sleep starts only after the tick returns.
type Scheduler struct {
	opts   Options
	logger zerolog.Logger
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		panic("scheduler interval must be positive")
	}
	if opts.IdleBackoff <= 0 {
		opts.IdleBackoff = 5 * time.Second
	}
	return &Scheduler{opts: opts, logger: logger.With().Str("component", "scheduler").Logger()}
}

// Run blocks, invoking the tick function until ctx is cancelled. Tick errors
// are logged, never propagated; the loop's availability outranks any single
// cycle.
func (s *Scheduler) Run(ctx context.Context, tick TickFunc) error {
	if s.opts.StartupDelay > 0 {
		if err := s.sleep(ctx, s.opts.StartupDelay); err != nil {
			return err
		}
	}

	for {
		idle, err := tick(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			s.logger.Error().Err(err).Msg("poll cycle failed")
		}

		delay := s.opts.Interval
		if idle {
			delay = s.opts.IdleBackoff
		}

		s.logger.Debug().Dur("delay", delay).Bool("idle", idle).Msg("waiting for next cycle")
		if err := s.sleep(ctx, delay); err != nil {
			return err
		}
	}
}

func (s *Scheduler) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
