package pipeline

import (
	"context"
	"errors"
	"time"

	"governance-backend/internal/reports"
	"governance-backend/internal/shared/telemetry"
)

// ErrCycleInProgress is returned when a trigger arrives while a cycle is
// already running and the caller did not ask to queue behind it.
var ErrCycleInProgress = errors.New("harvest cycle already in progress")

// Scheduler runs cycles on a fixed interval and accepts manual triggers.
// At most one cycle runs at a time; a forced trigger queues exactly one
// follow-up run instead of racing the in-flight cycle.
type Scheduler struct {
	Runner   *Runner
	Interval time.Duration

	sem   chan struct{} // holds the single run slot
	queue chan struct{} // holds at most one queued forced trigger
}

// NewScheduler constructs a Scheduler.
func NewScheduler(runner *Runner, interval time.Duration) *Scheduler {
	return &Scheduler{
		Runner:   runner,
		Interval: interval,
		sem:      make(chan struct{}, 1),
		queue:    make(chan struct{}, 1),
	}
}

// Start runs the interval loop until ctx is cancelled. A tick that lands
// while a manual cycle is still running is skipped, not queued.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			select {
			case s.sem <- struct{}{}:
			default:
				telemetry.Warn("scheduler.tick_skipped", map[string]any{
					"reason": "cycle in progress",
				})
				continue
			}
			if _, err := s.Runner.RunCycle(ctx); err != nil {
				telemetry.Error("scheduler.cycle_failed", map[string]any{
					"error": err.Error(),
				})
			}
			<-s.sem
		}
	}
}

// Trigger runs a cycle on behalf of an API caller and returns its report.
// While another cycle is in flight, an unforced trigger fails with
// ErrCycleInProgress; a forced one waits for the slot, with at most one
// waiter at a time.
func (s *Scheduler) Trigger(ctx context.Context, force bool) (reports.Report, error) {
	select {
	case s.sem <- struct{}{}:
	default:
		if !force {
			return reports.Report{}, ErrCycleInProgress
		}
		select {
		case s.queue <- struct{}{}:
		default:
			// A forced trigger is already queued; coalesce.
			return reports.Report{}, ErrCycleInProgress
		}
		defer func() { <-s.queue }()
		select {
		case s.sem <- struct{}{}:
		case <-ctx.Done():
			return reports.Report{}, ctx.Err()
		}
	}
	defer func() { <-s.sem }()

	return s.Runner.RunCycle(ctx)
}
