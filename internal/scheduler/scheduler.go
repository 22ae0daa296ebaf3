// Package scheduler drives the trigger loop: on every tick it evaluates all
// active schedules and pushes due work through the job queue.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tradeflow/tradeflow/internal/domain"
	"github.com/tradeflow/tradeflow/internal/queue"

	"github.com/rs/zerolog/log"
)

const DefaultTickInterval = 60 * time.Second

// Scheduler is constructed once at process start and owns its stop signal.
// Per-schedule failures never abort a tick; a slow workflow never delays the
// next tick because dispatch is handed to the queue's supervised workers.
type Scheduler struct {
	schedules    domain.ScheduleStore
	queue        *queue.Manager
	evaluator    *Evaluator
	tickInterval time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

type SchedulerDependencies struct {
	Schedules domain.ScheduleStore
	Queue     *queue.Manager
	Evaluator *Evaluator

	// TickInterval overrides the loop interval; zero means the default.
	TickInterval time.Duration
}

func NewScheduler(deps SchedulerDependencies) *Scheduler {
	tickInterval := deps.TickInterval
	if tickInterval <= 0 {
		tickInterval = DefaultTickInterval
	}

	return &Scheduler{
		schedules:    deps.Schedules,
		queue:        deps.Queue,
		evaluator:    deps.Evaluator,
		tickInterval: tickInterval,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Start runs the loop until Stop is called or the context is cancelled. It
// blocks; callers run it in its own goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	defer close(s.done)

	log.Info().Dur("tick_interval", s.tickInterval).Msg("Workflow scheduler started")

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Workflow scheduler stopped, context cancelled")
			return
		case <-s.stop:
			log.Info().Msg("Workflow scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// Stop signals the loop to exit and waits for it. In-flight dispatches keep
// running under the queue manager; no new ticks occur.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})

	<-s.done
}

// InFlightJobs reports how many dispatched workflow runs are still going.
func (s *Scheduler) InFlightJobs() int {
	return s.queue.InFlightCount()
}

func (s *Scheduler) tick(ctx context.Context) {
	jobs, err := s.schedules.ListActiveScheduledJobs(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load active schedules")
		return
	}

	now := time.Now()

	for _, job := range jobs {
		if err := s.checkSchedule(ctx, job, now); err != nil {
			// One broken schedule must not starve the rest of the tick.
			log.Error().
				Err(err).
				Str("scheduled_job_id", job.ID).
				Str("workflow_id", job.WorkflowID).
				Str("trigger_type", string(job.TriggerType)).
				Msg("Failed to evaluate schedule")
		}
	}
}

func (s *Scheduler) checkSchedule(ctx context.Context, job domain.ScheduledJob, now time.Time) error {
	evaluation, err := s.evaluator.Evaluate(ctx, job, now)
	if err != nil {
		if errors.Is(err, ErrTriggerNotEvaluated) {
			return nil
		}

		return err
	}

	if evaluation.NextRun != nil && (job.NextRun == nil || !job.NextRun.Equal(*evaluation.NextRun)) {
		job.NextRun = evaluation.NextRun

		if err := s.schedules.UpdateScheduledJob(ctx, job); err != nil {
			log.Warn().
				Err(err).
				Str("scheduled_job_id", job.ID).
				Msg("Failed to persist next run time")
		}
	}

	if !evaluation.Due {
		return nil
	}

	entry, err := s.queue.Enqueue(ctx, queue.EnqueueParams{
		WorkflowID:   job.WorkflowID,
		UserID:       job.UserID,
		ScheduledJob: &job,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyQueued) {
			return nil
		}

		return err
	}

	// Dispatch right away instead of waiting for a worker on the next tick.
	s.queue.DispatchAsync(ctx, entry.ID)

	return nil
}
