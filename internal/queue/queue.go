// Package queue tracks workflow-run requests through their lifecycle:
// pending, running and a terminal state. It enforces the single-flight
// invariant (one active entry per workflow), owns the bounded retry loop and
// carries the cancellation signal into running executions.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tradeflow/tradeflow/internal/domain"
	"github.com/tradeflow/tradeflow/internal/executor"

	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxRetries       = 3
	DefaultRetryBackoffBase = 5 * time.Second
)

// WorkflowRunner is what the queue needs from the graph executor.
type WorkflowRunner interface {
	ExecuteWorkflow(ctx context.Context, params executor.ExecuteWorkflowParams) (domain.WorkflowExecution, error)
}

type Manager struct {
	store     domain.QueueStore
	schedules domain.ScheduleStore
	workflows domain.WorkflowStore
	runner    WorkflowRunner

	backoffBase time.Duration
	maxRetries  int

	// enqueueMu serializes the single-flight check-and-insert.
	enqueueMu sync.Mutex

	// cancelMu guards the cancel funcs of running dispatches.
	cancelMu sync.Mutex
	cancels  map[string]context.CancelFunc

	wg       sync.WaitGroup
	inFlight sync.Map
}

type ManagerDependencies struct {
	Store     domain.QueueStore
	Schedules domain.ScheduleStore
	Workflows domain.WorkflowStore
	Runner    WorkflowRunner

	// RetryBackoffBase overrides the retry delay unit; zero means the
	// default.
	RetryBackoffBase time.Duration

	// MaxRetries overrides the retry bound for new entries; zero means the
	// default.
	MaxRetries int
}

func NewManager(deps ManagerDependencies) *Manager {
	backoffBase := deps.RetryBackoffBase
	if backoffBase <= 0 {
		backoffBase = DefaultRetryBackoffBase
	}

	maxRetries := deps.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	return &Manager{
		store:       deps.Store,
		schedules:   deps.Schedules,
		workflows:   deps.Workflows,
		runner:      deps.Runner,
		backoffBase: backoffBase,
		maxRetries:  maxRetries,
		cancels:     map[string]context.CancelFunc{},
	}
}

type EnqueueParams struct {
	WorkflowID string
	UserID     string
	Priority   int

	// ScheduledJob, when set, is the schedule that fired; its last_run and
	// run_count are updated as part of the enqueue.
	ScheduledJob *domain.ScheduledJob
}

// Enqueue inserts a pending entry for the workflow. It returns
// domain.ErrAlreadyQueued when a pending or running entry already exists.
func (m *Manager) Enqueue(ctx context.Context, params EnqueueParams) (domain.QueueEntry, error) {
	m.enqueueMu.Lock()
	defer m.enqueueMu.Unlock()

	existing, found, err := m.store.FindActiveEntry(ctx, params.WorkflowID)
	if err != nil {
		return domain.QueueEntry{}, fmt.Errorf("failed to check queue for workflow %s: %w", params.WorkflowID, err)
	}

	if found {
		log.Info().
			Str("workflow_id", params.WorkflowID).
			Str("entry_id", existing.ID).
			Str("status", string(existing.Status)).
			Msg("Workflow already queued or running, skipping enqueue")

		return existing, domain.ErrAlreadyQueued
	}

	now := time.Now()

	entry := domain.QueueEntry{
		ID:          xid.New().String(),
		WorkflowID:  params.WorkflowID,
		UserID:      params.UserID,
		Status:      domain.QueueStatusPending,
		Priority:    params.Priority,
		MaxRetries:  m.maxRetries,
		ScheduledAt: now,
		CreatedAt:   now,
	}

	if err := m.store.CreateEntry(ctx, entry); err != nil {
		return domain.QueueEntry{}, fmt.Errorf("failed to create queue entry: %w", err)
	}

	if params.ScheduledJob != nil {
		job := *params.ScheduledJob
		job.LastRun = &now
		job.RunCount++

		if err := m.schedules.UpdateScheduledJob(ctx, job); err != nil {
			log.Error().
				Err(err).
				Str("scheduled_job_id", job.ID).
				Msg("Failed to update scheduled job after enqueue")
		}
	}

	log.Info().
		Str("workflow_id", params.WorkflowID).
		Str("entry_id", entry.ID).
		Msg("Queued workflow for execution")

	return entry, nil
}

// Dispatch transitions a pending entry to running and executes the workflow.
// It blocks until the execution finishes; DispatchAsync is the supervised
// fire-and-forget variant the scheduler uses.
func (m *Manager) Dispatch(ctx context.Context, entryID string) error {
	entry, err := m.store.GetEntry(ctx, entryID)
	if err != nil {
		return err
	}

	if entry.Status != domain.QueueStatusPending {
		return fmt.Errorf("%w: cannot dispatch entry in status %s", domain.ErrInvalidQueueTransition, entry.Status)
	}

	startedAt := time.Now()
	entry.Status = domain.QueueStatusRunning
	entry.StartedAt = &startedAt

	if err := m.store.UpdateEntry(ctx, entry); err != nil {
		return fmt.Errorf("failed to mark entry running: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	m.cancelMu.Lock()
	m.cancels[entry.ID] = cancel
	m.cancelMu.Unlock()

	defer func() {
		m.cancelMu.Lock()
		delete(m.cancels, entry.ID)
		m.cancelMu.Unlock()
	}()

	execution, runErr := m.runWorkflow(runCtx, entry)

	// Post-run bookkeeping must survive a parent context that died while the
	// run was in flight.
	finalizeCtx := context.WithoutCancel(ctx)

	// Cancellation wins over any other outcome: the entry was already moved
	// to cancelled by Cancel and must stay there.
	if current, err := m.store.GetEntry(finalizeCtx, entry.ID); err == nil && current.Status == domain.QueueStatusCancelled {
		log.Info().Str("entry_id", entry.ID).Msg("Dispatch finished after cancellation")
		return nil
	}

	// A stopped run means the dispatch context was cancelled out from under
	// it, typically at shutdown. The entry is terminal; a retry would only
	// re-run with a dead context.
	if execution.Status == domain.ExecutionStatusStopped || errors.Is(runErr, context.Canceled) {
		completedAt := time.Now()
		entry.Status = domain.QueueStatusCancelled
		entry.CompletedAt = &completedAt

		if err := m.store.UpdateEntry(finalizeCtx, entry); err != nil {
			return fmt.Errorf("failed to mark entry cancelled: %w", err)
		}

		log.Info().
			Str("entry_id", entry.ID).
			Str("workflow_id", entry.WorkflowID).
			Msg("Queue entry cancelled, execution stopped")

		return runErr
	}

	if runErr != nil || execution.Status != domain.ExecutionStatusCompleted {
		message := execution.ErrorMessage
		if message == "" && runErr != nil {
			message = runErr.Error()
		}

		return m.handleFailure(ctx, entry.ID, message)
	}

	completedAt := time.Now()
	entry.Status = domain.QueueStatusCompleted
	entry.CompletedAt = &completedAt
	entry.ErrorMessage = ""

	if err := m.store.UpdateEntry(finalizeCtx, entry); err != nil {
		return fmt.Errorf("failed to mark entry completed: %w", err)
	}

	log.Info().
		Str("entry_id", entry.ID).
		Str("workflow_id", entry.WorkflowID).
		Str("execution_id", execution.ID).
		Msg("Queue entry completed")

	return nil
}

// DispatchAsync runs Dispatch in a supervised goroutine. Panics are caught
// and reported, and the entry fails like any other dispatch error.
func (m *Manager) DispatchAsync(ctx context.Context, entryID string) {
	m.wg.Add(1)
	m.inFlight.Store(entryID, struct{}{})

	go func() {
		defer m.wg.Done()
		defer m.inFlight.Delete(entryID)

		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("entry_id", entryID).
					Interface("panic", r).
					Msg("Dispatch panicked")

				if err := m.handleFailure(ctx, entryID, fmt.Sprintf("dispatch panicked: %v", r)); err != nil {
					log.Error().Err(err).Str("entry_id", entryID).Msg("Failed to record dispatch panic")
				}
			}
		}()

		if err := m.Dispatch(ctx, entryID); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Str("entry_id", entryID).Msg("Dispatch failed")
		}
	}()
}

func (m *Manager) runWorkflow(ctx context.Context, entry domain.QueueEntry) (domain.WorkflowExecution, error) {
	workflow, err := m.workflows.GetWorkflow(ctx, entry.WorkflowID)
	if err != nil {
		return domain.WorkflowExecution{}, fmt.Errorf("failed to load workflow %s: %w", entry.WorkflowID, err)
	}

	return m.runner.ExecuteWorkflow(ctx, executor.ExecuteWorkflowParams{
		Workflow: workflow,
		UserID:   entry.UserID,
	})
}

// handleFailure records the failure and either schedules a delayed
// re-dispatch or leaves the entry terminally failed once retries are
// exhausted.
func (m *Manager) handleFailure(ctx context.Context, entryID string, message string) error {
	entry, err := m.store.GetEntry(ctx, entryID)
	if err != nil {
		return err
	}

	completedAt := time.Now()
	entry.Status = domain.QueueStatusFailed
	entry.CompletedAt = &completedAt
	entry.ErrorMessage = message

	retryable := entry.RetryCount < entry.MaxRetries
	if retryable {
		entry.RetryCount++
	}

	if err := m.store.UpdateEntry(ctx, entry); err != nil {
		return fmt.Errorf("failed to mark entry failed: %w", err)
	}

	if !retryable {
		log.Warn().
			Str("entry_id", entry.ID).
			Str("workflow_id", entry.WorkflowID).
			Int("retry_count", entry.RetryCount).
			Str("error", message).
			Msg("Queue entry failed terminally, retries exhausted")

		return nil
	}

	delay := m.backoffBase * time.Duration(entry.RetryCount)

	log.Info().
		Str("entry_id", entry.ID).
		Int("attempt", entry.RetryCount).
		Int("max_retries", entry.MaxRetries).
		Dur("delay", delay).
		Msg("Scheduling retry")

	// Delayed re-dispatch through a timer rather than recursion; the timer
	// re-checks the entry before re-pending it so a manual cancel, a manual
	// retry or a fresh enqueue for the workflow in the meantime wins.
	m.wg.Add(1)

	time.AfterFunc(delay, func() {
		defer m.wg.Done()

		if !m.requeueForRetry(ctx, entry.ID) {
			return
		}

		if err := m.Dispatch(ctx, entry.ID); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Str("entry_id", entry.ID).Msg("Retry dispatch failed")
		}
	})

	return nil
}

// requeueForRetry flips a still-failed entry back to pending. It runs under
// enqueueMu and re-checks for an active entry, so a workflow that was queued
// again during the backoff window keeps a single active entry.
func (m *Manager) requeueForRetry(ctx context.Context, entryID string) bool {
	m.enqueueMu.Lock()
	defer m.enqueueMu.Unlock()

	current, err := m.store.GetEntry(ctx, entryID)
	if err != nil || current.Status != domain.QueueStatusFailed {
		return false
	}

	active, found, err := m.store.FindActiveEntry(ctx, current.WorkflowID)
	if err != nil {
		log.Error().Err(err).Str("entry_id", entryID).Msg("Failed to check queue before retry")
		return false
	}

	if found {
		log.Info().
			Str("entry_id", entryID).
			Str("workflow_id", current.WorkflowID).
			Str("active_entry_id", active.ID).
			Msg("Skipping retry, workflow already has an active entry")

		return false
	}

	current.Status = domain.QueueStatusPending
	current.StartedAt = nil
	current.CompletedAt = nil

	if err := m.store.UpdateEntry(ctx, current); err != nil {
		log.Error().Err(err).Str("entry_id", entryID).Msg("Failed to requeue entry for retry")
		return false
	}

	return true
}

// Cancel moves a pending or running entry to cancelled. A running entry's
// execution context is cancelled; the executor observes it between nodes.
func (m *Manager) Cancel(ctx context.Context, entryID string) error {
	entry, err := m.store.GetEntry(ctx, entryID)
	if err != nil {
		return err
	}

	if !entry.Status.IsActive() {
		return fmt.Errorf("%w: cannot cancel entry in status %s", domain.ErrInvalidQueueTransition, entry.Status)
	}

	wasRunning := entry.Status == domain.QueueStatusRunning

	completedAt := time.Now()
	entry.Status = domain.QueueStatusCancelled
	entry.CompletedAt = &completedAt

	if err := m.store.UpdateEntry(ctx, entry); err != nil {
		return fmt.Errorf("failed to cancel entry: %w", err)
	}

	if wasRunning {
		m.cancelMu.Lock()
		cancel, ok := m.cancels[entry.ID]
		m.cancelMu.Unlock()

		if ok {
			cancel()
		}
	}

	log.Info().
		Str("entry_id", entry.ID).
		Str("workflow_id", entry.WorkflowID).
		Bool("was_running", wasRunning).
		Msg("Queue entry cancelled")

	return nil
}

// Retry resets a terminally failed entry and dispatches it again. It is
// rejected while the workflow already has an active entry.
func (m *Manager) Retry(ctx context.Context, entryID string) error {
	m.enqueueMu.Lock()
	defer m.enqueueMu.Unlock()

	entry, err := m.store.GetEntry(ctx, entryID)
	if err != nil {
		return err
	}

	if entry.Status != domain.QueueStatusFailed {
		return fmt.Errorf("%w: cannot retry entry in status %s", domain.ErrInvalidQueueTransition, entry.Status)
	}

	if _, found, err := m.store.FindActiveEntry(ctx, entry.WorkflowID); err != nil {
		return fmt.Errorf("failed to check queue for workflow %s: %w", entry.WorkflowID, err)
	} else if found {
		return domain.ErrAlreadyQueued
	}

	entry.Status = domain.QueueStatusPending
	entry.RetryCount = 0
	entry.ErrorMessage = ""
	entry.StartedAt = nil
	entry.CompletedAt = nil

	if err := m.store.UpdateEntry(ctx, entry); err != nil {
		return fmt.Errorf("failed to requeue entry: %w", err)
	}

	m.DispatchAsync(ctx, entry.ID)

	return nil
}

func (m *Manager) GetQueueStatus(ctx context.Context, userID string) (domain.QueueStatusCounts, error) {
	return m.store.CountByStatus(ctx, userID)
}

// InFlightCount reports how many async dispatches are currently running.
func (m *Manager) InFlightCount() int {
	count := 0

	m.inFlight.Range(func(_, _ any) bool {
		count++
		return true
	})

	return count
}

// Wait blocks until every async dispatch and pending retry timer has
// finished. Used on shutdown and by tests.
func (m *Manager) Wait() {
	m.wg.Wait()
}
