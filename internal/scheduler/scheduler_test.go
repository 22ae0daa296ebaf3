package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tradeflow/tradeflow/internal/domain"
	"github.com/tradeflow/tradeflow/internal/executor"
	"github.com/tradeflow/tradeflow/internal/queue"
	"github.com/tradeflow/tradeflow/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRunner struct {
	calls atomic.Int64
}

func (r *countingRunner) ExecuteWorkflow(ctx context.Context, params executor.ExecuteWorkflowParams) (domain.WorkflowExecution, error) {
	r.calls.Add(1)

	return domain.WorkflowExecution{Status: domain.ExecutionStatusCompleted}, nil
}

func newTestScheduler(t *testing.T) (*Scheduler, *memory.Store, *countingRunner, *queue.Manager) {
	t.Helper()

	store := memory.NewStore()
	runner := &countingRunner{}

	queueManager := queue.NewManager(queue.ManagerDependencies{
		Store:     store,
		Schedules: store,
		Workflows: store,
		Runner:    runner,
	})

	scheduler := NewScheduler(SchedulerDependencies{
		Schedules:    store,
		Queue:        queueManager,
		Evaluator:    NewEvaluator(EvaluatorDependencies{}),
		TickInterval: time.Hour,
	})

	return scheduler, store, runner, queueManager
}

func seedWorkflowAndSchedule(t *testing.T, store *memory.Store, jobID string, workflowID string, config map[string]any) {
	t.Helper()

	require.NoError(t, store.UpsertWorkflow(context.Background(), domain.Workflow{
		ID:     workflowID,
		UserID: "user-1",
		Name:   workflowID,
	}))

	require.NoError(t, store.CreateScheduledJob(context.Background(), domain.ScheduledJob{
		ID:            jobID,
		WorkflowID:    workflowID,
		UserID:        "user-1",
		TriggerType:   domain.TriggerTypeCron,
		TriggerConfig: config,
		IsActive:      true,
		CreatedAt:     time.Now(),
	}))
}

func TestTickEnqueuesOnlyDueSchedules(t *testing.T) {
	scheduler, store, runner, queueManager := newTestScheduler(t)

	// Ran a day ago, so the every-minute schedule is overdue.
	lastRun := time.Now().Add(-24 * time.Hour)
	seedWorkflowAndSchedule(t, store, "job-due", "wf-due", map[string]any{"cron_expression": "* * * * *"})

	dueJob, err := store.GetScheduledJob(context.Background(), "job-due")
	require.NoError(t, err)
	dueJob.LastRun = &lastRun
	require.NoError(t, store.UpdateScheduledJob(context.Background(), dueJob))

	// Just ran, so the daily schedule is not due again yet.
	justRan := time.Now().Add(-time.Minute)
	seedWorkflowAndSchedule(t, store, "job-idle", "wf-idle", map[string]any{"cron_expression": "0 0 * * *"})

	idleJob, err := store.GetScheduledJob(context.Background(), "job-idle")
	require.NoError(t, err)
	idleJob.LastRun = &justRan
	require.NoError(t, store.UpdateScheduledJob(context.Background(), idleJob))

	scheduler.tick(context.Background())
	queueManager.Wait()

	assert.Equal(t, int64(1), runner.calls.Load())

	_, foundDue, err := store.FindActiveEntry(context.Background(), "wf-due")
	require.NoError(t, err)
	assert.False(t, foundDue, "due entry should have completed")

	counts, err := store.CountByStatus(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Completed)
	assert.Equal(t, 0, counts.Pending)

	// Firing updated the schedule's bookkeeping.
	updated, err := store.GetScheduledJob(context.Background(), "job-due")
	require.NoError(t, err)
	assert.Equal(t, 1, updated.RunCount)
	require.NotNil(t, updated.LastRun)
	assert.True(t, updated.LastRun.After(lastRun))
}

func TestTickIsolatesBrokenSchedules(t *testing.T) {
	scheduler, store, runner, queueManager := newTestScheduler(t)

	// The broken schedule sorts first by creation, the healthy one must
	// still fire.
	seedWorkflowAndSchedule(t, store, "job-broken", "wf-broken", map[string]any{"cron_expression": "garbage"})

	lastRun := time.Now().Add(-24 * time.Hour)
	seedWorkflowAndSchedule(t, store, "job-ok", "wf-ok", map[string]any{"cron_expression": "* * * * *"})

	okJob, err := store.GetScheduledJob(context.Background(), "job-ok")
	require.NoError(t, err)
	okJob.LastRun = &lastRun
	require.NoError(t, store.UpdateScheduledJob(context.Background(), okJob))

	scheduler.tick(context.Background())
	queueManager.Wait()

	assert.Equal(t, int64(1), runner.calls.Load())
}

func TestTickPersistsNextRun(t *testing.T) {
	scheduler, store, _, _ := newTestScheduler(t)

	justRan := time.Now()
	seedWorkflowAndSchedule(t, store, "job-1", "wf-1", map[string]any{"cron_expression": "0 0 * * *"})

	job, err := store.GetScheduledJob(context.Background(), "job-1")
	require.NoError(t, err)
	job.LastRun = &justRan
	require.NoError(t, store.UpdateScheduledJob(context.Background(), job))

	scheduler.tick(context.Background())

	updated, err := store.GetScheduledJob(context.Background(), "job-1")
	require.NoError(t, err)
	require.NotNil(t, updated.NextRun)
	assert.True(t, updated.NextRun.After(justRan))
}

func TestTickSkipsInactiveSchedules(t *testing.T) {
	scheduler, store, runner, queueManager := newTestScheduler(t)

	lastRun := time.Now().Add(-24 * time.Hour)
	seedWorkflowAndSchedule(t, store, "job-1", "wf-1", map[string]any{"cron_expression": "* * * * *"})

	job, err := store.GetScheduledJob(context.Background(), "job-1")
	require.NoError(t, err)
	job.LastRun = &lastRun
	job.IsActive = false
	require.NoError(t, store.UpdateScheduledJob(context.Background(), job))

	scheduler.tick(context.Background())
	queueManager.Wait()

	assert.Equal(t, int64(0), runner.calls.Load())
}

func TestSchedulerStartStop(t *testing.T) {
	scheduler, _, _, _ := newTestScheduler(t)

	go scheduler.Start(context.Background())

	done := make(chan struct{})
	go func() {
		scheduler.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
