// Package service fronts the orchestration engine for the management
// surface: manual runs, schedule management and queue control.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/tradeflow/tradeflow/internal/domain"
	"github.com/tradeflow/tradeflow/internal/executor"
	"github.com/tradeflow/tradeflow/internal/queue"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Service struct {
	workflows  domain.WorkflowStore
	schedules  domain.ScheduleStore
	executions domain.ExecutionStore
	executor   *executor.Executor
	queue      *queue.Manager
}

type ServiceDependencies struct {
	Workflows  domain.WorkflowStore
	Schedules  domain.ScheduleStore
	Executions domain.ExecutionStore
	Executor   *executor.Executor
	Queue      *queue.Manager
}

func NewService(deps ServiceDependencies) *Service {
	return &Service{
		workflows:  deps.Workflows,
		schedules:  deps.Schedules,
		executions: deps.Executions,
		executor:   deps.Executor,
		queue:      deps.Queue,
	}
}

// RunWorkflow executes a workflow immediately, outside the scheduler path.
// Test mode reaches every node through the run context.
func (s *Service) RunWorkflow(ctx context.Context, workflowID string, userID string, testMode bool) (domain.WorkflowExecution, error) {
	workflow, err := s.workflows.GetWorkflow(ctx, workflowID)
	if err != nil {
		return domain.WorkflowExecution{}, err
	}

	log.Info().
		Str("workflow_id", workflowID).
		Str("user_id", userID).
		Bool("test_mode", testMode).
		Msg("Running workflow on demand")

	execution, err := s.executor.ExecuteWorkflow(ctx, executor.ExecuteWorkflowParams{
		Workflow: workflow,
		UserID:   userID,
		TestMode: testMode,
	})
	if err != nil {
		// The execution record already carries the failure; surface it to
		// the caller alongside the record.
		return execution, err
	}

	return execution, nil
}

func (s *Service) CreateScheduledJob(ctx context.Context, params domain.CreateScheduledJobParams) (domain.ScheduledJob, error) {
	if _, err := s.workflows.GetWorkflow(ctx, params.WorkflowID); err != nil {
		return domain.ScheduledJob{}, err
	}

	switch params.TriggerType {
	case domain.TriggerTypeCron, domain.TriggerTypeTime, domain.TriggerTypePrice,
		domain.TriggerTypeIndicator, domain.TriggerTypeWebhook, domain.TriggerTypeManual:
	default:
		return domain.ScheduledJob{}, fmt.Errorf("unknown trigger type: %s", params.TriggerType)
	}

	job := domain.ScheduledJob{
		ID:            uuid.New().String(),
		WorkflowID:    params.WorkflowID,
		UserID:        params.UserID,
		TriggerType:   params.TriggerType,
		TriggerConfig: params.TriggerConfig,
		IsActive:      true,
		CreatedAt:     time.Now(),
	}

	if err := s.schedules.CreateScheduledJob(ctx, job); err != nil {
		return domain.ScheduledJob{}, fmt.Errorf("failed to create scheduled job: %w", err)
	}

	return job, nil
}

// ToggleScheduledJob flips a schedule's active flag and returns the updated
// record.
func (s *Service) ToggleScheduledJob(ctx context.Context, jobID string) (domain.ScheduledJob, error) {
	job, err := s.schedules.GetScheduledJob(ctx, jobID)
	if err != nil {
		return domain.ScheduledJob{}, err
	}

	job.IsActive = !job.IsActive

	if err := s.schedules.UpdateScheduledJob(ctx, job); err != nil {
		return domain.ScheduledJob{}, fmt.Errorf("failed to toggle scheduled job: %w", err)
	}

	return job, nil
}

func (s *Service) ListScheduledJobs(ctx context.Context, userID string) ([]domain.ScheduledJob, error) {
	return s.schedules.ListScheduledJobs(ctx, userID)
}

func (s *Service) CancelQueuedJob(ctx context.Context, entryID string) error {
	return s.queue.Cancel(ctx, entryID)
}

func (s *Service) RetryFailedJob(ctx context.Context, entryID string) error {
	return s.queue.Retry(ctx, entryID)
}

func (s *Service) GetQueueStatus(ctx context.Context, userID string) (domain.QueueStatusCounts, error) {
	return s.queue.GetQueueStatus(ctx, userID)
}

func (s *Service) ListExecutions(ctx context.Context, workflowID string) ([]domain.WorkflowExecution, error) {
	return s.executions.ListExecutions(ctx, workflowID)
}

func (s *Service) ListNodeLogs(ctx context.Context, executionID string) ([]domain.NodeExecutionLog, error) {
	return s.executions.ListNodeLogs(ctx, executionID)
}

func (s *Service) UpsertWorkflow(ctx context.Context, workflow domain.Workflow) (domain.Workflow, error) {
	if workflow.ID == "" {
		workflow.ID = uuid.New().String()
		workflow.CreatedAt = time.Now()
	}

	workflow.UpdatedAt = time.Now()

	if err := s.workflows.UpsertWorkflow(ctx, workflow); err != nil {
		return domain.Workflow{}, fmt.Errorf("failed to save workflow: %w", err)
	}

	return workflow, nil
}

func (s *Service) GetWorkflow(ctx context.Context, workflowID string) (domain.Workflow, error) {
	return s.workflows.GetWorkflow(ctx, workflowID)
}
