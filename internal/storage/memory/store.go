// Package memory provides in-process implementations of the persistence
// interfaces. They back single-node deployments and the test suite; the
// postgres and redis packages provide the durable equivalents.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/tradeflow/tradeflow/internal/domain"
)

type Store struct {
	mu sync.RWMutex

	workflows  map[string]domain.Workflow
	executions map[string]domain.WorkflowExecution
	nodeLogs   map[string][]domain.NodeExecutionLog
	metrics    map[string]domain.ExecutionMetrics
	schedules  map[string]domain.ScheduledJob
	queue      map[string]domain.QueueEntry
	states     map[string]map[string]any

	queueOrder []string
}

func NewStore() *Store {
	return &Store{
		workflows:  map[string]domain.Workflow{},
		executions: map[string]domain.WorkflowExecution{},
		nodeLogs:   map[string][]domain.NodeExecutionLog{},
		metrics:    map[string]domain.ExecutionMetrics{},
		schedules:  map[string]domain.ScheduledJob{},
		queue:      map[string]domain.QueueEntry{},
		states:     map[string]map[string]any{},
	}
}

func (s *Store) GetWorkflow(ctx context.Context, workflowID string) (domain.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	workflow, ok := s.workflows[workflowID]
	if !ok {
		return domain.Workflow{}, domain.ErrWorkflowNotFound
	}

	return workflow, nil
}

func (s *Store) UpsertWorkflow(ctx context.Context, workflow domain.Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.workflows[workflow.ID] = workflow

	return nil
}

func (s *Store) CreateExecution(ctx context.Context, execution domain.WorkflowExecution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.executions[execution.ID] = execution

	return nil
}

func (s *Store) UpdateExecution(ctx context.Context, execution domain.WorkflowExecution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.executions[execution.ID]; !ok {
		return domain.ErrExecutionNotFound
	}

	s.executions[execution.ID] = execution

	return nil
}

func (s *Store) GetExecution(ctx context.Context, executionID string) (domain.WorkflowExecution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	execution, ok := s.executions[executionID]
	if !ok {
		return domain.WorkflowExecution{}, domain.ErrExecutionNotFound
	}

	return execution, nil
}

func (s *Store) ListExecutions(ctx context.Context, workflowID string) ([]domain.WorkflowExecution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var executions []domain.WorkflowExecution
	for _, execution := range s.executions {
		if execution.WorkflowID == workflowID {
			executions = append(executions, execution)
		}
	}

	sort.Slice(executions, func(i, j int) bool {
		return executions[i].StartedAt.Before(executions[j].StartedAt)
	})

	return executions, nil
}

func (s *Store) CreateNodeLog(ctx context.Context, log domain.NodeExecutionLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nodeLogs[log.ExecutionID] = append(s.nodeLogs[log.ExecutionID], log)

	return nil
}

func (s *Store) UpdateNodeLog(ctx context.Context, log domain.NodeExecutionLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	logs := s.nodeLogs[log.ExecutionID]
	for i := range logs {
		if logs[i].ID == log.ID {
			logs[i] = log
			return nil
		}
	}

	return domain.ErrExecutionNotFound
}

func (s *Store) ListNodeLogs(ctx context.Context, executionID string) ([]domain.NodeExecutionLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	logs := make([]domain.NodeExecutionLog, len(s.nodeLogs[executionID]))
	copy(logs, s.nodeLogs[executionID])

	return logs, nil
}

func (s *Store) SaveMetrics(ctx context.Context, metrics domain.ExecutionMetrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics[metrics.ExecutionID] = metrics

	return nil
}

func (s *Store) GetMetrics(ctx context.Context, executionID string) (domain.ExecutionMetrics, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	metrics, ok := s.metrics[executionID]

	return metrics, ok
}

func (s *Store) CreateScheduledJob(ctx context.Context, job domain.ScheduledJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.schedules[job.ID] = job

	return nil
}

func (s *Store) UpdateScheduledJob(ctx context.Context, job domain.ScheduledJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.schedules[job.ID]; !ok {
		return domain.ErrScheduledJobNotFound
	}

	s.schedules[job.ID] = job

	return nil
}

func (s *Store) GetScheduledJob(ctx context.Context, jobID string) (domain.ScheduledJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.schedules[jobID]
	if !ok {
		return domain.ScheduledJob{}, domain.ErrScheduledJobNotFound
	}

	return job, nil
}

func (s *Store) ListActiveScheduledJobs(ctx context.Context) ([]domain.ScheduledJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var jobs []domain.ScheduledJob
	for _, job := range s.schedules {
		if job.IsActive {
			jobs = append(jobs, job)
		}
	}

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
	})

	return jobs, nil
}

func (s *Store) ListScheduledJobs(ctx context.Context, userID string) ([]domain.ScheduledJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var jobs []domain.ScheduledJob
	for _, job := range s.schedules {
		if job.UserID == userID {
			jobs = append(jobs, job)
		}
	}

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
	})

	return jobs, nil
}

func (s *Store) CreateEntry(ctx context.Context, entry domain.QueueEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queue[entry.ID] = entry
	s.queueOrder = append(s.queueOrder, entry.ID)

	return nil
}

func (s *Store) UpdateEntry(ctx context.Context, entry domain.QueueEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.queue[entry.ID]; !ok {
		return domain.ErrQueueEntryNotFound
	}

	s.queue[entry.ID] = entry

	return nil
}

func (s *Store) GetEntry(ctx context.Context, entryID string) (domain.QueueEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.queue[entryID]
	if !ok {
		return domain.QueueEntry{}, domain.ErrQueueEntryNotFound
	}

	return entry, nil
}

func (s *Store) FindActiveEntry(ctx context.Context, workflowID string) (domain.QueueEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, entryID := range s.queueOrder {
		entry := s.queue[entryID]
		if entry.WorkflowID == workflowID && entry.Status.IsActive() {
			return entry, true, nil
		}
	}

	return domain.QueueEntry{}, false, nil
}

func (s *Store) CountByStatus(ctx context.Context, userID string) (domain.QueueStatusCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var counts domain.QueueStatusCounts

	for _, entry := range s.queue {
		if entry.UserID != userID {
			continue
		}

		switch entry.Status {
		case domain.QueueStatusPending:
			counts.Pending++
		case domain.QueueStatusRunning:
			counts.Running++
		case domain.QueueStatusCompleted:
			counts.Completed++
		case domain.QueueStatusFailed:
			counts.Failed++
		case domain.QueueStatusCancelled:
			counts.Cancelled++
		}
	}

	return counts, nil
}

func (s *Store) SetState(ctx context.Context, workflowID string, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	states, ok := s.states[workflowID]
	if !ok {
		states = map[string]any{}
		s.states[workflowID] = states
	}

	states[key] = value

	return nil
}

func (s *Store) GetState(ctx context.Context, workflowID string, key string) (any, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.states[workflowID][key]

	return value, ok, nil
}
