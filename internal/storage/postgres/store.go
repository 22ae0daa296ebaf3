// Package postgres persists the orchestration entities in PostgreSQL via
// pgx. One row per entity, JSONB for the loose maps, no cross-row
// transactions beyond what single operations need.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tradeflow/tradeflow/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS workflows (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	nodes JSONB NOT NULL DEFAULT '[]',
	edges JSONB NOT NULL DEFAULT '[]',
	settings JSONB NOT NULL DEFAULT '{}',
	is_active BOOLEAN NOT NULL DEFAULT FALSE,
	trigger_type TEXT NOT NULL DEFAULT 'manual',
	trigger_config JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS workflow_executions (
	id TEXT PRIMARY KEY,
	workflow_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	status TEXT NOT NULL,
	started_at TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ,
	execution_data JSONB NOT NULL DEFAULT '{}',
	error_message TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS node_execution_logs (
	id TEXT PRIMARY KEY,
	execution_id TEXT NOT NULL,
	node_id TEXT NOT NULL,
	node_type TEXT NOT NULL,
	status TEXT NOT NULL,
	input_data JSONB NOT NULL DEFAULT '{}',
	output_data JSONB NOT NULL DEFAULT '{}',
	error_message TEXT NOT NULL DEFAULT '',
	execution_time_ms BIGINT NOT NULL DEFAULT 0,
	executed_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_node_logs_execution ON node_execution_logs (execution_id);

CREATE TABLE IF NOT EXISTS execution_metrics (
	execution_id TEXT PRIMARY KEY,
	total_nodes INT NOT NULL,
	successful_nodes INT NOT NULL,
	failed_nodes INT NOT NULL,
	skipped_nodes INT NOT NULL,
	total_time_ms BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS scheduled_jobs (
	id TEXT PRIMARY KEY,
	workflow_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	trigger_type TEXT NOT NULL,
	trigger_config JSONB NOT NULL DEFAULT '{}',
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	last_run TIMESTAMPTZ,
	next_run TIMESTAMPTZ,
	run_count INT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_scheduled_jobs_active ON scheduled_jobs (is_active);

CREATE TABLE IF NOT EXISTS job_queue (
	id TEXT PRIMARY KEY,
	workflow_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	status TEXT NOT NULL,
	priority INT NOT NULL DEFAULT 0,
	retry_count INT NOT NULL DEFAULT 0,
	max_retries INT NOT NULL DEFAULT 3,
	scheduled_at TIMESTAMPTZ NOT NULL,
	started_at TIMESTAMPTZ,
	completed_at TIMESTAMPTZ,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
-- Backs the single-flight invariant at the storage level as well.
CREATE UNIQUE INDEX IF NOT EXISTS idx_job_queue_single_flight
	ON job_queue (workflow_id) WHERE status IN ('pending', 'running');

CREATE TABLE IF NOT EXISTS workflow_states (
	workflow_id TEXT NOT NULL,
	key TEXT NOT NULL,
	value JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (workflow_id, key)
);
`

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	store := &Store{pool: pool}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return store, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func marshalJSON(value any) ([]byte, error) {
	if value == nil {
		return []byte("{}"), nil
	}

	return json.Marshal(value)
}

func (s *Store) GetWorkflow(ctx context.Context, workflowID string) (domain.Workflow, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, name, description, nodes, edges, settings,
		       is_active, trigger_type, trigger_config, created_at, updated_at
		FROM workflows WHERE id = $1`, workflowID)

	var w domain.Workflow
	var nodes, edges, settings, triggerConfig []byte

	err := row.Scan(&w.ID, &w.UserID, &w.Name, &w.Description, &nodes, &edges,
		&settings, &w.IsActive, &w.TriggerType, &triggerConfig, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Workflow{}, domain.ErrWorkflowNotFound
	}
	if err != nil {
		return domain.Workflow{}, fmt.Errorf("failed to load workflow: %w", err)
	}

	if err := json.Unmarshal(nodes, &w.Nodes); err != nil {
		return domain.Workflow{}, fmt.Errorf("failed to decode workflow nodes: %w", err)
	}
	if err := json.Unmarshal(edges, &w.Edges); err != nil {
		return domain.Workflow{}, fmt.Errorf("failed to decode workflow edges: %w", err)
	}
	if err := json.Unmarshal(settings, &w.Settings); err != nil {
		return domain.Workflow{}, fmt.Errorf("failed to decode workflow settings: %w", err)
	}
	if err := json.Unmarshal(triggerConfig, &w.TriggerConfig); err != nil {
		return domain.Workflow{}, fmt.Errorf("failed to decode trigger config: %w", err)
	}

	return w, nil
}

func (s *Store) UpsertWorkflow(ctx context.Context, workflow domain.Workflow) error {
	nodes, err := json.Marshal(workflow.Nodes)
	if err != nil {
		return fmt.Errorf("failed to encode workflow nodes: %w", err)
	}

	edges, err := json.Marshal(workflow.Edges)
	if err != nil {
		return fmt.Errorf("failed to encode workflow edges: %w", err)
	}

	settings, err := marshalJSON(workflow.Settings)
	if err != nil {
		return err
	}

	triggerConfig, err := marshalJSON(workflow.TriggerConfig)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO workflows (id, user_id, name, description, nodes, edges, settings,
		                       is_active, trigger_type, trigger_config, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			nodes = EXCLUDED.nodes,
			edges = EXCLUDED.edges,
			settings = EXCLUDED.settings,
			is_active = EXCLUDED.is_active,
			trigger_type = EXCLUDED.trigger_type,
			trigger_config = EXCLUDED.trigger_config,
			updated_at = EXCLUDED.updated_at`,
		workflow.ID, workflow.UserID, workflow.Name, workflow.Description, nodes, edges,
		settings, workflow.IsActive, workflow.TriggerType, triggerConfig,
		workflow.CreatedAt, workflow.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert workflow: %w", err)
	}

	return nil
}

func (s *Store) CreateExecution(ctx context.Context, execution domain.WorkflowExecution) error {
	data, err := marshalJSON(execution.ExecutionData)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO workflow_executions (id, workflow_id, user_id, status, started_at,
		                                 completed_at, execution_data, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		execution.ID, execution.WorkflowID, execution.UserID, execution.Status,
		execution.StartedAt, execution.CompletedAt, data, execution.ErrorMessage)
	if err != nil {
		return fmt.Errorf("failed to create execution: %w", err)
	}

	return nil
}

func (s *Store) UpdateExecution(ctx context.Context, execution domain.WorkflowExecution) error {
	data, err := marshalJSON(execution.ExecutionData)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE workflow_executions
		SET status = $2, completed_at = $3, execution_data = $4, error_message = $5
		WHERE id = $1`,
		execution.ID, execution.Status, execution.CompletedAt, data, execution.ErrorMessage)
	if err != nil {
		return fmt.Errorf("failed to update execution: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrExecutionNotFound
	}

	return nil
}

func (s *Store) GetExecution(ctx context.Context, executionID string) (domain.WorkflowExecution, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, workflow_id, user_id, status, started_at, completed_at,
		       execution_data, error_message
		FROM workflow_executions WHERE id = $1`, executionID)

	return scanExecution(row)
}

func (s *Store) ListExecutions(ctx context.Context, workflowID string) ([]domain.WorkflowExecution, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, workflow_id, user_id, status, started_at, completed_at,
		       execution_data, error_message
		FROM workflow_executions WHERE workflow_id = $1
		ORDER BY started_at`, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	defer rows.Close()

	var executions []domain.WorkflowExecution

	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}

		executions = append(executions, execution)
	}

	return executions, rows.Err()
}

func scanExecution(row pgx.Row) (domain.WorkflowExecution, error) {
	var e domain.WorkflowExecution
	var data []byte

	err := row.Scan(&e.ID, &e.WorkflowID, &e.UserID, &e.Status, &e.StartedAt,
		&e.CompletedAt, &data, &e.ErrorMessage)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.WorkflowExecution{}, domain.ErrExecutionNotFound
	}
	if err != nil {
		return domain.WorkflowExecution{}, fmt.Errorf("failed to scan execution: %w", err)
	}

	if err := json.Unmarshal(data, &e.ExecutionData); err != nil {
		return domain.WorkflowExecution{}, fmt.Errorf("failed to decode execution data: %w", err)
	}

	return e, nil
}

func (s *Store) CreateNodeLog(ctx context.Context, log domain.NodeExecutionLog) error {
	input, err := marshalJSON(log.InputData)
	if err != nil {
		return err
	}

	output, err := marshalJSON(log.OutputData)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO node_execution_logs (id, execution_id, node_id, node_type, status,
		                                 input_data, output_data, error_message,
		                                 execution_time_ms, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		log.ID, log.ExecutionID, log.NodeID, log.NodeType, log.Status,
		input, output, log.ErrorMessage, log.ExecutionTimeMS, log.ExecutedAt)
	if err != nil {
		return fmt.Errorf("failed to create node log: %w", err)
	}

	return nil
}

func (s *Store) UpdateNodeLog(ctx context.Context, log domain.NodeExecutionLog) error {
	output, err := marshalJSON(log.OutputData)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE node_execution_logs
		SET status = $2, output_data = $3, error_message = $4, execution_time_ms = $5
		WHERE id = $1`,
		log.ID, log.Status, output, log.ErrorMessage, log.ExecutionTimeMS)
	if err != nil {
		return fmt.Errorf("failed to update node log: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrExecutionNotFound
	}

	return nil
}

func (s *Store) ListNodeLogs(ctx context.Context, executionID string) ([]domain.NodeExecutionLog, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, execution_id, node_id, node_type, status, input_data, output_data,
		       error_message, execution_time_ms, executed_at
		FROM node_execution_logs WHERE execution_id = $1
		ORDER BY executed_at`, executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list node logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.NodeExecutionLog

	for rows.Next() {
		var l domain.NodeExecutionLog
		var input, output []byte

		if err := rows.Scan(&l.ID, &l.ExecutionID, &l.NodeID, &l.NodeType, &l.Status,
			&input, &output, &l.ErrorMessage, &l.ExecutionTimeMS, &l.ExecutedAt); err != nil {
			return nil, fmt.Errorf("failed to scan node log: %w", err)
		}

		if err := json.Unmarshal(input, &l.InputData); err != nil {
			return nil, fmt.Errorf("failed to decode node input: %w", err)
		}

		if err := json.Unmarshal(output, &l.OutputData); err != nil {
			return nil, fmt.Errorf("failed to decode node output: %w", err)
		}

		logs = append(logs, l)
	}

	return logs, rows.Err()
}

func (s *Store) SaveMetrics(ctx context.Context, metrics domain.ExecutionMetrics) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO execution_metrics (execution_id, total_nodes, successful_nodes,
		                               failed_nodes, skipped_nodes, total_time_ms)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (execution_id) DO UPDATE SET
			total_nodes = EXCLUDED.total_nodes,
			successful_nodes = EXCLUDED.successful_nodes,
			failed_nodes = EXCLUDED.failed_nodes,
			skipped_nodes = EXCLUDED.skipped_nodes,
			total_time_ms = EXCLUDED.total_time_ms`,
		metrics.ExecutionID, metrics.TotalNodes, metrics.SuccessfulNodes,
		metrics.FailedNodes, metrics.SkippedNodes, metrics.TotalTimeMS)
	if err != nil {
		return fmt.Errorf("failed to save metrics: %w", err)
	}

	return nil
}

func (s *Store) CreateScheduledJob(ctx context.Context, job domain.ScheduledJob) error {
	config, err := marshalJSON(job.TriggerConfig)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO scheduled_jobs (id, workflow_id, user_id, trigger_type, trigger_config,
		                            is_active, last_run, next_run, run_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		job.ID, job.WorkflowID, job.UserID, job.TriggerType, config,
		job.IsActive, job.LastRun, job.NextRun, job.RunCount, job.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create scheduled job: %w", err)
	}

	return nil
}

func (s *Store) UpdateScheduledJob(ctx context.Context, job domain.ScheduledJob) error {
	config, err := marshalJSON(job.TriggerConfig)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE scheduled_jobs
		SET trigger_type = $2, trigger_config = $3, is_active = $4,
		    last_run = $5, next_run = $6, run_count = $7
		WHERE id = $1`,
		job.ID, job.TriggerType, config, job.IsActive, job.LastRun, job.NextRun, job.RunCount)
	if err != nil {
		return fmt.Errorf("failed to update scheduled job: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrScheduledJobNotFound
	}

	return nil
}

func (s *Store) GetScheduledJob(ctx context.Context, jobID string) (domain.ScheduledJob, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, workflow_id, user_id, trigger_type, trigger_config, is_active,
		       last_run, next_run, run_count, created_at
		FROM scheduled_jobs WHERE id = $1`, jobID)

	return scanScheduledJob(row)
}

func (s *Store) ListActiveScheduledJobs(ctx context.Context) ([]domain.ScheduledJob, error) {
	return s.listScheduledJobs(ctx, `
		SELECT id, workflow_id, user_id, trigger_type, trigger_config, is_active,
		       last_run, next_run, run_count, created_at
		FROM scheduled_jobs WHERE is_active ORDER BY created_at`)
}

func (s *Store) ListScheduledJobs(ctx context.Context, userID string) ([]domain.ScheduledJob, error) {
	return s.listScheduledJobs(ctx, `
		SELECT id, workflow_id, user_id, trigger_type, trigger_config, is_active,
		       last_run, next_run, run_count, created_at
		FROM scheduled_jobs WHERE user_id = $1 ORDER BY created_at`, userID)
}

func (s *Store) listScheduledJobs(ctx context.Context, query string, args ...any) ([]domain.ScheduledJob, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduled jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.ScheduledJob

	for rows.Next() {
		job, err := scanScheduledJob(rows)
		if err != nil {
			return nil, err
		}

		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}

func scanScheduledJob(row pgx.Row) (domain.ScheduledJob, error) {
	var j domain.ScheduledJob
	var config []byte

	err := row.Scan(&j.ID, &j.WorkflowID, &j.UserID, &j.TriggerType, &config,
		&j.IsActive, &j.LastRun, &j.NextRun, &j.RunCount, &j.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ScheduledJob{}, domain.ErrScheduledJobNotFound
	}
	if err != nil {
		return domain.ScheduledJob{}, fmt.Errorf("failed to scan scheduled job: %w", err)
	}

	if err := json.Unmarshal(config, &j.TriggerConfig); err != nil {
		return domain.ScheduledJob{}, fmt.Errorf("failed to decode trigger config: %w", err)
	}

	return j, nil
}

func (s *Store) CreateEntry(ctx context.Context, entry domain.QueueEntry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO job_queue (id, workflow_id, user_id, status, priority, retry_count,
		                       max_retries, scheduled_at, started_at, completed_at,
		                       error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		entry.ID, entry.WorkflowID, entry.UserID, entry.Status, entry.Priority,
		entry.RetryCount, entry.MaxRetries, entry.ScheduledAt, entry.StartedAt,
		entry.CompletedAt, entry.ErrorMessage, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create queue entry: %w", err)
	}

	return nil
}

func (s *Store) UpdateEntry(ctx context.Context, entry domain.QueueEntry) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE job_queue
		SET status = $2, retry_count = $3, started_at = $4, completed_at = $5,
		    error_message = $6
		WHERE id = $1`,
		entry.ID, entry.Status, entry.RetryCount, entry.StartedAt,
		entry.CompletedAt, entry.ErrorMessage)
	if err != nil {
		return fmt.Errorf("failed to update queue entry: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrQueueEntryNotFound
	}

	return nil
}

func (s *Store) GetEntry(ctx context.Context, entryID string) (domain.QueueEntry, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, workflow_id, user_id, status, priority, retry_count, max_retries,
		       scheduled_at, started_at, completed_at, error_message, created_at
		FROM job_queue WHERE id = $1`, entryID)

	return scanQueueEntry(row, domain.ErrQueueEntryNotFound)
}

func (s *Store) FindActiveEntry(ctx context.Context, workflowID string) (domain.QueueEntry, bool, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, workflow_id, user_id, status, priority, retry_count, max_retries,
		       scheduled_at, started_at, completed_at, error_message, created_at
		FROM job_queue
		WHERE workflow_id = $1 AND status IN ('pending', 'running')
		LIMIT 1`, workflowID)

	entry, err := scanQueueEntry(row, pgx.ErrNoRows)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QueueEntry{}, false, nil
	}
	if err != nil {
		return domain.QueueEntry{}, false, err
	}

	return entry, true, nil
}

func scanQueueEntry(row pgx.Row, notFound error) (domain.QueueEntry, error) {
	var e domain.QueueEntry

	err := row.Scan(&e.ID, &e.WorkflowID, &e.UserID, &e.Status, &e.Priority,
		&e.RetryCount, &e.MaxRetries, &e.ScheduledAt, &e.StartedAt,
		&e.CompletedAt, &e.ErrorMessage, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QueueEntry{}, notFound
	}
	if err != nil {
		return domain.QueueEntry{}, fmt.Errorf("failed to scan queue entry: %w", err)
	}

	return e, nil
}

func (s *Store) CountByStatus(ctx context.Context, userID string) (domain.QueueStatusCounts, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT status, COUNT(*) FROM job_queue WHERE user_id = $1 GROUP BY status`, userID)
	if err != nil {
		return domain.QueueStatusCounts{}, fmt.Errorf("failed to count queue entries: %w", err)
	}
	defer rows.Close()

	var counts domain.QueueStatusCounts

	for rows.Next() {
		var status domain.QueueStatus
		var count int

		if err := rows.Scan(&status, &count); err != nil {
			return domain.QueueStatusCounts{}, fmt.Errorf("failed to scan queue count: %w", err)
		}

		switch status {
		case domain.QueueStatusPending:
			counts.Pending = count
		case domain.QueueStatusRunning:
			counts.Running = count
		case domain.QueueStatusCompleted:
			counts.Completed = count
		case domain.QueueStatusFailed:
			counts.Failed = count
		case domain.QueueStatusCancelled:
			counts.Cancelled = count
		}
	}

	return counts, rows.Err()
}

func (s *Store) SetState(ctx context.Context, workflowID string, key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode state value: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO workflow_states (workflow_id, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (workflow_id, key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = now()`,
		workflowID, key, encoded)
	if err != nil {
		return fmt.Errorf("failed to set workflow state: %w", err)
	}

	return nil
}

func (s *Store) GetState(ctx context.Context, workflowID string, key string) (any, bool, error) {
	var encoded []byte

	err := s.pool.QueryRow(ctx, `
		SELECT value FROM workflow_states WHERE workflow_id = $1 AND key = $2`,
		workflowID, key).Scan(&encoded)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get workflow state: %w", err)
	}

	var value any
	if err := json.Unmarshal(encoded, &value); err != nil {
		return nil, false, fmt.Errorf("failed to decode state value: %w", err)
	}

	return value, true, nil
}
