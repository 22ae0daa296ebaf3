package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/tradeflow/tradeflow/internal/domain"

	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
)

// Executor runs one workflow snapshot at a time: it validates the graph,
// walks it in topological order and records every outcome through the
// execution store. Node-level failures stay inside the run; infrastructure
// failures abort it.
type Executor struct {
	registry   *domain.NodeRegistry
	executions domain.ExecutionStore
}

type ExecutorDependencies struct {
	Registry   *domain.NodeRegistry
	Executions domain.ExecutionStore
}

func NewExecutor(deps ExecutorDependencies) *Executor {
	return &Executor{
		registry:   deps.Registry,
		executions: deps.Executions,
	}
}

type ExecuteWorkflowParams struct {
	Workflow domain.Workflow
	UserID   string
	TestMode bool
}

// ExecuteWorkflow runs the workflow and returns its execution record. The
// returned error is non-nil only for infrastructure failures (cycle, unknown
// node type, persistence, cancellation); in those cases the execution status
// already reflects the failure.
func (e *Executor) ExecuteWorkflow(ctx context.Context, params ExecuteWorkflowParams) (domain.WorkflowExecution, error) {
	execution := domain.WorkflowExecution{
		ID:            xid.New().String(),
		WorkflowID:    params.Workflow.ID,
		UserID:        params.UserID,
		Status:        domain.ExecutionStatusRunning,
		StartedAt:     time.Now(),
		ExecutionData: map[string]map[string]any{},
	}

	if err := e.executions.CreateExecution(ctx, execution); err != nil {
		return execution, fmt.Errorf("failed to create execution: %w", err)
	}

	g, err := buildGraph(params.Workflow.Nodes, params.Workflow.Edges)
	if err != nil {
		return e.finalize(ctx, execution, domain.ExecutionStatusFailed, err.Error()), err
	}

	run := &workflowRun{
		executor:  e,
		execution: execution,
		graph:     g,
		context: domain.NodeContext{
			WorkflowID:  params.Workflow.ID,
			UserID:      params.UserID,
			ExecutionID: execution.ID,
			TestMode:    params.TestMode,
		},
		statuses: map[string]domain.NodeStatus{},
		outputs:  map[string]map[string]any{},
	}

	return run.execute(ctx)
}

// workflowRun holds the mutable state of one execution while it walks the
// graph.
type workflowRun struct {
	executor  *Executor
	execution domain.WorkflowExecution
	graph     *graph
	context   domain.NodeContext
	statuses  map[string]domain.NodeStatus
	outputs   map[string]map[string]any
}

func (r *workflowRun) execute(ctx context.Context) (domain.WorkflowExecution, error) {
	for _, node := range r.graph.topologicalOrder() {
		if err := ctx.Err(); err != nil {
			r.execution.ExecutionData = r.outputs

			return r.executor.finalize(ctx, r.execution, domain.ExecutionStatusStopped, "execution cancelled"), err
		}

		if err := r.executeNode(ctx, node); err != nil {
			r.execution.ExecutionData = r.outputs

			return r.executor.finalize(ctx, r.execution, domain.ExecutionStatusFailed, err.Error()), err
		}
	}

	r.execution.ExecutionData = r.outputs

	execution := r.executor.finalize(ctx, r.execution, domain.ExecutionStatusCompleted, "")

	r.executor.saveMetrics(ctx, execution, r.statuses)

	return execution, nil
}

// executeNode runs one node, or records it as skipped when every upstream
// path has failed. A non-nil error aborts the whole run.
func (r *workflowRun) executeNode(ctx context.Context, node domain.WorkflowNode) error {
	if r.shouldSkip(node) {
		r.statuses[node.ID] = domain.NodeStatusSkipped

		skippedLog := domain.NodeExecutionLog{
			ID:          xid.New().String(),
			ExecutionID: r.execution.ID,
			NodeID:      node.ID,
			NodeType:    node.Type,
			Status:      domain.NodeStatusSkipped,
			InputData:   map[string]any{},
			OutputData:  map[string]any{},
			ExecutedAt:  time.Now(),
		}

		if err := r.executor.executions.CreateNodeLog(ctx, skippedLog); err != nil {
			return fmt.Errorf("failed to persist skipped node log: %w", err)
		}

		log.Debug().
			Str("execution_id", r.execution.ID).
			Str("node_id", node.ID).
			Msg("Node skipped, all upstream paths failed")

		return nil
	}

	inputs := r.resolveInputs(node)

	instance, err := r.executor.registry.CreateNode(ctx, node.Type, domain.CreateNodeParams{
		NodeID:  node.ID,
		Config:  node.Config,
		Context: r.context,
	})
	if err != nil {
		return err
	}

	nodeLog := domain.NodeExecutionLog{
		ID:          xid.New().String(),
		ExecutionID: r.execution.ID,
		NodeID:      node.ID,
		NodeType:    node.Type,
		Status:      domain.NodeStatusRunning,
		InputData:   inputs,
		OutputData:  map[string]any{},
		ExecutedAt:  time.Now(),
	}

	if err := r.executor.executions.CreateNodeLog(ctx, nodeLog); err != nil {
		return fmt.Errorf("failed to persist node log: %w", err)
	}

	result := domain.RunNode(ctx, instance, inputs)

	nodeLog.Status = domain.NodeStatusCompleted
	if !result.Success {
		nodeLog.Status = domain.NodeStatusFailed
	}

	nodeLog.OutputData = result.Output
	nodeLog.ErrorMessage = result.Error
	nodeLog.ExecutionTimeMS = result.ExecutionTimeMS

	if err := r.executor.executions.UpdateNodeLog(ctx, nodeLog); err != nil {
		return fmt.Errorf("failed to finalize node log: %w", err)
	}

	r.statuses[node.ID] = nodeLog.Status

	if result.Success {
		r.outputs[node.ID] = result.Output
	} else {
		log.Warn().
			Str("execution_id", r.execution.ID).
			Str("node_id", node.ID).
			Str("node_type", node.Type).
			Str("error", result.Error).
			Msg("Node failed, dependents reachable only through it will be skipped")
	}

	return nil
}

// shouldSkip reports whether the node has upstream edges and none of them
// comes from a node that completed. A single successful upstream path keeps
// the node eligible.
func (r *workflowRun) shouldSkip(node domain.WorkflowNode) bool {
	incoming := r.graph.incoming[node.ID]
	if len(incoming) == 0 {
		return false
	}

	for _, edge := range incoming {
		if r.statuses[edge.Source] == domain.NodeStatusCompleted {
			return false
		}
	}

	return true
}

// resolveInputs unions the outputs of completed upstream nodes, keyed by each
// edge's target handle. A named source handle selects that key from the
// upstream output; an unnamed one passes the whole output map.
func (r *workflowRun) resolveInputs(node domain.WorkflowNode) map[string]any {
	incoming := r.graph.incoming[node.ID]
	if len(incoming) == 0 {
		return nil
	}

	inputs := map[string]any{}

	for _, edge := range incoming {
		output, ok := r.outputs[edge.Source]
		if !ok {
			continue
		}

		if edge.SourceHandle != "" {
			inputs[edge.TargetKey()] = output[edge.SourceHandle]
			continue
		}

		if edge.TargetHandle == "" {
			// Default-to-default edges merge the upstream output map
			// directly so plain pipelines read naturally.
			for key, value := range output {
				inputs[key] = value
			}
			continue
		}

		inputs[edge.TargetKey()] = output
	}

	return inputs
}

func (e *Executor) finalize(ctx context.Context, execution domain.WorkflowExecution, status domain.ExecutionStatus, errorMessage string) domain.WorkflowExecution {
	completedAt := time.Now()

	execution.Status = status
	execution.CompletedAt = &completedAt
	execution.ErrorMessage = errorMessage

	// The terminal status must land even when the run context was
	// cancelled.
	ctx = context.WithoutCancel(ctx)

	if err := e.executions.UpdateExecution(ctx, execution); err != nil {
		log.Error().
			Err(err).
			Str("execution_id", execution.ID).
			Msg("Failed to finalize execution record")
	}

	return execution
}

func (e *Executor) saveMetrics(ctx context.Context, execution domain.WorkflowExecution, statuses map[string]domain.NodeStatus) {
	metrics := domain.ExecutionMetrics{
		ExecutionID: execution.ID,
		TotalNodes:  len(statuses),
	}

	for _, status := range statuses {
		switch status {
		case domain.NodeStatusCompleted:
			metrics.SuccessfulNodes++
		case domain.NodeStatusFailed:
			metrics.FailedNodes++
		case domain.NodeStatusSkipped:
			metrics.SkippedNodes++
		}
	}

	if execution.CompletedAt != nil {
		metrics.TotalTimeMS = execution.CompletedAt.Sub(execution.StartedAt).Milliseconds()
	}

	if err := e.executions.SaveMetrics(ctx, metrics); err != nil {
		log.Warn().Err(err).Str("execution_id", execution.ID).Msg("Failed to save execution metrics")
	}
}
