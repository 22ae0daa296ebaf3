package controllers

import (
	"errors"

	"github.com/tradeflow/tradeflow/internal/domain"
	"github.com/tradeflow/tradeflow/internal/notify"
	"github.com/tradeflow/tradeflow/internal/service"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

// WorkflowController handles the management API for workflows, schedules
// and the job queue.
type WorkflowController struct {
	service  *service.Service
	notifier *notify.DashboardNotifier
}

type WorkflowControllerDependencies struct {
	Service  *service.Service
	Notifier *notify.DashboardNotifier
}

func NewWorkflowController(deps WorkflowControllerDependencies) *WorkflowController {
	return &WorkflowController{
		service:  deps.Service,
		notifier: deps.Notifier,
	}
}

type runWorkflowRequest struct {
	UserID   string `json:"user_id"`
	TestMode bool   `json:"test_mode"`
}

func (c *WorkflowController) RunWorkflow(ctx fiber.Ctx) error {
	workflowID := ctx.Params("workflowID")

	var req runWorkflowRequest

	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	log.Info().
		Str("workflow_id", workflowID).
		Bool("test_mode", req.TestMode).
		Msg("Running workflow")

	execution, err := c.service.RunWorkflow(ctx.RequestCtx(), workflowID, req.UserID, req.TestMode)
	if errors.Is(err, domain.ErrWorkflowNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Workflow not found")
	}
	if err != nil {
		// The execution row still carries the per-node outcome, so return
		// it alongside the failure status.
		log.Error().Err(err).Str("workflow_id", workflowID).Msg("Workflow execution failed")
	}

	return ctx.JSON(execution)
}

func (c *WorkflowController) UpsertWorkflow(ctx fiber.Ctx) error {
	var workflow domain.Workflow

	if err := ctx.Bind().Body(&workflow); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	saved, err := c.service.UpsertWorkflow(ctx.RequestCtx(), workflow)
	if err != nil {
		log.Error().Err(err).Msg("Failed to save workflow")
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to save workflow")
	}

	return ctx.JSON(saved)
}

func (c *WorkflowController) GetWorkflow(ctx fiber.Ctx) error {
	workflow, err := c.service.GetWorkflow(ctx.RequestCtx(), ctx.Params("workflowID"))
	if errors.Is(err, domain.ErrWorkflowNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Workflow not found")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to load workflow")
	}

	return ctx.JSON(workflow)
}

type createScheduledJobRequest struct {
	WorkflowID    string         `json:"workflow_id"`
	UserID        string         `json:"user_id"`
	TriggerType   string         `json:"trigger_type"`
	TriggerConfig map[string]any `json:"trigger_config"`
}

func (c *WorkflowController) CreateScheduledJob(ctx fiber.Ctx) error {
	var req createScheduledJobRequest

	if err := ctx.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	job, err := c.service.CreateScheduledJob(ctx.RequestCtx(), domain.CreateScheduledJobParams{
		WorkflowID:    req.WorkflowID,
		UserID:        req.UserID,
		TriggerType:   domain.TriggerType(req.TriggerType),
		TriggerConfig: req.TriggerConfig,
	})
	if errors.Is(err, domain.ErrWorkflowNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Workflow not found")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return ctx.Status(fiber.StatusCreated).JSON(job)
}

func (c *WorkflowController) ToggleScheduledJob(ctx fiber.Ctx) error {
	job, err := c.service.ToggleScheduledJob(ctx.RequestCtx(), ctx.Params("jobID"))
	if errors.Is(err, domain.ErrScheduledJobNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Scheduled job not found")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to toggle scheduled job")
	}

	return ctx.JSON(job)
}

func (c *WorkflowController) ListScheduledJobs(ctx fiber.Ctx) error {
	jobs, err := c.service.ListScheduledJobs(ctx.RequestCtx(), ctx.Query("user_id"))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to list scheduled jobs")
	}

	return ctx.JSON(fiber.Map{"jobs": jobs})
}

func (c *WorkflowController) CancelQueuedJob(ctx fiber.Ctx) error {
	err := c.service.CancelQueuedJob(ctx.RequestCtx(), ctx.Params("entryID"))
	if errors.Is(err, domain.ErrQueueEntryNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Queue entry not found")
	}
	if errors.Is(err, domain.ErrInvalidQueueTransition) {
		return fiber.NewError(fiber.StatusConflict, "Queue entry is not cancellable")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to cancel job")
	}

	return ctx.JSON(fiber.Map{"cancelled": true})
}

func (c *WorkflowController) RetryFailedJob(ctx fiber.Ctx) error {
	err := c.service.RetryFailedJob(ctx.RequestCtx(), ctx.Params("entryID"))
	if errors.Is(err, domain.ErrQueueEntryNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Queue entry not found")
	}
	if errors.Is(err, domain.ErrInvalidQueueTransition) {
		return fiber.NewError(fiber.StatusConflict, "Queue entry is not retryable")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to retry job")
	}

	return ctx.JSON(fiber.Map{"retried": true})
}

func (c *WorkflowController) GetQueueStatus(ctx fiber.Ctx) error {
	counts, err := c.service.GetQueueStatus(ctx.RequestCtx(), ctx.Query("user_id"))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to load queue status")
	}

	return ctx.JSON(counts)
}

func (c *WorkflowController) ListExecutions(ctx fiber.Ctx) error {
	executions, err := c.service.ListExecutions(ctx.RequestCtx(), ctx.Params("workflowID"))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to list executions")
	}

	return ctx.JSON(fiber.Map{"executions": executions})
}

func (c *WorkflowController) ListNodeLogs(ctx fiber.Ctx) error {
	logs, err := c.service.ListNodeLogs(ctx.RequestCtx(), ctx.Params("executionID"))
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to list node logs")
	}

	return ctx.JSON(fiber.Map{"logs": logs})
}

func (c *WorkflowController) ListNotifications(ctx fiber.Ctx) error {
	return ctx.JSON(fiber.Map{
		"notifications": c.notifier.Recent(ctx.Query("user_id")),
	})
}
