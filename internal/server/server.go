package server

import (
	"context"
	"time"

	"github.com/tradeflow/tradeflow/internal/controllers"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

type HTTPServerDependencies struct {
	WorkflowController *controllers.WorkflowController
}

func NewHTTPServer(ctx context.Context, deps HTTPServerDependencies) *fiber.App {
	router := fiber.New(fiber.Config{
		AppName: "tradeflow-engine",
	})

	router.Use(cors.New())
	router.Use(logger.New())

	router.Get("/health", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":    "healthy",
			"service":   "tradeflow-engine",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	workflows := router.Group("/workflows")
	workflows.Post("/", deps.WorkflowController.UpsertWorkflow)
	workflows.Get("/:workflowID", deps.WorkflowController.GetWorkflow)
	workflows.Post("/:workflowID/run", deps.WorkflowController.RunWorkflow)
	workflows.Get("/:workflowID/executions", deps.WorkflowController.ListExecutions)

	router.Get("/executions/:executionID/logs", deps.WorkflowController.ListNodeLogs)

	schedules := router.Group("/scheduled-jobs")
	schedules.Post("/", deps.WorkflowController.CreateScheduledJob)
	schedules.Get("/", deps.WorkflowController.ListScheduledJobs)
	schedules.Post("/:jobID/toggle", deps.WorkflowController.ToggleScheduledJob)

	queue := router.Group("/queue")
	queue.Get("/status", deps.WorkflowController.GetQueueStatus)
	queue.Post("/:entryID/cancel", deps.WorkflowController.CancelQueuedJob)
	queue.Post("/:entryID/retry", deps.WorkflowController.RetryFailedJob)

	router.Get("/notifications", deps.WorkflowController.ListNotifications)

	return router
}
