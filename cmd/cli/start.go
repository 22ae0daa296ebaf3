package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tradeflow/tradeflow/internal/broker"
	"github.com/tradeflow/tradeflow/internal/controllers"
	"github.com/tradeflow/tradeflow/internal/domain"
	"github.com/tradeflow/tradeflow/internal/executor"
	"github.com/tradeflow/tradeflow/internal/notify"
	"github.com/tradeflow/tradeflow/internal/queue"
	"github.com/tradeflow/tradeflow/internal/scheduler"
	"github.com/tradeflow/tradeflow/internal/server"
	"github.com/tradeflow/tradeflow/internal/service"
	"github.com/tradeflow/tradeflow/internal/storage/memory"
	"github.com/tradeflow/tradeflow/internal/storage/postgres"
	"github.com/tradeflow/tradeflow/internal/storage/redis"
	"github.com/tradeflow/tradeflow/pkg/nodes"
	"github.com/tradeflow/tradeflow/pkg/nodes/indicators"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func NewStartCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the workflow engine",
		Long:  `Start the scheduler loop, the job queue and the management API.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart()
		},
	}

	return cmd
}

// stores groups the persistence interfaces so the postgres-backed and
// in-memory configurations wire identically.
type stores struct {
	workflows  domain.WorkflowStore
	executions domain.ExecutionStore
	schedules  domain.ScheduleStore
	queue      domain.QueueStore
	state      domain.WorkflowStateStore

	close func()
}

func buildStores(ctx context.Context, config *Config) (*stores, error) {
	if config.DatabaseURL == "" {
		log.Warn().Msg("No DATABASE_URL configured, using in-memory stores")

		memStore := memory.NewStore()

		return &stores{
			workflows:  memStore,
			executions: memStore,
			schedules:  memStore,
			queue:      memStore,
			state:      memStore,
			close:      func() {},
		}, nil
	}

	pgStore, err := postgres.NewStore(ctx, config.DatabaseURL)
	if err != nil {
		return nil, err
	}

	s := &stores{
		workflows:  pgStore,
		executions: pgStore,
		schedules:  pgStore,
		queue:      pgStore,
		state:      pgStore,
		close:      pgStore.Close,
	}

	if config.RedisURL != "" {
		stateStore, err := redis.NewStateStore(ctx, config.RedisURL)
		if err != nil {
			pgStore.Close()
			return nil, err
		}

		s.state = stateStore
		s.close = func() {
			if err := stateStore.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close redis client")
			}

			pgStore.Close()
		}
	}

	return s, nil
}

func runStart() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	config, err := LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().
		Str("http_address", config.HTTPAddress).
		Dur("tick_interval", config.TickInterval).
		Msg("Starting workflow engine")

	engineStores, err := buildStores(ctx, config)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize stores")
	}
	defer engineStores.close()

	marketBroker := broker.NewSimulated()
	notifier := notify.NewDashboardNotifier()

	registry := domain.NewNodeRegistry()
	nodes.RegisterAll(registry, domain.NodeDeps{
		Broker:     marketBroker,
		StateStore: engineStores.state,
		Notifier:   notifier,
		AIConfig: domain.AIConfig{
			OpenAIAPIKey:     config.OpenAIAPIKey,
			AnthropicAPIKey:  config.AnthropicAPIKey,
			GroqAPIKey:       config.GroqAPIKey,
			OpenRouterAPIKey: config.OpenRouterAPIKey,
		},
	})

	log.Info().Int("node_types", len(registry.RegisteredTypes())).Msg("Node registry ready")

	graphExecutor := executor.NewExecutor(executor.ExecutorDependencies{
		Registry:   registry,
		Executions: engineStores.executions,
	})

	queueManager := queue.NewManager(queue.ManagerDependencies{
		Store:     engineStores.queue,
		Schedules: engineStores.schedules,
		Workflows: engineStores.workflows,
		Runner:    graphExecutor,
	})

	evaluator := scheduler.NewEvaluator(scheduler.EvaluatorDependencies{
		Broker:     marketBroker,
		Indicators: indicators.NewSource(marketBroker),
	})

	engineScheduler := scheduler.NewScheduler(scheduler.SchedulerDependencies{
		Schedules:    engineStores.schedules,
		Queue:        queueManager,
		Evaluator:    evaluator,
		TickInterval: config.TickInterval,
	})

	go engineScheduler.Start(ctx)

	engineService := service.NewService(service.ServiceDependencies{
		Workflows:  engineStores.workflows,
		Schedules:  engineStores.schedules,
		Executions: engineStores.executions,
		Executor:   graphExecutor,
		Queue:      queueManager,
	})

	controller := controllers.NewWorkflowController(controllers.WorkflowControllerDependencies{
		Service:  engineService,
		Notifier: notifier,
	})

	httpServer := server.NewHTTPServer(ctx, server.HTTPServerDependencies{
		WorkflowController: controller,
	})

	if err := httpServer.Listen(config.HTTPAddress, fiber.ListenConfig{
		GracefulContext:       ctx,
		DisableStartupMessage: true,
	}); err != nil {
		log.Error().Err(err).Msg("HTTP server failed")
	}

	engineScheduler.Stop()
	queueManager.Wait()

	log.Info().Msg("Workflow engine stopped")
	return nil
}
