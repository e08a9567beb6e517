package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/restaurant-orders/internal/app/bootstrap"
	"github.com/Apurer/restaurant-orders/internal/app/config"
	orderactivities "github.com/Apurer/restaurant-orders/internal/platform/temporal/activities/orders"
	orderworkflows "github.com/Apurer/restaurant-orders/internal/platform/temporal/workflows/orders"
)

func main() {
	ctx := context.Background()
	const serviceName = "restaurant-orders-worker"
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	instruments, shutdown, err := bootstrap.InitObservability(ctx, cfg, serviceName)
	if err != nil {
		log.Fatal(err)
	}
	defer shutdown()
	logger := instruments.Logger

	repos, cleanupRepos := bootstrap.BuildRepositories(ctx, cfg, logger)
	defer cleanupRepos()
	if !repos.Durable {
		logger.Warn("worker running with in-memory repositories, placed orders are not visible to the API")
	}
	// Observers live in the API process; it picks up placed orders on first access.
	orderService, err := bootstrap.BuildOrderingService(cfg, repos, nil, instruments)
	if err != nil {
		logger.Error("failed to build ordering service", slog.String("error", err.Error()))
		os.Exit(1)
	}
	placementActivities := orderactivities.NewActivities(orderService)

	temporalClient, err := bootstrap.DialTemporal(cfg, instruments, "temporal-worker")
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, orderworkflows.PlacementTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(orderworkflows.PlacementWorkflow, workflow.RegisterOptions{Name: orderworkflows.PlacementWorkflowName})
	w.RegisterActivityWithOptions(placementActivities.PlaceOrder, activity.RegisterOptions{Name: orderactivities.PlaceOrderActivityName})

	logger.Info("worker listening", slog.String("taskQueue", orderworkflows.PlacementTaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}
