package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Apurer/restaurant-orders/internal/app/bootstrap"
	"github.com/Apurer/restaurant-orders/internal/app/config"
	notificationsoutbox "github.com/Apurer/restaurant-orders/internal/domains/notifications/adapters/outbox"
	platformpostgres "github.com/Apurer/restaurant-orders/internal/platform/postgres"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	const serviceName = "restaurant-orders-outbox-relay"
	instruments, shutdown, err := bootstrap.InitObservability(ctx, cfg, serviceName)
	if err != nil {
		log.Fatal(err)
	}
	defer shutdown()
	logger := instruments.Logger

	pool, err := platformpostgres.ConnectPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Error("POSTGRES_DSN not set or connection failed; cannot relay notifications", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	target, err := bootstrap.DialBroker(cfg.OutboxTarget, cfg)
	if err != nil {
		logger.Error("failed to connect outbox target", slog.String("target", cfg.OutboxTarget), slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer target.Close()

	relay := notificationsoutbox.NewRelay(pool, target,
		notificationsoutbox.WithRelayLogger(logger),
		notificationsoutbox.WithBatchSize(cfg.OutboxRelayBatch),
		notificationsoutbox.WithInterval(cfg.RelayInterval()),
	)
	logger.Info("outbox relay started", slog.String("target", cfg.OutboxTarget), slog.Duration("interval", cfg.RelayInterval()))
	if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("outbox relay failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("outbox relay stopped")
}
