package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	ordersserver "github.com/Apurer/restaurant-orders/go"
	"github.com/Apurer/restaurant-orders/internal/app/bootstrap"
	"github.com/Apurer/restaurant-orders/internal/app/config"
	notificationsapp "github.com/Apurer/restaurant-orders/internal/domains/notifications/application"
	ordersworkflows "github.com/Apurer/restaurant-orders/internal/domains/orders/adapters/workflows"
	ordersports "github.com/Apurer/restaurant-orders/internal/domains/orders/ports"
	platformmetrics "github.com/Apurer/restaurant-orders/internal/platform/metrics"
	platformobservability "github.com/Apurer/restaurant-orders/internal/platform/observability"
)

const (
	serviceName     = "restaurant-orders-api"
	shutdownTimeout = 10 * time.Second
)

// Run boots the ordering HTTP API with observability, repositories,
// notifications and workflows wired. It returns when ctx is cancelled.
func Run(ctx context.Context, cfg config.Config) error {
	instruments, shutdown, err := bootstrap.InitObservability(ctx, cfg, serviceName)
	if err != nil {
		return err
	}
	defer shutdown()
	logger := instruments.Logger

	repos, cleanupRepos := bootstrap.BuildRepositories(ctx, cfg, logger)
	defer cleanupRepos()
	transport, cleanupTransport := bootstrap.BuildNotificationTransport(ctx, cfg, logger)
	defer cleanupTransport()

	notifications := notificationsapp.NewService(transport,
		notificationsapp.WithDefaultContactAddress(cfg.DefaultContactAddress),
		notificationsapp.WithLogger(logger),
	)
	orderService, err := bootstrap.BuildOrderingService(cfg, repos, notifications, instruments)
	if err != nil {
		return err
	}
	if resumed, err := orderService.ResumeMonitoring(ctx); err != nil {
		logger.Warn("failed to resume monitoring of open orders", slog.String("error", err.Error()))
	} else if resumed > 0 {
		logger.Info("resumed monitoring of open orders", slog.Int("orders", resumed))
	}

	orderWorkflows, closeWorkflows := buildOrderWorkflows(cfg, repos, orderService, instruments)
	defer closeWorkflows()

	serverMetrics := platformmetrics.NewServerMetrics("api")
	registerNotificationGauges(serverMetrics, notifications, logger)

	router := gin.New()
	router.Use(gin.Recovery(), otelgin.Middleware(serviceName), serverMetrics.Middleware())
	router.GET("/metrics", gin.WrapH(serverMetrics.Handler()))
	router = ordersserver.NewRouterWithGinEngine(router, ordersserver.ApiHandleFunctions{
		OrderAPI:        ordersserver.NewOrderAPI(orderService, orderWorkflows),
		NotificationAPI: ordersserver.NewNotificationAPI(notifications),
	})

	server := &http.Server{Addr: ":" + cfg.Port, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()
	logger.Info("ordering API listening", slog.String("addr", server.Addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("ordering API shutdown failed", slog.String("error", err.Error()))
			return err
		}
		logger.Info("ordering API stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("ordering API server exited", slog.String("addr", server.Addr), slog.String("error", err.Error()))
		return err
	}
}

// buildOrderWorkflows prefers Temporal placement. Orders placed by the worker
// are only visible to this process through a shared database, so in-memory
// repositories always place inline.
func buildOrderWorkflows(cfg config.Config, repos bootstrap.Repositories, service ordersports.Service, instruments *platformobservability.Instruments) (ordersports.WorkflowOrchestrator, func()) {
	logger := instruments.EffectiveLogger()
	inline := ordersworkflows.NewInlineOrderWorkflows(service)
	if !repos.Durable {
		logger.Info("in-memory repositories configured, placing orders inline")
		return inline, func() {}
	}
	temporalClient, err := bootstrap.DialTemporal(cfg, instruments, "temporal-client")
	if err != nil {
		logger.Warn("Temporal workflows unavailable, placing orders inline", slog.String("error", err.Error()))
		return inline, func() {}
	}
	logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	return ordersworkflows.NewTemporalOrderWorkflows(temporalClient), temporalClient.Close
}

func registerNotificationGauges(m *platformmetrics.ServerMetrics, notifications *notificationsapp.Service, logger *slog.Logger) {
	gauges := []struct {
		name, help string
		read       func() float64
	}{
		{"monitored_orders", "Orders currently attached to notification observers.", func() float64 {
			return float64(notifications.Stats().MonitoredOrders)
		}},
		{"customer_notifications", "Events received by the customer observer since start.", func() float64 {
			return float64(notifications.Stats().CustomerNotifications)
		}},
		{"kitchen_notifications", "Events received by the kitchen observer since start.", func() float64 {
			return float64(notifications.Stats().KitchenNotifications)
		}},
		{"delivery_notifications", "Events received by the delivery observer since start.", func() float64 {
			return float64(notifications.Stats().DeliveryNotifications)
		}},
	}
	for _, g := range gauges {
		if err := m.RegisterGaugeFunc(g.name, g.help, g.read); err != nil {
			logger.Warn("failed to register gauge", slog.String("gauge", g.name), slog.String("error", err.Error()))
		}
	}
}
