// Package bootstrap builds the adapters shared by the API, the Temporal
// worker and the outbox relay from a loaded configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	"github.com/Apurer/restaurant-orders/internal/app/config"
	notificationskafka "github.com/Apurer/restaurant-orders/internal/domains/notifications/adapters/kafka"
	notificationslogging "github.com/Apurer/restaurant-orders/internal/domains/notifications/adapters/logging"
	notificationsoutbox "github.com/Apurer/restaurant-orders/internal/domains/notifications/adapters/outbox"
	notificationsrabbitmq "github.com/Apurer/restaurant-orders/internal/domains/notifications/adapters/rabbitmq"
	notificationsports "github.com/Apurer/restaurant-orders/internal/domains/notifications/ports"
	ordersmemory "github.com/Apurer/restaurant-orders/internal/domains/orders/adapters/memory"
	ordersobs "github.com/Apurer/restaurant-orders/internal/domains/orders/adapters/observability"
	orderspostgres "github.com/Apurer/restaurant-orders/internal/domains/orders/adapters/persistence/postgres"
	ordersapp "github.com/Apurer/restaurant-orders/internal/domains/orders/application"
	ordersports "github.com/Apurer/restaurant-orders/internal/domains/orders/ports"
	paymentsmemory "github.com/Apurer/restaurant-orders/internal/domains/payments/adapters/memory"
	paymentspostgres "github.com/Apurer/restaurant-orders/internal/domains/payments/adapters/persistence/postgres"
	paymentsdomain "github.com/Apurer/restaurant-orders/internal/domains/payments/domain"
	paymentsports "github.com/Apurer/restaurant-orders/internal/domains/payments/ports"
	"github.com/Apurer/restaurant-orders/internal/platform/migrations"
	platformobservability "github.com/Apurer/restaurant-orders/internal/platform/observability"
	platformpostgres "github.com/Apurer/restaurant-orders/internal/platform/postgres"
)

const observabilityShutdownTimeout = 5 * time.Second

// Repositories holds the order and payment stores of one process.
type Repositories struct {
	Orders   ordersports.Repository
	Payments paymentsports.Repository
	// Durable is false when the stores live in memory.
	Durable bool
}

// BuildRepositories connects to PostgreSQL and migrates the schema, falling
// back to in-memory stores when the DSN is blank or unusable.
func BuildRepositories(ctx context.Context, cfg config.Config, logger *slog.Logger) (Repositories, func()) {
	memory := Repositories{Orders: ordersmemory.NewRepository(), Payments: paymentsmemory.NewRepository()}
	db, cleanup := platformpostgres.ConnectOrFallback(ctx, cfg.PostgresDSN, logger)
	if db == nil {
		return memory, cleanup
	}
	if err := migrations.Run(db); err != nil {
		logger.Warn("failed to migrate postgres schema, falling back to in-memory repositories", slog.String("error", err.Error()))
		cleanup()
		return memory, func() {}
	}
	logger.Info("order and payment repositories configured with postgres")
	return Repositories{
		Orders:   orderspostgres.NewRepository(db),
		Payments: paymentspostgres.NewRepository(db),
		Durable:  true,
	}, cleanup
}

// BuildNotificationTransport selects the transport named by
// cfg.NotificationTransport. Broker failures fall back to logging.
func BuildNotificationTransport(ctx context.Context, cfg config.Config, logger *slog.Logger) (notificationsports.Transport, func()) {
	fallback := func(kind string, err error) (notificationsports.Transport, func()) {
		logger.Warn("notification transport unavailable, logging notifications instead",
			slog.String("transport", kind), slog.String("error", err.Error()))
		return notificationslogging.NewTransport(logger), func() {}
	}
	switch cfg.NotificationTransport {
	case config.TransportRabbitMQ, config.TransportKafka:
		transport, err := DialBroker(cfg.NotificationTransport, cfg)
		if err != nil {
			return fallback(cfg.NotificationTransport, err)
		}
		logger.Info("notifications published to broker", slog.String("transport", cfg.NotificationTransport))
		return transport, closeLogged(transport, logger)
	case config.TransportOutbox:
		pool, err := platformpostgres.ConnectPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return fallback(cfg.NotificationTransport, err)
		}
		logger.Info("notifications written to the postgres outbox")
		return notificationsoutbox.NewTransport(pool), pool.Close
	default:
		return notificationslogging.NewTransport(logger), func() {}
	}
}

// BrokerTransport is a notification transport holding a broker connection.
type BrokerTransport interface {
	notificationsports.Transport
	io.Closer
}

// DialBroker connects the rabbitmq or kafka transport.
func DialBroker(kind string, cfg config.Config) (BrokerTransport, error) {
	switch kind {
	case config.TransportRabbitMQ:
		transport, err := notificationsrabbitmq.Dial(cfg.RabbitMQURL)
		if err != nil {
			return nil, err
		}
		return transport, nil
	case config.TransportKafka:
		transport, err := notificationskafka.NewTransport(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, err
		}
		return transport, nil
	default:
		return nil, fmt.Errorf("%q is not a broker transport", kind)
	}
}

// BuildOrderingService wires the ordering use cases behind the observability
// decorator. monitor may be nil.
func BuildOrderingService(cfg config.Config, repos Repositories, monitor ordersports.Monitor, instruments *platformobservability.Instruments) (ordersports.Service, error) {
	methods, err := cfg.Methods()
	if err != nil {
		return nil, err
	}
	logger := instruments.EffectiveLogger()
	opts := []ordersapp.Option{
		ordersapp.WithPaymentFactory(paymentsdomain.NewFactory(paymentsdomain.WithMethods(methods...))),
		ordersapp.WithLogger(logger),
	}
	if monitor != nil {
		opts = append(opts, ordersapp.WithMonitor(monitor))
	}
	core := ordersapp.NewService(repos.Orders, repos.Payments, opts...)
	return ordersobs.New(
		core,
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	), nil
}

// DialTemporal connects a traced Temporal client unless Temporal is disabled.
func DialTemporal(cfg config.Config, instruments *platformobservability.Instruments, component string) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(temporalotel.TracerOptions{
		Tracer: instruments.Tracer(component),
	})
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(instruments.EffectiveLogger()),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

// InitObservability sets up logging, tracing and meters for serviceName with
// the configured log level and format. The returned func flushes telemetry
// and must run before the process exits.
func InitObservability(ctx context.Context, cfg config.Config, serviceName string) (*platformobservability.Instruments, func(), error) {
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName,
		platformobservability.WithLogLevel(cfg.LogLevel),
		platformobservability.WithLogFormat(cfg.LogFormat),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	return instruments, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), observabilityShutdownTimeout)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}, nil
}

func closeLogged(closer io.Closer, logger *slog.Logger) func() {
	return func() {
		if err := closer.Close(); err != nil {
			logger.Warn("failed to close notification transport", slog.String("error", err.Error()))
		}
	}
}
