package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	ordersdomain "github.com/Apurer/restaurant-orders/internal/domains/orders/domain"
	ordersports "github.com/Apurer/restaurant-orders/internal/domains/orders/ports"
	paymentsdomain "github.com/Apurer/restaurant-orders/internal/domains/payments/domain"
)

const tracerName = "github.com/Apurer/restaurant-orders/internal/domains/orders/adapters/observability/service"

// Service decorates the ordering service with tracing, logging, and metrics.
type Service struct {
	inner   ordersports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core ordering service.
func New(inner ordersports.Service, opts ...Option) ordersports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) PlaceOrder(ctx context.Context, input ordersports.PlaceOrderInput) (*ordersports.PlaceOrderResult, error) {
	ctx, span := s.tracer.Start(ctx, "OrderingService.PlaceOrder",
		trace.WithAttributes(
			attribute.Int64("order.customer_id", input.CustomerID),
			attribute.Int("order.line_items", len(input.Items)),
			attribute.String("payment.method", input.PaymentMethod)))
	defer span.End()

	s.logInfo(ctx, "placing order", slog.Int64("order.customer_id", input.CustomerID), slog.String("payment.method", input.PaymentMethod))
	result, err := s.inner.PlaceOrder(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to place order", slog.Int64("order.customer_id", input.CustomerID))
	}
	span.SetAttributes(
		attribute.Int64("order.id", result.Order.ID()),
		attribute.String("payment.status", string(result.Payment.Status)))
	s.metrics.recordPlaced(ctx, result.Payment.Method, result.PaymentSucceeded)
	if !result.PaymentSucceeded {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "order payment failed",
			slog.Int64("order.id", result.Order.ID()),
			slog.String("payment.method", string(result.Payment.Method)),
			slog.String("payment.failure_reason", result.Payment.FailureReason))
	}
	s.logInfo(ctx, "order placed",
		slog.Int64("order.id", result.Order.ID()),
		slog.String("order.total", result.Order.TotalAmount().StringFixed(2)),
		slog.String("payment.status", string(result.Payment.Status)))
	return result, nil
}

func (s *Service) GetOrder(ctx context.Context, id int64) (*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderingService.GetOrder", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	result, err := s.inner.GetOrder(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.Int64("order.id", id))
	}
	s.logInfo(ctx, "order loaded", slog.Int64("order.id", id), slog.String("status", string(result.Status())))
	return result, nil
}

func (s *Service) UpdateOrderStatus(ctx context.Context, id int64, status ordersdomain.Status, message string) (*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderingService.UpdateOrderStatus",
		trace.WithAttributes(attribute.Int64("order.id", id), attribute.String("order.requested_status", string(status))))
	defer span.End()

	s.logInfo(ctx, "updating order status", slog.Int64("order.id", id), slog.String("status", string(status)))
	result, err := s.inner.UpdateOrderStatus(ctx, id, status, message)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update order status", slog.Int64("order.id", id))
	}
	span.SetAttributes(attribute.String("order.status", string(result.Status())))
	s.metrics.recordStatusUpdate(ctx, status, result.Status())
	s.logInfo(ctx, "order status updated", slog.Int64("order.id", id), slog.String("status", string(result.Status())))
	return result, nil
}

func (s *Service) CancelOrder(ctx context.Context, id int64) (*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderingService.CancelOrder", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	s.logInfo(ctx, "cancelling order", slog.Int64("order.id", id))
	result, err := s.inner.CancelOrder(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to cancel order", slog.Int64("order.id", id))
	}
	s.metrics.recordStatusUpdate(ctx, ordersdomain.StatusCancelled, result.Status())
	return result, nil
}

func (s *Service) ListOrders(ctx context.Context, query ordersports.Query) ([]*ordersdomain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderingService.ListOrders",
		trace.WithAttributes(
			attribute.Int("query.statuses", len(query.Statuses)),
			attribute.Int64("query.customer_id", query.CustomerID),
			attribute.Int64("query.item_id", query.ItemID),
		))
	defer span.End()

	result, err := s.inner.ListOrders(ctx, query)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list orders")
	}
	span.SetAttributes(attribute.Int("orders.count", len(result)))
	return result, nil
}

func (s *Service) ListPayments(ctx context.Context, orderID int64) ([]*paymentsdomain.Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "OrderingService.ListPayments", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	result, err := s.inner.ListPayments(ctx, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list payments", slog.Int64("order.id", orderID))
	}
	span.SetAttributes(attribute.Int("payments.count", len(result)))
	return result, nil
}

func (s *Service) ResumeMonitoring(ctx context.Context) (int, error) {
	ctx, span := s.tracer.Start(ctx, "OrderingService.ResumeMonitoring")
	defer span.End()

	resumed, err := s.inner.ResumeMonitoring(ctx)
	if err != nil {
		return resumed, s.handleError(ctx, span, err, "failed to resume order monitoring", slog.Int("orders.resumed", resumed))
	}
	span.SetAttributes(attribute.Int("orders.resumed", resumed))
	s.logInfo(ctx, "order monitoring resumed", slog.Int("orders.resumed", resumed))
	return resumed, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

type serviceMetrics struct {
	ordersPlaced   metric.Int64Counter
	statusUpdates  metric.Int64Counter
	paymentsFailed metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	ordersPlaced, _ := m.Int64Counter("orders.service.orders_placed", metric.WithDescription("Number of orders placed"))
	statusUpdates, _ := m.Int64Counter("orders.service.status_updates", metric.WithDescription("Number of order status update requests"))
	paymentsFailed, _ := m.Int64Counter("orders.service.payments_failed", metric.WithDescription("Number of placements whose payment failed"))
	return serviceMetrics{ordersPlaced: ordersPlaced, statusUpdates: statusUpdates, paymentsFailed: paymentsFailed}
}

func (m serviceMetrics) recordPlaced(ctx context.Context, method paymentsdomain.Method, succeeded bool) {
	attrs := metric.WithAttributes(attribute.String("payment.method", string(method)))
	if m.ordersPlaced != nil {
		m.ordersPlaced.Add(ctx, 1, attrs)
	}
	if !succeeded && m.paymentsFailed != nil {
		m.paymentsFailed.Add(ctx, 1, attrs)
	}
}

// recordStatusUpdate tags the counter with whether the order actually moved
// to the requested status; terminal orders ignore updates.
func (m serviceMetrics) recordStatusUpdate(ctx context.Context, requested, current ordersdomain.Status) {
	if m.statusUpdates != nil {
		m.statusUpdates.Add(ctx, 1, metric.WithAttributes(
			attribute.String("order.status", string(requested)),
			attribute.Bool("order.applied", requested == current || requested == ordersdomain.StatusCustom)))
	}
}

var _ ordersports.Service = (*Service)(nil)
