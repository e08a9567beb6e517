package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Apurer/restaurant-orders/internal/domains/orders/domain"
	"github.com/Apurer/restaurant-orders/internal/domains/orders/ports"
	paymentsdomain "github.com/Apurer/restaurant-orders/internal/domains/payments/domain"
	paymentsports "github.com/Apurer/restaurant-orders/internal/domains/payments/ports"
)

var openStatuses = []domain.Status{
	domain.StatusPending,
	domain.StatusPreparing,
	domain.StatusReady,
	domain.StatusDelivered,
}

// Service orchestrates the ordering use cases: placement with payment,
// status changes and queries.
type Service struct {
	orders   ports.Repository
	payments paymentsports.Repository
	factory  *paymentsdomain.Factory
	monitor  ports.Monitor
	logger   *slog.Logger
	orderOpt domain.Option
}

// Option customises the service.
type Option func(*Service)

// WithPaymentFactory replaces the default factory accepting every method.
func WithPaymentFactory(factory *paymentsdomain.Factory) Option {
	return func(s *Service) {
		if factory != nil {
			s.factory = factory
		}
	}
}

// WithMonitor attaches placed orders to the notification coordinator and
// persists status changes it applies.
func WithMonitor(monitor ports.Monitor) Option {
	return func(s *Service) {
		s.monitor = monitor
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithOrderOptions passes construction options, such as a clock, to new orders.
func WithOrderOptions(opt domain.Option) Option {
	return func(s *Service) {
		s.orderOpt = opt
	}
}

// NewService wires the ordering service with its dependencies.
func NewService(orders ports.Repository, payments paymentsports.Repository, opts ...Option) *Service {
	s := &Service{
		orders:   orders,
		payments: payments,
		factory:  paymentsdomain.NewFactory(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.monitor != nil {
		s.monitor.OnStatusChanged(s.persistStatusChange)
	}
	return s
}

// PlaceOrder validates the request, persists the order, processes its payment
// and records the outcome on both the order and the payment store before the
// order is handed to the notification coordinator.
//
// The payment is created before the order is stored, so an unsupported
// method or a zero total leaves nothing behind.
func (s *Service) PlaceOrder(ctx context.Context, input ports.PlaceOrderInput) (*ports.PlaceOrderResult, error) {
	order, err := domain.NewOrder(input.CustomerID, input.Items,
		domain.WithContactAddress(input.ContactAddress), s.orderOpt)
	if err != nil {
		return nil, mapError(err)
	}
	payment, err := s.factory.Create(input.PaymentMethod, order.TotalAmount())
	if err != nil {
		return nil, mapError(err)
	}
	if err := paymentsdomain.ApplyDetails(payment, input.PaymentDetails); err != nil {
		return nil, mapError(err)
	}
	if _, err := s.orders.Save(ctx, order); err != nil {
		return nil, mapError(err)
	}

	payment.BindOrder(order.ID())
	if err := payment.Process(); err != nil {
		return nil, err
	}
	succeeded := payment.Status() == paymentsdomain.StatusCompleted
	outcome := domain.PaymentFailed
	if succeeded {
		outcome = domain.PaymentCompleted
	}
	if err := order.RecordPaymentOutcome(outcome); err != nil {
		return nil, err
	}
	// Payment first: an order marked paid must always have its payment row.
	snapshot := payment.Snapshot()
	if _, err := s.payments.Save(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("store payment for order %d: %w", order.ID(), err)
	}
	if _, err := s.orders.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("store payment outcome for order %d: %w", order.ID(), err)
	}

	if s.monitor != nil {
		if err := s.monitor.StartMonitoring(order, input.ContactAddress); err != nil {
			return nil, err
		}
	}
	return &ports.PlaceOrderResult{Order: order, Payment: snapshot, PaymentSucceeded: succeeded}, nil
}

// GetOrder returns the live monitored order when there is one, otherwise the
// stored state.
func (s *Service) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	if s.monitor != nil {
		if order, ok := s.monitor.Lookup(id); ok {
			return order, nil
		}
	}
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	return order, nil
}

// UpdateOrderStatus applies status to the order and stores it. Updates on a
// completed or cancelled order are ignored and the order is returned as is.
// Observer delivery failures are logged; the change itself stands. An order
// that became terminal is no longer monitored once it is stored.
func (s *Service) UpdateOrderStatus(ctx context.Context, id int64, status domain.Status, message string) (*domain.Order, error) {
	order, err := s.liveOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	applied, err := order.ApplyStatus(ctx, status, message)
	if err != nil {
		if !errors.Is(err, domain.ErrNotificationDelivery) {
			return nil, mapError(err)
		}
		s.logger.LogAttrs(ctx, slog.LevelWarn, "order observers failed",
			slog.Int64("order.id", id), slog.String("status", string(status)), slog.String("error", err.Error()))
	}
	if !applied || status == domain.StatusCustom {
		return order, nil
	}
	if _, err := s.orders.Save(ctx, order); err != nil {
		return nil, mapError(err)
	}
	if s.monitor != nil && order.IsTerminal() {
		s.monitor.StopMonitoring(order)
	}
	return order, nil
}

// CancelOrder cancels the order with the default message.
func (s *Service) CancelOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return s.UpdateOrderStatus(ctx, id, domain.StatusCancelled, domain.DefaultCancelMessage)
}

// ListOrders returns stored orders matching query.
func (s *Service) ListOrders(ctx context.Context, query ports.Query) ([]*domain.Order, error) {
	for _, status := range query.Statuses {
		if status == domain.StatusCustom {
			return nil, mapError(fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status))
		}
	}
	orders, err := s.orders.Find(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	return orders, nil
}

// ListPayments returns every payment attempt made for an existing order.
func (s *Service) ListPayments(ctx context.Context, orderID int64) ([]*paymentsdomain.Snapshot, error) {
	if _, err := s.orders.GetByID(ctx, orderID); err != nil {
		return nil, mapError(err)
	}
	return s.payments.ListByOrder(ctx, orderID)
}

// ResumeMonitoring re-attaches observers to every stored open order.
func (s *Service) ResumeMonitoring(ctx context.Context) (int, error) {
	if s.monitor == nil {
		return 0, nil
	}
	orders, err := s.orders.Find(ctx, ports.Query{Statuses: openStatuses})
	if err != nil {
		return 0, err
	}
	resumed := 0
	for _, order := range orders {
		if _, ok := s.monitor.Lookup(order.ID()); ok {
			continue
		}
		if err := s.monitor.StartMonitoring(order, order.ContactAddress()); err != nil {
			return resumed, err
		}
		resumed++
	}
	return resumed, nil
}

// liveOrder returns the monitored instance of id, loading and monitoring the
// stored order when it is open but not yet tracked by this process.
func (s *Service) liveOrder(ctx context.Context, id int64) (*domain.Order, error) {
	if s.monitor != nil {
		if order, ok := s.monitor.Lookup(id); ok {
			return order, nil
		}
	}
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	if s.monitor != nil && !order.IsTerminal() {
		if err := s.monitor.StartMonitoring(order, order.ContactAddress()); err != nil {
			return nil, err
		}
		// A concurrent caller may have registered its own instance first.
		if live, ok := s.monitor.Lookup(id); ok {
			return live, nil
		}
	}
	return order, nil
}

func (s *Service) persistStatusChange(ctx context.Context, order *domain.Order) {
	if _, err := s.orders.Save(ctx, order); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelError, "failed to persist order status change",
			slog.Int64("order.id", order.ID()), slog.String("error", err.Error()))
	}
}

var _ ports.Service = (*Service)(nil)
