package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Apurer/restaurant-orders/internal/domains/notifications/ports"
	"github.com/Apurer/restaurant-orders/internal/domains/orders/domain"
	ordersports "github.com/Apurer/restaurant-orders/internal/domains/orders/ports"
)

// ErrInvalidArgument is returned for a nil order or one without an id.
var ErrInvalidArgument = errors.New("invalid notification argument")

// Service coordinates the customer, kitchen and delivery observers for every
// monitored order. Construct one per process and share it. Orders leave the
// registry when StopMonitoring is called or when UpdateOrderStatus moves them
// to completed or cancelled; orders finished any other way stay registered
// until their owner stops monitoring them.
type Service struct {
	customer *CustomerObserver
	kitchen  *KitchenObserver
	delivery *DeliveryObserver
	logger   *slog.Logger

	mu     sync.RWMutex
	orders map[int64]*domain.Order

	listenersMu sync.RWMutex
	listeners   []ordersports.StatusChangeListener
}

type config struct {
	transports     map[ports.Channel]ports.Transport
	defaultAddress string
	logger         *slog.Logger
	now            func() time.Time
}

// Option customises the service.
type Option func(*config)

// WithChannelTransport routes one channel to its own transport.
func WithChannelTransport(channel ports.Channel, transport ports.Transport) Option {
	return func(c *config) {
		if transport != nil {
			c.transports[channel] = transport
		}
	}
}

// WithDefaultContactAddress sets the customer address used when an order
// registers none.
func WithDefaultContactAddress(address string) Option {
	return func(c *config) {
		c.defaultAddress = address
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides the timestamp source of outgoing messages.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

// NewService builds the coordinator. transport delivers every channel unless
// WithChannelTransport overrides it; nil only counts events.
func NewService(transport ports.Transport, opts ...Option) *Service {
	cfg := &config{
		transports: map[ports.Channel]ports.Transport{},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:        time.Now,
	}
	for _, channel := range []ports.Channel{ports.ChannelCustomer, ports.ChannelKitchen, ports.ChannelDelivery} {
		cfg.transports[channel] = transport
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return &Service{
		customer: newCustomerObserver(cfg.transports[ports.ChannelCustomer], cfg.logger, cfg.now, cfg.defaultAddress),
		kitchen:  newKitchenObserver(cfg.transports[ports.ChannelKitchen], cfg.logger, cfg.now),
		delivery: newDeliveryObserver(cfg.transports[ports.ChannelDelivery], cfg.logger, cfg.now),
		logger:   cfg.logger,
		orders:   map[int64]*domain.Order{},
	}
}

// StartMonitoring attaches the three observers to order and registers it by
// id. contactAddress is where customer messages go; blank uses the default.
// Monitoring an already registered id is a no-op.
func (s *Service) StartMonitoring(order *domain.Order, contactAddress string) error {
	if order == nil {
		return fmt.Errorf("%w: order is nil", ErrInvalidArgument)
	}
	id := order.ID()
	if id == 0 {
		return fmt.Errorf("%w: order has no id", ErrInvalidArgument)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[id]; ok {
		return nil
	}
	if err := s.attach(order); err != nil {
		return err
	}
	s.customer.Register(id, contactAddress)
	s.orders[id] = order
	s.logger.Debug("order monitoring started", slog.Int64("order.id", id))
	return nil
}

// StopMonitoring detaches the observers and unregisters the order. Unknown
// orders are ignored.
func (s *Service) StopMonitoring(order *domain.Order) {
	if order == nil {
		return
	}
	id := order.ID()
	s.mu.Lock()
	defer s.mu.Unlock()
	registered, ok := s.orders[id]
	if !ok {
		return
	}
	delete(s.orders, id)
	s.customer.Forget(id)
	s.detach(registered)
	if registered != order {
		s.detach(order)
	}
}

// TriggerStatusUpdate updates order with an empty message.
func (s *Service) TriggerStatusUpdate(ctx context.Context, order *domain.Order, status domain.Status) error {
	if order == nil {
		return fmt.Errorf("%w: order is nil", ErrInvalidArgument)
	}
	return order.UpdateStatus(ctx, status, "")
}

// UpdateOrderStatus updates a monitored order by id with a generated message.
// status is matched case-insensitively. An id that is not monitored is
// silently ignored. Status change listeners run once when the order actually
// changed, and an order that reached a terminal status is released afterwards.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID int64, status domain.Status) error {
	status, err := domain.ParseStatus(string(status))
	if err != nil {
		return err
	}
	order, ok := s.Lookup(orderID)
	if !ok {
		return nil
	}
	message := fmt.Sprintf("Order #%d status updated to %s", orderID, status)
	applied, err := order.ApplyStatus(ctx, status, message)
	if applied && status != domain.StatusCustom {
		s.emit(ctx, order)
		if order.IsTerminal() {
			s.StopMonitoring(order)
		}
	}
	return err
}

// SendCustomNotification broadcasts message to every observer through a
// throwaway order that is never registered.
func (s *Service) SendCustomNotification(ctx context.Context, message string) error {
	order := domain.NewBroadcastOrder()
	if err := s.attach(order); err != nil {
		return err
	}
	return order.UpdateStatus(ctx, domain.StatusCustom, message)
}

// Lookup returns the live monitored instance of orderID.
func (s *Service) Lookup(orderID int64) (*domain.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[orderID]
	return order, ok
}

// OnStatusChanged registers listener for changes applied by UpdateOrderStatus.
func (s *Service) OnStatusChanged(listener ordersports.StatusChangeListener) {
	if listener == nil {
		return
	}
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, listener)
}

// Stats snapshots the registry size and observer counters.
func (s *Service) Stats() ports.Stats {
	s.mu.RLock()
	monitored := len(s.orders)
	s.mu.RUnlock()
	return ports.Stats{
		MonitoredOrders:       monitored,
		CustomerNotifications: s.customer.NotificationCount(),
		KitchenNotifications:  s.kitchen.NotificationCount(),
		DeliveryNotifications: s.delivery.NotificationCount(),
	}
}

// CustomerAddress resolves where customer messages for orderID are sent.
func (s *Service) CustomerAddress(orderID int64) string {
	return s.customer.Address(orderID)
}

func (s *Service) attach(order *domain.Order) error {
	return errors.Join(
		order.Attach(s.customer),
		order.Attach(s.kitchen),
		order.Attach(s.delivery),
	)
}

func (s *Service) detach(order *domain.Order) {
	order.Detach(s.customer)
	order.Detach(s.kitchen)
	order.Detach(s.delivery)
}

func (s *Service) emit(ctx context.Context, order *domain.Order) {
	s.listenersMu.RLock()
	listeners := append([]ordersports.StatusChangeListener{}, s.listeners...)
	s.listenersMu.RUnlock()
	for _, listener := range listeners {
		listener(ctx, order)
	}
}

var (
	_ ordersports.Monitor = (*Service)(nil)
	_ ports.Service       = (*Service)(nil)
)
