package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Apurer/restaurant-orders/internal/domains/notifications/ports"
	"github.com/Apurer/restaurant-orders/internal/domains/orders/domain"
)

// dispatcher is the delivery plumbing shared by the three observers. Each
// observer owns its own dispatcher, so counters are never shared.
type dispatcher struct {
	channel   ports.Channel
	transport ports.Transport
	logger    *slog.Logger
	now       func() time.Time
	count     atomic.Int64
}

// send counts the event and hands the message to the transport. Transport
// failures are logged and dropped.
func (d *dispatcher) send(ctx context.Context, order *domain.Order, event domain.Status, address, subject, body string) {
	d.count.Add(1)
	msg := ports.Message{
		ID:        uuid.New(),
		Channel:   d.channel,
		Address:   address,
		OrderID:   order.ID(),
		Event:     string(event),
		Subject:   subject,
		Body:      body,
		CreatedAt: d.now().UTC(),
	}
	if d.transport == nil {
		return
	}
	if err := d.transport.Send(ctx, msg); err != nil {
		d.logger.LogAttrs(ctx, slog.LevelWarn, "notification delivery failed",
			slog.String("channel", string(d.channel)),
			slog.Int64("order.id", msg.OrderID),
			slog.String("event", msg.Event),
			slog.String("error", err.Error()))
	}
}

// CustomerObserver notifies the customer who placed the order at the contact
// address registered for it.
type CustomerObserver struct {
	dispatcher
	defaultAddress string
	mu             sync.RWMutex
	contacts       map[int64]string
}

func newCustomerObserver(transport ports.Transport, logger *slog.Logger, now func() time.Time, defaultAddress string) *CustomerObserver {
	return &CustomerObserver{
		dispatcher:     dispatcher{channel: ports.ChannelCustomer, transport: transport, logger: logger, now: now},
		defaultAddress: defaultAddress,
		contacts:       map[int64]string{},
	}
}

// NotificationCount returns how many events this observer received.
func (c *CustomerObserver) NotificationCount() int64 { return c.count.Load() }

// Register records where notifications for orderID go. A blank address
// keeps the default.
func (c *CustomerObserver) Register(orderID int64, address string) {
	address = strings.TrimSpace(address)
	c.mu.Lock()
	defer c.mu.Unlock()
	if address == "" {
		delete(c.contacts, orderID)
		return
	}
	c.contacts[orderID] = address
}

// Forget drops the contact registered for orderID.
func (c *CustomerObserver) Forget(orderID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.contacts, orderID)
}

// Address resolves the contact for orderID.
func (c *CustomerObserver) Address(orderID int64) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if address, ok := c.contacts[orderID]; ok {
		return address
	}
	return c.defaultAddress
}

func (c *CustomerObserver) OnStatusChanged(ctx context.Context, order *domain.Order, event domain.Status, message string) error {
	id := order.ID()
	subject := fmt.Sprintf("Your order #%d", id)
	var body string
	switch event {
	case domain.StatusPending:
		body = fmt.Sprintf("We received your order #%d.", id)
	case domain.StatusPreparing:
		body = fmt.Sprintf("Your order #%d is being prepared.", id)
	case domain.StatusReady:
		body = fmt.Sprintf("Your order #%d is ready.", id)
	case domain.StatusDelivered:
		body = fmt.Sprintf("Your order #%d has been delivered. Enjoy!", id)
	case domain.StatusCompleted:
		body = fmt.Sprintf("Order #%d is complete. Thank you for dining with us.", id)
	case domain.StatusCancelled:
		body = fmt.Sprintf("Your order #%d has been cancelled.", id)
	case domain.StatusCustom:
		subject = "A message from the restaurant"
	}
	c.send(ctx, order, event, c.Address(id), subject, joinBody(body, message))
	return nil
}

// KitchenObserver keeps the kitchen display informed about what to cook and
// what to stop.
type KitchenObserver struct {
	dispatcher
}

func newKitchenObserver(transport ports.Transport, logger *slog.Logger, now func() time.Time) *KitchenObserver {
	return &KitchenObserver{dispatcher: dispatcher{channel: ports.ChannelKitchen, transport: transport, logger: logger, now: now}}
}

// NotificationCount returns how many events this observer received.
func (k *KitchenObserver) NotificationCount() int64 { return k.count.Load() }

func (k *KitchenObserver) OnStatusChanged(ctx context.Context, order *domain.Order, event domain.Status, message string) error {
	id := order.ID()
	subject := fmt.Sprintf("Kitchen: order #%d %s", id, event)
	var body string
	switch event {
	case domain.StatusPending, domain.StatusPreparing:
		body = describeItems(order.LineItems())
	case domain.StatusCancelled:
		body = fmt.Sprintf("Stop work on order #%d.", id)
	case domain.StatusCustom:
		subject = "Kitchen announcement"
	}
	k.send(ctx, order, event, "", subject, joinBody(body, message))
	return nil
}

// DeliveryObserver tells couriers when orders can be picked up.
type DeliveryObserver struct {
	dispatcher
}

func newDeliveryObserver(transport ports.Transport, logger *slog.Logger, now func() time.Time) *DeliveryObserver {
	return &DeliveryObserver{dispatcher: dispatcher{channel: ports.ChannelDelivery, transport: transport, logger: logger, now: now}}
}

// NotificationCount returns how many events this observer received.
func (d *DeliveryObserver) NotificationCount() int64 { return d.count.Load() }

func (d *DeliveryObserver) OnStatusChanged(ctx context.Context, order *domain.Order, event domain.Status, message string) error {
	id := order.ID()
	subject := fmt.Sprintf("Delivery: order #%d %s", id, event)
	var body string
	switch event {
	case domain.StatusReady:
		body = fmt.Sprintf("Order #%d is ready for pickup.", id)
	case domain.StatusDelivered:
		body = fmt.Sprintf("Order #%d marked as delivered.", id)
	case domain.StatusCancelled:
		body = fmt.Sprintf("Order #%d was cancelled, do not dispatch.", id)
	case domain.StatusCustom:
		subject = "Delivery announcement"
	}
	d.send(ctx, order, event, "", subject, joinBody(body, message))
	return nil
}

func describeItems(items []domain.LineItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("%d x item %d", item.Quantity, item.ItemID))
	}
	return strings.Join(parts, ", ")
}

func joinBody(body, message string) string {
	message = strings.TrimSpace(message)
	switch {
	case body == "":
		return message
	case message == "":
		return body
	default:
		return body + " " + message
	}
}

var (
	_ domain.Observer = (*CustomerObserver)(nil)
	_ domain.Observer = (*KitchenObserver)(nil)
	_ domain.Observer = (*DeliveryObserver)(nil)
)
