package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Channel names the stakeholder a message is meant for.
type Channel string

const (
	ChannelCustomer Channel = "customer"
	ChannelKitchen  Channel = "kitchen"
	ChannelDelivery Channel = "delivery"
)

// Message is one formatted notification ready for delivery.
type Message struct {
	ID        uuid.UUID `json:"id"`
	Channel   Channel   `json:"channel"`
	Address   string    `json:"address,omitempty"`
	OrderID   int64     `json:"orderId"`
	Event     string    `json:"event"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// RoutingKey is the topic routing key used by broker transports,
// e.g. "notifications.kitchen.preparing".
func (m Message) RoutingKey() string {
	return "notifications." + string(m.Channel) + "." + m.Event
}

// Transport delivers messages to an external channel.
type Transport interface {
	Send(ctx context.Context, message Message) error
}
