package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Apurer/restaurant-orders/internal/domains/notifications/ports"
)

// Exchange is the topic exchange notifications are published to. Routing
// keys follow Message.RoutingKey, so consumers can bind per channel.
const Exchange = "notifications_topic"

const publishTimeout = 10 * time.Second

var _ ports.Transport = (*Transport)(nil)

// publisher is the part of *amqp.Channel the transport uses.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Transport publishes notifications to RabbitMQ.
type Transport struct {
	conn     *amqp.Connection
	channel  publisher
	exchange string
}

// Dial connects to url and declares the durable topic exchange.
func Dial(url string) (*Transport, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		Exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare %s exchange: %w", Exchange, err)
	}
	return &Transport{conn: conn, channel: ch, exchange: Exchange}, nil
}

func newTransport(channel publisher, exchange string) *Transport {
	return &Transport{channel: channel, exchange: exchange}
}

// Send publishes message as persistent JSON.
func (t *Transport) Send(ctx context.Context, message ports.Message) error {
	if t == nil || t.channel == nil {
		return errors.New("rabbitmq transport not configured")
	}
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	err = t.channel.PublishWithContext(ctx, t.exchange, message.RoutingKey(), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    message.ID.String(),
		Timestamp:    message.CreatedAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", t.exchange, err)
	}
	return nil
}

// Close releases the channel and the connection.
func (t *Transport) Close() error {
	if t == nil {
		return nil
	}
	var err error
	if t.channel != nil {
		err = errors.Join(err, t.channel.Close())
	}
	if t.conn != nil {
		err = errors.Join(err, t.conn.Close())
	}
	return err
}
