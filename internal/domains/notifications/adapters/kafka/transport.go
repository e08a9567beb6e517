package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"

	"github.com/Apurer/restaurant-orders/internal/domains/notifications/ports"
)

// Topic receives every notification; the channel travels in a header.
const Topic = "restaurant.notifications"

var _ ports.Transport = (*Transport)(nil)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Transport publishes notifications to Kafka keyed by order id, so every
// message of one order lands on the same partition.
type Transport struct {
	writer messageWriter
}

// NewTransport builds a writer for topic on brokers.
func NewTransport(brokers []string, topic string) (*Transport, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers not configured")
	}
	if topic == "" {
		topic = Topic
	}
	return &Transport{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}}, nil
}

func (t *Transport) Send(ctx context.Context, message ports.Message) error {
	if t == nil || t.writer == nil {
		return errors.New("kafka transport not configured")
	}
	value, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	err = t.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(message.OrderID, 10)),
		Value: value,
		Time:  message.CreatedAt,
		Headers: []kafka.Header{
			{Key: "channel", Value: []byte(message.Channel)},
			{Key: "event", Value: []byte(message.Event)},
		},
	})
	if err != nil {
		return fmt.Errorf("write notification to kafka: %w", err)
	}
	return nil
}

func (t *Transport) Close() error {
	if t == nil || t.writer == nil {
		return nil
	}
	return t.writer.Close()
}
