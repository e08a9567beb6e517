package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Apurer/restaurant-orders/internal/domains/notifications/ports"
)

const table = "notification_outbox"

var _ ports.Transport = (*Transport)(nil)

// Transport writes notifications to the notification_outbox table. A Relay
// forwards them to the broker later, so a broker outage never loses a message.
type Transport struct {
	pool *pgxpool.Pool
}

func NewTransport(pool *pgxpool.Pool) *Transport {
	return &Transport{pool: pool}
}

func (t *Transport) Send(ctx context.Context, message ports.Message) error {
	if t == nil || t.pool == nil {
		return errors.New("outbox transport not configured")
	}
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	_, err = t.pool.Exec(ctx,
		`INSERT INTO `+table+` (id, channel, routing_key, payload, created_at, attempts)
		 VALUES ($1, $2, $3, $4, $5, 0)
		 ON CONFLICT (id) DO NOTHING`,
		message.ID, string(message.Channel), message.RoutingKey(), payload, message.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert outbox row: %w", err)
	}
	return nil
}
