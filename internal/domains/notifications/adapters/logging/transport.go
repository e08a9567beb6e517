package logging

import (
	"context"
	"log/slog"

	"github.com/Apurer/restaurant-orders/internal/domains/notifications/ports"
)

var _ ports.Transport = (*Transport)(nil)

// Transport writes notifications to the structured log instead of sending them.
type Transport struct {
	logger *slog.Logger
}

func NewTransport(logger *slog.Logger) *Transport {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{logger: logger}
}

func (t *Transport) Send(ctx context.Context, m ports.Message) error {
	t.logger.LogAttrs(ctx, slog.LevelInfo, "notification",
		slog.String("notification.id", m.ID.String()),
		slog.String("channel", string(m.Channel)),
		slog.String("address", m.Address),
		slog.Int64("order.id", m.OrderID),
		slog.String("event", m.Event),
		slog.String("subject", m.Subject),
		slog.String("body", m.Body))
	return nil
}
