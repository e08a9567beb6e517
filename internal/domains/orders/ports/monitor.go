package ports

import (
	"context"

	"github.com/Apurer/restaurant-orders/internal/domains/orders/domain"
)

// StatusChangeListener is called after a monitored order changed status
// through the notification coordinator.
type StatusChangeListener func(ctx context.Context, order *domain.Order)

// Monitor keeps live orders attached to their notification observers.
type Monitor interface {
	StartMonitoring(order *domain.Order, contactAddress string) error
	StopMonitoring(order *domain.Order)
	Lookup(orderID int64) (*domain.Order, bool)
	OnStatusChanged(listener StatusChangeListener)
}
