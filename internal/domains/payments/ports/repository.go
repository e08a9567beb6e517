package ports

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Apurer/restaurant-orders/internal/domains/payments/domain"
)

var ErrNotFound = errors.New("payment not found")

// Repository persists payment attempts. Reads return snapshots since a
// processed payment is never reused.
type Repository interface {
	Save(ctx context.Context, payment domain.Snapshot) (*domain.Snapshot, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Snapshot, error)
	ListByOrder(ctx context.Context, orderID int64) ([]*domain.Snapshot, error)
}
