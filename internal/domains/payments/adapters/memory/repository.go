package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/Apurer/restaurant-orders/internal/domains/payments/domain"
	"github.com/Apurer/restaurant-orders/internal/domains/payments/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory payment persistence adapter.
type Repository struct {
	mu       sync.RWMutex
	payments map[uuid.UUID]domain.Snapshot
	order    []uuid.UUID
}

func NewRepository() *Repository {
	return &Repository{payments: map[uuid.UUID]domain.Snapshot{}}
}

func (r *Repository) Save(_ context.Context, payment domain.Snapshot) (*domain.Snapshot, error) {
	if payment.ID == uuid.Nil {
		return nil, errors.New("payment id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payments[payment.ID]; !ok {
		r.order = append(r.order, payment.ID)
	}
	r.payments[payment.ID] = payment
	saved := payment
	return &saved, nil
}

func (r *Repository) GetByID(_ context.Context, id uuid.UUID) (*domain.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	payment, ok := r.payments[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &payment, nil
}

// ListByOrder returns the attempts for orderID in insertion order.
func (r *Repository) ListByOrder(_ context.Context, orderID int64) ([]*domain.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.Snapshot, 0)
	for _, id := range r.order {
		payment := r.payments[id]
		if payment.OrderID != orderID {
			continue
		}
		list = append(list, &payment)
	}
	return list, nil
}
