package ports

import (
	"context"
	"errors"
	"time"

	"github.com/Apurer/restaurant-orders/internal/domains/orders/domain"
)

var ErrNotFound = errors.New("order not found")

// Query narrows Find. Zero values are ignored; From and To bound CreatedAt
// inclusively. ItemID keeps orders with at least one line item for that menu
// item.
type Query struct {
	Statuses   []domain.Status
	CustomerID int64
	ItemID     int64
	From       time.Time
	To         time.Time
}

// Matches reports whether snapshot satisfies every set criterion.
func (q Query) Matches(s domain.Snapshot) bool {
	if q.CustomerID != 0 && s.CustomerID != q.CustomerID {
		return false
	}
	if !q.From.IsZero() && s.CreatedAt.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && s.CreatedAt.After(q.To) {
		return false
	}
	if q.ItemID != 0 && !containsItem(s.LineItems, q.ItemID) {
		return false
	}
	if len(q.Statuses) == 0 {
		return true
	}
	for _, status := range q.Statuses {
		if s.Status == status {
			return true
		}
	}
	return false
}

func containsItem(items []domain.LineItem, itemID int64) bool {
	for _, item := range items {
		if item.ItemID == itemID {
			return true
		}
	}
	return false
}

// Repository persists orders. Save assigns an id to new orders through
// Order.AssignID and returns the stored state.
type Repository interface {
	Save(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*domain.Order, error)
	Find(ctx context.Context, query Query) ([]*domain.Order, error)
}
