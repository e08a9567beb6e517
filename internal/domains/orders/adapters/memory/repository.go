package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/Apurer/restaurant-orders/internal/domains/orders/domain"
	"github.com/Apurer/restaurant-orders/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory order persistence adapter. It stores snapshots,
// so callers never share state with the store.
type Repository struct {
	mu     sync.RWMutex
	orders map[int64]domain.Snapshot
	nextID int64
}

func NewRepository() *Repository {
	return &Repository{orders: map[int64]domain.Snapshot{}}
}

// Save assigns the next id to new orders and stores a copy.
func (r *Repository) Save(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if order.ID() == 0 {
		if err := order.AssignID(r.nextID + 1); err != nil {
			return nil, err
		}
	}
	snapshot := order.Snapshot()
	if snapshot.ID > r.nextID {
		r.nextID = snapshot.ID
	}
	r.orders[snapshot.ID] = snapshot
	return domain.Rehydrate(snapshot)
}

func (r *Repository) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snapshot, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return domain.Rehydrate(snapshot)
}

func (r *Repository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return ports.ErrNotFound
	}
	delete(r.orders, id)
	return nil
}

func (r *Repository) List(ctx context.Context) ([]*domain.Order, error) {
	return r.Find(ctx, ports.Query{})
}

// Find returns matching orders ordered by id.
func (r *Repository) Find(_ context.Context, query ports.Query) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]int64, 0, len(r.orders))
	for id, snapshot := range r.orders {
		if query.Matches(snapshot) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	list := make([]*domain.Order, 0, len(ids))
	for _, id := range ids {
		order, err := domain.Rehydrate(r.orders[id])
		if err != nil {
			return nil, err
		}
		list = append(list, order)
	}
	return list, nil
}
