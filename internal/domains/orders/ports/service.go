package ports

import (
	"context"

	"github.com/Apurer/restaurant-orders/internal/domains/orders/domain"
	paymentsdomain "github.com/Apurer/restaurant-orders/internal/domains/payments/domain"
)

// PlaceOrderInput is everything needed to create and pay for an order.
type PlaceOrderInput struct {
	CustomerID     int64
	ContactAddress string
	Items          []domain.LineItem
	PaymentMethod  string
	PaymentDetails paymentsdomain.Details
	// IdempotencyKey deduplicates durable placements. Inline placement ignores it.
	IdempotencyKey string
}

// PlaceOrderResult reports the placed order and the payment attempt made for
// it. A failed payment is not an error: the order exists with payment status
// failed and PaymentSucceeded is false.
type PlaceOrderResult struct {
	Order            *domain.Order
	Payment          paymentsdomain.Snapshot
	PaymentSucceeded bool
}

// Receipt flattens the result into plain values.
func (r *PlaceOrderResult) Receipt() *PlacementReceipt {
	if r == nil || r.Order == nil {
		return nil
	}
	return &PlacementReceipt{
		Order:            r.Order.Snapshot(),
		Payment:          r.Payment,
		PaymentSucceeded: r.PaymentSucceeded,
	}
}

// PlacementReceipt is the serialisable form of PlaceOrderResult, returned by
// workflow orchestrators.
type PlacementReceipt struct {
	Order            domain.Snapshot
	Payment          paymentsdomain.Snapshot
	PaymentSucceeded bool
}

// Service exposes ordering use cases to adapters.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*PlaceOrderResult, error)
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status domain.Status, message string) (*domain.Order, error)
	CancelOrder(ctx context.Context, id int64) (*domain.Order, error)
	ListOrders(ctx context.Context, query Query) ([]*domain.Order, error)
	ListPayments(ctx context.Context, orderID int64) ([]*paymentsdomain.Snapshot, error)
	// ResumeMonitoring re-attaches notification observers to every open order
	// and returns how many were resumed.
	ResumeMonitoring(ctx context.Context) (int, error)
}
