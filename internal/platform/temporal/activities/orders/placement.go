package orders

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	ordersapp "github.com/Apurer/restaurant-orders/internal/domains/orders/application"
	ordersports "github.com/Apurer/restaurant-orders/internal/domains/orders/ports"
	paymentsdomain "github.com/Apurer/restaurant-orders/internal/domains/payments/domain"
)

const (
	// PlaceOrderActivityName validates, stores and charges a new order.
	PlaceOrderActivityName = "orders.activities.PlaceOrder"
)

// Application error types raised by the activities. Callers translate them
// back into the ordering sentinel errors.
const (
	ErrTypeInvalidInput             = "InvalidOrderInput"
	ErrTypeUnsupportedPaymentMethod = "UnsupportedPaymentMethod"
)

// Activities groups activities that operate on the orders bounded context.
type Activities struct {
	service ordersports.Service
}

// NewActivities wires the ordering service into the Temporal activities bundle.
func NewActivities(service ordersports.Service) *Activities {
	return &Activities{service: service}
}

// PlaceOrder runs the placement use case and returns its receipt. Rejected
// requests fail without retries.
func (a *Activities) PlaceOrder(ctx context.Context, input ordersports.PlaceOrderInput) (*ordersports.PlacementReceipt, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("order placement activity not initialized", "customerId", input.CustomerID)
		return nil, errors.New("order placement activity not initialized")
	}
	logger.Info("PlaceOrder activity started", "customerId", input.CustomerID, "paymentMethod", input.PaymentMethod)
	result, err := a.service.PlaceOrder(ctx, input)
	if err != nil {
		logger.Error("PlaceOrder activity failed", "customerId", input.CustomerID, "error", err)
		return nil, classify(err)
	}
	receipt := result.Receipt()
	logger.Info("PlaceOrder activity completed", "orderId", receipt.Order.ID, "paymentSucceeded", receipt.PaymentSucceeded)
	return receipt, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, ordersapp.ErrInvalidInput):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidInput, err)
	case errors.Is(err, paymentsdomain.ErrUnsupportedPaymentMethod):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeUnsupportedPaymentMethod, err)
	default:
		return err
	}
}
