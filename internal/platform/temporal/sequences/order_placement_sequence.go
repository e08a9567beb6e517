package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	ordersports "github.com/Apurer/restaurant-orders/internal/domains/orders/ports"
	orderactivities "github.com/Apurer/restaurant-orders/internal/platform/temporal/activities/orders"
)

// RunOrderPlacementSequence executes the activities needed to place and pay for an order.
func RunOrderPlacementSequence(ctx workflow.Context, input ordersports.PlaceOrderInput) (*ordersports.PlacementReceipt, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("order placement sequence started", "customerId", input.CustomerID)
	options := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    3,
			NonRetryableErrorTypes: []string{
				orderactivities.ErrTypeInvalidInput,
				orderactivities.ErrTypeUnsupportedPaymentMethod,
			},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, options)

	var receipt ordersports.PlacementReceipt
	err := workflow.ExecuteActivity(ctx, orderactivities.PlaceOrderActivityName, input).Get(ctx, &receipt)
	if err != nil {
		logger.Error("order placement sequence failed", "customerId", input.CustomerID, "error", err)
		return nil, err
	}
	logger.Info("order placement sequence completed", "orderId", receipt.Order.ID, "paymentSucceeded", receipt.PaymentSucceeded)
	return &receipt, nil
}
