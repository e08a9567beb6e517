package orders

import (
	"go.temporal.io/sdk/workflow"

	ordersports "github.com/Apurer/restaurant-orders/internal/domains/orders/ports"
	"github.com/Apurer/restaurant-orders/internal/platform/temporal/sequences"
)

const (
	// PlacementWorkflowName is the public identifier for registering the workflow.
	PlacementWorkflowName = "orders.workflows.Placement"
	// PlacementTaskQueue is the queue consumed by the worker processing order workflows.
	PlacementTaskQueue = "ORDER_PLACEMENT"
)

// PlacementWorkflowInput captures the payload required to place an order.
type PlacementWorkflowInput struct {
	Command ordersports.PlaceOrderInput
	TraceID string
}

// PlacementWorkflow places an order and settles its payment.
func PlacementWorkflow(ctx workflow.Context, input PlacementWorkflowInput) (*ordersports.PlacementReceipt, error) {
	logger := workflow.GetLogger(ctx)
	customerID := input.Command.CustomerID
	logger.Info("PlacementWorkflow started", withTraceID(input.TraceID, "customerId", customerID)...)
	receipt, err := sequences.RunOrderPlacementSequence(ctx, input.Command)
	if err != nil {
		logger.Error("PlacementWorkflow failed", withTraceID(input.TraceID, "customerId", customerID, "error", err)...)
		return nil, err
	}
	logger.Info("PlacementWorkflow completed", withTraceID(input.TraceID, "orderId", receipt.Order.ID)...)
	return receipt, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
