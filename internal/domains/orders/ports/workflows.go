package ports

import "context"

// WorkflowOrchestrator runs order placement, optionally as a durable workflow.
type WorkflowOrchestrator interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*PlacementReceipt, error)
}
