package workflows

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	ordersapp "github.com/Apurer/restaurant-orders/internal/domains/orders/application"
	"github.com/Apurer/restaurant-orders/internal/domains/orders/ports"
	paymentsdomain "github.com/Apurer/restaurant-orders/internal/domains/payments/domain"
	orderactivities "github.com/Apurer/restaurant-orders/internal/platform/temporal/activities/orders"
	orderworkflows "github.com/Apurer/restaurant-orders/internal/platform/temporal/workflows/orders"
)

var (
	_ ports.WorkflowOrchestrator = (*TemporalOrderWorkflows)(nil)
	_ ports.WorkflowOrchestrator = (*InlineOrderWorkflows)(nil)
)

// workflowStarter is the subset of client.Client used to run placements.
type workflowStarter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
	GetWorkflow(ctx context.Context, workflowID string, runID string) client.WorkflowRun
}

// TemporalOrderWorkflows starts order workflows on a Temporal cluster.
type TemporalOrderWorkflows struct {
	client    workflowStarter
	taskQueue string
}

// NewTemporalOrderWorkflows wires a Temporal client into the orchestrator.
func NewTemporalOrderWorkflows(c client.Client) *TemporalOrderWorkflows {
	return &TemporalOrderWorkflows{client: c, taskQueue: orderworkflows.PlacementTaskQueue}
}

// PlaceOrder starts the placement workflow and waits for its receipt. A
// repeated idempotency key returns the receipt of the first run.
func (o *TemporalOrderWorkflows) PlaceOrder(ctx context.Context, input ports.PlaceOrderInput) (*ports.PlacementReceipt, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal order workflows not configured")
	}
	traceComponent := workflowTraceComponent(ctx)
	workflowID := buildPlacementWorkflowID(input, traceComponent)
	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: o.taskQueue,
	}
	run, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		orderworkflows.PlacementWorkflowName,
		orderworkflows.PlacementWorkflowInput{Command: input, TraceID: traceComponent},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) && strings.TrimSpace(input.IdempotencyKey) != "" {
			run = o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId)
		} else {
			return nil, err
		}
	}
	var receipt ports.PlacementReceipt
	if err := run.Get(ctx, &receipt); err != nil {
		return nil, translateError(err)
	}
	return &receipt, nil
}

// InlineOrderWorkflows executes the service directly without Temporal, useful for tests or dev fallbacks.
type InlineOrderWorkflows struct {
	service ports.Service
}

// NewInlineOrderWorkflows wraps the ordering service for synchronous execution.
func NewInlineOrderWorkflows(service ports.Service) *InlineOrderWorkflows {
	return &InlineOrderWorkflows{service: service}
}

func (o *InlineOrderWorkflows) PlaceOrder(ctx context.Context, input ports.PlaceOrderInput) (*ports.PlacementReceipt, error) {
	if o == nil || o.service == nil {
		return nil, errors.New("inline order workflows not configured")
	}
	result, err := o.service.PlaceOrder(ctx, input)
	if err != nil {
		return nil, err
	}
	return result.Receipt(), nil
}

// translateError restores the ordering sentinels from activity failures so
// transports can map them.
func translateError(err error) error {
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) {
		return err
	}
	switch appErr.Type() {
	case orderactivities.ErrTypeInvalidInput:
		return fmt.Errorf("%w: %s", ordersapp.ErrInvalidInput, appErr.Message())
	case orderactivities.ErrTypeUnsupportedPaymentMethod:
		return fmt.Errorf("%w: %s", paymentsdomain.ErrUnsupportedPaymentMethod, appErr.Message())
	default:
		return err
	}
}

func buildPlacementWorkflowID(input ports.PlaceOrderInput, traceComponent string) string {
	if key := strings.TrimSpace(input.IdempotencyKey); key != "" {
		return fmt.Sprintf("order-placement-idem-%s", hashIdempotencyKey(key))
	}
	return fmt.Sprintf("order-placement-%d-%s-%s", input.CustomerID, uuid.NewString(), traceComponent)
}

func hashIdempotencyKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	// First 16 hex chars keep workflow IDs readable and deterministic.
	return hex.EncodeToString(sum[:8])
}

func workflowTraceComponent(ctx context.Context) string {
	if traceComponent := workflowTraceID(ctx); traceComponent != "" {
		return traceComponent
	}
	return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
