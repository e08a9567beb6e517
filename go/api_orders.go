package ordersserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"

	orderhttpmapper "github.com/Apurer/restaurant-orders/internal/domains/orders/adapters/http/mapper"
	ordersdomain "github.com/Apurer/restaurant-orders/internal/domains/orders/domain"
	ordersports "github.com/Apurer/restaurant-orders/internal/domains/orders/ports"
	apierrors "github.com/Apurer/restaurant-orders/internal/shared/errors"
)

// IdempotencyKeyHeader deduplicates order placements retried by clients.
const IdempotencyKeyHeader = "Idempotency-Key"

// OrderAPI wires HTTP transport with the ordering service and placement workflows.
type OrderAPI struct {
	service   ordersports.Service
	workflows ordersports.WorkflowOrchestrator
}

// NewOrderAPI creates an OrderAPI. A nil workflows places orders directly
// through the service.
func NewOrderAPI(service ordersports.Service, workflows ordersports.WorkflowOrchestrator) OrderAPI {
	return OrderAPI{service: service, workflows: workflows}
}

// Post /v1/orders
// Place an order and pay for it
func (api *OrderAPI) PlaceOrder(c *gin.Context) {
	var payload orderhttpmapper.PlaceOrder
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
	receipt, err := api.placeOrder(c.Request.Context(), orderhttpmapper.ToPlaceOrderInput(payload, key))
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, orderhttpmapper.FromReceipt(receipt))
}

func (api *OrderAPI) placeOrder(ctx context.Context, input ordersports.PlaceOrderInput) (*ordersports.PlacementReceipt, error) {
	if api.workflows != nil {
		return api.workflows.PlaceOrder(ctx, input)
	}
	result, err := api.service.PlaceOrder(ctx, input)
	if err != nil {
		return nil, err
	}
	return result.Receipt(), nil
}

// Get /v1/orders
// Lists orders filtered by status, customer and creation time
func (api *OrderAPI) ListOrders(c *gin.Context) {
	query, ok := bindOrderQuery(c)
	if !ok {
		return
	}
	orders, err := api.service.ListOrders(c.Request.Context(), query)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainOrders(orders))
}

// Get /v1/orders/:orderId
// Find order by ID
func (api *OrderAPI) GetOrderById(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	order, err := api.service.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainOrder(order))
}

// Put /v1/orders/:orderId/status
// Moves an order to a new status and notifies its observers
func (api *OrderAPI) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	var payload orderhttpmapper.StatusUpdate
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	status, err := ordersdomain.ParseStatus(payload.Status)
	if err != nil || status == ordersdomain.StatusCustom {
		respondProblem(c, apierrors.NewValidationProblem(map[string]string{
			"status": "must be one of pending, preparing, ready, delivered, completed, cancelled",
		}))
		return
	}
	order, err := api.service.UpdateOrderStatus(c.Request.Context(), id, status, payload.Message)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainOrder(order))
}

// Post /v1/orders/:orderId/cancel
// Cancels an order
func (api *OrderAPI) CancelOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	order, err := api.service.CancelOrder(c.Request.Context(), id)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromDomainOrder(order))
}

// Get /v1/orders/:orderId/payments
// Lists the payment attempts of an order
func (api *OrderAPI) ListOrderPayments(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	payments, err := api.service.ListPayments(c.Request.Context(), id)
	if err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderhttpmapper.FromPayments(payments))
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", name, c.Param(name), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return 0, false
	}
	return id, true
}

func bindOrderQuery(c *gin.Context) (ordersports.Query, bool) {
	var (
		statuses   *[]string
		customerID *int64
		itemID     *int64
		from       *time.Time
		to         *time.Time
	)
	values := c.Request.URL.Query()
	bindings := []struct {
		name string
		dest any
	}{
		{"status", &statuses},
		{"customerId", &customerID},
		{"itemId", &itemID},
		{"from", &from},
		{"to", &to},
	}
	for _, binding := range bindings {
		if err := runtime.BindQueryParameter("form", true, false, binding.name, values, binding.dest); err != nil {
			respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
			return ordersports.Query{}, false
		}
	}

	var query ordersports.Query
	if statuses != nil {
		for _, raw := range *statuses {
			status, err := ordersdomain.ParseStatus(raw)
			if err != nil || status == ordersdomain.StatusCustom {
				respondProblem(c, apierrors.NewValidationProblem(map[string]string{"status": "unknown order status " + raw}))
				return ordersports.Query{}, false
			}
			query.Statuses = append(query.Statuses, status)
		}
	}
	if customerID != nil {
		query.CustomerID = *customerID
	}
	if itemID != nil {
		query.ItemID = *itemID
	}
	if from != nil {
		query.From = *from
	}
	if to != nil {
		query.To = *to
	}
	return query, true
}
