package application

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	notificationsmemory "github.com/Apurer/restaurant-orders/internal/domains/notifications/adapters/memory"
	notifications "github.com/Apurer/restaurant-orders/internal/domains/notifications/application"
	ordersmemory "github.com/Apurer/restaurant-orders/internal/domains/orders/adapters/memory"
	"github.com/Apurer/restaurant-orders/internal/domains/orders/domain"
	"github.com/Apurer/restaurant-orders/internal/domains/orders/ports"
	paymentsmemory "github.com/Apurer/restaurant-orders/internal/domains/payments/adapters/memory"
	paymentsdomain "github.com/Apurer/restaurant-orders/internal/domains/payments/domain"
)

type fixture struct {
	orders    *ordersmemory.Repository
	payments  *paymentsmemory.Repository
	monitor   *notifications.Service
	transport *notificationsmemory.Transport
	svc       *Service
}

func newFixture(opts ...Option) *fixture {
	f := &fixture{
		orders:    ordersmemory.NewRepository(),
		payments:  paymentsmemory.NewRepository(),
		transport: notificationsmemory.NewTransport(),
	}
	f.monitor = notifications.NewService(f.transport)
	f.svc = NewService(f.orders, f.payments, append([]Option{WithMonitor(f.monitor)}, opts...)...)
	return f
}

func twentyDollars() []domain.LineItem {
	return []domain.LineItem{
		{ItemID: 1, Quantity: 1, UnitPrice: decimal.RequireFromString("12.50")},
		{ItemID: 2, Quantity: 1, UnitPrice: decimal.RequireFromString("7.50")},
	}
}

func cashInput(tendered string) ports.PlaceOrderInput {
	input := ports.PlaceOrderInput{
		CustomerID:     1,
		ContactAddress: "guest@example.com",
		Items:          twentyDollars(),
		PaymentMethod:  "cash",
	}
	if tendered != "" {
		amount := decimal.RequireFromString(tendered)
		input.PaymentDetails.AmountTendered = &amount
	}
	return input
}

func TestPlaceOrder_EndToEndLifecycle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	result, err := f.svc.PlaceOrder(ctx, cashInput(""))
	require.NoError(t, err)
	require.True(t, result.PaymentSucceeded)

	order := result.Order
	require.NotZero(t, order.ID())
	assert.True(t, decimal.NewFromInt(20).Equal(order.TotalAmount()))
	assert.Equal(t, domain.PaymentCompleted, order.PaymentStatus())
	assert.Equal(t, 1, f.monitor.Stats().MonitoredOrders)

	for _, status := range []domain.Status{
		domain.StatusPreparing, domain.StatusReady, domain.StatusDelivered, domain.StatusCompleted,
	} {
		require.NoError(t, f.monitor.UpdateOrderStatus(ctx, order.ID(), status))
	}

	assert.Equal(t, domain.StatusCompleted, order.Status())
	assert.Len(t, order.StatusHistory(), 5)
	stats := f.monitor.Stats()
	assert.EqualValues(t, 4, stats.CustomerNotifications)
	assert.EqualValues(t, 4, stats.KitchenNotifications)
	assert.EqualValues(t, 4, stats.DeliveryNotifications)
	assert.Zero(t, stats.MonitoredOrders)

	cancelled, err := f.svc.CancelOrder(ctx, order.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, cancelled.Status())
	assert.Len(t, cancelled.StatusHistory(), 5)
	assert.EqualValues(t, 4, f.monitor.Stats().CustomerNotifications)

	stored, err := f.orders.GetByID(ctx, order.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, stored.Status())
	assert.Len(t, stored.StatusHistory(), 5)
}

func TestPlaceOrder_StoresPaymentOutcome(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	result, err := f.svc.PlaceOrder(ctx, cashInput("50"))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(30).Equal(result.Payment.ChangeDue))
	assert.Equal(t, result.Order.ID(), result.Payment.OrderID)

	payments, err := f.svc.ListPayments(ctx, result.Order.ID())
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, paymentsdomain.StatusCompleted, payments[0].Status)

	receipt := result.Receipt()
	require.NotNil(t, receipt)
	assert.Equal(t, result.Order.ID(), receipt.Order.ID)
}

func TestPlaceOrder_FailedPaymentKeepsOrder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	result, err := f.svc.PlaceOrder(ctx, cashInput("5"))
	require.NoError(t, err)
	assert.False(t, result.PaymentSucceeded)
	assert.Equal(t, paymentsdomain.StatusFailed, result.Payment.Status)
	assert.NotEmpty(t, result.Payment.FailureReason)

	stored, err := f.orders.GetByID(ctx, result.Order.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentFailed, stored.PaymentStatus())
	assert.Equal(t, domain.StatusPending, stored.Status())
}

func TestPlaceOrder_CreditAndCheck(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	credit := cashInput("")
	credit.PaymentMethod = "CREDIT"
	credit.PaymentDetails.Card = &paymentsdomain.CardDetails{
		Number:     "4111 1111 1111 1111",
		HolderName: "Ana Diner",
		ExpiryDate: "12/2099",
		CVV:        "123",
	}
	result, err := f.svc.PlaceOrder(ctx, credit)
	require.NoError(t, err)
	assert.True(t, result.PaymentSucceeded)
	assert.Equal(t, "1111", result.Payment.CardLast4)

	check := cashInput("")
	check.PaymentMethod = "check"
	check.PaymentDetails.Cheque = &paymentsdomain.ChequeDetails{Number: "000123", BankName: "First Bank"}
	result, err = f.svc.PlaceOrder(ctx, check)
	require.NoError(t, err)
	assert.True(t, result.PaymentSucceeded)
}

func TestPlaceOrder_UnsupportedMethodLeavesNothingBehind(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	input := cashInput("")
	input.PaymentMethod = "bitcoin"
	_, err := f.svc.PlaceOrder(ctx, input)
	require.ErrorIs(t, err, paymentsdomain.ErrUnsupportedPaymentMethod)
	assert.False(t, errors.Is(err, ErrInvalidInput))

	orders, err := f.orders.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Zero(t, f.monitor.Stats().MonitoredOrders)
}

func TestPlaceOrder_RestrictedFactory(t *testing.T) {
	f := newFixture(WithPaymentFactory(paymentsdomain.NewFactory(paymentsdomain.WithMethods(paymentsdomain.MethodCash))))

	input := cashInput("")
	input.PaymentMethod = "check"
	_, err := f.svc.PlaceOrder(context.Background(), input)
	require.ErrorIs(t, err, paymentsdomain.ErrUnsupportedPaymentMethod)
}

func TestPlaceOrder_InvalidInput(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.PlaceOrder(ctx, ports.PlaceOrderInput{CustomerID: 0, Items: twentyDollars(), PaymentMethod: "cash"})
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, err, domain.ErrInvalidCustomerID)

	_, err = f.svc.PlaceOrder(ctx, ports.PlaceOrderInput{CustomerID: 1, PaymentMethod: "cash"})
	require.ErrorIs(t, err, domain.ErrNoLineItems)

	mismatch := cashInput("")
	mismatch.PaymentDetails.Cheque = &paymentsdomain.ChequeDetails{Number: "1", BankName: "B"}
	_, err = f.svc.PlaceOrder(ctx, mismatch)
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, err, paymentsdomain.ErrDetailsMismatch)

	subCent := cashInput("")
	subCent.Items = []domain.LineItem{{ItemID: 1, Quantity: 1, UnitPrice: decimal.RequireFromString("0.999")}}
	_, err = f.svc.PlaceOrder(ctx, subCent)
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, err, domain.ErrInvalidUnitPrice)

	orders, err := f.orders.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestUpdateOrderStatus_PersistsAndNotifies(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	result, err := f.svc.PlaceOrder(ctx, cashInput(""))
	require.NoError(t, err)

	updated, err := f.svc.UpdateOrderStatus(ctx, result.Order.ID(), domain.StatusPreparing, "on the grill")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPreparing, updated.Status())
	assert.Same(t, result.Order, updated)
	assert.EqualValues(t, 1, f.monitor.Stats().KitchenNotifications)

	stored, err := f.orders.GetByID(ctx, result.Order.ID())
	require.NoError(t, err)
	history := stored.StatusHistory()
	require.Len(t, history, 2)
	assert.Equal(t, "on the grill", history[1].Message)
}

func TestCancelOrder_StopsMonitoring(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	result, err := f.svc.PlaceOrder(ctx, cashInput(""))
	require.NoError(t, err)
	require.Equal(t, 1, f.monitor.Stats().MonitoredOrders)

	cancelled, err := f.svc.CancelOrder(ctx, result.Order.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status())
	assert.Zero(t, f.monitor.Stats().MonitoredOrders)
	assert.Zero(t, cancelled.ObserverCount())

	got, err := f.svc.GetOrder(ctx, result.Order.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, got.Status())
	assert.Equal(t, 0, f.monitor.Stats().MonitoredOrders)
}

func TestUpdateOrderStatus_Errors(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.UpdateOrderStatus(ctx, 77, domain.StatusReady, "")
	require.ErrorIs(t, err, ports.ErrNotFound)

	result, err := f.svc.PlaceOrder(ctx, cashInput(""))
	require.NoError(t, err)
	_, err = f.svc.UpdateOrderStatus(ctx, result.Order.ID(), domain.Status("eaten"), "")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateOrderStatus_ObserverFailureStillSaves(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	result, err := f.svc.PlaceOrder(ctx, cashInput(""))
	require.NoError(t, err)
	require.NoError(t, result.Order.Attach(failingObserver{}))

	updated, err := f.svc.UpdateOrderStatus(ctx, result.Order.ID(), domain.StatusReady, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, updated.Status())

	stored, err := f.orders.GetByID(ctx, result.Order.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, stored.Status())
}

type failingObserver struct{}

func (failingObserver) OnStatusChanged(context.Context, *domain.Order, domain.Status, string) error {
	return errors.New("display offline")
}

func TestUpdateOrderStatus_LoadsUnmonitoredOrder(t *testing.T) {
	orders := ordersmemory.NewRepository()
	ctx := context.Background()
	order, err := domain.NewOrder(3, twentyDollars())
	require.NoError(t, err)
	_, err = orders.Save(ctx, order)
	require.NoError(t, err)

	monitor := notifications.NewService(nil)
	svc := NewService(orders, paymentsmemory.NewRepository(), WithMonitor(monitor))

	updated, err := svc.UpdateOrderStatus(ctx, order.ID(), domain.StatusPreparing, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPreparing, updated.Status())
	assert.Equal(t, 1, monitor.Stats().MonitoredOrders)
	assert.EqualValues(t, 1, monitor.Stats().CustomerNotifications)
}

func TestServiceWithoutMonitor(t *testing.T) {
	svc := NewService(ordersmemory.NewRepository(), paymentsmemory.NewRepository())
	ctx := context.Background()

	result, err := svc.PlaceOrder(ctx, cashInput(""))
	require.NoError(t, err)
	_, err = svc.UpdateOrderStatus(ctx, result.Order.ID(), domain.StatusReady, "")
	require.NoError(t, err)

	got, err := svc.GetOrder(ctx, result.Order.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, got.Status())

	resumed, err := svc.ResumeMonitoring(ctx)
	require.NoError(t, err)
	assert.Zero(t, resumed)
}

func TestListOrders_Filters(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	first, err := f.svc.PlaceOrder(ctx, cashInput(""))
	require.NoError(t, err)
	other := cashInput("")
	other.CustomerID = 2
	_, err = f.svc.PlaceOrder(ctx, other)
	require.NoError(t, err)
	_, err = f.svc.CancelOrder(ctx, first.Order.ID())
	require.NoError(t, err)

	cancelled, err := f.svc.ListOrders(ctx, ports.Query{Statuses: []domain.Status{domain.StatusCancelled}})
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	assert.Equal(t, first.Order.ID(), cancelled[0].ID())

	byCustomer, err := f.svc.ListOrders(ctx, ports.Query{CustomerID: 2})
	require.NoError(t, err)
	require.Len(t, byCustomer, 1)

	_, err = f.svc.ListOrders(ctx, ports.Query{Statuses: []domain.Status{domain.StatusCustom}})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestListPayments_UnknownOrder(t *testing.T) {
	f := newFixture()
	_, err := f.svc.ListPayments(context.Background(), 5)
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestResumeMonitoring_ReattachesOpenOrders(t *testing.T) {
	orders := ordersmemory.NewRepository()
	ctx := context.Background()
	for _, status := range []domain.Status{domain.StatusPreparing, domain.StatusCancelled, domain.StatusPending} {
		order, err := domain.NewOrder(1, twentyDollars())
		require.NoError(t, err)
		if status != domain.StatusPending {
			require.NoError(t, order.UpdateStatus(ctx, status, ""))
		}
		_, err = orders.Save(ctx, order)
		require.NoError(t, err)
	}

	monitor := notifications.NewService(nil)
	svc := NewService(orders, paymentsmemory.NewRepository(), WithMonitor(monitor))

	resumed, err := svc.ResumeMonitoring(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, resumed)
	assert.Equal(t, 2, monitor.Stats().MonitoredOrders)

	resumed, err = svc.ResumeMonitoring(ctx)
	require.NoError(t, err)
	assert.Zero(t, resumed)

	require.NoError(t, monitor.UpdateOrderStatus(ctx, 1, domain.StatusReady))
	stored, err := orders.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, stored.Status())
}
