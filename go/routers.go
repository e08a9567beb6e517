package ordersserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apierrors "github.com/Apurer/restaurant-orders/internal/shared/errors"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
}

// ApiHandleFunctions bundles the handlers served by NewRouter.
type ApiHandleFunctions struct {
	OrderAPI        OrderAPI
	NotificationAPI NotificationAPI
}

// NewRouter returns a new router.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handleFunctions)
}

// NewRouterWithGinEngine adds the API routes to an existing engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		router.Handle(route.Method, route.Pattern, route.HandlerFunc)
	}
	router.NoRoute(func(c *gin.Context) {
		respondProblem(c, apierrors.ErrNotFound.WithDetail("no route for "+c.Request.Method+" "+c.Request.URL.Path))
	})
	return router
}

// DefaultHandleFunc answers routes that have no handler yet.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	return []Route{
		{
			"PlaceOrder",
			http.MethodPost,
			"/v1/orders",
			handleFunctions.OrderAPI.PlaceOrder,
		},
		{
			"ListOrders",
			http.MethodGet,
			"/v1/orders",
			handleFunctions.OrderAPI.ListOrders,
		},
		{
			"GetOrderById",
			http.MethodGet,
			"/v1/orders/:orderId",
			handleFunctions.OrderAPI.GetOrderById,
		},
		{
			"UpdateOrderStatus",
			http.MethodPut,
			"/v1/orders/:orderId/status",
			handleFunctions.OrderAPI.UpdateOrderStatus,
		},
		{
			"CancelOrder",
			http.MethodPost,
			"/v1/orders/:orderId/cancel",
			handleFunctions.OrderAPI.CancelOrder,
		},
		{
			"ListOrderPayments",
			http.MethodGet,
			"/v1/orders/:orderId/payments",
			handleFunctions.OrderAPI.ListOrderPayments,
		},
		{
			"Broadcast",
			http.MethodPost,
			"/v1/notifications/broadcast",
			handleFunctions.NotificationAPI.Broadcast,
		},
		{
			"GetNotificationStats",
			http.MethodGet,
			"/v1/notifications/stats",
			handleFunctions.NotificationAPI.GetStats,
		},
		{
			"Healthz",
			http.MethodGet,
			"/healthz",
			func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) },
		},
	}
}
