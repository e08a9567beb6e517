package ports

import "context"

// Stats is a point-in-time view of the notification coordinator.
type Stats struct {
	MonitoredOrders       int   `json:"monitoredOrders"`
	CustomerNotifications int64 `json:"customerNotifications"`
	KitchenNotifications  int64 `json:"kitchenNotifications"`
	DeliveryNotifications int64 `json:"deliveryNotifications"`
}

// Service is the part of the coordinator exposed to transport adapters.
type Service interface {
	SendCustomNotification(ctx context.Context, message string) error
	Stats() Stats
}
