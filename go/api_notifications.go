package ordersserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	orderhttpmapper "github.com/Apurer/restaurant-orders/internal/domains/orders/adapters/http/mapper"
	notificationsports "github.com/Apurer/restaurant-orders/internal/domains/notifications/ports"
	apierrors "github.com/Apurer/restaurant-orders/internal/shared/errors"
)

// NotificationAPI exposes the notification coordinator.
type NotificationAPI struct {
	service notificationsports.Service
}

func NewNotificationAPI(service notificationsports.Service) NotificationAPI {
	return NotificationAPI{service: service}
}

// Post /v1/notifications/broadcast
// Sends a message to customers, kitchen and delivery at once
func (api *NotificationAPI) Broadcast(c *gin.Context) {
	var payload orderhttpmapper.Broadcast
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	if strings.TrimSpace(payload.Message) == "" {
		respondProblem(c, apierrors.NewValidationProblem(map[string]string{"message": "is required"}))
		return
	}
	if err := api.service.SendCustomNotification(c.Request.Context(), payload.Message); err != nil {
		respondOrderServiceError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

// Get /v1/notifications/stats
// Returns notification counters per observer
func (api *NotificationAPI) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, api.service.Stats())
}
