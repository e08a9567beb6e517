package ordersserver

import (
	"errors"

	"github.com/gin-gonic/gin"

	notificationsapp "github.com/Apurer/restaurant-orders/internal/domains/notifications/application"
	ordersapp "github.com/Apurer/restaurant-orders/internal/domains/orders/application"
	ordersports "github.com/Apurer/restaurant-orders/internal/domains/orders/ports"
	paymentsdomain "github.com/Apurer/restaurant-orders/internal/domains/payments/domain"
	apierrors "github.com/Apurer/restaurant-orders/internal/shared/errors"
)

var responder = apierrors.NewChainedResponder("", mapOrderError, mapPaymentError, mapNotificationError)

func respondProblem(c *gin.Context, problem apierrors.ProblemDetail) {
	responder.Respond(c, problem)
}

func respondOrderServiceError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	responder.RespondError(c, err)
}

func mapOrderError(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, ordersports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	case errors.Is(err, ordersapp.ErrInvalidInput):
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

// An unsupported method is well-formed but cannot be served by this deployment.
func mapPaymentError(err error) (apierrors.ProblemDetail, bool) {
	if errors.Is(err, paymentsdomain.ErrUnsupportedPaymentMethod) {
		return apierrors.ErrUnprocessable.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

func mapNotificationError(err error) (apierrors.ProblemDetail, bool) {
	if errors.Is(err, notificationsapp.ErrInvalidArgument) {
		return apierrors.ErrBadRequest.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}
