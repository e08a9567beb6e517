package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/restaurant-orders/internal/domains/orders/domain"
	paymentsdomain "github.com/Apurer/restaurant-orders/internal/domains/payments/domain"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid order input")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidCustomerID) ||
		errors.Is(err, domain.ErrNoLineItems) ||
		errors.Is(err, domain.ErrInvalidItemID) ||
		errors.Is(err, domain.ErrInvalidQuantity) ||
		errors.Is(err, domain.ErrInvalidUnitPrice) ||
		errors.Is(err, domain.ErrInvalidStatus) ||
		errors.Is(err, domain.ErrInvalidID) ||
		errors.Is(err, paymentsdomain.ErrInvalidAmount) ||
		errors.Is(err, paymentsdomain.ErrInvalidTender) ||
		errors.Is(err, paymentsdomain.ErrDetailsMismatch) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
