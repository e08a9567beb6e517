package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Cash is settled at the counter. The tender defaults to the exact amount.
type Cash struct {
	base
	amountTendered decimal.Decimal
	changeDue      decimal.Decimal
}

// Tender records how much cash the customer handed over.
func (c *Cash) Tender(amount decimal.Decimal) error {
	if amount.IsNegative() || !amount.Equal(amount.Truncate(2)) {
		return ErrInvalidTender
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusPending {
		return ErrAlreadyProcessed
	}
	c.amountTendered = amount
	return nil
}

func (c *Cash) AmountTendered() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.amountTendered
}

// ChangeDue is tendered minus amount once the payment completed, zero otherwise.
func (c *Cash) ChangeDue() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.changeDue
}

func (c *Cash) Process() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusPending {
		return ErrAlreadyProcessed
	}
	change := c.amountTendered.Sub(c.amount)
	if change.IsNegative() {
		c.settle(fmt.Sprintf("tendered %s is less than amount %s", c.amountTendered.StringFixed(2), c.amount.StringFixed(2)))
		return nil
	}
	c.changeDue = change
	c.settle("")
	return nil
}

func (c *Cash) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.snapshot()
	s.AmountTendered = c.amountTendered
	s.ChangeDue = c.changeDue
	return s
}
