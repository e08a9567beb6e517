package domain

import "strings"

// ChequeDetails identifies a paper cheque.
type ChequeDetails struct {
	Number   string
	BankName string
}

// Check is a cheque payment. There is no clearing system behind it, so a
// cheque with a number and a bank always completes.
type Check struct {
	base
	cheque ChequeDetails
}

// SetCheque stores the cheque data.
func (c *Check) SetCheque(cheque ChequeDetails) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusPending {
		return ErrAlreadyProcessed
	}
	c.cheque = ChequeDetails{
		Number:   strings.TrimSpace(cheque.Number),
		BankName: strings.TrimSpace(cheque.BankName),
	}
	return nil
}

func (c *Check) ChequeNumber() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cheque.Number
}

func (c *Check) BankName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cheque.BankName
}

func (c *Check) Process() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusPending {
		return ErrAlreadyProcessed
	}
	switch {
	case blank(c.cheque.Number):
		c.settle("cheque number is required")
	case blank(c.cheque.BankName):
		c.settle("bank name is required")
	default:
		c.settle("")
	}
	return nil
}

func (c *Check) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.snapshot()
	s.ChequeNumber = c.cheque.Number
	s.BankName = c.cheque.BankName
	return s
}
