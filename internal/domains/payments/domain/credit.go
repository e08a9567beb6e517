package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CardDetails is the card data supplied with a credit payment.
type CardDetails struct {
	Number     string
	HolderName string
	// ExpiryDate is MM/YY or MM/YYYY.
	ExpiryDate string
	CVV        string
}

// Credit is a card payment. Processing validates the card locally; no
// gateway is contacted.
type Credit struct {
	base
	card CardDetails
}

// SetCard stores the card data. Spaces and dashes in the number are dropped.
func (c *Credit) SetCard(card CardDetails) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusPending {
		return ErrAlreadyProcessed
	}
	card.Number = strings.NewReplacer(" ", "", "-", "").Replace(card.Number)
	card.HolderName = strings.TrimSpace(card.HolderName)
	card.ExpiryDate = strings.TrimSpace(card.ExpiryDate)
	card.CVV = strings.TrimSpace(card.CVV)
	c.card = card
	return nil
}

func (c *Credit) CardHolderName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.card.HolderName
}

// CardLast4 returns the last four digits of the card number.
func (c *Credit) CardLast4() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return last4(c.card.Number)
}

func (c *Credit) Process() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusPending {
		return ErrAlreadyProcessed
	}
	c.settle(c.validate(c.now()))
	return nil
}

// validate returns the failure reason, or "" when the card is acceptable.
func (c *Credit) validate(now time.Time) string {
	switch {
	case !validCardNumber(c.card.Number):
		return "card number is invalid"
	case blank(c.card.HolderName):
		return "card holder name is required"
	case !validCVV(c.card.CVV):
		return "cvv must be 3 or 4 digits"
	}
	expiry, err := parseExpiry(c.card.ExpiryDate)
	if err != nil {
		return err.Error()
	}
	currentMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	if expiry.Before(currentMonth) {
		return "card has expired"
	}
	return ""
}

func (c *Credit) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.snapshot()
	s.CardLast4 = last4(c.card.Number)
	s.CardHolderName = c.card.HolderName
	return s
}

func validCardNumber(number string) bool {
	if len(number) < 13 || len(number) > 19 || !digitsOnly(number) {
		return false
	}
	return luhn(number)
}

func validCVV(cvv string) bool {
	return (len(cvv) == 3 || len(cvv) == 4) && digitsOnly(cvv)
}

func luhn(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		digit := int(number[i] - '0')
		if double {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		double = !double
	}
	return sum%10 == 0
}

// parseExpiry returns the first day of the expiry month in UTC.
func parseExpiry(raw string) (time.Time, error) {
	month, year, ok := strings.Cut(raw, "/")
	if !ok {
		return time.Time{}, fmt.Errorf("expiry date %q must be MM/YY", raw)
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return time.Time{}, fmt.Errorf("expiry month %q is invalid", month)
	}
	y, err := strconv.Atoi(year)
	if err != nil || !digitsOnly(year) {
		return time.Time{}, fmt.Errorf("expiry year %q is invalid", year)
	}
	switch len(year) {
	case 2:
		y += 2000
	case 4:
	default:
		return time.Time{}, fmt.Errorf("expiry year %q is invalid", year)
	}
	return time.Date(y, time.Month(m), 1, 0, 0, 0, 0, time.UTC), nil
}

func digitsOnly(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func last4(number string) string {
	if len(number) <= 4 {
		return number
	}
	return number[len(number)-4:]
}
