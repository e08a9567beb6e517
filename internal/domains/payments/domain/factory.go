package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Factory is the single construction point for payments, which guarantees
// every attempt starts pending.
type Factory struct {
	methods []Method
	now     func() time.Time
}

// FactoryOption customises a Factory.
type FactoryOption func(*Factory)

// WithMethods restricts the methods the factory accepts.
func WithMethods(methods ...Method) FactoryOption {
	return func(f *Factory) {
		if len(methods) > 0 {
			f.methods = append([]Method{}, methods...)
		}
	}
}

// WithClock overrides the time source used for expiry checks and timestamps.
func WithClock(now func() time.Time) FactoryOption {
	return func(f *Factory) {
		if now != nil {
			f.now = now
		}
	}
}

// NewFactory accepts cash, credit and check unless WithMethods narrows it.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		methods: []Method{MethodCash, MethodCredit, MethodCheck},
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Methods lists the accepted methods.
func (f *Factory) Methods() []Method {
	return append([]Method{}, f.methods...)
}

// Create builds a pending payment of the named method. The name is matched
// case-insensitively.
func (f *Factory) Create(method string, amount decimal.Decimal) (Payment, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, amount.String())
	}
	m, err := ParseMethod(method)
	if err != nil {
		return nil, err
	}
	if !f.accepts(m) {
		return nil, fmt.Errorf("%w: %q is disabled", ErrUnsupportedPaymentMethod, method)
	}
	switch m {
	case MethodCash:
		return &Cash{base: newBase(m, amount, f.now), amountTendered: amount}, nil
	case MethodCredit:
		return &Credit{base: newBase(m, amount, f.now)}, nil
	default:
		return &Check{base: newBase(m, amount, f.now)}, nil
	}
}

func (f *Factory) accepts(m Method) bool {
	for _, allowed := range f.methods {
		if allowed == m {
			return true
		}
	}
	return false
}

// ParseMethod matches raw case-insensitively against the known methods.
func ParseMethod(raw string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(raw)))
	switch m {
	case MethodCash, MethodCredit, MethodCheck:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedPaymentMethod, raw)
	}
}

// Details carries the method-specific data of a payment request. Only the
// field matching the payment's method may be set.
type Details struct {
	AmountTendered *decimal.Decimal
	Card           *CardDetails
	Cheque         *ChequeDetails
}

// ApplyDetails hands the matching details to the payment variant.
func ApplyDetails(p Payment, d Details) error {
	switch v := p.(type) {
	case *Cash:
		if d.Card != nil || d.Cheque != nil {
			return ErrDetailsMismatch
		}
		if d.AmountTendered != nil {
			return v.Tender(*d.AmountTendered)
		}
	case *Credit:
		if d.AmountTendered != nil || d.Cheque != nil {
			return ErrDetailsMismatch
		}
		if d.Card != nil {
			return v.SetCard(*d.Card)
		}
	case *Check:
		if d.AmountTendered != nil || d.Card != nil {
			return ErrDetailsMismatch
		}
		if d.Cheque != nil {
			return v.SetCheque(*d.Cheque)
		}
	}
	return nil
}
