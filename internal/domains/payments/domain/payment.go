package domain

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Method tags the payment variant.
type Method string

const (
	MethodCash   Method = "cash"
	MethodCredit Method = "credit"
	MethodCheck  Method = "check"
)

// Status is the processing state of a payment attempt.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var (
	ErrInvalidAmount            = errors.New("payment amount must be greater than zero")
	ErrUnsupportedPaymentMethod = errors.New("unsupported payment method")
	ErrAlreadyProcessed         = errors.New("payment already processed")
	ErrInvalidTender            = errors.New("tendered amount must be non-negative with at most two decimal places")
	ErrDetailsMismatch          = errors.New("payment details do not match the payment method")
)

// Payment is one payment attempt. Variants are created pending by Factory and
// move exactly once to completed or failed when Process runs. A failed
// validation is reported through Status and FailureReason, not as an error.
type Payment interface {
	ID() uuid.UUID
	Method() Method
	Amount() decimal.Decimal
	Status() Status
	FailureReason() string
	ProcessedAt() time.Time
	OrderID() int64
	// BindOrder links the attempt to the order it settles.
	BindOrder(orderID int64)
	// Process runs the method-specific checks. It returns ErrAlreadyProcessed
	// on a second call.
	Process() error
	Snapshot() Snapshot
}

// Snapshot is the persisted view of a payment. Card data is reduced to the
// last four digits.
type Snapshot struct {
	ID             uuid.UUID
	OrderID        int64
	Method         Method
	Amount         decimal.Decimal
	Status         Status
	FailureReason  string
	ProcessedAt    time.Time
	AmountTendered decimal.Decimal
	ChangeDue      decimal.Decimal
	CardLast4      string
	CardHolderName string
	ChequeNumber   string
	BankName       string
}

// base carries the state shared by every variant.
type base struct {
	mu            sync.Mutex
	id            uuid.UUID
	orderID       int64
	method        Method
	amount        decimal.Decimal
	status        Status
	failureReason string
	processedAt   time.Time
	now           func() time.Time
}

func newBase(method Method, amount decimal.Decimal, now func() time.Time) base {
	return base{
		id:     uuid.New(),
		method: method,
		amount: amount,
		status: StatusPending,
		now:    now,
	}
}

func (b *base) ID() uuid.UUID           { return b.id }
func (b *base) Method() Method          { return b.method }
func (b *base) Amount() decimal.Decimal { return b.amount }

func (b *base) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

func (b *base) FailureReason() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failureReason
}

func (b *base) ProcessedAt() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.processedAt
}

func (b *base) OrderID() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.orderID
}

func (b *base) BindOrder(orderID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.orderID = orderID
}

// settle records the outcome of a validation. Caller holds the lock.
func (b *base) settle(reason string) {
	b.processedAt = b.now()
	if reason == "" {
		b.status = StatusCompleted
		return
	}
	b.status = StatusFailed
	b.failureReason = reason
}

func (b *base) snapshot() Snapshot {
	return Snapshot{
		ID:            b.id,
		OrderID:       b.orderID,
		Method:        b.method,
		Amount:        b.amount,
		Status:        b.status,
		FailureReason: b.failureReason,
		ProcessedAt:   b.processedAt,
	}
}

func blank(value string) bool {
	return strings.TrimSpace(value) == ""
}
