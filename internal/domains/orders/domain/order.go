package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Status enumerates order progression.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusDelivered Status = "delivered"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	// StatusCustom only travels through notifications; an order never holds it.
	StatusCustom Status = "custom"
)

// PaymentStatus tracks settlement of the order, independent from Status.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

var (
	ErrInvalidID            = errors.New("order id must be greater than zero")
	ErrIDAlreadyAssigned    = errors.New("order id is already assigned")
	ErrInvalidCustomerID    = errors.New("customer id must be greater than zero")
	ErrNoLineItems          = errors.New("order must contain at least one line item")
	ErrInvalidItemID        = errors.New("item id must be greater than zero")
	ErrInvalidQuantity      = errors.New("quantity must be greater than zero")
	ErrInvalidUnitPrice     = errors.New("unit price must be non-negative with at most two decimal places")
	ErrInvalidStatus        = errors.New("order status is invalid")
	ErrInvalidPaymentStatus = errors.New("order payment status is invalid")
	ErrOrderClosed          = errors.New("order is completed or cancelled")
	ErrNotificationDelivery = errors.New("order notification delivery failed")
)

// DefaultCancelMessage is recorded in the history when an order is cancelled.
const DefaultCancelMessage = "Order cancelled"

// ParseStatus matches raw case-insensitively against the known statuses.
func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !status.valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return status, nil
}

// IsTerminal reports whether no further transitions are accepted.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) valid() bool {
	switch s {
	case StatusPending, StatusPreparing, StatusReady, StatusDelivered,
		StatusCompleted, StatusCancelled, StatusCustom:
		return true
	default:
		return false
	}
}

// ParsePaymentStatus matches raw case-insensitively against the payment statuses.
func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	status := PaymentStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch status {
	case PaymentPending, PaymentCompleted, PaymentFailed:
		return status, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPaymentStatus, raw)
	}
}

// LineItem is one menu item on the order.
type LineItem struct {
	ItemID    int64
	Quantity  int32
	UnitPrice decimal.Decimal
}

// Subtotal returns quantity times unit price.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt32(l.Quantity))
}

// Validate enforces line item invariants.
func (l LineItem) Validate() error {
	if l.ItemID <= 0 {
		return ErrInvalidItemID
	}
	if l.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if l.UnitPrice.IsNegative() || !isCents(l.UnitPrice) {
		return ErrInvalidUnitPrice
	}
	return nil
}

// isCents reports whether amount has no fraction below one cent, matching the
// numeric(12,2) columns amounts are stored in.
func isCents(amount decimal.Decimal) bool {
	return amount.Equal(amount.Truncate(2))
}

// HistoryEntry is one row of the append-only status log.
type HistoryEntry struct {
	Status    Status
	Message   string
	Timestamp time.Time
}

// Order is the aggregate root of the ordering context. It is both a state
// machine and the subject observers attach to.
//
// Updates on a completed or cancelled order are ignored rather than rejected;
// callers that need to know can check IsTerminal or use ApplyStatus.
type Order struct {
	mu             sync.Mutex
	id             int64
	customerID     int64
	contactAddress string
	lineItems      []LineItem
	totalAmount    decimal.Decimal
	status         Status
	paymentStatus  PaymentStatus
	history        []HistoryEntry
	observers      []Observer
	createdAt      time.Time
	updatedAt      time.Time
	now            func() time.Time
}

// Option customises order construction.
type Option func(*Order)

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(o *Order) {
		if now != nil {
			o.now = now
		}
	}
}

// WithContactAddress stores where customer notifications are sent.
func WithContactAddress(address string) Option {
	return func(o *Order) {
		o.contactAddress = strings.TrimSpace(address)
	}
}

// NewOrder validates the input and builds a pending order with its first
// history entry.
func NewOrder(customerID int64, items []LineItem, opts ...Option) (*Order, error) {
	if customerID <= 0 {
		return nil, ErrInvalidCustomerID
	}
	if err := validateLineItems(items); err != nil {
		return nil, err
	}
	o := newPendingOrder(opts...)
	o.customerID = customerID
	o.setLineItems(items)
	return o, nil
}

// NewBroadcastOrder builds an empty pending order used only to carry a
// one-off notification to observers. It is never persisted.
func NewBroadcastOrder(opts ...Option) *Order {
	return newPendingOrder(opts...)
}

func newPendingOrder(opts ...Option) *Order {
	o := &Order{
		status:        StatusPending,
		paymentStatus: PaymentPending,
		now:           time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	created := o.now()
	o.createdAt = created
	o.updatedAt = created
	o.history = []HistoryEntry{{Status: StatusPending, Message: "Order created", Timestamp: created}}
	return o
}

func validateLineItems(items []LineItem) error {
	if len(items) == 0 {
		return ErrNoLineItems
	}
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// setLineItems copies items and recomputes the total. Caller holds the lock or
// owns the order exclusively.
func (o *Order) setLineItems(items []LineItem) {
	o.lineItems = append([]LineItem{}, items...)
	total := decimal.Zero
	for _, item := range o.lineItems {
		total = total.Add(item.Subtotal())
	}
	o.totalAmount = total
}

// AssignID sets the identifier handed out by the store. The id can be set once.
func (o *Order) AssignID(id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.id != 0 && o.id != id {
		return ErrIDAlreadyAssigned
	}
	o.id = id
	return nil
}

func (o *Order) ID() int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.id
}

func (o *Order) CustomerID() int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.customerID
}

func (o *Order) ContactAddress() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.contactAddress
}

// LineItems returns a copy of the line items.
func (o *Order) LineItems() []LineItem {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]LineItem{}, o.lineItems...)
}

func (o *Order) TotalAmount() decimal.Decimal {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.totalAmount
}

func (o *Order) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

func (o *Order) PaymentStatus() PaymentStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.paymentStatus
}

// StatusHistory returns a copy of the status log, oldest first.
func (o *Order) StatusHistory() []HistoryEntry {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]HistoryEntry{}, o.history...)
}

// IsTerminal reports whether the order is completed or cancelled.
func (o *Order) IsTerminal() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status.IsTerminal()
}

func (o *Order) CreatedAt() time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.createdAt
}

func (o *Order) UpdatedAt() time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.updatedAt
}

// ReplaceLineItems swaps the line items and recomputes the total.
func (o *Order) ReplaceLineItems(items []LineItem) error {
	if err := validateLineItems(items); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.status.IsTerminal() {
		return ErrOrderClosed
	}
	o.setLineItems(items)
	o.updatedAt = o.stamp()
	return nil
}

// AddLineItem appends a single item and recomputes the total.
func (o *Order) AddLineItem(item LineItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.status.IsTerminal() {
		return ErrOrderClosed
	}
	o.setLineItems(append(o.lineItems, item))
	o.updatedAt = o.stamp()
	return nil
}

// RecordPaymentOutcome stores the settlement result. Terminal orders still
// accept payment updates.
func (o *Order) RecordPaymentOutcome(status PaymentStatus) error {
	if _, err := ParsePaymentStatus(string(status)); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.paymentStatus = status
	o.updatedAt = o.stamp()
	return nil
}

// UpdateStatus moves the order to status, records message in the history and
// notifies every attached observer in attachment order.
//
// On a completed or cancelled order the call is a deliberate no-op: it returns
// nil and neither history nor observers are touched. StatusCustom notifies
// observers without changing the status or the history.
//
// Observer failures do not stop delivery to the remaining observers. They are
// returned joined under ErrNotificationDelivery after the change is committed.
func (o *Order) UpdateStatus(ctx context.Context, status Status, message string) error {
	_, err := o.ApplyStatus(ctx, status, message)
	return err
}

// ApplyStatus behaves like UpdateStatus and also reports whether the update
// was accepted, i.e. the order was not terminal.
func (o *Order) ApplyStatus(ctx context.Context, status Status, message string) (bool, error) {
	if !status.valid() {
		return false, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	o.mu.Lock()
	if o.status.IsTerminal() {
		o.mu.Unlock()
		return false, nil
	}
	if status != StatusCustom {
		now := o.stamp()
		o.status = status
		o.history = append(o.history, HistoryEntry{Status: status, Message: message, Timestamp: now})
		o.updatedAt = now
	}
	observers := append([]Observer{}, o.observers...)
	o.mu.Unlock()

	return true, o.notifyAll(ctx, observers, status, message)
}

// Cancel is UpdateStatus(StatusCancelled) with the default message.
func (o *Order) Cancel(ctx context.Context) error {
	return o.UpdateStatus(ctx, StatusCancelled, DefaultCancelMessage)
}

// stamp returns the current time, never earlier than the last history entry.
func (o *Order) stamp() time.Time {
	now := o.now()
	if n := len(o.history); n > 0 && now.Before(o.history[n-1].Timestamp) {
		return o.history[n-1].Timestamp
	}
	return now
}

// Snapshot is a plain copy of the persisted order state.
type Snapshot struct {
	ID             int64
	CustomerID     int64
	ContactAddress string
	LineItems      []LineItem
	TotalAmount    decimal.Decimal
	Status         Status
	PaymentStatus  PaymentStatus
	StatusHistory  []HistoryEntry
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Snapshot copies the current state without observers.
func (o *Order) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Snapshot{
		ID:             o.id,
		CustomerID:     o.customerID,
		ContactAddress: o.contactAddress,
		LineItems:      append([]LineItem{}, o.lineItems...),
		TotalAmount:    o.totalAmount,
		Status:         o.status,
		PaymentStatus:  o.paymentStatus,
		StatusHistory:  append([]HistoryEntry{}, o.history...),
		CreatedAt:      o.createdAt,
		UpdatedAt:      o.updatedAt,
	}
}

// Rehydrate rebuilds an order loaded from storage. The total is recomputed
// from the line items; observers start empty.
func Rehydrate(s Snapshot, opts ...Option) (*Order, error) {
	if s.CustomerID <= 0 {
		return nil, ErrInvalidCustomerID
	}
	if err := validateLineItems(s.LineItems); err != nil {
		return nil, err
	}
	if !s.Status.valid() || s.Status == StatusCustom {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, s.Status)
	}
	paymentStatus := s.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = PaymentPending
	}
	if _, err := ParsePaymentStatus(string(paymentStatus)); err != nil {
		return nil, err
	}
	o := &Order{
		id:             s.ID,
		customerID:     s.CustomerID,
		contactAddress: s.ContactAddress,
		status:         s.Status,
		paymentStatus:  paymentStatus,
		history:        append([]HistoryEntry{}, s.StatusHistory...),
		createdAt:      s.CreatedAt,
		updatedAt:      s.UpdatedAt,
		now:            time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	o.setLineItems(s.LineItems)
	if len(o.history) == 0 {
		o.history = []HistoryEntry{{Status: s.Status, Timestamp: s.CreatedAt}}
	}
	return o, nil
}
