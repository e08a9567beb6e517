package mapper

import (
	"time"

	"github.com/shopspring/decimal"

	ordersdomain "github.com/Apurer/restaurant-orders/internal/domains/orders/domain"
	ordersports "github.com/Apurer/restaurant-orders/internal/domains/orders/ports"
	paymentsdomain "github.com/Apurer/restaurant-orders/internal/domains/payments/domain"
)

// LineItem is one menu line in a request or response.
type LineItem struct {
	ItemID    int64           `json:"itemId"`
	Quantity  int32           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Card carries credit card data. Only the last four digits are ever echoed.
type Card struct {
	Number     string `json:"number"`
	HolderName string `json:"holderName"`
	ExpiryDate string `json:"expiryDate"`
	CVV        string `json:"cvv"`
}

type Cheque struct {
	Number   string `json:"number"`
	BankName string `json:"bankName"`
}

// PaymentRequest selects the payment method and its details.
type PaymentRequest struct {
	Method         string           `json:"method"`
	AmountTendered *decimal.Decimal `json:"amountTendered,omitempty"`
	Card           *Card            `json:"card,omitempty"`
	Cheque         *Cheque          `json:"cheque,omitempty"`
}

// PlaceOrder is the body of POST /v1/orders.
type PlaceOrder struct {
	CustomerID     int64          `json:"customerId"`
	ContactAddress string         `json:"contactAddress,omitempty"`
	Items          []LineItem     `json:"items"`
	Payment        PaymentRequest `json:"payment"`
}

// StatusUpdate is the body of PUT /v1/orders/:orderId/status.
type StatusUpdate struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Broadcast is the body of POST /v1/notifications/broadcast.
type Broadcast struct {
	Message string `json:"message"`
}

type HistoryEntry struct {
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Order is the transport representation of an order.
type Order struct {
	ID             int64           `json:"id"`
	CustomerID     int64           `json:"customerId"`
	ContactAddress string          `json:"contactAddress,omitempty"`
	Items          []LineItem      `json:"items"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	Status         string          `json:"status"`
	PaymentStatus  string          `json:"paymentStatus"`
	StatusHistory  []HistoryEntry  `json:"statusHistory"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Payment is the transport representation of a payment attempt.
type Payment struct {
	ID             string           `json:"id"`
	OrderID        int64            `json:"orderId"`
	Method         string           `json:"method"`
	Amount         decimal.Decimal  `json:"amount"`
	Status         string           `json:"status"`
	FailureReason  string           `json:"failureReason,omitempty"`
	ProcessedAt    *time.Time       `json:"processedAt,omitempty"`
	AmountTendered *decimal.Decimal `json:"amountTendered,omitempty"`
	ChangeDue      *decimal.Decimal `json:"changeDue,omitempty"`
	CardLast4      string           `json:"cardLast4,omitempty"`
	CardHolderName string           `json:"cardHolderName,omitempty"`
	ChequeNumber   string           `json:"chequeNumber,omitempty"`
	BankName       string           `json:"bankName,omitempty"`
}

// Placement is the response of POST /v1/orders.
type Placement struct {
	Order            Order   `json:"order"`
	Payment          Payment `json:"payment"`
	PaymentSucceeded bool    `json:"paymentSucceeded"`
}

// ToPlaceOrderInput converts a transport request into the service input.
func ToPlaceOrderInput(req PlaceOrder, idempotencyKey string) ordersports.PlaceOrderInput {
	items := make([]ordersdomain.LineItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, ordersdomain.LineItem{ItemID: item.ItemID, Quantity: item.Quantity, UnitPrice: item.UnitPrice})
	}
	details := paymentsdomain.Details{AmountTendered: req.Payment.AmountTendered}
	if card := req.Payment.Card; card != nil {
		details.Card = &paymentsdomain.CardDetails{
			Number:     card.Number,
			HolderName: card.HolderName,
			ExpiryDate: card.ExpiryDate,
			CVV:        card.CVV,
		}
	}
	if cheque := req.Payment.Cheque; cheque != nil {
		details.Cheque = &paymentsdomain.ChequeDetails{Number: cheque.Number, BankName: cheque.BankName}
	}
	return ordersports.PlaceOrderInput{
		CustomerID:     req.CustomerID,
		ContactAddress: req.ContactAddress,
		Items:          items,
		PaymentMethod:  req.Payment.Method,
		PaymentDetails: details,
		IdempotencyKey: idempotencyKey,
	}
}

// FromDomainOrder converts a live order to the transport representation.
func FromDomainOrder(order *ordersdomain.Order) Order {
	if order == nil {
		return Order{}
	}
	return FromSnapshot(order.Snapshot())
}

// FromDomainOrders converts a list of orders.
func FromDomainOrders(orders []*ordersdomain.Order) []Order {
	out := make([]Order, 0, len(orders))
	for _, order := range orders {
		out = append(out, FromDomainOrder(order))
	}
	return out
}

// FromSnapshot converts an order snapshot to the transport representation.
func FromSnapshot(s ordersdomain.Snapshot) Order {
	items := make([]LineItem, 0, len(s.LineItems))
	for _, item := range s.LineItems {
		items = append(items, LineItem{ItemID: item.ItemID, Quantity: item.Quantity, UnitPrice: item.UnitPrice})
	}
	history := make([]HistoryEntry, 0, len(s.StatusHistory))
	for _, entry := range s.StatusHistory {
		history = append(history, HistoryEntry{Status: string(entry.Status), Message: entry.Message, Timestamp: entry.Timestamp})
	}
	return Order{
		ID:             s.ID,
		CustomerID:     s.CustomerID,
		ContactAddress: s.ContactAddress,
		Items:          items,
		TotalAmount:    s.TotalAmount,
		Status:         string(s.Status),
		PaymentStatus:  string(s.PaymentStatus),
		StatusHistory:  history,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

// FromPayment converts a payment snapshot. Method-specific fields are only
// set for the matching method.
func FromPayment(p paymentsdomain.Snapshot) Payment {
	out := Payment{
		ID:             p.ID.String(),
		OrderID:        p.OrderID,
		Method:         string(p.Method),
		Amount:         p.Amount,
		Status:         string(p.Status),
		FailureReason:  p.FailureReason,
		CardLast4:      p.CardLast4,
		CardHolderName: p.CardHolderName,
		ChequeNumber:   p.ChequeNumber,
		BankName:       p.BankName,
	}
	if !p.ProcessedAt.IsZero() {
		processed := p.ProcessedAt
		out.ProcessedAt = &processed
	}
	if p.Method == paymentsdomain.MethodCash {
		tendered, change := p.AmountTendered, p.ChangeDue
		out.AmountTendered = &tendered
		out.ChangeDue = &change
	}
	return out
}

// FromPayments converts a list of payment snapshots.
func FromPayments(payments []*paymentsdomain.Snapshot) []Payment {
	out := make([]Payment, 0, len(payments))
	for _, p := range payments {
		if p != nil {
			out = append(out, FromPayment(*p))
		}
	}
	return out
}

// FromReceipt converts a placement receipt.
func FromReceipt(r *ordersports.PlacementReceipt) Placement {
	if r == nil {
		return Placement{}
	}
	return Placement{
		Order:            FromSnapshot(r.Order),
		Payment:          FromPayment(r.Payment),
		PaymentSucceeded: r.PaymentSucceeded,
	}
}
