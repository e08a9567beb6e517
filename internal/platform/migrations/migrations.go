package migrations

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Run applies the schema for the bounded contexts. Adapters do not migrate on their own.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&orderRecord{},
		&orderLineItemRecord{},
		&orderStatusHistoryRecord{},
		&paymentRecord{},
		&outboxRecord{},
	)
}

// Order schema mirrors the orders Postgres adapter.
type orderRecord struct {
	ID             int64           `gorm:"primaryKey;column:id"`
	CustomerID     int64           `gorm:"column:customer_id;index"`
	ContactAddress string          `gorm:"column:contact_address"`
	TotalAmount    decimal.Decimal `gorm:"column:total_amount;type:numeric(12,2)"`
	Status         string          `gorm:"column:status;type:varchar(32);index"`
	PaymentStatus  string          `gorm:"column:payment_status;type:varchar(16)"`
	ItemIDs        pq.Int64Array   `gorm:"column:item_ids;type:bigint[]"`
	CreatedAt      time.Time       `gorm:"column:created_at;index"`
	UpdatedAt      time.Time       `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

type orderLineItemRecord struct {
	OrderID   int64           `gorm:"primaryKey;column:order_id"`
	Position  int             `gorm:"primaryKey;column:position"`
	ItemID    int64           `gorm:"column:item_id;index"`
	Quantity  int32           `gorm:"column:quantity"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2)"`
}

func (orderLineItemRecord) TableName() string { return "order_line_items" }

type orderStatusHistoryRecord struct {
	OrderID    int64     `gorm:"primaryKey;column:order_id"`
	Seq        int       `gorm:"primaryKey;column:seq"`
	Status     string    `gorm:"column:status;type:varchar(32)"`
	Message    string    `gorm:"column:message"`
	RecordedAt time.Time `gorm:"column:recorded_at"`
}

func (orderStatusHistoryRecord) TableName() string { return "order_status_history" }

// Payment schema mirrors the payments Postgres adapter.
type paymentRecord struct {
	ID             uuid.UUID       `gorm:"primaryKey;column:id;type:uuid"`
	OrderID        int64           `gorm:"column:order_id;index"`
	Method         string          `gorm:"column:method;type:varchar(16)"`
	Amount         decimal.Decimal `gorm:"column:amount;type:numeric(12,2)"`
	Status         string          `gorm:"column:status;type:varchar(16);index"`
	FailureReason  string          `gorm:"column:failure_reason"`
	ProcessedAt    *time.Time      `gorm:"column:processed_at"`
	AmountTendered decimal.Decimal `gorm:"column:amount_tendered;type:numeric(12,2)"`
	ChangeDue      decimal.Decimal `gorm:"column:change_due;type:numeric(12,2)"`
	CardLast4      string          `gorm:"column:card_last4;size:4"`
	CardHolderName string          `gorm:"column:card_holder_name"`
	ChequeNumber   string          `gorm:"column:cheque_number"`
	BankName       string          `gorm:"column:bank_name"`
	CreatedAt      time.Time       `gorm:"column:created_at;index"`
	UpdatedAt      time.Time       `gorm:"column:updated_at"`
}

func (paymentRecord) TableName() string { return "payments" }

// Outbox schema backs the notification outbox transport and relay.
type outboxRecord struct {
	ID          uuid.UUID  `gorm:"primaryKey;column:id;type:uuid"`
	Channel     string     `gorm:"column:channel;type:varchar(16)"`
	RoutingKey  string     `gorm:"column:routing_key"`
	Payload     []byte     `gorm:"column:payload;type:jsonb"`
	CreatedAt   time.Time  `gorm:"column:created_at;index:idx_outbox_pending,where:published_at IS NULL"`
	PublishedAt *time.Time `gorm:"column:published_at"`
	Attempts    int        `gorm:"column:attempts;default:0"`
	LastError   string     `gorm:"column:last_error"`
}

func (outboxRecord) TableName() string { return "notification_outbox" }
