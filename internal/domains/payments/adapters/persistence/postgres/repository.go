package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/restaurant-orders/internal/domains/payments/domain"
	"github.com/Apurer/restaurant-orders/internal/domains/payments/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists payments in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle
// and runs the schema migrations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// paymentRecord maps a payment snapshot to the payments table.
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

// Save inserts or updates a payment.
func (r *Repository) Save(ctx context.Context, payment domain.Snapshot) (*domain.Snapshot, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if payment.ID == uuid.Nil {
		return nil, errors.New("payment id is required")
	}
	record := toRecord(payment)
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"order_id":        record.OrderID,
				"status":          record.Status,
				"failure_reason":  record.FailureReason,
				"processed_at":    record.ProcessedAt,
				"amount_tendered": record.AmountTendered,
				"change_due":      record.ChangeDue,
				"updated_at":      gorm.Expr("NOW()"),
			}),
		}).Create(&record).Error; err != nil {
		return nil, err
	}
	return r.GetByID(ctx, record.ID)
}

// GetByID fetches a payment by identifier.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Snapshot, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record paymentRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// ListByOrder returns every attempt recorded for an order, oldest first.
func (r *Repository) ListByOrder(ctx context.Context, orderID int64) ([]*domain.Snapshot, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []paymentRecord
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("created_at, id").Find(&records).Error; err != nil {
		return nil, err
	}
	payments := make([]*domain.Snapshot, 0, len(records))
	for i := range records {
		payments = append(payments, records[i].toDomain())
	}
	return payments, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres payment repository not configured")
	}
	return nil
}

func toRecord(p domain.Snapshot) paymentRecord {
	rec := paymentRecord{
		ID:             p.ID,
		OrderID:        p.OrderID,
		Method:         string(p.Method),
		Amount:         p.Amount,
		Status:         string(p.Status),
		FailureReason:  p.FailureReason,
		AmountTendered: p.AmountTendered,
		ChangeDue:      p.ChangeDue,
		CardLast4:      p.CardLast4,
		CardHolderName: p.CardHolderName,
		ChequeNumber:   p.ChequeNumber,
		BankName:       p.BankName,
	}
	if !p.ProcessedAt.IsZero() {
		processed := p.ProcessedAt
		rec.ProcessedAt = &processed
	}
	return rec
}

func (r paymentRecord) toDomain() *domain.Snapshot {
	s := &domain.Snapshot{
		ID:             r.ID,
		OrderID:        r.OrderID,
		Method:         domain.Method(r.Method),
		Amount:         r.Amount,
		Status:         domain.Status(r.Status),
		FailureReason:  r.FailureReason,
		AmountTendered: r.AmountTendered,
		ChangeDue:      r.ChangeDue,
		CardLast4:      r.CardLast4,
		CardHolderName: r.CardHolderName,
		ChequeNumber:   r.ChequeNumber,
		BankName:       r.BankName,
	}
	if r.ProcessedAt != nil {
		s.ProcessedAt = *r.ProcessedAt
	}
	return s
}
