package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/restaurant-orders/internal/domains/orders/domain"
	"github.com/Apurer/restaurant-orders/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists orders in PostgreSQL using GORM. Line items and the
// status history live in child tables written in the same transaction.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle
// and runs the schema migrations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// orderRecord maps the order aggregate root to the orders table. ItemIDs
// duplicates the line item ids to support containment queries.
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

type lineItemRecord struct {
	OrderID   int64           `gorm:"primaryKey;column:order_id"`
	Position  int             `gorm:"primaryKey;column:position"`
	ItemID    int64           `gorm:"column:item_id"`
	Quantity  int32           `gorm:"column:quantity"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2)"`
}

func (lineItemRecord) TableName() string { return "order_line_items" }

type historyRecord struct {
	OrderID    int64     `gorm:"primaryKey;column:order_id"`
	Seq        int       `gorm:"primaryKey;column:seq"`
	Status     string    `gorm:"column:status;type:varchar(32)"`
	Message    string    `gorm:"column:message"`
	RecordedAt time.Time `gorm:"column:recorded_at"`
}

func (historyRecord) TableName() string { return "order_status_history" }

// Save inserts a new order, assigning the generated id, or updates an
// existing one. History rows are only ever appended.
func (r *Repository) Save(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	var id int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		snapshot := order.Snapshot()
		record := toRecord(snapshot)
		if record.ID == 0 {
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
			if err := order.AssignID(record.ID); err != nil {
				return err
			}
		} else if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"contact_address": record.ContactAddress,
				"total_amount":    record.TotalAmount,
				"status":          record.Status,
				"payment_status":  record.PaymentStatus,
				"item_ids":        record.ItemIDs,
				"updated_at":      record.UpdatedAt,
			}),
		}).Create(&record).Error; err != nil {
			return err
		}
		id = record.ID
		if err := tx.Where("order_id = ?", id).Delete(&lineItemRecord{}).Error; err != nil {
			return err
		}
		if items := toLineItemRecords(id, snapshot.LineItems); len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		if history := toHistoryRecords(id, snapshot.StatusHistory); len(history) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&history).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// GetByID fetches an order with its line items and history.
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	orders, err := r.hydrate(ctx, []orderRecord{record})
	if err != nil {
		return nil, err
	}
	return orders[0], nil
}

// Delete removes an order and its child rows.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&lineItemRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", id).Delete(&historyRecord{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&orderRecord{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ports.ErrNotFound
		}
		return nil
	})
}

// List returns all orders.
func (r *Repository) List(ctx context.Context) ([]*domain.Order, error) {
	return r.Find(ctx, ports.Query{})
}

// Find returns orders matching query ordered by id.
func (r *Repository) Find(ctx context.Context, query ports.Query) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	db := r.db.WithContext(ctx).Model(&orderRecord{})
	if len(query.Statuses) > 0 {
		statuses := make([]string, 0, len(query.Statuses))
		for _, status := range query.Statuses {
			statuses = append(statuses, string(status))
		}
		db = db.Where("status IN ?", statuses)
	}
	if query.CustomerID != 0 {
		db = db.Where("customer_id = ?", query.CustomerID)
	}
	if query.ItemID != 0 {
		db = db.Where("? = ANY(item_ids)", query.ItemID)
	}
	if !query.From.IsZero() {
		db = db.Where("created_at >= ?", query.From)
	}
	if !query.To.IsZero() {
		db = db.Where("created_at <= ?", query.To)
	}
	var records []orderRecord
	if err := db.Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	return r.hydrate(ctx, records)
}

func (r *Repository) hydrate(ctx context.Context, records []orderRecord) ([]*domain.Order, error) {
	if len(records) == 0 {
		return []*domain.Order{}, nil
	}
	ids := make([]int64, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.ID)
	}
	var items []lineItemRecord
	if err := r.db.WithContext(ctx).Where("order_id IN ?", ids).Order("order_id, position").Find(&items).Error; err != nil {
		return nil, err
	}
	var history []historyRecord
	if err := r.db.WithContext(ctx).Where("order_id IN ?", ids).Order("order_id, seq").Find(&history).Error; err != nil {
		return nil, err
	}
	itemsByOrder := map[int64][]domain.LineItem{}
	for _, item := range items {
		itemsByOrder[item.OrderID] = append(itemsByOrder[item.OrderID], domain.LineItem{
			ItemID:    item.ItemID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	historyByOrder := map[int64][]domain.HistoryEntry{}
	for _, entry := range history {
		historyByOrder[entry.OrderID] = append(historyByOrder[entry.OrderID], domain.HistoryEntry{
			Status:    domain.Status(entry.Status),
			Message:   entry.Message,
			Timestamp: entry.RecordedAt,
		})
	}
	orders := make([]*domain.Order, 0, len(records))
	for _, record := range records {
		order, err := domain.Rehydrate(domain.Snapshot{
			ID:             record.ID,
			CustomerID:     record.CustomerID,
			ContactAddress: record.ContactAddress,
			LineItems:      itemsByOrder[record.ID],
			TotalAmount:    record.TotalAmount,
			Status:         domain.Status(record.Status),
			PaymentStatus:  domain.PaymentStatus(record.PaymentStatus),
			StatusHistory:  historyByOrder[record.ID],
			CreatedAt:      record.CreatedAt,
			UpdatedAt:      record.UpdatedAt,
		})
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}

func toRecord(s domain.Snapshot) orderRecord {
	itemIDs := make(pq.Int64Array, 0, len(s.LineItems))
	for _, item := range s.LineItems {
		itemIDs = append(itemIDs, item.ItemID)
	}
	return orderRecord{
		ID:             s.ID,
		CustomerID:     s.CustomerID,
		ContactAddress: s.ContactAddress,
		TotalAmount:    s.TotalAmount,
		Status:         string(s.Status),
		PaymentStatus:  string(s.PaymentStatus),
		ItemIDs:        itemIDs,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

func toLineItemRecords(orderID int64, items []domain.LineItem) []lineItemRecord {
	records := make([]lineItemRecord, 0, len(items))
	for i, item := range items {
		records = append(records, lineItemRecord{
			OrderID:   orderID,
			Position:  i,
			ItemID:    item.ItemID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return records
}

func toHistoryRecords(orderID int64, history []domain.HistoryEntry) []historyRecord {
	records := make([]historyRecord, 0, len(history))
	for i, entry := range history {
		records = append(records, historyRecord{
			OrderID:    orderID,
			Seq:        i,
			Status:     string(entry.Status),
			Message:    entry.Message,
			RecordedAt: entry.Timestamp,
		})
	}
	return records
}
