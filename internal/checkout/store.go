package checkout

import (
	"context"
	"time"

	"github.com/barberdesk/barberdesk/internal/domain"
	"gorm.io/gorm"
)

// Tx is the set of writes a settlement performs. All methods of one
// settlement run against the same database transaction.
type Tx interface {
	// GetProduct reads a product row, gorm.ErrRecordNotFound when absent
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)

	// DecrementStock moves n units from quantity to sold_quantity in a
	// single conditional update. Returns false when no row qualified,
	// either because the product is gone or its stock is short.
	DecrementStock(ctx context.Context, productID int64, n int) (bool, error)

	// CountScheduledAt counts scheduled appointments at the exact instant
	CountScheduledAt(ctx context.Context, at time.Time) (int64, error)

	// CreateAppointment inserts an appointment row
	CreateAppointment(ctx context.Context, appt *domain.Appointment) error

	// CreateOrder inserts the order receipt row
	CreateOrder(ctx context.Context, order *domain.Order) error

	// CreateOrderItems inserts the order line rows
	CreateOrderItems(ctx context.Context, items []domain.OrderItem) error
}

// Store opens settlement transactions. A returned error from fn rolls the
// whole settlement back.
type Store interface {
	InTransaction(ctx context.Context, fn func(tx Tx) error) error
}

// GormStore is the GORM implementation of Store
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) InTransaction(ctx context.Context, fn func(tx Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
}

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := t.db.WithContext(ctx).First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (t *gormTx) DecrementStock(ctx context.Context, productID int64, n int) (bool, error) {
	res := t.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ? AND quantity >= ?", productID, n).
		Updates(map[string]interface{}{
			"quantity":      gorm.Expr("quantity - ?", n),
			"sold_quantity": gorm.Expr("sold_quantity + ?", n),
			"updated_at":    time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (t *gormTx) CountScheduledAt(ctx context.Context, at time.Time) (int64, error) {
	var count int64
	err := t.db.WithContext(ctx).
		Model(&domain.Appointment{}).
		Where("start_at = ? AND status = ?", at, domain.AppointmentScheduled).
		Count(&count).Error
	return count, err
}

func (t *gormTx) CreateAppointment(ctx context.Context, appt *domain.Appointment) error {
	return t.db.WithContext(ctx).Create(appt).Error
}

func (t *gormTx) CreateOrder(ctx context.Context, order *domain.Order) error {
	return t.db.WithContext(ctx).Create(order).Error
}

func (t *gormTx) CreateOrderItems(ctx context.Context, items []domain.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return t.db.WithContext(ctx).Create(&items).Error
}
