package booking

import (
	"context"
	"errors"
	"time"

	"github.com/barberdesk/barberdesk/internal/domain"
	"gorm.io/gorm"
)

// ServiceRepository provides read access to the bookable service catalog.
type ServiceRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Service, error)
}

// AppointmentRepository handles database operations for appointments.
type AppointmentRepository interface {
	// GetByID retrieves an appointment by ID
	GetByID(ctx context.Context, id int64) (*domain.Appointment, error)

	// ListScheduledBetween retrieves scheduled appointments with start_at in
	// [from, to), ordered by start_at
	ListScheduledBetween(ctx context.Context, from, to time.Time) ([]*domain.Appointment, error)

	// ListByUser retrieves a user's appointments, newest first
	ListByUser(ctx context.Context, userID int64, page, pageSize int) ([]*domain.Appointment, int64, error)

	// CreateIfFree inserts the appointment unless its instant already holds
	// a scheduled one, in which case it returns ErrSlotTaken
	CreateIfFree(ctx context.Context, appt *domain.Appointment) error

	// RescheduleIfFree moves an appointment to a new instant unless that
	// instant is held by another scheduled appointment
	RescheduleIfFree(ctx context.Context, id int64, startAt time.Time) error

	// UpdateStatus sets the appointment status
	UpdateStatus(ctx context.Context, id int64, status string) error
}

// GormServiceRepository is the GORM implementation of ServiceRepository
type GormServiceRepository struct {
	db *gorm.DB
}

func NewGormServiceRepository(db *gorm.DB) *GormServiceRepository {
	return &GormServiceRepository{db: db}
}

func (r *GormServiceRepository) GetByID(ctx context.Context, id int64) (*domain.Service, error) {
	var svc domain.Service
	err := r.db.WithContext(ctx).First(&svc, id).Error
	if err != nil {
		return nil, err
	}
	return &svc, nil
}

// GormAppointmentRepository is the GORM implementation of AppointmentRepository
type GormAppointmentRepository struct {
	db *gorm.DB
}

func NewGormAppointmentRepository(db *gorm.DB) *GormAppointmentRepository {
	return &GormAppointmentRepository{db: db}
}

func (r *GormAppointmentRepository) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	var appt domain.Appointment
	err := r.db.WithContext(ctx).First(&appt, id).Error
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

func (r *GormAppointmentRepository) ListScheduledBetween(ctx context.Context, from, to time.Time) ([]*domain.Appointment, error) {
	var appts []*domain.Appointment
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.AppointmentScheduled).
		Where("start_at >= ? AND start_at < ?", from, to).
		Order("start_at ASC").
		Find(&appts).Error
	return appts, err
}

func (r *GormAppointmentRepository) ListByUser(ctx context.Context, userID int64, page, pageSize int) ([]*domain.Appointment, int64, error) {
	var appts []*domain.Appointment
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Appointment{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Order("start_at DESC").Offset(offset).Limit(pageSize).Find(&appts).Error
	return appts, total, err
}

// CreateIfFree checks and inserts inside one transaction so two clients
// racing for the same instant cannot both land a scheduled row. A partial
// unique index on (start_at) for scheduled rows backs this at the database
// level, see app migrations.
func (r *GormAppointmentRepository) CreateIfFree(ctx context.Context, appt *domain.Appointment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Appointment{}).
			Where("start_at = ? AND status = ?", appt.StartAt, domain.AppointmentScheduled).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrSlotTaken
		}
		return tx.Create(appt).Error
	})
}

func (r *GormAppointmentRepository) RescheduleIfFree(ctx context.Context, id int64, startAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Appointment{}).
			Where("start_at = ? AND status = ? AND id != ?", startAt, domain.AppointmentScheduled, id).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrSlotTaken
		}
		res := tx.Model(&domain.Appointment{}).Where("id = ?", id).Updates(map[string]interface{}{
			"start_at":   startAt,
			"updated_at": time.Now(),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *GormAppointmentRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Appointment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// NotFound translates gorm's record sentinel so callers outside the package
// can test with errors.Is(err, ErrNotFound).
func NotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, ErrNotFound)
}
