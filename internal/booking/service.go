package booking

import (
	"context"
	"strings"
	"time"

	"github.com/barberdesk/barberdesk/internal/domain"
	"github.com/barberdesk/barberdesk/internal/events"
	"github.com/barberdesk/barberdesk/pkg/common"
	"github.com/barberdesk/barberdesk/pkg/metrics"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BookingService owns the appointment calendar: availability, booking,
// cancellation and rescheduling.
type BookingService struct {
	apptRepo AppointmentRepository
	svcRepo  ServiceRepository
}

func NewBookingService(apptRepo AppointmentRepository, svcRepo ServiceRepository) *BookingService {
	return &BookingService{
		apptRepo: apptRepo,
		svcRepo:  svcRepo,
	}
}

// BookedTimes returns the slot times (15:04) already scheduled on the given
// date (2006-01-02), sorted ascending. Cancelled and completed rows do not
// block a slot.
func (s *BookingService) BookedTimes(ctx context.Context, date string) ([]string, error) {
	day, err := time.Parse(common.DateLayout, strings.TrimSpace(date))
	if err != nil {
		return nil, ErrMissingFields
	}
	from, to := common.DayRange(day)

	appts, err := s.apptRepo.ListScheduledBetween(ctx, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "list scheduled appointments")
	}

	times := make([]string, 0, len(appts))
	for _, appt := range appts {
		times = append(times, appt.StartAt.UTC().Format(common.TimeLayout))
	}
	return times, nil
}

// Book places a new scheduled appointment at date+time for the given client.
// The slot conflict check and the insert run in one transaction.
func (s *BookingService) Book(ctx context.Context, userID, serviceID int64, date, clock string) (*domain.Appointment, error) {
	if userID == 0 || serviceID == 0 || strings.TrimSpace(date) == "" || strings.TrimSpace(clock) == "" {
		return nil, ErrMissingFields
	}

	startAt, err := common.ParseSlot(strings.TrimSpace(date), strings.TrimSpace(clock))
	if err != nil {
		return nil, ErrMissingFields
	}

	svc, err := s.svcRepo.GetByID(ctx, serviceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, errors.Wrap(err, "load service")
	}
	if svc.Status == common.DISABLED {
		return nil, ErrServiceNotFound
	}

	appt := &domain.Appointment{
		ID:          common.UUIDint64(),
		UserID:      userID,
		ServiceID:   svc.ID,
		ServiceName: svc.Name,
		Price:       svc.Price,
		StartAt:     startAt,
		DurationMin: svc.DurationMin,
		Status:      domain.AppointmentScheduled,
	}

	if err := s.apptRepo.CreateIfFree(ctx, appt); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			metrics.IncrCounter(metrics.BookingConflict, 1)
			return nil, ErrSlotTaken
		}
		return nil, errors.Wrap(err, "create appointment")
	}

	metrics.IncrCounter(metrics.BookingCreated, 1)
	events.Publish(events.TopicBookingCreated, events.BookingEvent{
		AppointmentID: appt.ID,
		UserID:        appt.UserID,
		ServiceID:     appt.ServiceID,
		ServiceName:   appt.ServiceName,
		Price:         appt.Price,
		StartAt:       appt.StartAt,
		Status:        appt.Status,
	})

	zap.L().Info("appointment booked",
		zap.String("namespace", "booking"),
		zap.Int64("appointment_id", appt.ID),
		zap.Int64("user_id", userID),
		zap.Time("start_at", appt.StartAt),
	)
	return appt, nil
}

// Cancel releases a slot. Cancelling an already cancelled appointment is a
// no-op; a completed appointment stays completed.
func (s *BookingService) Cancel(ctx context.Context, id int64) (*domain.Appointment, error) {
	appt, err := s.apptRepo.GetByID(ctx, id)
	if err != nil {
		if NotFound(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "load appointment")
	}

	switch appt.Status {
	case domain.AppointmentCancelled:
		return appt, nil
	case domain.AppointmentCompleted:
		return nil, ErrInvalidStatus
	}

	if err := s.apptRepo.UpdateStatus(ctx, id, domain.AppointmentCancelled); err != nil {
		return nil, errors.Wrap(err, "cancel appointment")
	}
	appt.Status = domain.AppointmentCancelled

	metrics.IncrCounter(metrics.BookingCancelled, 1)
	events.Publish(events.TopicBookingCancelled, events.BookingEvent{
		AppointmentID: appt.ID,
		UserID:        appt.UserID,
		ServiceID:     appt.ServiceID,
		ServiceName:   appt.ServiceName,
		Price:         appt.Price,
		StartAt:       appt.StartAt,
		Status:        appt.Status,
	})

	zap.L().Info("appointment cancelled",
		zap.String("namespace", "booking"),
		zap.Int64("appointment_id", id),
	)
	return appt, nil
}

// Reschedule moves a scheduled appointment to a new date+time. The target
// slot is conflict checked in the same transaction as the move.
func (s *BookingService) Reschedule(ctx context.Context, id int64, date, clock string) (*domain.Appointment, error) {
	if strings.TrimSpace(date) == "" || strings.TrimSpace(clock) == "" {
		return nil, ErrMissingFields
	}
	startAt, err := common.ParseSlot(strings.TrimSpace(date), strings.TrimSpace(clock))
	if err != nil {
		return nil, ErrMissingFields
	}

	appt, err := s.apptRepo.GetByID(ctx, id)
	if err != nil {
		if NotFound(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "load appointment")
	}
	if appt.Status != domain.AppointmentScheduled {
		return nil, ErrInvalidStatus
	}

	if err := s.apptRepo.RescheduleIfFree(ctx, id, startAt); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			metrics.IncrCounter(metrics.BookingConflict, 1)
			return nil, ErrSlotTaken
		}
		if NotFound(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "reschedule appointment")
	}
	appt.StartAt = startAt

	zap.L().Info("appointment rescheduled",
		zap.String("namespace", "booking"),
		zap.Int64("appointment_id", id),
		zap.Time("start_at", startAt),
	)
	return appt, nil
}

// MyAppointments lists a client's appointments, newest first.
func (s *BookingService) MyAppointments(ctx context.Context, userID int64, page, pageSize int) ([]*domain.Appointment, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.apptRepo.ListByUser(ctx, userID, page, pageSize)
}
