package booking

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/barberdesk/barberdesk/internal/domain"
	"github.com/barberdesk/barberdesk/pkg/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeServiceRepo struct {
	services map[int64]*domain.Service
}

func (r *fakeServiceRepo) GetByID(ctx context.Context, id int64) (*domain.Service, error) {
	svc, ok := r.services[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *svc
	return &cp, nil
}

type fakeApptRepo struct {
	appts map[int64]*domain.Appointment
}

func newFakeApptRepo() *fakeApptRepo {
	return &fakeApptRepo{appts: map[int64]*domain.Appointment{}}
}

func (r *fakeApptRepo) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	appt, ok := r.appts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *appt
	return &cp, nil
}

func (r *fakeApptRepo) ListScheduledBetween(ctx context.Context, from, to time.Time) ([]*domain.Appointment, error) {
	var out []*domain.Appointment
	for _, appt := range r.appts {
		if appt.Status != domain.AppointmentScheduled {
			continue
		}
		if appt.StartAt.Before(from) || !appt.StartAt.Before(to) {
			continue
		}
		cp := *appt
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out, nil
}

func (r *fakeApptRepo) ListByUser(ctx context.Context, userID int64, page, pageSize int) ([]*domain.Appointment, int64, error) {
	var out []*domain.Appointment
	for _, appt := range r.appts {
		if appt.UserID == userID {
			cp := *appt
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.After(out[j].StartAt) })
	return out, int64(len(out)), nil
}

func (r *fakeApptRepo) slotHeld(at time.Time, except int64) bool {
	for _, appt := range r.appts {
		if appt.ID != except && appt.Status == domain.AppointmentScheduled && appt.StartAt.Equal(at) {
			return true
		}
	}
	return false
}

func (r *fakeApptRepo) CreateIfFree(ctx context.Context, appt *domain.Appointment) error {
	if r.slotHeld(appt.StartAt, appt.ID) {
		return ErrSlotTaken
	}
	cp := *appt
	r.appts[appt.ID] = &cp
	return nil
}

func (r *fakeApptRepo) RescheduleIfFree(ctx context.Context, id int64, startAt time.Time) error {
	appt, ok := r.appts[id]
	if !ok {
		return ErrNotFound
	}
	if r.slotHeld(startAt, id) {
		return ErrSlotTaken
	}
	appt.StartAt = startAt
	return nil
}

func (r *fakeApptRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	appt, ok := r.appts[id]
	if !ok {
		return ErrNotFound
	}
	appt.Status = status
	return nil
}

func newTestService() (*BookingService, *fakeApptRepo) {
	appts := newFakeApptRepo()
	svcs := &fakeServiceRepo{services: map[int64]*domain.Service{
		1: {ID: 1, Name: "Classic Haircut", Price: 30, DurationMin: 30, Status: common.ENABLED},
		2: {ID: 2, Name: "Hot Towel Shave", Price: 25, DurationMin: 20, Status: common.DISABLED},
	}}
	return NewBookingService(appts, svcs), appts
}

func TestBookMissingFields(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Book(ctx, 42, 0, "2026-09-01", "10:00")
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = svc.Book(ctx, 0, 1, "2026-09-01", "10:00")
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = svc.Book(ctx, 42, 1, "", "10:00")
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = svc.Book(ctx, 42, 1, "2026-09-01", "  ")
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = svc.Book(ctx, 42, 1, "not-a-date", "10:00")
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestBookUnknownOrDisabledService(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Book(ctx, 42, 99, "2026-09-01", "10:00")
	assert.ErrorIs(t, err, ErrServiceNotFound)

	_, err = svc.Book(ctx, 42, 2, "2026-09-01", "10:00")
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestBookCapturesServiceSnapshot(t *testing.T) {
	svc, repo := newTestService()

	appt, err := svc.Book(context.Background(), 42, 1, "2026-09-01", "10:00")
	require.NoError(t, err)

	assert.Equal(t, "Classic Haircut", appt.ServiceName)
	assert.Equal(t, 30.0, appt.Price)
	assert.Equal(t, 30, appt.DurationMin)
	assert.Equal(t, domain.AppointmentScheduled, appt.Status)
	assert.Equal(t, "2026-09-01 10:00", appt.StartAt.UTC().Format("2006-01-02 15:04"))
	assert.Len(t, repo.appts, 1)
}

func TestBookSlotConflict(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Book(ctx, 42, 1, "2026-09-01", "10:00")
	require.NoError(t, err)

	// same instant, any client, any service
	_, err = svc.Book(ctx, 43, 1, "2026-09-01", "10:00")
	assert.ErrorIs(t, err, ErrSlotTaken)

	// a different time on the same day is fine
	_, err = svc.Book(ctx, 43, 1, "2026-09-01", "10:30")
	assert.NoError(t, err)
}

func TestBookCancelledSlotIsFree(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	appt, err := svc.Book(ctx, 42, 1, "2026-09-01", "10:00")
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, appt.ID)
	require.NoError(t, err)

	_, err = svc.Book(ctx, 43, 1, "2026-09-01", "10:00")
	assert.NoError(t, err)
}

func TestCancel(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	appt, err := svc.Book(ctx, 42, 1, "2026-09-01", "10:00")
	require.NoError(t, err)

	got, err := svc.Cancel(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AppointmentCancelled, got.Status)
	assert.Equal(t, domain.AppointmentCancelled, repo.appts[appt.ID].Status)

	// cancelling again is a no-op
	got, err = svc.Cancel(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AppointmentCancelled, got.Status)
}

func TestCancelCompletedIsTerminal(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	appt, err := svc.Book(ctx, 42, 1, "2026-09-01", "10:00")
	require.NoError(t, err)
	repo.appts[appt.ID].Status = domain.AppointmentCompleted

	_, err = svc.Cancel(ctx, appt.ID)
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.Equal(t, domain.AppointmentCompleted, repo.appts[appt.ID].Status)
}

func TestCancelUnknown(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Cancel(context.Background(), 12345)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReschedule(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	appt, err := svc.Book(ctx, 42, 1, "2026-09-01", "10:00")
	require.NoError(t, err)

	got, err := svc.Reschedule(ctx, appt.ID, "2026-09-02", "14:30")
	require.NoError(t, err)
	assert.Equal(t, "2026-09-02 14:30", got.StartAt.UTC().Format("2006-01-02 15:04"))
}

func TestRescheduleConflict(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Book(ctx, 42, 1, "2026-09-01", "10:00")
	require.NoError(t, err)
	second, err := svc.Book(ctx, 43, 1, "2026-09-01", "11:00")
	require.NoError(t, err)

	_, err = svc.Reschedule(ctx, second.ID, "2026-09-01", "10:00")
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestRescheduleGuards(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	appt, err := svc.Book(ctx, 42, 1, "2026-09-01", "10:00")
	require.NoError(t, err)

	_, err = svc.Reschedule(ctx, appt.ID, "", "10:00")
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = svc.Reschedule(ctx, 99999, "2026-09-02", "10:00")
	assert.ErrorIs(t, err, ErrNotFound)

	repo.appts[appt.ID].Status = domain.AppointmentCancelled
	_, err = svc.Reschedule(ctx, appt.ID, "2026-09-02", "10:00")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestBookedTimes(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Book(ctx, 42, 1, "2026-09-01", "14:30")
	require.NoError(t, err)
	_, err = svc.Book(ctx, 43, 1, "2026-09-01", "10:00")
	require.NoError(t, err)
	cancelled, err := svc.Book(ctx, 44, 1, "2026-09-01", "16:00")
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, cancelled.ID)
	require.NoError(t, err)

	// another day does not leak in
	_, err = svc.Book(ctx, 42, 1, "2026-09-02", "09:00")
	require.NoError(t, err)

	times, err := svc.BookedTimes(ctx, "2026-09-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00", "14:30"}, times)
}

func TestBookedTimesEmptyDay(t *testing.T) {
	svc, _ := newTestService()

	times, err := svc.BookedTimes(context.Background(), "2026-12-25")
	require.NoError(t, err)
	assert.Empty(t, times)
}

func TestBookedTimesBadDate(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.BookedTimes(context.Background(), "01/09/2026")
	assert.ErrorIs(t, err, ErrMissingFields)
}
