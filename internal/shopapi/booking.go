package shopapi

import (
	"net/http"
	"strconv"

	"github.com/barberdesk/barberdesk/internal/booking"
	"github.com/barberdesk/barberdesk/internal/domain"
	"github.com/barberdesk/barberdesk/internal/webserver"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type bookPayload struct {
	ServiceID int64  `json:"service_id,string" validate:"required"`
	Date      string `json:"date" validate:"required"`
	Time      string `json:"time" validate:"required"`
}

type reschedulePayload struct {
	Date string `json:"date" validate:"required"`
	Time string `json:"time" validate:"required"`
}

// registerBookingRoutes registers appointment endpoints
func registerBookingRoutes() {
	webserver.PubGET("/booking/times", getBookedTimes)
	webserver.AuthPOST("/booking", bookAppointment)
	webserver.AuthPUT("/booking/:id", rescheduleMyAppointment)
	webserver.AuthDELETE("/booking/:id", cancelMyAppointment)
	webserver.AuthGET("/my/appointments", listMyAppointments)
}

func shopBookingService(c echo.Context) *booking.BookingService {
	db := GetDB(c)
	return booking.NewBookingService(
		booking.NewGormAppointmentRepository(db),
		booking.NewGormServiceRepository(db),
	)
}

// getBookedTimes returns the occupied slot times of a day so the slot picker
// can disable them. Advisory only, booking re-checks the slot.
func getBookedTimes(c echo.Context) error {
	times, err := shopBookingService(c).BookedTimes(c.Request().Context(), c.QueryParam("date"))
	if err != nil {
		if errors.Is(err, booking.ErrMissingFields) {
			return fail(c, http.StatusBadRequest, "MISSING_FIELDS", "Date must be YYYY-MM-DD")
		}
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query booked times")
	}
	return ok(c, map[string]interface{}{
		"date":  c.QueryParam("date"),
		"times": times,
	})
}

func bookAppointment(c echo.Context) error {
	var payload bookPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse booking")
	}

	appt, err := shopBookingService(c).Book(
		c.Request().Context(),
		webserver.CurrentUserID(c),
		payload.ServiceID,
		payload.Date,
		payload.Time,
	)
	if err != nil {
		return shopBookingFail(c, err)
	}
	return ok(c, appt)
}

// ownAppointment loads the appointment and rejects access to other clients'
// rows.
func ownAppointment(c echo.Context) (*domain.Appointment, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return nil, booking.ErrNotFound
	}
	var appt domain.Appointment
	if err := GetDB(c).First(&appt, id).Error; err != nil {
		return nil, booking.ErrNotFound
	}
	if appt.UserID != webserver.CurrentUserID(c) {
		return nil, booking.ErrNotFound
	}
	return &appt, nil
}

func cancelMyAppointment(c echo.Context) error {
	appt, err := ownAppointment(c)
	if err != nil {
		return shopBookingFail(c, err)
	}

	cancelled, err := shopBookingService(c).Cancel(c.Request().Context(), appt.ID)
	if err != nil {
		return shopBookingFail(c, err)
	}
	return ok(c, cancelled)
}

func rescheduleMyAppointment(c echo.Context) error {
	appt, err := ownAppointment(c)
	if err != nil {
		return shopBookingFail(c, err)
	}

	var payload reschedulePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse reschedule request")
	}

	moved, err := shopBookingService(c).Reschedule(c.Request().Context(), appt.ID, payload.Date, payload.Time)
	if err != nil {
		return shopBookingFail(c, err)
	}
	return ok(c, moved)
}

func listMyAppointments(c echo.Context) error {
	page := 1
	pageSize := 20
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}
	if ps, err := strconv.Atoi(c.QueryParam("pageSize")); err == nil && ps > 0 {
		pageSize = ps
	}

	appts, total, err := shopBookingService(c).MyAppointments(c.Request().Context(), webserver.CurrentUserID(c), page, pageSize)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query appointments")
	}
	return ok(c, map[string]interface{}{
		"items":     appts,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// shopBookingFail maps booking sentinels onto the shop envelope.
func shopBookingFail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, booking.ErrMissingFields):
		return fail(c, http.StatusBadRequest, "MISSING_FIELDS", "Service, date and time are required")
	case errors.Is(err, booking.ErrSlotTaken):
		return fail(c, http.StatusConflict, "SLOT_TAKEN", "That slot was just booked, pick another time")
	case errors.Is(err, booking.ErrServiceNotFound):
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Service not found")
	case errors.Is(err, booking.ErrNotFound):
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Appointment not found")
	case errors.Is(err, booking.ErrInvalidStatus):
		return fail(c, http.StatusConflict, "INVALID_STATUS", "This appointment can no longer be changed")
	default:
		return fail(c, http.StatusInternalServerError, "BOOKING_FAILED", "Booking operation failed")
	}
}
