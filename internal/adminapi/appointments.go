package adminapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/barberdesk/barberdesk/internal/booking"
	"github.com/barberdesk/barberdesk/internal/domain"
	"github.com/barberdesk/barberdesk/internal/webserver"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// registerAppointmentRoutes registers calendar management endpoints
func registerAppointmentRoutes() {
	webserver.ApiGET("/appointments", listAppointments)
	webserver.ApiGET("/appointments/:id", getAppointment)
	webserver.ApiPUT("/appointments/:id/status", updateAppointmentStatus)
	webserver.ApiPUT("/appointments/:id/reschedule", rescheduleAppointment)
	webserver.ApiDELETE("/appointments/:id", deleteAppointment)
}

// parseDateParam accepts any reasonable date format on report filters.
func parseDateParam(c echo.Context, name string) (time.Time, bool) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

func listAppointments(c echo.Context) error {
	page, pageSize := parsePagination(c)

	allowed := map[string]string{
		"id":         "id",
		"start_at":   "start_at",
		"status":     "status",
		"created_at": "created_at",
	}

	db := GetDB(c).Model(&domain.Appointment{})
	db = likeFilter(db, strings.TrimSpace(c.QueryParam("q")), "service_name")
	if status := strings.TrimSpace(c.QueryParam("status")); status != "" {
		db = db.Where("status = ?", status)
	}
	if userID, err := strconv.ParseInt(c.QueryParam("user_id"), 10, 64); err == nil && userID > 0 {
		db = db.Where("user_id = ?", userID)
	}
	if from, okFrom := parseDateParam(c, "from"); okFrom {
		db = db.Where("start_at >= ?", from)
	}
	if to, okTo := parseDateParam(c, "to"); okTo {
		db = db.Where("start_at < ?", to)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query appointments", err.Error())
	}

	var rows []domain.Appointment
	if err := db.Order(sortColumn(c, allowed)).Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query appointments", err.Error())
	}

	return paged(c, rows, total, page, pageSize)
}

func getAppointment(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid appointment ID", nil)
	}
	var a domain.Appointment
	if err := GetDB(c).Where("id = ?", id).First(&a).Error; err != nil {
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Appointment not found", nil)
	}
	return ok(c, a)
}

// updateAppointmentStatus moves an appointment through its lifecycle.
// Cancelling goes through the booking service so the usual rules and events
// apply; completed is a terminal back-office action.
func updateAppointmentStatus(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid appointment ID", nil)
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse status", err.Error())
	}

	svc := bookingService(c)
	ctx := c.Request().Context()

	switch payload.Status {
	case domain.AppointmentCancelled:
		appt, err := svc.Cancel(ctx, id)
		if err != nil {
			return bookingFail(c, err)
		}
		writeOprLog(c, "cancel_appointment", strconv.FormatInt(id, 10))
		return ok(c, appt)
	case domain.AppointmentCompleted:
		var a domain.Appointment
		if err := GetDB(c).First(&a, id).Error; err != nil {
			return fail(c, http.StatusNotFound, "NOT_FOUND", "Appointment not found", nil)
		}
		if a.Status != domain.AppointmentScheduled {
			return fail(c, http.StatusConflict, "INVALID_STATUS", "Only scheduled appointments can be completed", nil)
		}
		if err := GetDB(c).Model(&domain.Appointment{}).Where("id = ?", id).Updates(map[string]interface{}{
			"status":     domain.AppointmentCompleted,
			"updated_at": time.Now(),
		}).Error; err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update appointment", err.Error())
		}
		a.Status = domain.AppointmentCompleted
		writeOprLog(c, "complete_appointment", strconv.FormatInt(id, 10))
		return ok(c, a)
	default:
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Status must be completed or cancelled", nil)
	}
}

func rescheduleAppointment(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid appointment ID", nil)
	}

	var payload struct {
		Date string `json:"date"`
		Time string `json:"time"`
	}
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse reschedule request", err.Error())
	}

	appt, err := bookingService(c).Reschedule(c.Request().Context(), id, payload.Date, payload.Time)
	if err != nil {
		return bookingFail(c, err)
	}

	writeOprLog(c, "reschedule_appointment", strconv.FormatInt(id, 10))
	return ok(c, appt)
}

// deleteAppointment hard deletes a calendar row. The booking flows only ever
// cancel; this is back-office cleanup for test and junk rows.
func deleteAppointment(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid appointment ID", nil)
	}
	if err := GetDB(c).Where("id = ?", id).Delete(&domain.Appointment{}).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete appointment", err.Error())
	}

	writeOprLog(c, "delete_appointment", strconv.FormatInt(id, 10))
	return ok(c, map[string]interface{}{"id": id})
}

func bookingService(c echo.Context) *booking.BookingService {
	db := GetDB(c)
	return booking.NewBookingService(
		booking.NewGormAppointmentRepository(db),
		booking.NewGormServiceRepository(db),
	)
}

// bookingFail maps booking sentinels onto the admin envelope.
func bookingFail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, booking.ErrNotFound):
		return fail(c, http.StatusNotFound, "NOT_FOUND", "Appointment not found", nil)
	case errors.Is(err, booking.ErrSlotTaken):
		return fail(c, http.StatusConflict, "SLOT_TAKEN", "Slot is already booked", nil)
	case errors.Is(err, booking.ErrInvalidStatus):
		return fail(c, http.StatusConflict, "INVALID_STATUS", "Appointment status does not allow this operation", nil)
	case errors.Is(err, booking.ErrMissingFields):
		return fail(c, http.StatusBadRequest, "MISSING_FIELDS", "Date and time are required", nil)
	default:
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Appointment operation failed", err.Error())
	}
}
