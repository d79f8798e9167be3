package booking

import "errors"

var (
	// ErrMissingFields is returned when service, date or time is absent.
	ErrMissingFields = errors.New("service, date and time are required")

	// ErrSlotTaken is returned when the requested instant already holds a
	// scheduled appointment.
	ErrSlotTaken = errors.New("slot is already booked")

	// ErrNotFound is returned for an unknown appointment ID.
	ErrNotFound = errors.New("appointment not found")

	// ErrInvalidStatus is returned when the appointment status does not
	// allow the requested transition, e.g. rescheduling a cancelled one.
	ErrInvalidStatus = errors.New("appointment status does not allow this operation")

	// ErrServiceNotFound is returned when the booked service does not exist
	// or is disabled.
	ErrServiceNotFound = errors.New("service not found")
)
