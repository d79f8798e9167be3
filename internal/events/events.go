package events

import (
	"time"

	"github.com/asaskevich/EventBus"
)

// Topics carried by the process-local event bus.
const (
	TopicCheckoutSettled  = "shop.checkout.settled"
	TopicBookingCreated   = "shop.booking.created"
	TopicBookingCancelled = "shop.booking.cancelled"
	TopicCatalogChanged   = "shop.catalog.changed"
)

// CheckoutSettled is published after a settlement transaction commits.
type CheckoutSettled struct {
	OrderID      int64
	OrderNo      string
	UserID       int64
	TotalAmount  float64
	ItemCount    int
	Appointments []int64 // appointment IDs created by the settlement
	SettledAt    time.Time
}

// BookingEvent is published when an appointment is created, rescheduled or
// cancelled outside of checkout.
type BookingEvent struct {
	AppointmentID int64
	UserID        int64
	ServiceID     int64
	ServiceName   string
	Price         float64
	StartAt       time.Time
	Status        string
}

var bus = EventBus.New()

// Publish fires a topic on the shared bus.
func Publish(topic string, args ...interface{}) {
	bus.Publish(topic, args...)
}

// Subscribe registers a synchronous handler.
func Subscribe(topic string, fn interface{}) error {
	return bus.Subscribe(topic, fn)
}

// SubscribeAsync registers a handler that runs on its own goroutine, keeping
// slow consumers (mail, webhooks) off the request path.
func SubscribeAsync(topic string, fn interface{}) error {
	return bus.SubscribeAsync(topic, fn, false)
}

// WaitAsync blocks until all async handlers drain. Used by tests and by
// shutdown.
func WaitAsync() {
	bus.WaitAsync()
}
