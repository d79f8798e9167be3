package notify

import (
	"github.com/barberdesk/barberdesk/internal/domain"
	"github.com/barberdesk/barberdesk/internal/events"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Settings exposes the runtime tunable notification configuration kept in
// sys_config.
type Settings interface {
	GetSettingsStringValue(category, key string) string
	GetSettingsInt64Value(category, key string) int64
	GetSettingsBoolValue(category, key string) bool
}

// Notifier fans booking and checkout events out to mail and webhooks. All
// dispatch runs on a bounded worker pool so slow SMTP never blocks the
// publishing side.
type Notifier struct {
	db       *gorm.DB
	settings Settings
	pool     *ants.Pool
}

func NewNotifier(db *gorm.DB, settings Settings) (*Notifier, error) {
	pool, err := ants.NewPool(4, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}
	return &Notifier{db: db, settings: settings, pool: pool}, nil
}

// Start subscribes the notifier to the event bus.
func (n *Notifier) Start() error {
	if err := events.SubscribeAsync(events.TopicCheckoutSettled, n.onCheckoutSettled); err != nil {
		return err
	}
	if err := events.SubscribeAsync(events.TopicBookingCreated, n.onBookingCreated); err != nil {
		return err
	}
	if err := events.SubscribeAsync(events.TopicBookingCancelled, n.onBookingCancelled); err != nil {
		return err
	}
	zap.L().Info("notifier started", zap.String("namespace", "notify"))
	return nil
}

// Stop releases the worker pool.
func (n *Notifier) Stop() {
	n.pool.Release()
}

func (n *Notifier) submit(task func()) {
	if err := n.pool.Submit(task); err != nil {
		// pool full or released, run inline rather than dropping the message
		zap.L().Debug("notify pool submit failed, running inline", zap.Error(err))
		task()
	}
}

func (n *Notifier) loadUser(id int64) *domain.User {
	var user domain.User
	if err := n.db.First(&user, id).Error; err != nil {
		zap.L().Warn("notify: user lookup failed",
			zap.String("namespace", "notify"),
			zap.Int64("user_id", id),
			zap.Error(err),
		)
		return nil
	}
	return &user
}

func (n *Notifier) onCheckoutSettled(evt events.CheckoutSettled) {
	n.submit(func() {
		user := n.loadUser(evt.UserID)
		if user != nil && user.Email != "" {
			n.sendReceiptMail(user, evt)
		}
		n.pushWebhook("checkout.settled", evt)
	})
}

func (n *Notifier) onBookingCreated(evt events.BookingEvent) {
	n.submit(func() {
		user := n.loadUser(evt.UserID)
		if user != nil && user.Email != "" {
			n.sendBookingMail(user, evt, "Your appointment is booked")
		}
		n.pushWebhook("booking.created", evt)
	})
}

func (n *Notifier) onBookingCancelled(evt events.BookingEvent) {
	n.submit(func() {
		user := n.loadUser(evt.UserID)
		if user != nil && user.Email != "" {
			n.sendBookingMail(user, evt, "Your appointment was cancelled")
		}
		n.pushWebhook("booking.cancelled", evt)
	})
}
