package notify

import (
	"fmt"

	"github.com/barberdesk/barberdesk/internal/domain"
	"github.com/barberdesk/barberdesk/internal/events"
	"github.com/barberdesk/barberdesk/pkg/common"
	"github.com/barberdesk/barberdesk/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
	"gopkg.in/gomail.v2"
)

var pricePrinter = message.NewPrinter(language.English)

func formatPrice(v float64) string {
	return pricePrinter.Sprintf("$%v", number.Decimal(v, number.Scale(2)))
}

func (n *Notifier) smtpEnabled() bool {
	return n.settings.GetSettingsBoolValue("smtp", "enabled") &&
		n.settings.GetSettingsStringValue("smtp", "host") != ""
}

func (n *Notifier) sendMail(to, subject, body string) {
	if !n.smtpEnabled() {
		zap.L().Debug("smtp disabled, mail skipped", zap.String("to", to), zap.String("subject", subject))
		return
	}

	host := n.settings.GetSettingsStringValue("smtp", "host")
	port := int(n.settings.GetSettingsInt64Value("smtp", "port"))
	if port == 0 {
		port = 587
	}
	username := n.settings.GetSettingsStringValue("smtp", "username")
	password := n.settings.GetSettingsStringValue("smtp", "password")
	from := common.IfEmptyStr(n.settings.GetSettingsStringValue("smtp", "from"), username)

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	dialer := gomail.NewDialer(host, port, username, password)
	if err := dialer.DialAndSend(m); err != nil {
		zap.L().Error("mail send failed",
			zap.String("namespace", "notify"),
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err),
		)
		return
	}

	metrics.IncrCounter(metrics.MailSent, 1)
	zap.L().Info("mail sent",
		zap.String("namespace", "notify"),
		zap.String("to", to),
		zap.String("subject", subject),
	)
}

func (n *Notifier) sendReceiptMail(user *domain.User, evt events.CheckoutSettled) {
	shopName := common.IfEmptyStr(n.settings.GetSettingsStringValue("shop", "name"), "BarberDesk")
	body := fmt.Sprintf(
		"Hi %s,\n\nThanks for your order %s.\n\nItems: %d\nTotal: %s\n\n%s",
		common.IfEmptyStr(user.Realname, user.Username),
		evt.OrderNo,
		evt.ItemCount,
		formatPrice(evt.TotalAmount),
		shopName,
	)
	n.sendMail(user.Email, fmt.Sprintf("Order %s confirmed", evt.OrderNo), body)
}

func (n *Notifier) sendBookingMail(user *domain.User, evt events.BookingEvent, subject string) {
	shopName := common.IfEmptyStr(n.settings.GetSettingsStringValue("shop", "name"), "BarberDesk")
	body := fmt.Sprintf(
		"Hi %s,\n\n%s: %s on %s at %s (%s).\n\n%s",
		common.IfEmptyStr(user.Realname, user.Username),
		subject,
		evt.ServiceName,
		evt.StartAt.UTC().Format(common.DateLayout),
		evt.StartAt.UTC().Format(common.TimeLayout),
		formatPrice(evt.Price),
		shopName,
	)
	n.sendMail(user.Email, subject, body)
}

// SendReminder mails an upcoming appointment notice. Called by the
// appointment_reminder scheduler task.
func (n *Notifier) SendReminder(user *domain.User, appt *domain.Appointment) {
	if user == nil || user.Email == "" {
		return
	}
	shopName := common.IfEmptyStr(n.settings.GetSettingsStringValue("shop", "name"), "BarberDesk")
	body := fmt.Sprintf(
		"Hi %s,\n\nReminder: %s on %s at %s.\n\nSee you soon,\n%s",
		common.IfEmptyStr(user.Realname, user.Username),
		appt.ServiceName,
		appt.StartAt.UTC().Format(common.DateLayout),
		appt.StartAt.UTC().Format(common.TimeLayout),
		shopName,
	)
	n.submit(func() {
		n.sendMail(user.Email, "Appointment reminder", body)
	})
}
