package checkout

import (
	"context"
	"time"

	"github.com/barberdesk/barberdesk/internal/booking"
	"github.com/barberdesk/barberdesk/internal/cart"
	"github.com/barberdesk/barberdesk/internal/domain"
	"github.com/barberdesk/barberdesk/internal/events"
	"github.com/barberdesk/barberdesk/pkg/common"
	"github.com/barberdesk/barberdesk/pkg/metrics"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Receipt is what a settled checkout hands back: the order, its lines and
// the appointments created for dated service lines.
type Receipt struct {
	Order        domain.Order         `json:"order"`
	Items        []domain.OrderItem   `json:"items"`
	Appointments []domain.Appointment `json:"appointments"`
}

// CheckoutService settles carts. Payment is simulated, so settling means
// moving stock, writing appointments and cutting the receipt, atomically.
type CheckoutService struct {
	store Store
	carts cart.Store
}

func NewCheckoutService(store Store, carts cart.Store) *CheckoutService {
	return &CheckoutService{store: store, carts: carts}
}

// Settle converts the cart under cartID into an order for userID. Every
// write happens inside one transaction: any failing line rolls back all
// earlier lines and leaves the cart untouched. Cart lines settle in cart
// order at the prices captured when they were added.
func (s *CheckoutService) Settle(ctx context.Context, userID int64, cartID string) (*Receipt, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}

	c, err := s.carts.Load(ctx, cartID)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}

	order := domain.Order{
		ID:          common.UUIDint64(),
		OrderNo:     common.GenerateOrderNo(),
		UserID:      userID,
		TotalAmount: c.TotalPrice(),
		ItemCount:   c.TotalItems(),
		Status:      domain.OrderPaid,
	}

	var items []domain.OrderItem
	var appts []domain.Appointment

	err = s.store.InTransaction(ctx, func(tx Tx) error {
		for _, line := range c.Items {
			item := domain.OrderItem{
				ID:       common.UUIDint64(),
				OrderID:  order.ID,
				UserID:   userID,
				ItemID:   line.ID,
				Kind:     line.Kind,
				Name:     line.Name,
				Price:    line.Price,
				Quantity: line.Quantity,
				Amount:   line.Price * float64(line.Quantity),
			}

			switch {
			case line.Kind == cart.KindProduct:
				if err := s.settleProductLine(ctx, tx, line); err != nil {
					return err
				}
			case line.Slotted():
				appt, err := s.settleServiceLine(ctx, tx, userID, line)
				if err != nil {
					return err
				}
				appts = append(appts, *appt)
				item.StartAt = &appt.StartAt
				item.AppointmentID = appt.ID
			default:
				// undated service line, sold as a voucher with no slot
			}

			items = append(items, item)
		}

		if err := tx.CreateOrder(ctx, &order); err != nil {
			return errors.Wrap(err, "create order")
		}
		if err := tx.CreateOrderItems(ctx, items); err != nil {
			return errors.Wrap(err, "create order items")
		}
		return nil
	})
	if err != nil {
		metrics.IncrCounter(metrics.CheckoutFailed, 1)
		return nil, err
	}

	// The settlement is committed; clearing the cart is best effort, a
	// leftover snapshot only ages out.
	if err := s.carts.Delete(ctx, cartID); err != nil {
		zap.L().Warn("failed to clear settled cart",
			zap.String("namespace", "checkout"),
			zap.String("cart_id", cartID),
			zap.Error(err),
		)
	}

	metrics.IncrCounter(metrics.CheckoutSettled, 1)

	apptIDs := make([]int64, 0, len(appts))
	for _, a := range appts {
		apptIDs = append(apptIDs, a.ID)
	}
	events.Publish(events.TopicCheckoutSettled, events.CheckoutSettled{
		OrderID:      order.ID,
		OrderNo:      order.OrderNo,
		UserID:       userID,
		TotalAmount:  order.TotalAmount,
		ItemCount:    order.ItemCount,
		Appointments: apptIDs,
		SettledAt:    time.Now(),
	})

	zap.L().Info("checkout settled",
		zap.String("namespace", "checkout"),
		zap.String("order_no", order.OrderNo),
		zap.Int64("user_id", userID),
		zap.Float64("total", order.TotalAmount),
		zap.Int("appointments", len(appts)),
	)

	return &Receipt{Order: order, Items: items, Appointments: appts}, nil
}

// settleProductLine moves stock with one conditional update. A miss is
// disambiguated with a re-read: gone row means unknown product, present row
// means the stock ran short. Both sentinels carry the line's product name so
// the client knows which cart line failed.
func (s *CheckoutService) settleProductLine(ctx context.Context, tx Tx, line cart.Item) error {
	moved, err := tx.DecrementStock(ctx, line.ID, line.Quantity)
	if err != nil {
		return errors.Wrap(err, "decrement stock")
	}
	if moved {
		return nil
	}
	if _, err := tx.GetProduct(ctx, line.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return lineError(ErrProductNotFound, line)
		}
		return errors.Wrap(err, "read product")
	}
	return lineError(ErrInsufficientStock, line)
}

// lineError prefixes a settlement sentinel with the failing line's name while
// keeping errors.Is matching intact.
func lineError(sentinel error, line cart.Item) error {
	if line.Name == "" {
		return sentinel
	}
	return errors.Wrapf(sentinel, "%s", line.Name)
}

// settleServiceLine books the slot carried by a dated service line. The
// instant must be free of scheduled appointments, same rule as the booking
// endpoint.
func (s *CheckoutService) settleServiceLine(ctx context.Context, tx Tx, userID int64, line cart.Item) (*domain.Appointment, error) {
	startAt, err := common.ParseSlot(line.Date, line.Time)
	if err != nil {
		return nil, booking.ErrMissingFields
	}

	count, err := tx.CountScheduledAt(ctx, startAt)
	if err != nil {
		return nil, errors.Wrap(err, "check slot")
	}
	if count > 0 {
		metrics.IncrCounter(metrics.BookingConflict, 1)
		return nil, booking.ErrSlotTaken
	}

	appt := &domain.Appointment{
		ID:          common.UUIDint64(),
		UserID:      userID,
		ServiceID:   line.ID,
		ServiceName: line.Name,
		Price:       line.Price,
		StartAt:     startAt,
		Status:      domain.AppointmentScheduled,
	}
	if err := tx.CreateAppointment(ctx, appt); err != nil {
		return nil, errors.Wrap(err, "create appointment")
	}
	return appt, nil
}
