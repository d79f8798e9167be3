package shopapi

import (
	"net/http"

	"github.com/barberdesk/barberdesk/internal/booking"
	"github.com/barberdesk/barberdesk/internal/checkout"
	"github.com/barberdesk/barberdesk/internal/domain"
	"github.com/barberdesk/barberdesk/internal/webserver"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// registerCheckoutRoutes registers the settlement endpoint
func registerCheckoutRoutes() {
	webserver.AuthPOST("/checkout", settleCheckout)
	webserver.AuthGET("/my/orders", listMyOrders)
}

// settleCheckout converts the session cart into an order. On any failure the
// cart stays as it was for retry.
func settleCheckout(c echo.Context) error {
	appCtx := GetAppContext(c)
	svc := checkout.NewCheckoutService(
		checkout.NewGormStore(appCtx.DB()),
		appCtx.CartStore(),
	)

	receipt, err := svc.Settle(c.Request().Context(), webserver.CurrentUserID(c), webserver.CartID(c))
	if err != nil {
		return checkoutFail(c, err)
	}
	return ok(c, receipt)
}

// checkoutFail maps settlement sentinels onto the shop envelope.
func checkoutFail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, checkout.ErrUnauthenticated):
		return fail(c, http.StatusUnauthorized, "UNAUTHENTICATED", "Sign in to check out")
	case errors.Is(err, checkout.ErrEmptyCart):
		return fail(c, http.StatusBadRequest, "EMPTY_CART", "Your cart is empty")
	case errors.Is(err, checkout.ErrProductNotFound):
		// the settlement error names the failing product, pass it through
		return fail(c, http.StatusConflict, "PRODUCT_NOT_FOUND", err.Error())
	case errors.Is(err, checkout.ErrInsufficientStock):
		return fail(c, http.StatusConflict, "INSUFFICIENT_STOCK", err.Error())
	case errors.Is(err, booking.ErrSlotTaken):
		return fail(c, http.StatusConflict, "SLOT_TAKEN", "A booked slot in your cart was just taken, pick another time")
	case errors.Is(err, booking.ErrMissingFields):
		return fail(c, http.StatusBadRequest, "MISSING_FIELDS", "A service in your cart has an invalid date or time")
	default:
		return fail(c, http.StatusInternalServerError, "CHECKOUT_FAILED", "Checkout failed, your cart was not charged")
	}
}

type orderWithItems struct {
	Order domain.Order       `json:"order"`
	Items []domain.OrderItem `json:"items"`
}

// listMyOrders returns the signed in client's recent receipts with lines.
func listMyOrders(c echo.Context) error {
	userID := webserver.CurrentUserID(c)
	db := GetDB(c)

	var orders []domain.Order
	if err := db.Where("user_id = ?", userID).Order("created_at DESC").Limit(50).Find(&orders).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders")
	}
	if len(orders) == 0 {
		return ok(c, []orderWithItems{})
	}

	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}

	var items []domain.OrderItem
	if err := db.Where("order_id IN ?", ids).Order("id ASC").Find(&items).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query order items")
	}

	byOrder := make(map[int64][]domain.OrderItem, len(orders))
	for _, item := range items {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}

	out := make([]orderWithItems, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderWithItems{Order: o, Items: byOrder[o.ID]})
	}
	return ok(c, out)
}
