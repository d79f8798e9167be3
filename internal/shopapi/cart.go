package shopapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/barberdesk/barberdesk/internal/cart"
	"github.com/barberdesk/barberdesk/internal/domain"
	"github.com/barberdesk/barberdesk/internal/webserver"
	"github.com/barberdesk/barberdesk/pkg/common"
	"github.com/labstack/echo/v4"
)

type addItemPayload struct {
	ID       int64  `json:"id,string" validate:"required"`
	Kind     string `json:"kind" validate:"required,oneof=product service"`
	Quantity int    `json:"quantity"`
	Date     string `json:"date"` // 2006-01-02, service lines only
	Time     string `json:"time"` // 15:04, service lines only
}

type updateItemPayload struct {
	ID       int64  `json:"id,string" validate:"required"`
	Kind     string `json:"kind" validate:"required,oneof=product service"`
	Quantity int    `json:"quantity"`
}

// cartView is the cart snapshot plus its derived totals.
type cartView struct {
	Items      []cart.Item `json:"items"`
	TotalItems int         `json:"total_items"`
	TotalPrice float64     `json:"total_price"`
}

// registerCartRoutes registers session cart endpoints
func registerCartRoutes() {
	webserver.PubGET("/cart", getCart)
	webserver.PubPOST("/cart/items", addCartItem)
	webserver.PubPUT("/cart/items", updateCartItem)
	webserver.PubDELETE("/cart/items", removeCartItem)
	webserver.PubDELETE("/cart", clearCart)
}

func viewOf(c *cart.Cart) cartView {
	return cartView{
		Items:      c.Items,
		TotalItems: c.TotalItems(),
		TotalPrice: c.TotalPrice(),
	}
}

func getCart(c echo.Context) error {
	store := GetAppContext(c).CartStore()
	snapshot, err := store.Load(c.Request().Context(), webserver.CartID(c))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "CART_ERROR", "Failed to load cart")
	}
	return ok(c, viewOf(snapshot))
}

// addCartItem merges a line into the session cart. Name, price and image are
// always taken from the catalog row, never from the client.
func addCartItem(c echo.Context) error {
	var payload addItemPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse cart item")
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Item id and kind (product or service) are required")
	}
	if payload.Quantity <= 0 {
		payload.Quantity = 1
	}

	item := cart.Item{
		ID:       payload.ID,
		Kind:     payload.Kind,
		Quantity: payload.Quantity,
	}

	db := GetDB(c)
	switch payload.Kind {
	case cart.KindProduct:
		var p domain.Product
		if err := db.Where("id = ? AND status = ?", payload.ID, common.ENABLED).First(&p).Error; err != nil {
			return fail(c, http.StatusNotFound, "NOT_FOUND", "Product not found")
		}
		item.Name = p.Name
		item.Price = p.Price
		item.Image = p.Image
	case cart.KindService:
		var s domain.Service
		if err := db.Where("id = ? AND status = ?", payload.ID, common.ENABLED).First(&s).Error; err != nil {
			return fail(c, http.StatusNotFound, "NOT_FOUND", "Service not found")
		}
		item.Name = s.Name
		item.Price = s.Price
		item.Image = s.Image
		if payload.Date != "" || payload.Time != "" {
			if _, err := common.ParseSlot(strings.TrimSpace(payload.Date), strings.TrimSpace(payload.Time)); err != nil {
				return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Slot date must be YYYY-MM-DD and time HH:MM")
			}
			item.Date = strings.TrimSpace(payload.Date)
			item.Time = strings.TrimSpace(payload.Time)
		}
	}

	ctx := c.Request().Context()
	store := GetAppContext(c).CartStore()
	cartID := webserver.CartID(c)

	snapshot, err := store.Load(ctx, cartID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "CART_ERROR", "Failed to load cart")
	}
	snapshot.AddItem(item)
	if err := store.Save(ctx, snapshot); err != nil {
		return fail(c, http.StatusInternalServerError, "CART_ERROR", "Failed to save cart")
	}
	return ok(c, viewOf(snapshot))
}

// updateCartItem sets a line quantity; zero or below removes the line.
func updateCartItem(c echo.Context) error {
	var payload updateItemPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse cart update")
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Item id and kind (product or service) are required")
	}

	ctx := c.Request().Context()
	store := GetAppContext(c).CartStore()
	cartID := webserver.CartID(c)

	snapshot, err := store.Load(ctx, cartID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "CART_ERROR", "Failed to load cart")
	}
	snapshot.UpdateQuantity(payload.ID, payload.Kind, payload.Quantity)
	if err := store.Save(ctx, snapshot); err != nil {
		return fail(c, http.StatusInternalServerError, "CART_ERROR", "Failed to save cart")
	}
	return ok(c, viewOf(snapshot))
}

func removeCartItem(c echo.Context) error {
	id, err := strconv.ParseInt(c.QueryParam("id"), 10, 64)
	kind := c.QueryParam("kind")
	if err != nil || (kind != cart.KindProduct && kind != cart.KindService) {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Item id and kind (product or service) are required")
	}

	ctx := c.Request().Context()
	store := GetAppContext(c).CartStore()
	cartID := webserver.CartID(c)

	snapshot, err := store.Load(ctx, cartID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "CART_ERROR", "Failed to load cart")
	}
	snapshot.RemoveItem(id, kind)
	if err := store.Save(ctx, snapshot); err != nil {
		return fail(c, http.StatusInternalServerError, "CART_ERROR", "Failed to save cart")
	}
	return ok(c, viewOf(snapshot))
}

func clearCart(c echo.Context) error {
	ctx := c.Request().Context()
	store := GetAppContext(c).CartStore()
	cartID := webserver.CartID(c)

	if err := store.Delete(ctx, cartID); err != nil {
		return fail(c, http.StatusInternalServerError, "CART_ERROR", "Failed to clear cart")
	}
	return ok(c, viewOf(cart.New(cartID)))
}
