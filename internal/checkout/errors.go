package checkout

import "errors"

var (
	// ErrUnauthenticated is returned when no signed in user is attached to
	// the settlement request.
	ErrUnauthenticated = errors.New("sign in required for checkout")

	// ErrEmptyCart is returned when the cart holds no lines.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrProductNotFound is returned when a product line references an ID
	// that no longer exists.
	ErrProductNotFound = errors.New("product not found")

	// ErrInsufficientStock is returned when a product line asks for more
	// units than are on hand. No stock is moved.
	ErrInsufficientStock = errors.New("insufficient stock")
)
