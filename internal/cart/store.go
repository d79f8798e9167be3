package cart

import (
	"context"
)

// Store persists cart snapshots keyed by cart ID. Implementations must treat
// a missing or unreadable snapshot as an empty cart so a corrupted entry can
// never lock a client out of shopping.
type Store interface {
	// Load returns the cart stored under id, or an empty cart when absent.
	Load(ctx context.Context, id string) (*Cart, error)

	// Save writes the full cart snapshot.
	Save(ctx context.Context, c *Cart) error

	// Delete removes the snapshot. Deleting an absent cart is not an error.
	Delete(ctx context.Context, id string) error
}
