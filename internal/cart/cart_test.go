package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddItemMergesByIDAndKind(t *testing.T) {
	c := New("c1")

	c.AddItem(Item{ID: 1, Kind: KindProduct, Name: "Pomade", Price: 12.5, Quantity: 2})
	c.AddItem(Item{ID: 1, Kind: KindProduct, Name: "Pomade", Price: 12.5, Quantity: 3})

	assert.Len(t, c.Items, 1)
	assert.Equal(t, 5, c.Items[0].Quantity)
}

func TestAddItemSameIDDifferentKind(t *testing.T) {
	c := New("c1")

	c.AddItem(Item{ID: 7, Kind: KindProduct, Name: "Gift Card", Price: 25, Quantity: 1})
	c.AddItem(Item{ID: 7, Kind: KindService, Name: "Haircut", Price: 30, Quantity: 1, Date: "2026-09-01", Time: "10:00"})

	assert.Len(t, c.Items, 2)
}

func TestAddItemKeepsFirstSlot(t *testing.T) {
	c := New("c1")

	c.AddItem(Item{ID: 3, Kind: KindService, Name: "Haircut", Price: 30, Quantity: 1, Date: "2026-09-01", Time: "10:00"})
	c.AddItem(Item{ID: 3, Kind: KindService, Name: "Haircut", Price: 30, Quantity: 1, Date: "2026-09-02", Time: "14:30"})

	assert.Len(t, c.Items, 1)
	assert.Equal(t, 2, c.Items[0].Quantity)
	assert.Equal(t, "2026-09-01", c.Items[0].Date)
	assert.Equal(t, "10:00", c.Items[0].Time)
}

func TestAddItemDefaultsQuantityToOne(t *testing.T) {
	c := New("c1")

	c.AddItem(Item{ID: 1, Kind: KindProduct, Quantity: 0})
	c.AddItem(Item{ID: 2, Kind: KindProduct, Quantity: -4})

	assert.Equal(t, 1, c.Items[0].Quantity)
	assert.Equal(t, 1, c.Items[1].Quantity)
}

func TestUpdateQuantity(t *testing.T) {
	c := New("c1")
	c.AddItem(Item{ID: 1, Kind: KindProduct, Price: 10, Quantity: 2})

	c.UpdateQuantity(1, KindProduct, 7)
	assert.Equal(t, 7, c.Items[0].Quantity)

	// unknown line is a no-op
	c.UpdateQuantity(99, KindProduct, 3)
	assert.Len(t, c.Items, 1)
}

func TestUpdateQuantityZeroOrBelowRemovesLine(t *testing.T) {
	c := New("c1")
	c.AddItem(Item{ID: 1, Kind: KindProduct, Quantity: 2})
	c.AddItem(Item{ID: 2, Kind: KindProduct, Quantity: 2})

	c.UpdateQuantity(1, KindProduct, 0)
	assert.Len(t, c.Items, 1)

	c.UpdateQuantity(2, KindProduct, -5)
	assert.True(t, c.IsEmpty())
}

func TestRemoveItem(t *testing.T) {
	c := New("c1")
	c.AddItem(Item{ID: 1, Kind: KindProduct, Quantity: 1})
	c.AddItem(Item{ID: 2, Kind: KindService, Quantity: 1})

	c.RemoveItem(1, KindProduct)
	assert.Len(t, c.Items, 1)
	assert.Equal(t, int64(2), c.Items[0].ID)

	// removing again is a no-op
	c.RemoveItem(1, KindProduct)
	assert.Len(t, c.Items, 1)
}

func TestTotals(t *testing.T) {
	c := New("c1")
	assert.Equal(t, 0, c.TotalItems())
	assert.Equal(t, 0.0, c.TotalPrice())

	c.AddItem(Item{ID: 1, Kind: KindProduct, Price: 12.5, Quantity: 2})
	c.AddItem(Item{ID: 2, Kind: KindService, Price: 30, Quantity: 1})

	assert.Equal(t, 3, c.TotalItems())
	assert.InDelta(t, 55.0, c.TotalPrice(), 0.0001)
}

func TestClear(t *testing.T) {
	c := New("c1")
	c.AddItem(Item{ID: 1, Kind: KindProduct, Quantity: 2})

	c.Clear()

	assert.True(t, c.IsEmpty())
	assert.NotNil(t, c.Items)
}

func TestSlotted(t *testing.T) {
	assert.True(t, Item{Kind: KindService, Date: "2026-09-01", Time: "10:00"}.Slotted())
	assert.False(t, Item{Kind: KindService, Date: "2026-09-01"}.Slotted())
	assert.False(t, Item{Kind: KindProduct, Date: "2026-09-01", Time: "10:00"}.Slotted())
}
