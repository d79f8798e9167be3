package cart

// Line kinds. Product lines settle against stock, service lines settle into
// appointments.
const (
	KindProduct = "product"
	KindService = "service"
)

// Item is one cart line. Lines are keyed by (ID, Kind) so the same catalog ID
// can appear once as a product and once as a service without colliding.
type Item struct {
	ID       int64   `json:"id,string"`
	Kind     string  `json:"kind"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Image    string  `json:"image,omitempty"`
	Quantity int     `json:"quantity"`
	Date     string  `json:"date,omitempty"` // booking date 2006-01-02, service lines only
	Time     string  `json:"time,omitempty"` // slot time 15:04, service lines only
}

// Slotted reports whether the line carries a concrete booking slot.
func (i Item) Slotted() bool {
	return i.Kind == KindService && i.Date != "" && i.Time != ""
}

// Cart is the full cart snapshot persisted under the session cart ID.
type Cart struct {
	ID    string `json:"id"`
	Items []Item `json:"items"`
}

// New returns an empty cart bound to id.
func New(id string) *Cart {
	return &Cart{ID: id, Items: []Item{}}
}

func (c *Cart) find(id int64, kind string) int {
	for idx := range c.Items {
		if c.Items[idx].ID == id && c.Items[idx].Kind == kind {
			return idx
		}
	}
	return -1
}

// AddItem merges item into the cart. Re-adding an existing (ID, Kind) line
// increments its quantity; the slot chosen on first add stays.
func (c *Cart) AddItem(item Item) {
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	if idx := c.find(item.ID, item.Kind); idx >= 0 {
		c.Items[idx].Quantity += item.Quantity
		return
	}
	c.Items = append(c.Items, item)
}

// UpdateQuantity sets the quantity of a line. A quantity of zero or below
// removes the line; an unknown line is left alone.
func (c *Cart) UpdateQuantity(id int64, kind string, quantity int) {
	idx := c.find(id, kind)
	if idx < 0 {
		return
	}
	if quantity <= 0 {
		c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
		return
	}
	c.Items[idx].Quantity = quantity
}

// RemoveItem drops a line from the cart.
func (c *Cart) RemoveItem(id int64, kind string) {
	if idx := c.find(id, kind); idx >= 0 {
		c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Items = []Item{}
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// TotalItems is the sum of line quantities.
func (c *Cart) TotalItems() int {
	var n int
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// TotalPrice is the sum of line price times quantity. Totals are derived on
// read, never stored.
func (c *Cart) TotalPrice() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}
