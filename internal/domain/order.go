package domain

import "time"

// Order states. Payment is settled at checkout time (simulated gateway), so
// orders are written as paid; refunded exists for manual back-office fixes.
const (
	OrderPaid     = "paid"
	OrderRefunded = "refunded"
)

// Order line kinds.
const (
	OrderItemProduct = "product"
	OrderItemService = "service"
)

// Order is the receipt written by a checkout settlement.
type Order struct {
	ID          int64     `json:"id,string" gorm:"primaryKey"`
	OrderNo     string    `gorm:"uniqueIndex;size:40" json:"order_no"`
	UserID      int64     `json:"user_id,string" gorm:"index"`
	TotalAmount float64   `json:"total_amount"` // sum of line amounts at settlement time
	ItemCount   int       `json:"item_count"`   // sum of line quantities
	Status      string    `gorm:"size:20;index" json:"status"` // paid|refunded
	Remark      string    `json:"remark"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name
func (Order) TableName() string {
	return "shop_order"
}

// OrderItem is one settled cart line. Service lines that carried a slot also
// reference the appointment created for them.
type OrderItem struct {
	ID            int64      `json:"id,string" gorm:"primaryKey"`
	OrderID       int64      `json:"order_id,string" gorm:"index"`
	UserID        int64      `json:"user_id,string" gorm:"index"`
	ItemID        int64      `json:"item_id,string"`            // product or service ID
	Kind          string     `gorm:"size:20" json:"kind"`       // product|service
	Name          string     `gorm:"size:200" json:"name"`      // snapshot at settlement time
	Price         float64    `json:"price"`                     // unit price at settlement time
	Quantity      int        `json:"quantity"`
	Amount        float64    `json:"amount"`                    // Price * Quantity
	StartAt       *time.Time `json:"start_at"`                  // slot instant for dated service lines
	AppointmentID int64      `json:"appointment_id,string"`     // 0 for product lines
	CreatedAt     time.Time  `json:"created_at"`
}

// TableName specifies the table name
func (OrderItem) TableName() string {
	return "shop_order_item"
}
