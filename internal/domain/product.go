package domain

import "time"

// Product is a retail item sold from the shop counter (pomade, razors, care kits).
type Product struct {
	ID           int64     `json:"id,string" form:"id"`
	Name         string    `gorm:"index" json:"name" form:"name"`
	Sku          string    `gorm:"size:64;index" json:"sku" form:"sku"`
	Brand        string    `gorm:"size:100" json:"brand" form:"brand"`
	Description  string    `gorm:"type:text" json:"description" form:"description"`
	Price        float64   `json:"price" form:"price"`
	Image        string    `gorm:"size:1024" json:"image" form:"image"`                         // URL to product image (optional)
	Quantity     int       `gorm:"default:0" json:"quantity" form:"quantity"`                   // units on hand
	SoldQuantity int       `gorm:"default:0" json:"sold_quantity" form:"sold_quantity"`         // lifetime units sold
	Status       string    `gorm:"size:20;index;default:'enabled'" json:"status" form:"status"` // enabled|disabled
	Remark       string    `json:"remark" form:"remark"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName Specify table name
func (Product) TableName() string {
	return "shop_product"
}
