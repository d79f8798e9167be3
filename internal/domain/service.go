package domain

import "time"

// Service is a bookable chair service (haircut, shave, beard trim).
// Unlike products a service has no stock; availability is decided by the
// appointment calendar.
type Service struct {
	ID          int64     `json:"id,string" form:"id"`
	Name        string    `gorm:"index" json:"name" form:"name"`
	Description string    `gorm:"type:text" json:"description" form:"description"`
	Price       float64   `json:"price" form:"price"`
	Image       string    `gorm:"size:1024" json:"image" form:"image"`
	DurationMin int       `gorm:"default:30" json:"duration_min" form:"duration_min"`          // chair time in minutes
	Status      string    `gorm:"size:20;index;default:'enabled'" json:"status" form:"status"` // enabled|disabled
	Remark      string    `json:"remark" form:"remark"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName Specify table name
func (Service) TableName() string {
	return "shop_service"
}
