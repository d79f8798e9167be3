package domain

import "time"

// Appointment lifecycle states. A booking enters the calendar as scheduled
// and leaves it as completed or cancelled; pending is kept for rows imported
// from older systems and is never produced by the booking flows.
const (
	AppointmentPending   = "pending"
	AppointmentScheduled = "scheduled"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
)

// Appointment reserves one chair slot for one client and one service.
type Appointment struct {
	ID          int64     `json:"id,string" gorm:"primaryKey"`
	UserID      int64     `json:"user_id,string" gorm:"index"`    // booking client ID
	ServiceID   int64     `json:"service_id,string" gorm:"index"` // booked service ID
	ServiceName string    `gorm:"size:200" json:"service_name"`   // snapshot, survives service renames
	Price       float64   `json:"price"`                          // price at booking time
	StartAt     time.Time `gorm:"index" json:"start_at"`          // slot instant, minute precision UTC
	DurationMin int       `json:"duration_min"`
	Status      string    `gorm:"size:20;index" json:"status"` // pending|scheduled|completed|cancelled
	RemindedAt  *time.Time `json:"reminded_at"`                // set once the reminder mail went out
	Remark      string    `json:"remark" form:"remark"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name
func (Appointment) TableName() string {
	return "shop_appointment"
}
