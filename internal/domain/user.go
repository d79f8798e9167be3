package domain

import "time"

// Account roles. Admin accounts reach the back office, client accounts only
// the shop surface.
const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

// User is a shop account, either a back-office operator or a booking client.
type User struct {
	ID        int64     `json:"id,string" form:"id"`
	Realname  string    `json:"realname" form:"realname"`
	Mobile    string    `json:"mobile" form:"mobile"`
	Email     string    `gorm:"index" json:"email" form:"email"`
	Username  string    `gorm:"uniqueIndex;size:100" json:"username" form:"username"`
	Password  string    `json:"-" form:"password"` // bcrypt hash, never serialized
	Street    string    `json:"street" form:"street"`
	City      string    `json:"city" form:"city"`
	Zip       string    `gorm:"size:20" json:"zip" form:"zip"`
	Role      string    `gorm:"size:20;index;default:'client'" json:"role" form:"role"` // admin|client
	Status    string    `gorm:"size:20;default:'enabled'" json:"status" form:"status"`
	Remark    string    `json:"remark" form:"remark"`
	LastLogin time.Time `json:"last_login" form:"last_login"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName Specify table name
func (User) TableName() string {
	return "shop_user"
}
