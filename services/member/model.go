package member

import "time"

// Member is one row of the user/profile directory. The directory is owned by
// the portal's account system; this service only reads it.
type Member struct {
	ID          string    `gorm:"column:id;primaryKey"`
	DisplayName string    `gorm:"column:display_name"`
	IsAdmin     bool      `gorm:"column:is_admin"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (Member) TableName() string {
	return "members"
}
