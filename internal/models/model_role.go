package models

import "time"

// Role groups users by capability. The admin role id comes from config.
type Role struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"column:name;type:varchar(255);not null" json:"name"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	EditedAt  time.Time `gorm:"column:edited_at;autoUpdateTime" json:"edited_at"`
}

func (Role) TableName() string { return "roles" }

func (r *Role) Fields() map[string]any {
	return map[string]any{"name": r.Name}
}
