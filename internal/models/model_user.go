package models

import "time"

// User is a back-office account. Password holds the hash, never the plain text.
type User struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Email     string    `gorm:"column:email;type:varchar(255);not null;uniqueIndex" json:"email"`
	Password  string    `gorm:"column:password;type:varchar(255);not null" json:"-"`
	RoleID    int64     `gorm:"column:role_id;not null;index" json:"role_id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	EditedAt  time.Time `gorm:"column:edited_at;autoUpdateTime" json:"edited_at"`

	Role *Role `gorm:"foreignKey:RoleID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

func (User) TableName() string { return "users" }

// Fields is the update allow-list. An empty password means "unchanged" and is left out.
func (u *User) Fields() map[string]any {
	f := map[string]any{
		"name":    u.Name,
		"email":   u.Email,
		"role_id": u.RoleID,
	}
	if u.Password != "" {
		f["password"] = u.Password
	}
	return f
}

// UserView is a user with its role name, as listed by the back office.
type UserView struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	RoleID    int64     `json:"role_id"`
	RoleName  string    `json:"role_name"`
	CreatedAt time.Time `json:"created_at"`
	EditedAt  time.Time `json:"edited_at"`
}
