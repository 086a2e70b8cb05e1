package models

import "time"

type ProductType struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"column:name;type:varchar(255);not null" json:"name"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	EditedAt  time.Time `gorm:"column:edited_at;autoUpdateTime" json:"edited_at"`
}

func (ProductType) TableName() string { return "products_types" }

func (p *ProductType) Fields() map[string]any {
	return map[string]any{"name": p.Name}
}
