package models

import "time"

// PricingOption is a subscription duration. NbDays > 0 is enforced by the catalog service.
type PricingOption struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"column:name;type:varchar(255);not null" json:"name"`
	NbDays    int       `gorm:"column:nb_days;not null" json:"nb_days"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	EditedAt  time.Time `gorm:"column:edited_at;autoUpdateTime" json:"edited_at"`
}

func (PricingOption) TableName() string { return "products_pricing_options" }

func (p *PricingOption) Fields() map[string]any {
	return map[string]any{"name": p.Name, "nb_days": p.NbDays}
}
