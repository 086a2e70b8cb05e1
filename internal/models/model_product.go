package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a (type, pricing option, price) triple. Price is the current price;
// subscriptions keep their own copy.
type Product struct {
	ID                     int64           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ProductTypeID          int64           `gorm:"column:product_type_id;not null;index" json:"product_type_id"`
	ProductPricingOptionID int64           `gorm:"column:product_pricing_option_id;not null;index" json:"product_pricing_option_id"`
	Price                  decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	CreatedAt              time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	EditedAt               time.Time       `gorm:"column:edited_at;autoUpdateTime" json:"edited_at"`

	ProductType   *ProductType   `gorm:"foreignKey:ProductTypeID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	PricingOption *PricingOption `gorm:"foreignKey:ProductPricingOptionID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

func (Product) TableName() string { return "products" }

func (p *Product) Fields() map[string]any {
	return map[string]any{
		"product_type_id":           p.ProductTypeID,
		"product_pricing_option_id": p.ProductPricingOptionID,
		"price":                     p.Price,
	}
}

// ProductView is a product with the display names of its type and pricing option.
type ProductView struct {
	ID                     int64           `json:"id"`
	ProductTypeID          int64           `json:"product_type_id"`
	ProductPricingOptionID int64           `json:"product_pricing_option_id"`
	Price                  decimal.Decimal `json:"price"`
	CreatedAt              time.Time       `json:"created_at"`
	EditedAt               time.Time       `json:"edited_at"`
	TypeName               string          `json:"type_name"`
	PricingOptionName      string          `json:"pricing_option_name"`
	NbDays                 int             `json:"nb_days"`
}
