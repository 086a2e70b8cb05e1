package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Subscription is a user's purchase of a product. Price is snapshotted from the
// product at creation and ExpiredAt is fixed then too; only an admin correction
// changes either afterwards.
type Subscription struct {
	ID        int64           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID    int64           `gorm:"column:user_id;not null;index" json:"user_id"`
	ProductID int64           `gorm:"column:product_id;not null;index" json:"product_id"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	ExpiredAt time.Time       `gorm:"column:expired_at;not null" json:"expired_at"`
	// CanceledAt is nil while the subscription is set to renew.
	CanceledAt *time.Time `gorm:"column:canceled_at;default:null" json:"canceled_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	EditedAt   time.Time  `gorm:"column:edited_at;autoUpdateTime" json:"edited_at"`

	User    *User    `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Product *Product `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// Fields is the admin correction allow-list.
func (s *Subscription) Fields() map[string]any {
	return map[string]any{
		"user_id":    s.UserID,
		"product_id": s.ProductID,
		"price":      s.Price,
		"expired_at": s.ExpiredAt,
	}
}

// IsActiveAt reports whether access remains at now. Cancellation is not consulted.
func (s *Subscription) IsActiveAt(now time.Time) bool {
	return s != nil && !now.After(s.ExpiredAt)
}

func (s *Subscription) WillRenew() bool {
	return s != nil && s.CanceledAt == nil
}

// SubscriptionView is a subscription joined with its user, product type and
// pricing option display fields.
type SubscriptionView struct {
	ID                int64           `json:"id"`
	UserID            int64           `json:"user_id"`
	ProductID         int64           `json:"product_id"`
	Price             decimal.Decimal `json:"price"`
	ExpiredAt         time.Time       `json:"expired_at"`
	CanceledAt        *time.Time      `json:"canceled_at"`
	CreatedAt         time.Time       `json:"created_at"`
	EditedAt          time.Time       `json:"edited_at"`
	UserName          string          `json:"user_name"`
	UserEmail         string          `json:"user_email"`
	ProductTypeName   string          `json:"product_type_name"`
	PricingOptionName string          `json:"pricing_option_name"`
}

func (v *SubscriptionView) IsActiveAt(now time.Time) bool {
	return v != nil && !now.After(v.ExpiredAt)
}

func (v *SubscriptionView) WillRenew() bool {
	return v != nil && v.CanceledAt == nil
}
