package types

import "time"

type SubscriptionChangeReason string

const (
	SubscriptionChangeReasonCreate      SubscriptionChangeReason = "create"
	SubscriptionChangeReasonCancel      SubscriptionChangeReason = "cancel"
	SubscriptionChangeReasonAdminUpdate SubscriptionChangeReason = "admin_update"
	SubscriptionChangeReasonDelete      SubscriptionChangeReason = "delete"
)

// PricingPreview is what a product change would grant: the duration of its
// pricing option and the product's current price.
type PricingPreview struct {
	NbDays int     `json:"nb_days"`
	Price  float64 `json:"price"`
}

// SubscriptionState is the derived, never stored, state of a subscription.
type SubscriptionState struct {
	IsActive  bool      `json:"is_active"`
	WillRenew bool      `json:"will_renew"`
	At        time.Time `json:"evaluated_at"`
}
