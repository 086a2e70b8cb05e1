package models

import (
	"time"

	"github.com/fatflowers/backoffice/pkg/types"
	"gorm.io/datatypes"
)

// SubscriptionLog records changes to subscriptions.
// Use case: troubleshooting admin corrections and cancellations.
type SubscriptionLog struct {
	ID             string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	SubscriptionID int64  `gorm:"column:subscription_id;index:idx_subscription_log_sub,priority:1;not null" json:"subscription_id"`
	// ActorID is the user who triggered the change, 0 for system/CLI.
	ActorID int64                          `gorm:"column:actor_id;not null;default:0" json:"actor_id"`
	Reason  types.SubscriptionChangeReason `gorm:"column:reason;type:varchar(64);not null" json:"reason"`
	// Before stores the subscription before the change, null on create.
	Before datatypes.JSONType[*Subscription] `gorm:"column:before;type:jsonb;default:'null'" json:"before"`
	// After stores the subscription after the change, null on delete.
	After     datatypes.JSONType[*Subscription] `gorm:"column:after;type:jsonb;default:'null'" json:"after"`
	CreatedAt time.Time                         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (SubscriptionLog) TableName() string {
	return "subscription_log"
}
