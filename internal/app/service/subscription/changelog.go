package subscription

import (
	"context"

	"gorm.io/datatypes"

	"github.com/fatflowers/backoffice/internal/models"
	"github.com/fatflowers/backoffice/pkg/logctx"
	"github.com/fatflowers/backoffice/pkg/tool"
	"github.com/fatflowers/backoffice/pkg/types"
)

// recordChange writes the audit row in the background; errors are logged but not returned.
func (s *Service) recordChange(ctx context.Context, reason types.SubscriptionChangeReason, id int64, before, after *models.Subscription) {
	if s.changes == nil {
		return
	}
	entry := &models.SubscriptionLog{
		ID:             tool.GenerateUUIDV7(),
		SubscriptionID: id,
		ActorID:        logctx.ActorIDFromCtx(ctx),
		Reason:         reason,
		Before:         datatypes.NewJSONType(snapshot(before)),
		After:          datatypes.NewJSONType(snapshot(after)),
	}
	bg := context.WithoutCancel(ctx)
	s.spawn(func() {
		if err := s.changes.AppendLog(bg, entry); err != nil {
			logctx.FromCtx(bg, s.log).Errorf("failed to save subscription log: %v", err)
		}
	})
}

func snapshot(sub *models.Subscription) *models.Subscription {
	if sub == nil {
		return nil
	}
	cp := *sub
	cp.User, cp.Product = nil, nil
	return &cp
}
