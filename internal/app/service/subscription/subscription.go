package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fatflowers/backoffice/internal/apperr"
	"github.com/fatflowers/backoffice/internal/models"
	"github.com/fatflowers/backoffice/internal/platform/cache"
	"github.com/fatflowers/backoffice/pkg/logctx"
	"github.com/fatflowers/backoffice/pkg/types"
)

// Create subscribes userID to productID. The product's current price is copied
// and the expiration is now plus the pricing option's days in calendar days.
// Nothing is written unless every lookup succeeds. Calling it twice creates two rows.
func (s *Service) Create(ctx context.Context, userID, productID int64) (*models.Subscription, error) {
	now := s.now()

	product, err := s.products.Find(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("find product: %w", notFound(err, ErrProductNotFound, productID))
	}
	option, err := s.options.Find(ctx, product.ProductPricingOptionID)
	if err != nil {
		return nil, fmt.Errorf("find pricing option: %w", notFound(err, ErrPricingOptionNotFound, product.ProductPricingOptionID))
	}
	if _, err := s.users.Find(ctx, userID); err != nil {
		return nil, fmt.Errorf("find user: %w", notFound(err, ErrUserNotFound, userID))
	}

	sub := &models.Subscription{
		UserID:    userID,
		ProductID: productID,
		Price:     product.Price,
		ExpiredAt: now.AddDate(0, 0, option.NbDays),
		CreatedAt: now,
		EditedAt:  now,
	}
	if err := s.subs.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}

	logctx.FromCtx(ctx, s.log).Infow("subscription created",
		"subscription_id", sub.ID, "user_id", userID, "product_id", productID,
		"price", sub.Price.String(), "expired_at", sub.ExpiredAt)
	s.recordChange(ctx, types.SubscriptionChangeReasonCreate, sub.ID, nil, sub)
	return sub, nil
}

// Cancel stamps canceled_at with now. Price and expired_at are never touched,
// and cancelling twice simply moves canceled_at forward.
func (s *Service) Cancel(ctx context.Context, id int64, now time.Time) (*models.Subscription, error) {
	before, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.subs.SetCanceledAt(ctx, id, now); err != nil {
		return nil, fmt.Errorf("cancel subscription: %w", notFound(err, ErrSubscriptionNotFound, id))
	}

	after := *before
	canceledAt := now
	after.CanceledAt = &canceledAt
	after.EditedAt = now

	logctx.FromCtx(ctx, s.log).Infow("subscription canceled", "subscription_id", id, "canceled_at", now)
	s.recordChange(ctx, types.SubscriptionChangeReasonCancel, id, before, &after)
	return &after, nil
}

// IsActive reports whether the subscription still grants access now,
// regardless of cancellation.
func (s *Service) IsActive(ctx context.Context, id int64) (bool, error) {
	sub, err := s.find(ctx, id)
	if err != nil {
		return false, err
	}
	return sub.IsActiveAt(s.now()), nil
}

func (s *Service) WillRenew(ctx context.Context, id int64) (bool, error) {
	sub, err := s.find(ctx, id)
	if err != nil {
		return false, err
	}
	return sub.WillRenew(), nil
}

// State evaluates both predicates against a single clock reading.
func (s *Service) State(ctx context.Context, id int64) (types.SubscriptionState, error) {
	sub, err := s.find(ctx, id)
	if err != nil {
		return types.SubscriptionState{}, err
	}
	now := s.now()
	return types.SubscriptionState{IsActive: sub.IsActiveAt(now), WillRenew: sub.WillRenew(), At: now}, nil
}

// ListByUser returns the user's subscriptions, newest first. An unknown user
// yields an empty list; callers check existence themselves.
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]*models.SubscriptionView, error) {
	rows, err := s.subs.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions by user: %w", err)
	}
	return rows, nil
}

func (s *Service) ListAll(ctx context.Context) ([]*models.SubscriptionView, error) {
	rows, err := s.subs.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return rows, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*models.SubscriptionView, error) {
	v, err := s.subs.FindView(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", notFound(err, ErrSubscriptionNotFound, id))
	}
	return v, nil
}

// UpdateInput is an admin correction. Every field is required.
type UpdateInput struct {
	UserID    int64
	ProductID int64
	Price     decimal.Decimal
	ExpiredAt time.Time
}

func (in UpdateInput) validate() error {
	switch {
	case in.UserID <= 0:
		return apperr.Invalid("user_id is required")
	case in.ProductID <= 0:
		return apperr.Invalid("product_id is required")
	case in.Price.IsNegative():
		return apperr.Invalid("price must be >= 0")
	case in.ExpiredAt.IsZero():
		return apperr.Invalid("expired_at is required")
	}
	return nil
}

// Update applies an admin correction of user, product, price and expiration.
// canceled_at is left as is.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*models.Subscription, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	before, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.Find(ctx, in.UserID); err != nil {
		return nil, fmt.Errorf("find user: %w", notFound(err, ErrUserNotFound, in.UserID))
	}
	if _, err := s.products.Find(ctx, in.ProductID); err != nil {
		return nil, fmt.Errorf("find product: %w", notFound(err, ErrProductNotFound, in.ProductID))
	}

	after := *before
	after.UserID = in.UserID
	after.ProductID = in.ProductID
	after.Price = in.Price
	after.ExpiredAt = in.ExpiredAt
	after.EditedAt = s.now()
	if err := s.subs.Update(ctx, id, &after); err != nil {
		return nil, fmt.Errorf("update subscription: %w", notFound(err, ErrSubscriptionNotFound, id))
	}

	logctx.FromCtx(ctx, s.log).Infow("subscription corrected", "subscription_id", id)
	s.recordChange(ctx, types.SubscriptionChangeReasonAdminUpdate, id, before, &after)
	return &after, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	before, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.subs.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete subscription: %w", notFound(err, ErrSubscriptionNotFound, id))
	}
	logctx.FromCtx(ctx, s.log).Infow("subscription deleted", "subscription_id", id)
	s.recordChange(ctx, types.SubscriptionChangeReasonDelete, id, before, nil)
	return nil
}

// PricingPreview returns what subscribing to productID would grant. It never
// writes to the store. Cache failures fall back to the store.
func (s *Service) PricingPreview(ctx context.Context, productID int64) (*types.PricingPreview, error) {
	log := logctx.FromCtx(ctx, s.log)
	// resolved before the store read so a concurrent invalidation retires it
	var key string
	if productID > 0 {
		k, err := s.pricing.Key(ctx, productID)
		if err != nil {
			log.Warnw("pricing cache key failed", "product_id", productID, "err", err)
		}
		key = k
	}
	if key != "" {
		cached, err := s.pricing.Get(ctx, key)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Warnw("pricing cache get failed", "product_id", productID, "err", err)
		}
	}

	product, err := s.products.Find(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("find product: %w", notFound(err, ErrProductNotFound, productID))
	}
	option, err := s.options.Find(ctx, product.ProductPricingOptionID)
	if err != nil {
		return nil, fmt.Errorf("find pricing option: %w", notFound(err, ErrPricingOptionNotFound, product.ProductPricingOptionID))
	}
	preview := &types.PricingPreview{NbDays: option.NbDays, Price: product.Price.InexactFloat64()}
	if key != "" {
		if err := s.pricing.Set(ctx, key, preview); err != nil {
			log.Warnw("pricing cache set failed", "product_id", productID, "err", err)
		}
	}
	return preview, nil
}

func (s *Service) find(ctx context.Context, id int64) (*models.Subscription, error) {
	sub, err := s.subs.Find(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find subscription: %w", notFound(err, ErrSubscriptionNotFound, id))
	}
	return sub, nil
}
