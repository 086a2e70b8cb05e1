package subscription

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fatflowers/backoffice/internal/models"
	"github.com/fatflowers/backoffice/internal/platform/cache"
	"github.com/fatflowers/backoffice/internal/store"
	"github.com/fatflowers/backoffice/pkg/config"
)

type ProductFinder interface {
	Find(ctx context.Context, id int64) (*models.Product, error)
}

type PricingOptionFinder interface {
	Find(ctx context.Context, id int64) (*models.PricingOption, error)
}

type UserFinder interface {
	Find(ctx context.Context, id int64) (*models.User, error)
}

// Repository is the subscription record store.
type Repository interface {
	Find(ctx context.Context, id int64) (*models.Subscription, error)
	FindView(ctx context.Context, id int64) (*models.SubscriptionView, error)
	Create(ctx context.Context, row *models.Subscription) error
	Update(ctx context.Context, id int64, row *models.Subscription) error
	SetCanceledAt(ctx context.Context, id int64, at time.Time) error
	Delete(ctx context.Context, id int64) error
	ListByUser(ctx context.Context, userID int64) ([]*models.SubscriptionView, error)
	ListAll(ctx context.Context) ([]*models.SubscriptionView, error)
}

// ChangeRecorder persists audit rows.
type ChangeRecorder interface {
	AppendLog(ctx context.Context, entry *models.SubscriptionLog) error
}

// Dependencies wires the engine. Clock and Spawn are optional.
type Dependencies struct {
	Products       ProductFinder
	PricingOptions PricingOptionFinder
	Users          UserFinder
	Subscriptions  Repository
	Changes        ChangeRecorder
	Pricing        cache.PricingCache
	Log            *zap.SugaredLogger
	// Clock returns the current instant in the configured timezone.
	Clock func() time.Time
	// Spawn runs background work such as audit writes.
	Spawn func(func())
}

// Service is the subscription engine. It holds no per-request state.
type Service struct {
	products ProductFinder
	options  PricingOptionFinder
	users    UserFinder
	subs     Repository
	changes  ChangeRecorder
	pricing  cache.PricingCache
	log      *zap.SugaredLogger
	now      func() time.Time
	spawn    func(func())
}

func New(d Dependencies) *Service {
	s := &Service{
		products: d.Products,
		options:  d.PricingOptions,
		users:    d.Users,
		subs:     d.Subscriptions,
		changes:  d.Changes,
		pricing:  d.Pricing,
		log:      d.Log,
		now:      d.Clock,
		spawn:    d.Spawn,
	}
	if s.pricing == nil {
		s.pricing = cache.NopPricingCache{}
	}
	if s.log == nil {
		s.log = zap.NewNop().Sugar()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.spawn == nil {
		s.spawn = func(f func()) { go f() }
	}
	return s
}

func NewService(st *store.Store, pricing cache.PricingCache, cfg *config.Config, log *zap.SugaredLogger) (*Service, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return New(Dependencies{
		Products:       st.Products,
		PricingOptions: st.PricingOptions,
		Users:          st.Users,
		Subscriptions:  st.Subscriptions,
		Changes:        st.Subscriptions,
		Pricing:        pricing,
		Log:            log,
		Clock:          func() time.Time { return time.Now().In(loc) },
	}), nil
}

// Now is the engine clock, exposed so callers cancel with the same time source.
func (s *Service) Now() time.Time { return s.now() }
