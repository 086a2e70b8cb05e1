package store

import (
	"context"
	"errors"
	"time"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/fatflowers/backoffice/internal/models"
)

type (
	RoleTable          = Table[models.Role, *models.Role]
	ProductTypeTable   = Table[models.ProductType, *models.ProductType]
	PricingOptionTable = Table[models.PricingOption, *models.PricingOption]
)

// Store groups the per-entity tables over one connection pool.
type Store struct {
	Roles          *RoleTable
	Users          *UserStore
	ProductTypes   *ProductTypeTable
	PricingOptions *PricingOptionTable
	Products       *ProductStore
	Subscriptions  *SubscriptionStore
}

func New(db *gorm.DB) *Store {
	return &Store{
		Roles:          NewTable[models.Role](db),
		Users:          &UserStore{Table: NewTable[models.User](db)},
		ProductTypes:   NewTable[models.ProductType](db),
		PricingOptions: NewTable[models.PricingOption](db),
		Products:       &ProductStore{Table: NewTable[models.Product](db)},
		Subscriptions:  &SubscriptionStore{Table: NewTable[models.Subscription](db)},
	}
}

var Module = fx.Options(fx.Provide(New))

type UserStore struct {
	*Table[models.User, *models.User]
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).Take(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// ListWithRoles returns every user with its role name, newest first.
func (s *UserStore) ListWithRoles(ctx context.Context) ([]*models.UserView, error) {
	var rows []*models.UserView
	err := s.db.WithContext(ctx).Table("users AS u").
		Select("u.id, u.name, u.email, u.role_id, COALESCE(r.name, '') AS role_name, u.created_at, u.edited_at").
		Joins("LEFT JOIN roles r ON u.role_id = r.id").
		Order("u.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}
	return rows, nil
}

type ProductStore struct {
	*Table[models.Product, *models.Product]
}

func (s *ProductStore) views(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Table("products AS p").
		Select("p.id, p.product_type_id, p.product_pricing_option_id, p.price, p.created_at, p.edited_at, " +
			"COALESCE(pt.name, '') AS type_name, COALESCE(ppo.name, '') AS pricing_option_name, COALESCE(ppo.nb_days, 0) AS nb_days").
		Joins("LEFT JOIN products_types pt ON p.product_type_id = pt.id").
		Joins("LEFT JOIN products_pricing_options ppo ON p.product_pricing_option_id = ppo.id")
}

// ListViews returns every product with its type and pricing option names, newest first.
func (s *ProductStore) ListViews(ctx context.Context) ([]*models.ProductView, error) {
	var rows []*models.ProductView
	if err := s.views(ctx).Order("p.id DESC").Scan(&rows).Error; err != nil {
		return nil, translate(err)
	}
	return rows, nil
}

type SubscriptionStore struct {
	*Table[models.Subscription, *models.Subscription]
}

func (s *SubscriptionStore) views(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Table("subscriptions AS s").
		Select("s.*, COALESCE(u.name, '') AS user_name, COALESCE(u.email, '') AS user_email, " +
			"COALESCE(pt.name, '') AS product_type_name, COALESCE(ppo.name, '') AS pricing_option_name").
		Joins("LEFT JOIN users u ON s.user_id = u.id").
		Joins("LEFT JOIN products p ON s.product_id = p.id").
		Joins("LEFT JOIN products_types pt ON p.product_type_id = pt.id").
		Joins("LEFT JOIN products_pricing_options ppo ON p.product_pricing_option_id = ppo.id")
}

// ListByUser returns the user's subscriptions with display fields, newest first.
// The user itself is not checked.
func (s *SubscriptionStore) ListByUser(ctx context.Context, userID int64) ([]*models.SubscriptionView, error) {
	var rows []*models.SubscriptionView
	if err := s.views(ctx).Where("s.user_id = ?", userID).Order("s.id DESC").Scan(&rows).Error; err != nil {
		return nil, translate(err)
	}
	return rows, nil
}

func (s *SubscriptionStore) ListAll(ctx context.Context) ([]*models.SubscriptionView, error) {
	var rows []*models.SubscriptionView
	if err := s.views(ctx).Order("s.id DESC").Scan(&rows).Error; err != nil {
		return nil, translate(err)
	}
	return rows, nil
}

func (s *SubscriptionStore) FindView(ctx context.Context, id int64) (*models.SubscriptionView, error) {
	if id <= 0 {
		return nil, ErrNotFound
	}
	var rows []*models.SubscriptionView
	if err := s.views(ctx).Where("s.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, translate(err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

// SetCanceledAt overwrites canceled_at only; price and expired_at are untouched.
func (s *SubscriptionStore) SetCanceledAt(ctx context.Context, id int64, at time.Time) error {
	return s.UpdateColumns(ctx, id, map[string]any{"canceled_at": at})
}

// AppendLog inserts an audit row.
func (s *SubscriptionStore) AppendLog(ctx context.Context, entry *models.SubscriptionLog) error {
	return translate(s.db.WithContext(ctx).Create(entry).Error)
}

// IsNotFound reports whether err is a store miss, including wrapped entity sentinels.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
