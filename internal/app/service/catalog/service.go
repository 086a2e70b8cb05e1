package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/backoffice/internal/apperr"
	"github.com/fatflowers/backoffice/internal/models"
	"github.com/fatflowers/backoffice/internal/platform/cache"
	"github.com/fatflowers/backoffice/internal/store"
	"github.com/fatflowers/backoffice/pkg/logctx"
)

var (
	ErrProductTypeNotFound   = fmt.Errorf("product type %w", store.ErrNotFound)
	ErrPricingOptionNotFound = fmt.Errorf("pricing option %w", store.ErrNotFound)
	ErrProductNotFound       = fmt.Errorf("product %w", store.ErrNotFound)
)

// Table is the record store contract the catalog relies on.
type Table[T any] interface {
	List(ctx context.Context) ([]*T, error)
	Find(ctx context.Context, id int64) (*T, error)
	Create(ctx context.Context, row *T) error
	Update(ctx context.Context, id int64, row *T) error
	Delete(ctx context.Context, id int64) error
}

type ProductTable interface {
	Table[models.Product]
	ListViews(ctx context.Context) ([]*models.ProductView, error)
}

// Service manages product types, pricing options and products.
type Service struct {
	types    Table[models.ProductType]
	options  Table[models.PricingOption]
	products ProductTable
	pricing  cache.PricingCache
	log      *zap.SugaredLogger
}

func New(types Table[models.ProductType], options Table[models.PricingOption], products ProductTable, pricing cache.PricingCache, log *zap.SugaredLogger) *Service {
	if pricing == nil {
		pricing = cache.NopPricingCache{}
	}
	return &Service{types: types, options: options, products: products, pricing: pricing, log: log}
}

func NewService(st *store.Store, pricing cache.PricingCache, log *zap.SugaredLogger) *Service {
	return New(st.ProductTypes, st.PricingOptions, st.Products, pricing, log)
}

var Module = fx.Options(fx.Provide(NewService))

func wrapNotFound(err, sentinel error, id int64) error {
	if store.IsNotFound(err) {
		return fmt.Errorf("%w: id=%d", sentinel, id)
	}
	return err
}

// Product types

func (s *Service) ListProductTypes(ctx context.Context) ([]*models.ProductType, error) {
	return s.types.List(ctx)
}

func (s *Service) GetProductType(ctx context.Context, id int64) (*models.ProductType, error) {
	row, err := s.types.Find(ctx, id)
	return row, wrapNotFound(err, ErrProductTypeNotFound, id)
}

func (s *Service) CreateProductType(ctx context.Context, name string) (*models.ProductType, error) {
	row := &models.ProductType{Name: strings.TrimSpace(name)}
	if row.Name == "" {
		return nil, apperr.Invalid("name is required")
	}
	if err := s.types.Create(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *Service) UpdateProductType(ctx context.Context, id int64, name string) (*models.ProductType, error) {
	row := &models.ProductType{Name: strings.TrimSpace(name)}
	if row.Name == "" {
		return nil, apperr.Invalid("name is required")
	}
	if err := s.types.Update(ctx, id, row); err != nil {
		return nil, wrapNotFound(err, ErrProductTypeNotFound, id)
	}
	return s.GetProductType(ctx, id)
}

// DeleteProductType fails with store.ErrConflict while products still reference the type.
func (s *Service) DeleteProductType(ctx context.Context, id int64) error {
	return wrapNotFound(s.types.Delete(ctx, id), ErrProductTypeNotFound, id)
}

// Pricing options

type PricingOptionInput struct {
	Name   string
	NbDays int
}

func (in PricingOptionInput) row() (*models.PricingOption, error) {
	row := &models.PricingOption{Name: strings.TrimSpace(in.Name), NbDays: in.NbDays}
	if row.Name == "" {
		return nil, apperr.Invalid("name is required")
	}
	if row.NbDays <= 0 {
		return nil, apperr.Invalid("nb_days must be > 0")
	}
	return row, nil
}

func (s *Service) ListPricingOptions(ctx context.Context) ([]*models.PricingOption, error) {
	return s.options.List(ctx)
}

func (s *Service) GetPricingOption(ctx context.Context, id int64) (*models.PricingOption, error) {
	row, err := s.options.Find(ctx, id)
	return row, wrapNotFound(err, ErrPricingOptionNotFound, id)
}

func (s *Service) CreatePricingOption(ctx context.Context, in PricingOptionInput) (*models.PricingOption, error) {
	row, err := in.row()
	if err != nil {
		return nil, err
	}
	if err := s.options.Create(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

// UpdatePricingOption changes the duration of future subscriptions only.
func (s *Service) UpdatePricingOption(ctx context.Context, id int64, in PricingOptionInput) (*models.PricingOption, error) {
	row, err := in.row()
	if err != nil {
		return nil, err
	}
	if err := s.options.Update(ctx, id, row); err != nil {
		return nil, wrapNotFound(err, ErrPricingOptionNotFound, id)
	}
	s.invalidateAll(ctx)
	return s.GetPricingOption(ctx, id)
}

func (s *Service) DeletePricingOption(ctx context.Context, id int64) error {
	if err := s.options.Delete(ctx, id); err != nil {
		return wrapNotFound(err, ErrPricingOptionNotFound, id)
	}
	s.invalidateAll(ctx)
	return nil
}

// Products

type ProductInput struct {
	ProductTypeID          int64
	ProductPricingOptionID int64
	Price                  decimal.Decimal
}

func (s *Service) productRow(ctx context.Context, in ProductInput) (*models.Product, error) {
	switch {
	case in.ProductTypeID <= 0:
		return nil, apperr.Invalid("product_type_id is required")
	case in.ProductPricingOptionID <= 0:
		return nil, apperr.Invalid("product_pricing_option_id is required")
	case in.Price.IsNegative():
		return nil, apperr.Invalid("price must be >= 0")
	}
	if _, err := s.types.Find(ctx, in.ProductTypeID); err != nil {
		if store.IsNotFound(err) {
			return nil, apperr.Invalid("product type %d does not exist", in.ProductTypeID)
		}
		return nil, err
	}
	if _, err := s.options.Find(ctx, in.ProductPricingOptionID); err != nil {
		if store.IsNotFound(err) {
			return nil, apperr.Invalid("pricing option %d does not exist", in.ProductPricingOptionID)
		}
		return nil, err
	}
	return &models.Product{
		ProductTypeID:          in.ProductTypeID,
		ProductPricingOptionID: in.ProductPricingOptionID,
		Price:                  in.Price.Round(2),
	}, nil
}

// ListProducts returns products with their type and pricing option names.
func (s *Service) ListProducts(ctx context.Context) ([]*models.ProductView, error) {
	return s.products.ListViews(ctx)
}

func (s *Service) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	row, err := s.products.Find(ctx, id)
	return row, wrapNotFound(err, ErrProductNotFound, id)
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	row, err := s.productRow(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.products.Create(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}

// UpdateProduct changes the current price; existing subscriptions keep their snapshot.
func (s *Service) UpdateProduct(ctx context.Context, id int64, in ProductInput) (*models.Product, error) {
	row, err := s.productRow(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, id, row); err != nil {
		return nil, wrapNotFound(err, ErrProductNotFound, id)
	}
	s.invalidate(ctx, id)
	return s.GetProduct(ctx, id)
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return wrapNotFound(err, ErrProductNotFound, id)
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *Service) invalidate(ctx context.Context, productID int64) {
	if err := s.pricing.Invalidate(ctx, productID); err != nil {
		logctx.FromCtx(ctx, s.log).Warnw("pricing cache invalidate failed", "product_id", productID, "err", err)
	}
}

func (s *Service) invalidateAll(ctx context.Context) {
	if err := s.pricing.InvalidateAll(ctx); err != nil {
		logctx.FromCtx(ctx, s.log).Warnw("pricing cache invalidate all failed", "err", err)
	}
}
