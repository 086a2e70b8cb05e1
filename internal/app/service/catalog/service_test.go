package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/backoffice/internal/apperr"
	"github.com/fatflowers/backoffice/internal/models"
	"github.com/fatflowers/backoffice/internal/store"
	"github.com/fatflowers/backoffice/pkg/types"
)

type memTable[T any] struct {
	rows      map[int64]*T
	next      int64
	id        func(*T) *int64
	deleteErr error
}

func newMemTable[T any](id func(*T) *int64) *memTable[T] {
	return &memTable[T]{rows: map[int64]*T{}, id: id}
}

func (m *memTable[T]) List(context.Context) ([]*T, error) {
	out := make([]*T, 0, len(m.rows))
	for i := m.next; i > 0; i-- {
		if r, ok := m.rows[i]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memTable[T]) Find(_ context.Context, id int64) (*T, error) {
	r, ok := m.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memTable[T]) Create(_ context.Context, row *T) error {
	m.next++
	*m.id(row) = m.next
	cp := *row
	m.rows[m.next] = &cp
	return nil
}

func (m *memTable[T]) Update(_ context.Context, id int64, row *T) error {
	if _, ok := m.rows[id]; !ok {
		return store.ErrNotFound
	}
	cp := *row
	*m.id(&cp) = id
	m.rows[id] = &cp
	return nil
}

func (m *memTable[T]) Delete(_ context.Context, id int64) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.rows[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type memProducts struct {
	*memTable[models.Product]
}

func (m memProducts) ListViews(ctx context.Context) ([]*models.ProductView, error) {
	rows, _ := m.List(ctx)
	out := make([]*models.ProductView, 0, len(rows))
	for _, r := range rows {
		out = append(out, &models.ProductView{ID: r.ID, Price: r.Price})
	}
	return out, nil
}

type spyCache struct {
	invalidated []int64
	all         int
}

func (s *spyCache) Key(context.Context, int64) (string, error)                 { return "", nil }
func (s *spyCache) Get(context.Context, string) (*types.PricingPreview, error) { return nil, nil }
func (s *spyCache) Set(context.Context, string, *types.PricingPreview) error   { return nil }
func (s *spyCache) Invalidate(_ context.Context, id int64) error {
	s.invalidated = append(s.invalidated, id)
	return nil
}
func (s *spyCache) InvalidateAll(context.Context) error {
	s.all++
	return nil
}

func newTestService() (*Service, *memTable[models.ProductType], *memTable[models.PricingOption], memProducts, *spyCache) {
	pt := newMemTable(func(r *models.ProductType) *int64 { return &r.ID })
	po := newMemTable(func(r *models.PricingOption) *int64 { return &r.ID })
	pr := memProducts{newMemTable(func(r *models.Product) *int64 { return &r.ID })}
	c := &spyCache{}
	return New(pt, po, pr, c, zap.NewNop().Sugar()), pt, po, pr, c
}

func TestProductType_CRUD(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CreateProductType(ctx, "   ")
	require.ErrorIs(t, err, apperr.ErrInvalidArgument)

	pt, err := svc.CreateProductType(ctx, " Gold ")
	require.NoError(t, err)
	assert.Equal(t, "Gold", pt.Name)

	updated, err := svc.UpdateProductType(ctx, pt.ID, "Platinum")
	require.NoError(t, err)
	assert.Equal(t, "Platinum", updated.Name)

	_, err = svc.UpdateProductType(ctx, 99, "x")
	require.ErrorIs(t, err, ErrProductTypeNotFound)

	require.NoError(t, svc.DeleteProductType(ctx, pt.ID))
	_, err = svc.GetProductType(ctx, pt.ID)
	require.ErrorIs(t, err, ErrProductTypeNotFound)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestProductType_DeleteReferencedConflicts(t *testing.T) {
	svc, pt, _, _, _ := newTestService()
	ctx := context.Background()
	row, err := svc.CreateProductType(ctx, "Gold")
	require.NoError(t, err)

	pt.deleteErr = store.ErrConflict
	err = svc.DeleteProductType(ctx, row.ID)
	require.ErrorIs(t, err, store.ErrConflict)
}

func TestPricingOption_Validation(t *testing.T) {
	svc, _, _, _, c := newTestService()
	ctx := context.Background()

	for _, in := range []PricingOptionInput{{Name: "", NbDays: 30}, {Name: "Monthly", NbDays: 0}, {Name: "Monthly", NbDays: -1}} {
		_, err := svc.CreatePricingOption(ctx, in)
		require.ErrorIs(t, err, apperr.ErrInvalidArgument)
	}

	po, err := svc.CreatePricingOption(ctx, PricingOptionInput{Name: "Monthly", NbDays: 30})
	require.NoError(t, err)
	_, err = svc.UpdatePricingOption(ctx, po.ID, PricingOptionInput{Name: "Monthly", NbDays: 31})
	require.NoError(t, err)
	assert.Equal(t, 1, c.all)
}

func TestProduct_RequiresExistingReferences(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	ctx := context.Background()
	pt, err := svc.CreateProductType(ctx, "Gold")
	require.NoError(t, err)
	po, err := svc.CreatePricingOption(ctx, PricingOptionInput{Name: "Monthly", NbDays: 30})
	require.NoError(t, err)

	tests := []ProductInput{
		{ProductTypeID: 0, ProductPricingOptionID: po.ID, Price: decimal.NewFromInt(1)},
		{ProductTypeID: pt.ID, ProductPricingOptionID: 0, Price: decimal.NewFromInt(1)},
		{ProductTypeID: pt.ID, ProductPricingOptionID: po.ID, Price: decimal.NewFromInt(-1)},
		{ProductTypeID: 77, ProductPricingOptionID: po.ID, Price: decimal.NewFromInt(1)},
		{ProductTypeID: pt.ID, ProductPricingOptionID: 77, Price: decimal.NewFromInt(1)},
	}
	for _, in := range tests {
		_, err := svc.CreateProduct(ctx, in)
		require.ErrorIs(t, err, apperr.ErrInvalidArgument)
		require.False(t, errors.Is(err, store.ErrNotFound))
	}

	p, err := svc.CreateProduct(ctx, ProductInput{ProductTypeID: pt.ID, ProductPricingOptionID: po.ID, Price: decimal.RequireFromString("9.999")})
	require.NoError(t, err)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("10.00")))
}

func TestProduct_UpdateAndDeleteInvalidateCache(t *testing.T) {
	svc, _, _, _, c := newTestService()
	ctx := context.Background()
	pt, _ := svc.CreateProductType(ctx, "Gold")
	po, _ := svc.CreatePricingOption(ctx, PricingOptionInput{Name: "Monthly", NbDays: 30})
	p, err := svc.CreateProduct(ctx, ProductInput{ProductTypeID: pt.ID, ProductPricingOptionID: po.ID, Price: decimal.NewFromInt(5)})
	require.NoError(t, err)

	updated, err := svc.UpdateProduct(ctx, p.ID, ProductInput{ProductTypeID: pt.ID, ProductPricingOptionID: po.ID, Price: decimal.NewFromInt(7)})
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(decimal.NewFromInt(7)))

	require.NoError(t, svc.DeleteProduct(ctx, p.ID))
	assert.Equal(t, []int64{p.ID, p.ID}, c.invalidated)

	require.ErrorIs(t, svc.DeleteProduct(ctx, p.ID), ErrProductNotFound)
	views, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, views)
}
