package subscription

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fatflowers/backoffice/internal/apperr"
	"github.com/fatflowers/backoffice/internal/store"
	"github.com/fatflowers/backoffice/pkg/logctx"
	"github.com/fatflowers/backoffice/pkg/types"
)

var jan1 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func fixture() (*memStore, *fakeClock, *Service) {
	m := newMemStore()
	m.addOption(1, 30)
	m.addOption(2, 365)
	m.addProduct(10, 1, "9.99")
	m.addProduct(20, 2, "99.00")
	m.addProduct(30, 404, "5.00") // dangling pricing option
	m.addUser(100)
	clock := &fakeClock{now: jan1}
	return m, clock, newEngine(m, clock)
}

func TestCreate_ConcreteScenario(t *testing.T) {
	m, clock, svc := fixture()
	ctx := context.Background()

	sub, err := svc.Create(ctx, 100, 10)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC), sub.ExpiredAt)
	assert.Nil(t, sub.CanceledAt)
	assert.True(t, sub.Price.Equal(decimal.RequireFromString("9.99")))
	assert.Equal(t, jan1, sub.CreatedAt)

	clock.Set(jan1.Add(48 * time.Hour))
	canceled, err := svc.Cancel(ctx, sub.ID, clock.Now())
	require.NoError(t, err)
	require.NotNil(t, canceled.CanceledAt)
	assert.Equal(t, clock.Now(), *canceled.CanceledAt)
	assert.Equal(t, sub.ExpiredAt, canceled.ExpiredAt)
	assert.True(t, canceled.Price.Equal(sub.Price))

	active, err := svc.IsActive(ctx, sub.ID)
	require.NoError(t, err)
	assert.True(t, active)
	renew, err := svc.WillRenew(ctx, sub.ID)
	require.NoError(t, err)
	assert.False(t, renew)

	stored := m.subs[sub.ID]
	assert.Equal(t, sub.ExpiredAt, stored.ExpiredAt)
	assert.Equal(t, []types.SubscriptionChangeReason{types.SubscriptionChangeReasonCreate, types.SubscriptionChangeReasonCancel}, m.reasons())
}

func TestCreate_SnapshotIndependentOfLaterPriceChanges(t *testing.T) {
	m, _, svc := fixture()
	ctx := context.Background()

	sub, err := svc.Create(ctx, 100, 10)
	require.NoError(t, err)
	m.setPrice(10, "14.50")

	got, err := svc.Get(ctx, sub.ID)
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("9.99")))
}

func TestCreate_RepeatedSubscriptionsSnapshotTheirOwnPrice(t *testing.T) {
	m, _, svc := fixture()
	ctx := context.Background()

	first, err := svc.Create(ctx, 100, 10)
	require.NoError(t, err)
	m.setPrice(10, "12.00")
	second, err := svc.Create(ctx, 100, 10)
	require.NoError(t, err)

	require.NotEqual(t, first.ID, second.ID)
	assert.True(t, m.subs[first.ID].Price.Equal(decimal.RequireFromString("9.99")))
	assert.True(t, m.subs[second.ID].Price.Equal(decimal.RequireFromString("12.00")))
}

func TestCreate_DurationOrdering(t *testing.T) {
	_, _, svc := fixture()
	ctx := context.Background()

	monthly, err := svc.Create(ctx, 100, 10)
	require.NoError(t, err)
	yearly, err := svc.Create(ctx, 100, 20)
	require.NoError(t, err)

	assert.True(t, yearly.ExpiredAt.After(monthly.ExpiredAt))
	assert.WithinDuration(t, jan1.Add(365*24*time.Hour), yearly.ExpiredAt, time.Minute)
	assert.True(t, monthly.ExpiredAt.After(monthly.CreatedAt))
}

func TestCreate_CalendarDaysAcrossDST(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)
	m := newMemStore()
	m.addOption(1, 30)
	m.addProduct(10, 1, "1.00")
	m.addUser(100)
	// 2026-03-29 is the spring-forward day in Paris.
	start := time.Date(2026, 3, 15, 10, 0, 0, 0, paris)
	svc := newEngine(m, &fakeClock{now: start})

	sub, err := svc.Create(context.Background(), 100, 10)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 4, 14, 10, 0, 0, 0, paris), sub.ExpiredAt)
	assert.NotEqual(t, start.Add(30*24*time.Hour), sub.ExpiredAt)
}

func TestCreate_NotFoundCausesAreDistinct(t *testing.T) {
	m, _, svc := fixture()
	ctx := context.Background()

	tests := []struct {
		name      string
		userID    int64
		productID int64
		want      error
		notWant   []error
	}{
		{name: "missing product", userID: 100, productID: 999, want: ErrProductNotFound, notWant: []error{ErrPricingOptionNotFound}},
		{name: "non-positive product", userID: 100, productID: 0, want: ErrProductNotFound},
		{name: "dangling pricing option", userID: 100, productID: 30, want: ErrPricingOptionNotFound, notWant: []error{ErrProductNotFound}},
		{name: "missing user", userID: 555, productID: 10, want: ErrUserNotFound},
		{name: "non-positive user", userID: -1, productID: 10, want: ErrUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.userID, tt.productID)
			require.ErrorIs(t, err, tt.want)
			require.ErrorIs(t, err, store.ErrNotFound)
			for _, nw := range tt.notWant {
				require.False(t, errors.Is(err, nw))
			}
		})
	}
	assert.Zero(t, m.creates, "no partial writes")
	assert.Empty(t, m.reasons())
}

func TestCreate_StoreFailurePropagates(t *testing.T) {
	m, _, svc := fixture()
	m.failWith = store.ErrStoreFailure

	_, err := svc.Create(context.Background(), 100, 10)
	require.ErrorIs(t, err, store.ErrStoreFailure)
	require.False(t, errors.Is(err, store.ErrNotFound))
}

func TestCancel_IsIdempotentInShapeAndMovesTimestamp(t *testing.T) {
	m, clock, svc := fixture()
	ctx := context.Background()
	sub, err := svc.Create(ctx, 100, 10)
	require.NoError(t, err)

	first := jan1.Add(time.Hour)
	_, err = svc.Cancel(ctx, sub.ID, first)
	require.NoError(t, err)
	second := jan1.Add(2 * time.Hour)
	clock.Set(second)
	again, err := svc.Cancel(ctx, sub.ID, second)
	require.NoError(t, err)

	assert.Equal(t, second, *again.CanceledAt)
	assert.Equal(t, second, *m.subs[sub.ID].CanceledAt)
	assert.False(t, again.WillRenew())
}

func TestCancel_ExpiredSubscriptionStaysExpired(t *testing.T) {
	_, clock, svc := fixture()
	ctx := context.Background()
	sub, err := svc.Create(ctx, 100, 10)
	require.NoError(t, err)

	clock.Set(jan1.AddDate(0, 2, 0))
	_, err = svc.Cancel(ctx, sub.ID, clock.Now())
	require.NoError(t, err)

	active, err := svc.IsActive(ctx, sub.ID)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestCancel_NotFound(t *testing.T) {
	_, _, svc := fixture()
	_, err := svc.Cancel(context.Background(), 42, jan1)
	require.ErrorIs(t, err, ErrSubscriptionNotFound)
	require.Contains(t, err.Error(), "id=42")
}

func TestPredicates_NotFound(t *testing.T) {
	_, _, svc := fixture()
	ctx := context.Background()

	_, err := svc.IsActive(ctx, 7)
	require.ErrorIs(t, err, ErrSubscriptionNotFound)
	_, err = svc.WillRenew(ctx, 0)
	require.ErrorIs(t, err, ErrSubscriptionNotFound)
	_, err = svc.State(ctx, 7)
	require.ErrorIs(t, err, ErrSubscriptionNotFound)
}

func TestState_AllFourCombinations(t *testing.T) {
	_, clock, svc := fixture()
	ctx := context.Background()

	renewing, err := svc.Create(ctx, 100, 10)
	require.NoError(t, err)
	canceled, err := svc.Create(ctx, 100, 10)
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, canceled.ID, jan1)
	require.NoError(t, err)

	st, err := svc.State(ctx, renewing.ID)
	require.NoError(t, err)
	assert.Equal(t, types.SubscriptionState{IsActive: true, WillRenew: true, At: jan1}, st)
	st, err = svc.State(ctx, canceled.ID)
	require.NoError(t, err)
	assert.Equal(t, types.SubscriptionState{IsActive: true, WillRenew: false, At: jan1}, st)

	// expired_at itself is still active
	clock.Set(renewing.ExpiredAt)
	st, err = svc.State(ctx, renewing.ID)
	require.NoError(t, err)
	assert.True(t, st.IsActive)

	later := renewing.ExpiredAt.Add(time.Second)
	clock.Set(later)
	st, err = svc.State(ctx, renewing.ID)
	require.NoError(t, err)
	assert.Equal(t, types.SubscriptionState{IsActive: false, WillRenew: true, At: later}, st)
	st, err = svc.State(ctx, canceled.ID)
	require.NoError(t, err)
	assert.Equal(t, types.SubscriptionState{IsActive: false, WillRenew: false, At: later}, st)
}

func TestListByUser_NewestFirstAndUnknownUserEmpty(t *testing.T) {
	m, _, svc := fixture()
	m.addUser(200)
	ctx := context.Background()

	a, err := svc.Create(ctx, 100, 10)
	require.NoError(t, err)
	_, err = svc.Create(ctx, 200, 10)
	require.NoError(t, err)
	b, err := svc.Create(ctx, 100, 20)
	require.NoError(t, err)

	rows, err := svc.ListByUser(ctx, 100)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, b.ID, rows[0].ID)
	assert.Equal(t, a.ID, rows[1].ID)

	rows, err = svc.ListByUser(ctx, 9999)
	require.NoError(t, err)
	assert.Empty(t, rows)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestUpdate_AdminCorrection(t *testing.T) {
	m, clock, svc := fixture()
	ctx := logctx.WithActorID(context.Background(), 1)
	sub, err := svc.Create(ctx, 100, 10)
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, sub.ID, jan1)
	require.NoError(t, err)

	clock.Set(jan1.Add(time.Hour))
	newExp := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	got, err := svc.Update(ctx, sub.ID, UpdateInput{UserID: 100, ProductID: 20, Price: decimal.RequireFromString("50"), ExpiredAt: newExp})
	require.NoError(t, err)
	assert.Equal(t, newExp, got.ExpiredAt)
	assert.NotNil(t, got.CanceledAt, "correction keeps canceled_at")
	assert.Equal(t, int64(20), m.subs[sub.ID].ProductID)
	assert.True(t, m.subs[sub.ID].Price.Equal(decimal.RequireFromString("50")))

	m.mu.Lock()
	last := m.logs[len(m.logs)-1]
	m.mu.Unlock()
	assert.Equal(t, types.SubscriptionChangeReasonAdminUpdate, last.Reason)
	assert.Equal(t, int64(1), last.ActorID)
	assert.Equal(t, int64(10), last.Before.Data().ProductID)
	assert.Equal(t, int64(20), last.After.Data().ProductID)
}

func TestUpdate_Validation(t *testing.T) {
	_, _, svc := fixture()
	ctx := context.Background()
	sub, err := svc.Create(ctx, 100, 10)
	require.NoError(t, err)
	valid := UpdateInput{UserID: 100, ProductID: 10, Price: decimal.NewFromInt(1), ExpiredAt: jan1}

	bad := []UpdateInput{
		{ProductID: 10, Price: decimal.NewFromInt(1), ExpiredAt: jan1},
		{UserID: 100, Price: decimal.NewFromInt(1), ExpiredAt: jan1},
		{UserID: 100, ProductID: 10, Price: decimal.NewFromInt(-1), ExpiredAt: jan1},
		{UserID: 100, ProductID: 10, Price: decimal.NewFromInt(1)},
	}
	for _, in := range bad {
		_, err := svc.Update(ctx, sub.ID, in)
		require.ErrorIs(t, err, apperr.ErrInvalidArgument)
	}

	_, err = svc.Update(ctx, 999, valid)
	require.ErrorIs(t, err, ErrSubscriptionNotFound)
	in := valid
	in.ProductID = 999
	_, err = svc.Update(ctx, sub.ID, in)
	require.ErrorIs(t, err, ErrProductNotFound)
	in = valid
	in.UserID = 999
	_, err = svc.Update(ctx, sub.ID, in)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestDelete(t *testing.T) {
	m, _, svc := fixture()
	ctx := context.Background()
	sub, err := svc.Create(ctx, 100, 10)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, sub.ID))
	require.ErrorIs(t, svc.Delete(ctx, sub.ID), ErrSubscriptionNotFound)
	_, ok := m.subs[sub.ID]
	assert.False(t, ok)
	assert.Equal(t, types.SubscriptionChangeReasonDelete, m.reasons()[len(m.reasons())-1])
}

func TestPricingPreview(t *testing.T) {
	m, _, svc := fixture()
	ctx := context.Background()

	p, err := svc.PricingPreview(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, &types.PricingPreview{NbDays: 30, Price: 9.99}, p)
	assert.Zero(t, m.creates, "preview never writes")

	_, err = svc.PricingPreview(ctx, 999)
	require.ErrorIs(t, err, ErrProductNotFound)
	_, err = svc.PricingPreview(ctx, 30)
	require.ErrorIs(t, err, ErrPricingOptionNotFound)
	_, err = svc.PricingPreview(ctx, -5)
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestPricingPreview_UsesCacheButCreateDoesNot(t *testing.T) {
	m := newMemStore()
	m.addOption(1, 30)
	m.addProduct(10, 1, "9.99")
	m.addUser(100)
	c := &countingCache{}
	svc := New(Dependencies{
		Products: productsFake{m}, PricingOptions: optionsFake{m}, Users: usersFake{m},
		Subscriptions: subsFake{m}, Changes: subsFake{m}, Pricing: c,
		Clock: (&fakeClock{now: jan1}).Now, Spawn: func(f func()) { f() },
	})
	ctx := context.Background()

	_, err := svc.PricingPreview(ctx, 10)
	require.NoError(t, err)
	m.setPrice(10, "20.00")
	cached, err := svc.PricingPreview(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 9.99, cached.Price, "served from cache until invalidated")

	sub, err := svc.Create(ctx, 100, 10)
	require.NoError(t, err)
	assert.True(t, sub.Price.Equal(decimal.RequireFromString("20.00")), "create reads the store")
	assert.Equal(t, 2, c.gets)

	require.NoError(t, c.Invalidate(ctx, 10))
	fresh, err := svc.PricingPreview(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 20.0, fresh.Price)
}

func TestPricingPreview_UpdateDuringReadIsNotCached(t *testing.T) {
	m := newMemStore()
	m.addOption(1, 30)
	m.addProduct(10, 1, "9.99")
	c := &countingCache{}
	svc := New(Dependencies{Products: productsFake{m}, PricingOptions: optionsFake{m}, Pricing: c})
	ctx := context.Background()

	// the product is repriced and invalidated after the preview read it
	// but before the preview writes it back
	m.afterProductFind = func() {
		m.afterProductFind = nil
		m.setPrice(10, "20.00")
		require.NoError(t, c.Invalidate(ctx, 10))
	}
	racing, err := svc.PricingPreview(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 9.99, racing.Price)

	next, err := svc.PricingPreview(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 20.0, next.Price, "stale write is not served")

	cached, err := svc.PricingPreview(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 20.0, cached.Price)
	assert.Equal(t, 3, c.gets)
}

func TestPricingPreview_CacheDownFallsBackToStore(t *testing.T) {
	m := newMemStore()
	m.addOption(1, 7)
	m.addProduct(10, 1, "3.50")
	svc := New(Dependencies{
		Products: productsFake{m}, PricingOptions: optionsFake{m},
		Pricing: &countingCache{err: errCacheDown},
	})
	p, err := svc.PricingPreview(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 7, p.NbDays)
}

func TestConcurrentCancel_LastWriteWins(t *testing.T) {
	m, _, svc := fixture()
	ctx := context.Background()
	sub, err := svc.Create(ctx, 100, 10)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Cancel(ctx, sub.ID, jan1.Add(time.Duration(i)*time.Minute))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotNil(t, m.subs[sub.ID].CanceledAt)
	assert.Equal(t, sub.ExpiredAt, m.subs[sub.ID].ExpiredAt)
}
