package subscription

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fatflowers/backoffice/internal/models"
	"github.com/fatflowers/backoffice/internal/platform/cache"
	"github.com/fatflowers/backoffice/internal/store"
	"github.com/fatflowers/backoffice/pkg/types"
)

// memStore is an in-memory stand-in for the gorm store used by the engine.
type memStore struct {
	mu       sync.Mutex
	products map[int64]*models.Product
	options  map[int64]*models.PricingOption
	users    map[int64]*models.User
	subs     map[int64]*models.Subscription
	logs     []*models.SubscriptionLog
	nextID   int64
	failWith error
	creates  int
	// afterProductFind runs once a product read has returned its row.
	afterProductFind func()
}

func newMemStore() *memStore {
	return &memStore{
		products: map[int64]*models.Product{},
		options:  map[int64]*models.PricingOption{},
		users:    map[int64]*models.User{},
		subs:     map[int64]*models.Subscription{},
	}
}

func (m *memStore) addOption(id int64, days int) {
	m.options[id] = &models.PricingOption{ID: id, Name: "opt", NbDays: days}
}

func (m *memStore) addProduct(id, optionID int64, price string) {
	m.products[id] = &models.Product{ID: id, ProductTypeID: 1, ProductPricingOptionID: optionID, Price: decimal.RequireFromString(price)}
}

func (m *memStore) setPrice(id int64, price string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[id].Price = decimal.RequireFromString(price)
}

func (m *memStore) addUser(id int64) {
	m.users[id] = &models.User{ID: id, Name: "user", Email: "user@example.com", RoleID: 2}
}

func find[T any](mu *sync.Mutex, rows map[int64]*T, id int64, failWith error) (*T, error) {
	mu.Lock()
	defer mu.Unlock()
	if failWith != nil {
		return nil, failWith
	}
	if id <= 0 {
		return nil, store.ErrNotFound
	}
	r, ok := rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

type productsFake struct{ *memStore }

func (f productsFake) Find(_ context.Context, id int64) (*models.Product, error) {
	p, err := find(&f.mu, f.products, id, f.failWith)
	if hook := f.afterProductFind; hook != nil {
		hook()
	}
	return p, err
}

type optionsFake struct{ *memStore }

func (f optionsFake) Find(_ context.Context, id int64) (*models.PricingOption, error) {
	return find(&f.mu, f.options, id, f.failWith)
}

type usersFake struct{ *memStore }

func (f usersFake) Find(_ context.Context, id int64) (*models.User, error) {
	return find(&f.mu, f.users, id, f.failWith)
}

type subsFake struct{ *memStore }

func (f subsFake) Find(_ context.Context, id int64) (*models.Subscription, error) {
	return find(&f.mu, f.subs, id, f.failWith)
}

func (f subsFake) FindView(ctx context.Context, id int64) (*models.SubscriptionView, error) {
	s, err := f.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	return f.view(s), nil
}

func (f subsFake) view(s *models.Subscription) *models.SubscriptionView {
	return &models.SubscriptionView{
		ID: s.ID, UserID: s.UserID, ProductID: s.ProductID, Price: s.Price,
		ExpiredAt: s.ExpiredAt, CanceledAt: s.CanceledAt, CreatedAt: s.CreatedAt, EditedAt: s.EditedAt,
		UserName: "user", PricingOptionName: "opt",
	}
}

func (f subsFake) Create(_ context.Context, row *models.Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.nextID++
	f.creates++
	row.ID = f.nextID
	cp := *row
	f.subs[row.ID] = &cp
	return nil
}

func (f subsFake) Update(_ context.Context, id int64, row *models.Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.subs[id]
	if !ok {
		return store.ErrNotFound
	}
	cur.UserID, cur.ProductID, cur.Price, cur.ExpiredAt = row.UserID, row.ProductID, row.Price, row.ExpiredAt
	return nil
}

func (f subsFake) SetCanceledAt(_ context.Context, id int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.subs[id]
	if !ok {
		return store.ErrNotFound
	}
	cur.CanceledAt = &at
	return nil
}

func (f subsFake) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.subs[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.subs, id)
	return nil
}

func (f subsFake) list(filter func(*models.Subscription) bool) []*models.SubscriptionView {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.SubscriptionView
	for _, s := range f.subs {
		if filter(s) {
			out = append(out, f.view(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (f subsFake) ListByUser(_ context.Context, userID int64) ([]*models.SubscriptionView, error) {
	return f.list(func(s *models.Subscription) bool { return s.UserID == userID }), nil
}

func (f subsFake) ListAll(_ context.Context) ([]*models.SubscriptionView, error) {
	return f.list(func(*models.Subscription) bool { return true }), nil
}

func (f subsFake) AppendLog(_ context.Context, entry *models.SubscriptionLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, entry)
	return nil
}

func (m *memStore) reasons() []types.SubscriptionChangeReason {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.SubscriptionChangeReason, 0, len(m.logs))
	for _, l := range m.logs {
		out = append(out, l.Reason)
	}
	return out
}

// fakeClock is a settable clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// countingCache versions keys like the redis cache, records hits and can be
// made to fail.
type countingCache struct {
	mu       sync.Mutex
	entries  map[string]types.PricingPreview
	versions map[int64]int
	gen      int
	gets     int
	err      error
}

var errCacheDown = errors.New("cache down")

func newEngine(m *memStore, clock *fakeClock) *Service {
	return New(Dependencies{
		Products:       productsFake{m},
		PricingOptions: optionsFake{m},
		Users:          usersFake{m},
		Subscriptions:  subsFake{m},
		Changes:        subsFake{m},
		Clock:          clock.Now,
		Spawn:          func(f func()) { f() },
	})
}

func (c *countingCache) Key(_ context.Context, id int64) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return "", c.err
	}
	return fmt.Sprintf("%d:%d:%d", c.gen, id, c.versions[id]), nil
}

func (c *countingCache) Get(_ context.Context, key string) (*types.PricingPreview, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.err != nil {
		return nil, c.err
	}
	p, ok := c.entries[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return &p, nil
}

func (c *countingCache) Set(_ context.Context, key string, p *types.PricingPreview) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	if c.entries == nil {
		c.entries = map[string]types.PricingPreview{}
	}
	c.entries[key] = *p
	return nil
}

func (c *countingCache) Invalidate(_ context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.versions == nil {
		c.versions = map[int64]int{}
	}
	c.versions[id]++
	return nil
}

func (c *countingCache) InvalidateAll(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	return nil
}
