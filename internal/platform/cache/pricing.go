package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	cfgpkg "github.com/fatflowers/backoffice/pkg/config"
	"github.com/fatflowers/backoffice/pkg/types"
)

const (
	pricingGenKey        = "pricing:gen"
	pricingVersionFormat = "pricing:ver:%d"
	pricingKeyFormat     = "pricing:v%d:%d:%d"
)

var ErrCacheMiss = errors.New("cache miss")

// PricingCache holds pricing previews. Entries live under a key that embeds
// the global and per-product versions current when Key was called.
//
// Readers resolve the key before reading the store and Set under that same
// key. An invalidation in between moves the key, so the stale write lands
// on an entry no reader resolves again.
type PricingCache interface {
	// Key resolves the current entry key for productID. An empty key
	// means the preview is not cacheable.
	Key(ctx context.Context, productID int64) (string, error)
	Get(ctx context.Context, key string) (*types.PricingPreview, error)
	Set(ctx context.Context, key string, preview *types.PricingPreview) error
	// Invalidate retires one product's entry.
	Invalidate(ctx context.Context, productID int64) error
	// InvalidateAll retires every entry, used when a pricing option changes.
	InvalidateAll(ctx context.Context) error
}

// RedisPricingCache stores previews as JSON. Invalidation is an INCR of a
// version counter; retired entries expire with their TTL.
type RedisPricingCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisPricingCache(client *redis.Client, ttl time.Duration) *RedisPricingCache {
	return &RedisPricingCache{client: client, ttl: ttl}
}

func versionKey(productID int64) string {
	return fmt.Sprintf(pricingVersionFormat, productID)
}

func parseCounter(v interface{}) (int64, error) {
	if v == nil {
		return 0, nil
	}
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected counter type %T", v)
	}
	return strconv.ParseInt(s, 10, 64)
}

func (r *RedisPricingCache) Key(ctx context.Context, productID int64) (string, error) {
	vals, err := r.client.MGet(ctx, pricingGenKey, versionKey(productID)).Result()
	if err != nil {
		return "", fmt.Errorf("redis mget versions: %w", err)
	}
	gen, err := parseCounter(vals[0])
	if err != nil {
		return "", fmt.Errorf("parse generation: %w", err)
	}
	ver, err := parseCounter(vals[1])
	if err != nil {
		return "", fmt.Errorf("parse version: %w", err)
	}
	return fmt.Sprintf(pricingKeyFormat, gen, productID, ver), nil
}

func (r *RedisPricingCache) Get(ctx context.Context, key string) (*types.PricingPreview, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get error: %w", err)
	}
	var preview types.PricingPreview
	if err := json.Unmarshal(data, &preview); err != nil {
		return nil, fmt.Errorf("unmarshal error: %w", err)
	}
	return &preview, nil
}

func (r *RedisPricingCache) Set(ctx context.Context, key string, preview *types.PricingPreview) error {
	data, err := json.Marshal(preview)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set error: %w", err)
	}
	return nil
}

func (r *RedisPricingCache) Invalidate(ctx context.Context, productID int64) error {
	if err := r.client.Incr(ctx, versionKey(productID)).Err(); err != nil {
		return fmt.Errorf("redis incr error: %w", err)
	}
	return nil
}

func (r *RedisPricingCache) InvalidateAll(ctx context.Context) error {
	if err := r.client.Incr(ctx, pricingGenKey).Err(); err != nil {
		return fmt.Errorf("redis incr error: %w", err)
	}
	return nil
}

// NopPricingCache never resolves a key and always misses.
type NopPricingCache struct{}

func (NopPricingCache) Key(context.Context, int64) (string, error) { return "", nil }
func (NopPricingCache) Get(context.Context, string) (*types.PricingPreview, error) {
	return nil, ErrCacheMiss
}
func (NopPricingCache) Set(context.Context, string, *types.PricingPreview) error { return nil }
func (NopPricingCache) Invalidate(context.Context, int64) error                  { return nil }
func (NopPricingCache) InvalidateAll(context.Context) error                      { return nil }

// NewPricingCache returns the redis cache when redis.addr is set, otherwise a no-op.
func NewPricingCache(lc fx.Lifecycle, cfg *cfgpkg.Config, l *zap.SugaredLogger) PricingCache {
	if cfg.Redis.Addr == "" {
		l.Infow("pricing cache disabled")
		return NopPricingCache{}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				// the cache is optional; previews fall back to the database
				l.Warnw("redis ping failed", "addr", cfg.Redis.Addr, "err", err)
				return nil
			}
			l.Infow("redis connected", "addr", cfg.Redis.Addr, "db", strconv.Itoa(cfg.Redis.DB))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return NewRedisPricingCache(client, cfg.Redis.PricingTTL)
}

var Module = fx.Options(fx.Provide(NewPricingCache))
