package statistics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/fatflowers/backoffice/internal/apperr"
	"github.com/fatflowers/backoffice/internal/models"
	cfgpkg "github.com/fatflowers/backoffice/pkg/config"
)

type StatisticType string

const (
	StatisticTypeTotalCount             StatisticType = "total_count"
	StatisticTypeActiveCount            StatisticType = "active_count"
	StatisticTypeActiveNotRenewingCount StatisticType = "active_not_renewing_count"
	StatisticTypeExpiredCount           StatisticType = "expired_count"
	StatisticTypeDailyNewCount          StatisticType = "daily_new_count"
	// Sum of price snapshots of the subscriptions created each day.
	StatisticTypeDailyRevenue StatisticType = "daily_revenue"
)

// AllStatisticTypes is the default selection.
var AllStatisticTypes = []StatisticType{
	StatisticTypeTotalCount,
	StatisticTypeActiveCount,
	StatisticTypeActiveNotRenewingCount,
	StatisticTypeExpiredCount,
	StatisticTypeDailyNewCount,
	StatisticTypeDailyRevenue,
}

type Request struct {
	DataItems []StatisticType `json:"data_items"`
	// At is the instant active/expired are evaluated against.
	At time.Time `json:"at"`
}

type DataItem struct {
	Date   string           `json:"date,omitempty"`
	Value  int64            `json:"value"`
	Amount *decimal.Decimal `json:"amount,omitempty"`
}

type Response struct {
	At        time.Time                    `json:"at"`
	DataItems map[StatisticType][]DataItem `json:"data_items"`
}

// Service computes subscription statistics with SQL aggregates. Daily
// buckets are calendar days in the configured timezone.
type Service struct {
	db *gorm.DB
	tz string
}

func New(db *gorm.DB, cfg *cfgpkg.Config) *Service {
	tz := "UTC"
	if cfg != nil && cfg.Timezone != "" {
		tz = cfg.Timezone
	}
	return &Service{db: db, tz: tz}
}

var Module = fx.Options(fx.Provide(New))

func (s *Service) table(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Table(models.Subscription{}.TableName())
}

func (s *Service) count(ctx context.Context, scope func(*gorm.DB) *gorm.DB) ([]DataItem, error) {
	var n int64
	if err := scope(s.table(ctx)).Count(&n).Error; err != nil {
		return nil, err
	}
	return []DataItem{{Value: n}}, nil
}

func (s *Service) dailyNew(ctx context.Context) ([]DataItem, error) {
	var rows []DataItem
	err := s.table(ctx).
		Select("TO_CHAR(created_at AT TIME ZONE ?, 'YYYY-MM-DD') AS date, count(*) AS value", s.tz).
		Group("date").
		Order("date DESC").
		Scan(&rows).Error
	return rows, err
}

func (s *Service) dailyRevenue(ctx context.Context) ([]DataItem, error) {
	var rows []struct {
		Date   string
		Value  int64
		Amount decimal.Decimal
	}
	err := s.table(ctx).
		Select("TO_CHAR(created_at AT TIME ZONE ?, 'YYYY-MM-DD') AS date, count(*) AS value, COALESCE(sum(price), 0) AS amount", s.tz).
		Group("date").
		Order("date DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return lo.Map(rows, func(r struct {
		Date   string
		Value  int64
		Amount decimal.Decimal
	}, _ int) DataItem {
		amount := r.Amount
		return DataItem{Date: r.Date, Value: r.Value, Amount: &amount}
	}), nil
}

func (s *Service) get(ctx context.Context, id StatisticType, at time.Time) ([]DataItem, error) {
	switch id {
	case StatisticTypeTotalCount:
		return s.count(ctx, func(q *gorm.DB) *gorm.DB { return q })
	case StatisticTypeActiveCount:
		return s.count(ctx, func(q *gorm.DB) *gorm.DB { return q.Where("expired_at >= ?", at) })
	case StatisticTypeActiveNotRenewingCount:
		return s.count(ctx, func(q *gorm.DB) *gorm.DB {
			return q.Where("expired_at >= ? AND canceled_at IS NOT NULL", at)
		})
	case StatisticTypeExpiredCount:
		return s.count(ctx, func(q *gorm.DB) *gorm.DB { return q.Where("expired_at < ?", at) })
	case StatisticTypeDailyNewCount:
		return s.dailyNew(ctx)
	case StatisticTypeDailyRevenue:
		return s.dailyRevenue(ctx)
	default:
		return nil, apperr.Invalid("unknown data item %q", id)
	}
}

// Compute runs every requested aggregate concurrently.
func (s *Service) Compute(ctx context.Context, req Request) (*Response, error) {
	items := lo.Uniq(req.DataItems)
	if len(items) == 0 {
		items = AllStatisticTypes
	}
	for _, id := range items {
		if !lo.Contains(AllStatisticTypes, id) {
			return nil, apperr.Invalid("unknown data item %q", id)
		}
	}
	at := req.At
	if at.IsZero() {
		at = time.Now()
	}

	var wg sync.WaitGroup
	errChan := make(chan error, len(items))
	resChan := make(chan *lo.Entry[StatisticType, []DataItem], len(items))
	for _, item := range items {
		wg.Add(1)
		go func(id StatisticType) {
			defer wg.Done()
			res, err := s.get(ctx, id, at)
			if err != nil {
				errChan <- fmt.Errorf("%s: %w", id, err)
				return
			}
			resChan <- &lo.Entry[StatisticType, []DataItem]{Key: id, Value: res}
		}(item)
	}
	wg.Wait()
	close(errChan)
	close(resChan)

	if err, ok := <-errChan; ok {
		return nil, err
	}
	results := make(map[StatisticType][]DataItem, len(items))
	for entry := range resChan {
		results[entry.Key] = entry.Value
	}
	return &Response{At: at, DataItems: results}, nil
}
