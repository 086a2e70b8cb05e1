package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/fatflowers/backoffice/internal/app/service/statistics"
)

type StatisticsService interface {
	Compute(ctx context.Context, req statistics.Request) (*statistics.Response, error)
}

// @Summary      Subscription statistics
// @Description  Totals (all, active, active not renewing, expired) and per-day created count and revenue.
// @Tags         Statistics
// @Produce      json
// @Security     BearerAuth
// @Param        items  query     string  false  "Comma separated data items, default all"
// @Param        at     query     string  false  "RFC3339 instant active/expired are evaluated at, default now"
// @Success      200  {object}  handlers.RespStatistics
// @Router       /api/v1/stats/subscriptions [get]
func ApiSubscriptionStatistics(svc StatisticsService, now func() time.Time, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := statistics.Request{At: now()}
		if raw := c.Query("at"); raw != "" {
			at, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				badRequest(c, "at must be RFC3339")
				return
			}
			req.At = at
		}
		if raw := c.Query("items"); raw != "" {
			parts := lo.Compact(lo.Map(strings.Split(raw, ","), func(s string, _ int) string { return strings.TrimSpace(s) }))
			req.DataItems = lo.Map(parts, func(s string, _ int) statistics.StatisticType { return statistics.StatisticType(s) })
		}
		res, err := svc.Compute(c.Request.Context(), req)
		if err != nil {
			fail(c, log, err)
			return
		}
		ok(c, res)
	}
}

func RegisterStatisticsRoutes(r gin.IRouter, svc StatisticsService, now func() time.Time, log *zap.SugaredLogger) {
	r.GET("/stats/subscriptions", ApiSubscriptionStatistics(svc, now, log))
}
