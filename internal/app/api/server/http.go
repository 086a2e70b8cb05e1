package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fatflowers/backoffice/docs"
	"github.com/fatflowers/backoffice/internal/app/api/handlers"
	mw "github.com/fatflowers/backoffice/internal/app/api/middleware"
	"github.com/fatflowers/backoffice/internal/app/service/account"
	"github.com/fatflowers/backoffice/internal/app/service/catalog"
	"github.com/fatflowers/backoffice/internal/app/service/statistics"
	subsvc "github.com/fatflowers/backoffice/internal/app/service/subscription"
	cfgpkg "github.com/fatflowers/backoffice/pkg/config"
	metrics "github.com/fatflowers/backoffice/pkg/metrics"
)

const loginLimiterTTL = 10 * time.Minute

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// request logger & access log are attached per group in registerRoutes
	r.Use(mw.TraceMiddleware())
	return r
}

// newPrometheus returns nil when metrics_addr is empty; the handlers accept a nil observer.
func newPrometheus(cfg *cfgpkg.Config, log *zap.SugaredLogger) *metrics.Prometheus {
	if cfg == nil || cfg.MetricsAddr == "" {
		return nil
	}
	return metrics.NewPrometheus(metrics.NewPrometheusOptions{
		Subsystem: "backoffice",
		ReqCntURLLabelMappingFn: func(c *gin.Context) string {
			if fp := c.FullPath(); fp != "" {
				return fp
			}
			return c.Request.URL.Path
		},
		Logger: log,
	})
}

type routeDeps struct {
	fx.In

	Log      *zap.SugaredLogger
	Cfg      *cfgpkg.Config
	DB       *gorm.DB `optional:"true"`
	Prom     *metrics.Prometheus `optional:"true"`
	Accounts *account.Service
	Catalog  *catalog.Service
	Subs     *subsvc.Service
	Stats    *statistics.Service
}

func registerRoutes(r *gin.Engine, d routeDeps) {
	log := d.Log
	if d.Prom != nil {
		d.Prom.SetListenAddress(d.Cfg.MetricsAddr)
		d.Prom.Use(r)
		log.Infow("metrics started", "addr", d.Cfg.MetricsAddr)
	}

	// Public group: request logger + access log
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(log))
	var pinger handlers.Pinger
	if d.DB != nil {
		if sqlDB, err := d.DB.DB(); err == nil {
			pinger = sqlDB
		}
	}
	handlers.RegisterHealthRoutes(pub, pinger, log)
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	limiter := mw.NewRateLimiter(d.Cfg.RateLimit.RPS, d.Cfg.RateLimit.Burst, loginLimiterTTL)
	auth := mw.AuthMiddleware(d.Accounts, log)
	admin := mw.RequireAdmin()

	apiV1 := r.Group("/api/v1")
	apiV1.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(log))
	handlers.RegisterAuthRoutes(apiV1, d.Accounts, mw.RateLimitMiddleware(limiter), log)

	private := apiV1.Group("")
	private.Use(auth)
	handlers.RegisterAccountRoutes(private, d.Accounts, admin, log)
	handlers.RegisterCatalogRoutes(private, d.Catalog, admin, log)
	handlers.RegisterSubscriptionRoutes(private, d.Subs, d.Accounts, d.Prom, admin, log)
	handlers.RegisterStatisticsRoutes(private, d.Stats, d.Subs.Now, log)

	// pricing keeps its historical unversioned path
	pricing := r.Group("/")
	pricing.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(log), auth)
	handlers.RegisterPricingRoutes(pricing, d.Subs, log)
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Options(
	fx.Provide(newEngine, newPrometheus),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
