package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/fatflowers/backoffice/internal/app/api/server"
	"github.com/fatflowers/backoffice/internal/app/service/account"
	"github.com/fatflowers/backoffice/internal/app/service/catalog"
	"github.com/fatflowers/backoffice/internal/app/service/statistics"
	"github.com/fatflowers/backoffice/internal/app/service/subscription"
	"github.com/fatflowers/backoffice/internal/platform/cache"
	"github.com/fatflowers/backoffice/internal/platform/db"
	"github.com/fatflowers/backoffice/internal/store"
	"github.com/fatflowers/backoffice/pkg/config"
	"github.com/fatflowers/backoffice/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

// CoreModule is everything but the HTTP server; the CLI runs on it.
var CoreModule = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	store.Module,
	cache.Module,
	account.Module,
	catalog.Module,
	subscription.Module,
	statistics.Module,
)

var Module = fx.Options(
	CoreModule,
	server.Module,
)
