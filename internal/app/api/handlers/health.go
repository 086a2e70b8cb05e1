package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/backoffice/pkg/response"
)

const readyTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// @Summary      Health check
// @Description  Returns service status
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /healthz [get]
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, response.OKT(map[string]string{"status": "ok"}))
}

// @Summary      Readiness check
// @Description  Pings the database.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      500  {object}  handlers.RespOK
// @Router       /readyz [get]
func ApiReadyz(db Pinger, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			fail(c, log, err)
			return
		}
		ok(c, map[string]string{"status": "ready"})
	}
}

// RegisterHealthRoutes mounts /healthz, and /readyz when db is not nil.
func RegisterHealthRoutes(r gin.IRouter, db Pinger, log *zap.SugaredLogger) {
	r.GET("/healthz", Healthz)
	if db != nil {
		r.GET("/readyz", ApiReadyz(db, log))
	}
}
