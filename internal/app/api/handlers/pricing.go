package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	subsvc "github.com/fatflowers/backoffice/internal/app/service/subscription"
	"github.com/fatflowers/backoffice/pkg/logctx"
	"github.com/fatflowers/backoffice/pkg/types"
)

type PricingService interface {
	PricingPreview(ctx context.Context, productID int64) (*types.PricingPreview, error)
}

// PricingError is the body of every non-200 pricing response.
type PricingError struct {
	Error string `json:"error"`
}

// @Summary      Product pricing preview
// @Description  Duration and current price a subscription to the product would get. Read only.
// @Tags         Products
// @Produce      json
// @Param        id   path      int  true  "Product ID"
// @Success      200  {object}  types.PricingPreview
// @Failure      400  {object}  handlers.PricingError
// @Failure      404  {object}  handlers.PricingError
// @Router       /products/{id}/pricing [get]
func ApiProductPricing(svc PricingService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, PricingError{Error: "Invalid product ID"})
			return
		}
		preview, err := svc.PricingPreview(c.Request.Context(), id)
		switch {
		case err == nil:
			c.JSON(http.StatusOK, preview)
		case errors.Is(err, subsvc.ErrProductNotFound):
			c.JSON(http.StatusNotFound, PricingError{Error: "Product not found"})
		case errors.Is(err, subsvc.ErrPricingOptionNotFound):
			c.JSON(http.StatusNotFound, PricingError{Error: "Pricing option not found"})
		default:
			logctx.FromGin(c, log).Errorw("pricing preview failed", "product_id", id, "err", err)
			c.JSON(http.StatusInternalServerError, PricingError{Error: "Internal server error"})
		}
	}
}

func RegisterPricingRoutes(r gin.IRouter, svc PricingService, log *zap.SugaredLogger) {
	r.GET("/products/:id/pricing", ApiProductPricing(svc, log))
}
