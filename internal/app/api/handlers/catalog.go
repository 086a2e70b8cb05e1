package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fatflowers/backoffice/internal/app/service/catalog"
	"github.com/fatflowers/backoffice/internal/models"
)

type CatalogService interface {
	ListProductTypes(ctx context.Context) ([]*models.ProductType, error)
	GetProductType(ctx context.Context, id int64) (*models.ProductType, error)
	CreateProductType(ctx context.Context, name string) (*models.ProductType, error)
	UpdateProductType(ctx context.Context, id int64, name string) (*models.ProductType, error)
	DeleteProductType(ctx context.Context, id int64) error

	ListPricingOptions(ctx context.Context) ([]*models.PricingOption, error)
	GetPricingOption(ctx context.Context, id int64) (*models.PricingOption, error)
	CreatePricingOption(ctx context.Context, in catalog.PricingOptionInput) (*models.PricingOption, error)
	UpdatePricingOption(ctx context.Context, id int64, in catalog.PricingOptionInput) (*models.PricingOption, error)
	DeletePricingOption(ctx context.Context, id int64) error

	ListProducts(ctx context.Context) ([]*models.ProductView, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	CreateProduct(ctx context.Context, in catalog.ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id int64, in catalog.ProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

type PricingOptionRequest struct {
	Name   string `json:"name" binding:"required"`
	NbDays int    `json:"nb_days" binding:"required,gt=0"`
}

type ProductRequest struct {
	ProductTypeID          int64 `json:"product_type_id" binding:"required"`
	ProductPricingOptionID int64 `json:"product_pricing_option_id" binding:"required"`
	// Accepts a JSON number or string.
	Price decimal.Decimal `json:"price" swaggertype:"number"`
}

// Product types

// @Summary      List product types
// @Tags         Catalog
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  handlers.RespProductTypes
// @Router       /api/v1/product-types [get]
func ApiListProductTypes(svc CatalogService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := svc.ListProductTypes(c.Request.Context())
		if err != nil {
			fail(c, log, err)
			return
		}
		ok(c, rows)
	}
}

// @Summary      Get product type
// @Tags         Catalog
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Product type ID"
// @Success      200  {object}  handlers.RespProductType
// @Router       /api/v1/product-types/{id} [get]
func ApiGetProductType(svc CatalogService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := idParam(c, "id")
		if !valid {
			return
		}
		row, err := svc.GetProductType(c.Request.Context(), id)
		if err != nil {
			fail(c, log, err)
			return
		}
		ok(c, row)
	}
}

// @Summary      Create product type
// @Tags         Catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body NameRequest true "Product type"
// @Success      201  {object}  handlers.RespProductType
// @Router       /api/v1/product-types [post]
func ApiCreateProductType(svc CatalogService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req NameRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		row, err := svc.CreateProductType(c.Request.Context(), req.Name)
		if err != nil {
			fail(c, log, err)
			return
		}
		created(c, row)
	}
}

// @Summary      Update product type
// @Tags         Catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Product type ID"
// @Param        request body NameRequest true "Product type"
// @Success      200  {object}  handlers.RespProductType
// @Router       /api/v1/product-types/{id} [put]
func ApiUpdateProductType(svc CatalogService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := idParam(c, "id")
		if !valid {
			return
		}
		var req NameRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		row, err := svc.UpdateProductType(c.Request.Context(), id, req.Name)
		if err != nil {
			fail(c, log, err)
			return
		}
		ok(c, row)
	}
}

// @Summary      Delete product type
// @Tags         Catalog
// @Security     BearerAuth
// @Param        id   path      int  true  "Product type ID"
// @Success      200  {object}  handlers.RespOK
// @Failure      409  {object}  handlers.RespOK
// @Router       /api/v1/product-types/{id} [delete]
func ApiDeleteProductType(svc CatalogService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := idParam(c, "id")
		if !valid {
			return
		}
		if err := svc.DeleteProductType(c.Request.Context(), id); err != nil {
			fail(c, log, err)
			return
		}
		ok[any](c, nil)
	}
}

// Pricing options

// @Summary      List pricing options
// @Tags         Catalog
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  handlers.RespPricingOptions
// @Router       /api/v1/pricing-options [get]
func ApiListPricingOptions(svc CatalogService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := svc.ListPricingOptions(c.Request.Context())
		if err != nil {
			fail(c, log, err)
			return
		}
		ok(c, rows)
	}
}

// @Summary      Get pricing option
// @Tags         Catalog
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Pricing option ID"
// @Success      200  {object}  handlers.RespPricingOption
// @Router       /api/v1/pricing-options/{id} [get]
func ApiGetPricingOption(svc CatalogService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := idParam(c, "id")
		if !valid {
			return
		}
		row, err := svc.GetPricingOption(c.Request.Context(), id)
		if err != nil {
			fail(c, log, err)
			return
		}
		ok(c, row)
	}
}

// @Summary      Create pricing option
// @Tags         Catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body PricingOptionRequest true "Pricing option"
// @Success      201  {object}  handlers.RespPricingOption
// @Router       /api/v1/pricing-options [post]
func ApiCreatePricingOption(svc CatalogService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PricingOptionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		row, err := svc.CreatePricingOption(c.Request.Context(), catalog.PricingOptionInput{Name: req.Name, NbDays: req.NbDays})
		if err != nil {
			fail(c, log, err)
			return
		}
		created(c, row)
	}
}

// @Summary      Update pricing option
// @Description  Affects subscriptions created afterwards only.
// @Tags         Catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Pricing option ID"
// @Param        request body PricingOptionRequest true "Pricing option"
// @Success      200  {object}  handlers.RespPricingOption
// @Router       /api/v1/pricing-options/{id} [put]
func ApiUpdatePricingOption(svc CatalogService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := idParam(c, "id")
		if !valid {
			return
		}
		var req PricingOptionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		row, err := svc.UpdatePricingOption(c.Request.Context(), id, catalog.PricingOptionInput{Name: req.Name, NbDays: req.NbDays})
		if err != nil {
			fail(c, log, err)
			return
		}
		ok(c, row)
	}
}

// @Summary      Delete pricing option
// @Tags         Catalog
// @Security     BearerAuth
// @Param        id   path      int  true  "Pricing option ID"
// @Success      200  {object}  handlers.RespOK
// @Failure      409  {object}  handlers.RespOK
// @Router       /api/v1/pricing-options/{id} [delete]
func ApiDeletePricingOption(svc CatalogService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := idParam(c, "id")
		if !valid {
			return
		}
		if err := svc.DeletePricingOption(c.Request.Context(), id); err != nil {
			fail(c, log, err)
			return
		}
		ok[any](c, nil)
	}
}

// Products

// @Summary      List products
// @Description  Products with their type and pricing option names.
// @Tags         Catalog
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  handlers.RespProducts
// @Router       /api/v1/products [get]
func ApiListProducts(svc CatalogService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := svc.ListProducts(c.Request.Context())
		if err != nil {
			fail(c, log, err)
			return
		}
		ok(c, rows)
	}
}

// @Summary      Get product
// @Tags         Catalog
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Product ID"
// @Success      200  {object}  handlers.RespProduct
// @Router       /api/v1/products/{id} [get]
func ApiGetProduct(svc CatalogService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := idParam(c, "id")
		if !valid {
			return
		}
		row, err := svc.GetProduct(c.Request.Context(), id)
		if err != nil {
			fail(c, log, err)
			return
		}
		ok(c, row)
	}
}

// @Summary      Create product
// @Tags         Catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ProductRequest true "Product"
// @Success      201  {object}  handlers.RespProduct
// @Router       /api/v1/products [post]
func ApiCreateProduct(svc CatalogService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		row, err := svc.CreateProduct(c.Request.Context(), req.input())
		if err != nil {
			fail(c, log, err)
			return
		}
		created(c, row)
	}
}

// @Summary      Update product
// @Description  Existing subscriptions keep the price they were created with.
// @Tags         Catalog
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Product ID"
// @Param        request body ProductRequest true "Product"
// @Success      200  {object}  handlers.RespProduct
// @Router       /api/v1/products/{id} [put]
func ApiUpdateProduct(svc CatalogService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := idParam(c, "id")
		if !valid {
			return
		}
		var req ProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		row, err := svc.UpdateProduct(c.Request.Context(), id, req.input())
		if err != nil {
			fail(c, log, err)
			return
		}
		ok(c, row)
	}
}

// @Summary      Delete product
// @Tags         Catalog
// @Security     BearerAuth
// @Param        id   path      int  true  "Product ID"
// @Success      200  {object}  handlers.RespOK
// @Failure      409  {object}  handlers.RespOK
// @Router       /api/v1/products/{id} [delete]
func ApiDeleteProduct(svc CatalogService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := idParam(c, "id")
		if !valid {
			return
		}
		if err := svc.DeleteProduct(c.Request.Context(), id); err != nil {
			fail(c, log, err)
			return
		}
		ok[any](c, nil)
	}
}

func (r ProductRequest) input() catalog.ProductInput {
	return catalog.ProductInput{
		ProductTypeID:          r.ProductTypeID,
		ProductPricingOptionID: r.ProductPricingOptionID,
		Price:                  r.Price,
	}
}

// RegisterCatalogRoutes expects r to be behind AuthMiddleware.
func RegisterCatalogRoutes(r gin.IRouter, svc CatalogService, admin gin.HandlerFunc, log *zap.SugaredLogger) {
	types := r.Group("/product-types")
	types.GET("", ApiListProductTypes(svc, log))
	types.POST("", admin, ApiCreateProductType(svc, log))
	types.GET("/:id", admin, ApiGetProductType(svc, log))
	types.PUT("/:id", admin, ApiUpdateProductType(svc, log))
	types.DELETE("/:id", admin, ApiDeleteProductType(svc, log))

	options := r.Group("/pricing-options")
	options.GET("", ApiListPricingOptions(svc, log))
	options.POST("", admin, ApiCreatePricingOption(svc, log))
	options.GET("/:id", admin, ApiGetPricingOption(svc, log))
	options.PUT("/:id", admin, ApiUpdatePricingOption(svc, log))
	options.DELETE("/:id", admin, ApiDeletePricingOption(svc, log))

	products := r.Group("/products")
	products.GET("", ApiListProducts(svc, log))
	products.POST("", ApiCreateProduct(svc, log))
	products.GET("/:id", admin, ApiGetProduct(svc, log))
	products.PUT("/:id", admin, ApiUpdateProduct(svc, log))
	products.DELETE("/:id", admin, ApiDeleteProduct(svc, log))
}
