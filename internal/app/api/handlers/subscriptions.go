package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fatflowers/backoffice/internal/apperr"
	subsvc "github.com/fatflowers/backoffice/internal/app/service/subscription"
	"github.com/fatflowers/backoffice/internal/models"
	"github.com/fatflowers/backoffice/internal/store"
)

type SubscriptionService interface {
	Create(ctx context.Context, userID, productID int64) (*models.Subscription, error)
	Cancel(ctx context.Context, id int64, now time.Time) (*models.Subscription, error)
	Get(ctx context.Context, id int64) (*models.SubscriptionView, error)
	ListAll(ctx context.Context) ([]*models.SubscriptionView, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.SubscriptionView, error)
	Update(ctx context.Context, id int64, in subsvc.UpdateInput) (*models.Subscription, error)
	Delete(ctx context.Context, id int64) error
	Now() time.Time
}

// UserLookup backs the user existence check of the per-user listing.
type UserLookup interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// OpObserver counts engine calls. *metrics.Prometheus satisfies it, nil included.
type OpObserver interface {
	ObserveSubscriptionOp(op, result string)
}

type CreateSubscriptionRequest struct {
	UserID    int64 `json:"user_id" binding:"required,gt=0"`
	ProductID int64 `json:"product_id" binding:"required,gt=0"`
}

type UpdateSubscriptionRequest struct {
	UserID    int64            `json:"user_id" binding:"required"`
	ProductID int64            `json:"product_id" binding:"required"`
	Price     *decimal.Decimal `json:"price" binding:"required" swaggertype:"number"`
	ExpiredAt time.Time        `json:"expired_at" binding:"required"`
}

// SubscriptionItem is a listed subscription with its derived state.
type SubscriptionItem struct {
	*models.SubscriptionView
	IsActive  bool `json:"is_active"`
	WillRenew bool `json:"will_renew"`
}

// SubscriptionDetail is a written subscription with its derived state.
type SubscriptionDetail struct {
	*models.Subscription
	IsActive  bool `json:"is_active"`
	WillRenew bool `json:"will_renew"`
}

func toItems(rows []*models.SubscriptionView, now time.Time) []*SubscriptionItem {
	return lo.Map(rows, func(v *models.SubscriptionView, _ int) *SubscriptionItem {
		return &SubscriptionItem{SubscriptionView: v, IsActive: v.IsActiveAt(now), WillRenew: v.WillRenew()}
	})
}

func toDetail(s *models.Subscription, now time.Time) *SubscriptionDetail {
	return &SubscriptionDetail{Subscription: s, IsActive: s.IsActiveAt(now), WillRenew: s.WillRenew()}
}

func opResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperr.ErrInvalidArgument):
		return "invalid"
	default:
		return "error"
	}
}

type subscriptionHandlers struct {
	svc   SubscriptionService
	users UserLookup
	obs   OpObserver
	log   *zap.SugaredLogger
}

func (h *subscriptionHandlers) observe(op string, err error) {
	if h.obs != nil {
		h.obs.ObserveSubscriptionOp(op, opResult(err))
	}
}

// @Summary      List subscriptions
// @Description  Every subscription, newest first.
// @Tags         Subscriptions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  handlers.RespSubscriptions
// @Router       /api/v1/subscriptions [get]
func (h *subscriptionHandlers) list(c *gin.Context) {
	rows, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, toItems(rows, h.svc.Now()))
}

// @Summary      List a user's subscriptions
// @Description  Newest first. 404 when the user does not exist.
// @Tags         Subscriptions
// @Produce      json
// @Security     BearerAuth
// @Param        user_id   path      int  true  "User ID"
// @Success      200  {object}  handlers.RespSubscriptions
// @Failure      404  {object}  handlers.RespOK
// @Router       /api/v1/subscriptions/user/{user_id} [get]
func (h *subscriptionHandlers) listByUser(c *gin.Context) {
	userID, valid := idParam(c, "user_id")
	if !valid {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.users.GetUser(ctx, userID); err != nil {
		fail(c, h.log, err)
		return
	}
	rows, err := h.svc.ListByUser(ctx, userID)
	h.observe("list_by_user", err)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, toItems(rows, h.svc.Now()))
}

// @Summary      Get subscription
// @Tags         Subscriptions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Subscription ID"
// @Success      200  {object}  handlers.RespSubscription
// @Failure      404  {object}  handlers.RespOK
// @Router       /api/v1/subscriptions/{id} [get]
func (h *subscriptionHandlers) get(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	row, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	now := h.svc.Now()
	ok(c, &SubscriptionItem{SubscriptionView: row, IsActive: row.IsActiveAt(now), WillRenew: row.WillRenew()})
}

// @Summary      Create subscription
// @Description  Snapshots the product price and sets expired_at to now plus the pricing option days.
// @Tags         Subscriptions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateSubscriptionRequest true "Subscription"
// @Success      201  {object}  handlers.RespSubscriptionDetail
// @Failure      400  {object}  handlers.RespOK
// @Failure      404  {object}  handlers.RespOK
// @Router       /api/v1/subscriptions [post]
func (h *subscriptionHandlers) create(c *gin.Context) {
	var req CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.observe("create", apperr.ErrInvalidArgument)
		badRequest(c, "user_id and product_id are required")
		return
	}
	sub, err := h.svc.Create(c.Request.Context(), req.UserID, req.ProductID)
	h.observe("create", err)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	created(c, toDetail(sub, h.svc.Now()))
}

// @Summary      Update subscription
// @Description  Admin correction of user, product, price and expiration. canceled_at is kept.
// @Tags         Subscriptions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Subscription ID"
// @Param        request body UpdateSubscriptionRequest true "Subscription"
// @Success      200  {object}  handlers.RespSubscriptionDetail
// @Failure      400  {object}  handlers.RespOK
// @Router       /api/v1/subscriptions/{id} [put]
func (h *subscriptionHandlers) update(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	var req UpdateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	sub, err := h.svc.Update(c.Request.Context(), id, subsvc.UpdateInput{
		UserID:    req.UserID,
		ProductID: req.ProductID,
		Price:     *req.Price,
		ExpiredAt: req.ExpiredAt,
	})
	h.observe("update", err)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, toDetail(sub, h.svc.Now()))
}

// @Summary      Cancel subscription
// @Description  Stops renewal. Access continues until expired_at.
// @Tags         Subscriptions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Subscription ID"
// @Success      200  {object}  handlers.RespSubscriptionDetail
// @Failure      404  {object}  handlers.RespOK
// @Router       /api/v1/subscriptions/{id}/cancel [post]
func (h *subscriptionHandlers) cancel(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	now := h.svc.Now()
	sub, err := h.svc.Cancel(c.Request.Context(), id, now)
	h.observe("cancel", err)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok(c, toDetail(sub, now))
}

// @Summary      Delete subscription
// @Tags         Subscriptions
// @Security     BearerAuth
// @Param        id   path      int  true  "Subscription ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/subscriptions/{id} [delete]
func (h *subscriptionHandlers) delete(c *gin.Context) {
	id, valid := idParam(c, "id")
	if !valid {
		return
	}
	err := h.svc.Delete(c.Request.Context(), id)
	h.observe("delete", err)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	ok[any](c, nil)
}

// RegisterSubscriptionRoutes expects r to be behind AuthMiddleware. obs may be nil.
func RegisterSubscriptionRoutes(r gin.IRouter, svc SubscriptionService, users UserLookup, obs OpObserver, admin gin.HandlerFunc, log *zap.SugaredLogger) {
	h := &subscriptionHandlers{svc: svc, users: users, obs: obs, log: log}
	g := r.Group("/subscriptions")
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/user/:user_id", h.listByUser)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.POST("/:id/cancel", h.cancel)
	g.DELETE("/:id", admin, h.delete)
}
