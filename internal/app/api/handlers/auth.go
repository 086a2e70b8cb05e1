package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/backoffice/internal/app/service/account"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginService interface {
	Login(ctx context.Context, email, password string) (*account.LoginResult, error)
}

// @Summary      Login
// @Description  Exchanges email and password for a bearer token.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Credentials"
// @Success      200  {object}  handlers.RespLogin
// @Failure      401  {object}  handlers.RespOK
// @Failure      429  {object}  handlers.RespOK
// @Router       /api/v1/auth/login [post]
func ApiLogin(svc LoginService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		res, err := svc.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			fail(c, log, err)
			return
		}
		ok(c, res)
	}
}

// RegisterAuthRoutes mounts login. limit runs before the handler.
func RegisterAuthRoutes(r gin.IRouter, svc LoginService, limit gin.HandlerFunc, log *zap.SugaredLogger) {
	r.POST("/auth/login", limit, ApiLogin(svc, log))
}
