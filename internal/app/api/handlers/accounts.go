package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	mw "github.com/fatflowers/backoffice/internal/app/api/middleware"
	"github.com/fatflowers/backoffice/internal/app/service/account"
	"github.com/fatflowers/backoffice/internal/models"
)

type AccountService interface {
	ListRoles(ctx context.Context) ([]*models.Role, error)
	GetRole(ctx context.Context, id int64) (*models.Role, error)
	CreateRole(ctx context.Context, name string) (*models.Role, error)
	UpdateRole(ctx context.Context, id int64, name string) (*models.Role, error)
	DeleteRole(ctx context.Context, id int64) error

	ListUsers(ctx context.Context) ([]*models.UserView, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	CreateUser(ctx context.Context, actor account.Actor, in account.UserInput) (*models.User, error)
	UpdateUser(ctx context.Context, actor account.Actor, id int64, in account.UserInput) (*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

type NameRequest struct {
	Name string `json:"name" binding:"required"`
}

type UserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password"`
	RoleID   int64  `json:"role_id" binding:"required"`
}

func (r UserRequest) input() account.UserInput {
	return account.UserInput{Name: r.Name, Email: r.Email, Password: r.Password, RoleID: r.RoleID}
}

// Roles

// @Summary      List roles
// @Tags         Roles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  handlers.RespRoles
// @Router       /api/v1/roles [get]
func ApiListRoles(svc AccountService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := svc.ListRoles(c.Request.Context())
		if err != nil {
			fail(c, log, err)
			return
		}
		ok(c, rows)
	}
}

// @Summary      Get role
// @Tags         Roles
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Role ID"
// @Success      200  {object}  handlers.RespRole
// @Failure      404  {object}  handlers.RespOK
// @Router       /api/v1/roles/{id} [get]
func ApiGetRole(svc AccountService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := idParam(c, "id")
		if !valid {
			return
		}
		row, err := svc.GetRole(c.Request.Context(), id)
		if err != nil {
			fail(c, log, err)
			return
		}
		ok(c, row)
	}
}

// @Summary      Create role
// @Tags         Roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body NameRequest true "Role"
// @Success      201  {object}  handlers.RespRole
// @Router       /api/v1/roles [post]
func ApiCreateRole(svc AccountService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req NameRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		row, err := svc.CreateRole(c.Request.Context(), req.Name)
		if err != nil {
			fail(c, log, err)
			return
		}
		created(c, row)
	}
}

// @Summary      Update role
// @Tags         Roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Role ID"
// @Param        request body NameRequest true "Role"
// @Success      200  {object}  handlers.RespRole
// @Router       /api/v1/roles/{id} [put]
func ApiUpdateRole(svc AccountService, log *zap.SugaredLogger) gin.HandlerFunc {
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
		row, err := svc.UpdateRole(c.Request.Context(), id, req.Name)
		if err != nil {
			fail(c, log, err)
			return
		}
		ok(c, row)
	}
}

// @Summary      Delete role
// @Tags         Roles
// @Security     BearerAuth
// @Param        id   path      int  true  "Role ID"
// @Success      200  {object}  handlers.RespOK
// @Failure      409  {object}  handlers.RespOK
// @Router       /api/v1/roles/{id} [delete]
func ApiDeleteRole(svc AccountService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := idParam(c, "id")
		if !valid {
			return
		}
		if err := svc.DeleteRole(c.Request.Context(), id); err != nil {
			fail(c, log, err)
			return
		}
		ok[any](c, nil)
	}
}

// Users

// @Summary      List users
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  handlers.RespUsers
// @Router       /api/v1/users [get]
func ApiListUsers(svc AccountService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := svc.ListUsers(c.Request.Context())
		if err != nil {
			fail(c, log, err)
			return
		}
		ok(c, rows)
	}
}

// @Summary      Get user
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  handlers.RespUser
// @Router       /api/v1/users/{id} [get]
func ApiGetUser(svc AccountService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := idParam(c, "id")
		if !valid {
			return
		}
		row, err := svc.GetUser(c.Request.Context(), id)
		if err != nil {
			fail(c, log, err)
			return
		}
		ok(c, row)
	}
}

// @Summary      Create user
// @Description  Non-admin callers cannot create admin users.
// @Tags         Users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body UserRequest true "User"
// @Success      201  {object}  handlers.RespUser
// @Failure      403  {object}  handlers.RespOK
// @Router       /api/v1/users [post]
func ApiCreateUser(svc AccountService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		actor, _ := mw.ActorFrom(c)
		row, err := svc.CreateUser(c.Request.Context(), actor, req.input())
		if err != nil {
			fail(c, log, err)
			return
		}
		created(c, row)
	}
}

// @Summary      Update user
// @Description  An empty password keeps the current one.
// @Tags         Users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Param        request body UserRequest true "User"
// @Success      200  {object}  handlers.RespUser
// @Router       /api/v1/users/{id} [put]
func ApiUpdateUser(svc AccountService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := idParam(c, "id")
		if !valid {
			return
		}
		var req UserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		actor, _ := mw.ActorFrom(c)
		row, err := svc.UpdateUser(c.Request.Context(), actor, id, req.input())
		if err != nil {
			fail(c, log, err)
			return
		}
		ok(c, row)
	}
}

// @Summary      Delete user
// @Tags         Users
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/users/{id} [delete]
func ApiDeleteUser(svc AccountService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := idParam(c, "id")
		if !valid {
			return
		}
		if err := svc.DeleteUser(c.Request.Context(), id); err != nil {
			fail(c, log, err)
			return
		}
		ok[any](c, nil)
	}
}

// RegisterAccountRoutes expects r to be behind AuthMiddleware. admin guards
// the admin-only routes.
func RegisterAccountRoutes(r gin.IRouter, svc AccountService, admin gin.HandlerFunc, log *zap.SugaredLogger) {
	roles := r.Group("/roles")
	roles.GET("", ApiListRoles(svc, log))
	roles.POST("", admin, ApiCreateRole(svc, log))
	roles.GET("/:id", ApiGetRole(svc, log))
	roles.PUT("/:id", ApiUpdateRole(svc, log))
	roles.DELETE("/:id", admin, ApiDeleteRole(svc, log))

	users := r.Group("/users")
	users.GET("", ApiListUsers(svc, log))
	users.POST("", ApiCreateUser(svc, log))
	users.GET("/:id", admin, ApiGetUser(svc, log))
	users.PUT("/:id", admin, ApiUpdateUser(svc, log))
	users.DELETE("/:id", admin, ApiDeleteUser(svc, log))
}
