package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/backoffice/internal/app/service/account"
	"github.com/fatflowers/backoffice/pkg/logctx"
	"github.com/fatflowers/backoffice/pkg/response"
)

const ActorKey = "actor"

// Authenticator resolves a bearer token to an actor.
type Authenticator interface {
	Authenticate(token string) (account.Actor, error)
}

func abort(c *gin.Context, code response.APIResponseCode, msg string) {
	c.AbortWithStatusJSON(code.HTTPStatus(), response.ErrorT[any](code, msg))
}

// AuthMiddleware requires a valid "Authorization: Bearer <token>" header and
// stores the actor in gin.Context (key: "actor") and the request context.
func AuthMiddleware(auth Authenticator, base *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(strings.TrimSpace(scheme), "Bearer") || strings.TrimSpace(token) == "" {
			abort(c, response.APIResponseCodeUnauthorized, "missing bearer token")
			return
		}
		actor, err := auth.Authenticate(strings.TrimSpace(token))
		if err != nil {
			logctx.FromGin(c, base).Infow("authentication failed", "err", err)
			abort(c, response.APIResponseCodeUnauthorized, "invalid or expired token")
			return
		}

		c.Set(ActorKey, actor)
		ctx := account.WithActor(c.Request.Context(), actor)
		ctx = logctx.WithActorID(ctx, actor.UserID)
		c.Request = c.Request.WithContext(ctx)
		setLogger(c, logctx.FromGin(c, base).With("actor_id", actor.UserID))
		c.Next()
	}
}

// RequireAdmin must run after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			abort(c, response.APIResponseCodeUnauthorized, "not authenticated")
			return
		}
		if !actor.IsAdmin {
			abort(c, response.APIResponseCodeForbidden, "admin role required")
			return
		}
		c.Next()
	}
}

func ActorFrom(c *gin.Context) (account.Actor, bool) {
	v, ok := c.Get(ActorKey)
	if !ok {
		return account.Actor{}, false
	}
	a, ok := v.(account.Actor)
	return a, ok
}
