package account

import "context"

// Actor is the authenticated caller. Handlers use it for authorization;
// the subscription engine never sees it.
type Actor struct {
	UserID  int64 `json:"user_id"`
	RoleID  int64 `json:"role_id"`
	IsAdmin bool  `json:"is_admin"`
}

func NewActor(userID, roleID, adminRoleID int64) Actor {
	return Actor{UserID: userID, RoleID: roleID, IsAdmin: roleID == adminRoleID}
}

type actorKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

func ActorFromCtx(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}
