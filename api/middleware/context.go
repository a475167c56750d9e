package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/marcuschung/assetflow-backend/pkg/authz"
	"github.com/marcuschung/assetflow-backend/pkg/enums"
	pkgerrors "github.com/marcuschung/assetflow-backend/pkg/errors"
)

type contextKey string

const (
	ctxActorID   contextKey = "actor_id"
	ctxRole      contextKey = "actor_role"
	ctxSuperuser contextKey = "actor_superuser"
)

func ActorIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxActorID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

func SuperuserFromContext(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	if v, ok := ctx.Value(ctxSuperuser).(bool); ok {
		return v
	}
	return false
}

// ActorFromContext rebuilds the policy actor seeded by the Auth middleware.
func ActorFromContext(ctx context.Context) (authz.Actor, error) {
	rawID := ActorIDFromContext(ctx)
	if rawID == "" {
		return authz.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	actorID, err := uuid.Parse(rawID)
	if err != nil {
		return authz.Actor{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid actor id")
	}
	role := enums.ActorRole(RoleFromContext(ctx))
	if !role.IsValid() {
		return authz.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid actor role")
	}
	return authz.Actor{
		ID:        actorID,
		Role:      role,
		Superuser: SuperuserFromContext(ctx),
	}, nil
}

// WithActor injects actor claims into the context. Intended for tests and
// internal tooling that bypass the HTTP auth layer.
func WithActor(ctx context.Context, actor authz.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxActorID, actor.ID.String())
	ctx = context.WithValue(ctx, ctxRole, string(actor.Role))
	ctx = context.WithValue(ctx, ctxSuperuser, actor.Superuser)
	return ctx
}
