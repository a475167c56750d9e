package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/marcuschung/assetflow-backend/api/responses"
	pkgauth "github.com/marcuschung/assetflow-backend/pkg/auth"
	"github.com/marcuschung/assetflow-backend/pkg/config"
	pkgerrors "github.com/marcuschung/assetflow-backend/pkg/errors"
	"github.com/marcuschung/assetflow-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the
// actor claims.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseActorToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxActorID, claims.ActorID.String())
			ctx = context.WithValue(ctx, ctxRole, string(claims.Role))
			ctx = context.WithValue(ctx, ctxSuperuser, claims.Superuser)

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"actor_id":   claims.ActorID.String(),
					"actor_role": string(claims.Role),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
