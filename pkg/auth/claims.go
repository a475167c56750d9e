package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/marcuschung/assetflow-backend/pkg/authz"
	"github.com/marcuschung/assetflow-backend/pkg/enums"
)

// ActorTokenPayload captures the data available when minting a token.
type ActorTokenPayload struct {
	ActorID   uuid.UUID
	Role      enums.ActorRole
	Superuser bool
	JTI       string
}

// ActorTokenClaims is the typed JWT the identity provider issues per actor.
type ActorTokenClaims struct {
	ActorID   uuid.UUID       `json:"actor_id"`
	Role      enums.ActorRole `json:"role"`
	Superuser bool            `json:"superuser"`
	jwt.RegisteredClaims
}

// Actor converts the claims into the policy actor passed to the engines.
func (c *ActorTokenClaims) Actor() authz.Actor {
	if c == nil {
		return authz.Actor{}
	}
	return authz.Actor{ID: c.ActorID, Role: c.Role, Superuser: c.Superuser}
}
